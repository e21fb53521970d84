package async

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/joseph-ayodele/taxdocs/internal/core"
)

type recorder struct {
	mu       sync.Mutex
	paths    []string
	inflight atomic.Int32
	overlap  atomic.Bool
}

func (r *recorder) ProcessPath(_ context.Context, year int, path string) (core.FileResult, error) {
	if r.inflight.Add(1) > 1 {
		r.overlap.Store(true)
	}
	defer r.inflight.Add(-1)
	time.Sleep(2 * time.Millisecond)
	r.mu.Lock()
	r.paths = append(r.paths, fmt.Sprintf("%d:%s", year, path))
	r.mu.Unlock()
	if path == "bad.pdf" {
		return core.FileResult{}, errors.New("boom")
	}
	return core.FileResult{Path: path, Outcome: core.OutcomeValidated}, nil
}

func TestQueue_SerialInOrder(t *testing.T) {
	rec := &recorder{}
	var hooked atomic.Int32
	q := NewProcessorQueue(rec, nil, WithQueueSize(2), WithResultHook(func(Job, core.FileResult, error) {
		hooked.Add(1)
	}))

	ctx := context.Background()
	want := []string{"a.pdf", "bad.pdf", "c.pdf", "d.pdf", "e.pdf"}
	for _, p := range want {
		if err := q.Enqueue(ctx, Job{Path: p, Year: 2024}); err != nil {
			t.Fatalf("enqueue %s: %v", p, err)
		}
	}
	q.Shutdown(ctx)

	if rec.overlap.Load() {
		t.Fatal("jobs ran concurrently")
	}
	if len(rec.paths) != len(want) {
		t.Fatalf("processed %v", rec.paths)
	}
	for i, p := range want {
		if rec.paths[i] != "2024:"+p {
			t.Fatalf("order = %v", rec.paths)
		}
	}
	if hooked.Load() != int32(len(want)) {
		t.Fatalf("hook called %d times", hooked.Load())
	}
}

func TestQueue_RejectsAfterShutdown(t *testing.T) {
	q := NewProcessorQueue(&recorder{}, nil)
	q.Shutdown(context.Background())
	if err := q.Enqueue(context.Background(), Job{Path: "late.pdf"}); !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("expected ErrQueueClosed, got %v", err)
	}
	// second shutdown is a no-op
	q.Shutdown(context.Background())
}
