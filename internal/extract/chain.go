package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/taxdocs/constants"
	"github.com/joseph-ayodele/taxdocs/internal/common"
	"github.com/joseph-ayodele/taxdocs/internal/entity"
	"github.com/joseph-ayodele/taxdocs/internal/extract/normalize"
)

// Attempt records how one backend fared.
type Attempt struct {
	Backend string
	Outcome string
}

func (a Attempt) String() string { return a.Backend + ": " + a.Outcome }

// Result is the first load-bearing record produced by the chain.
type Result struct {
	Record   entity.Record
	Backend  string
	Raw      map[string]any
	Attempts []Attempt
}

// Chain tries strategies in order and stops at the first one whose record carries its load-bearing field.
type Chain struct {
	strategies []Strategy
	logger     *slog.Logger
}

func NewChain(logger *slog.Logger, strategies ...Strategy) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{strategies: strategies, logger: logger}
}

// Backends lists strategy names in priority order.
func (c *Chain) Backends() []string {
	out := make([]string, len(c.strategies))
	for i, s := range c.strategies {
		out[i] = s.Name()
	}
	return out
}

// Run returns common.ErrExtractionExhausted (wrapped, with every attempt listed) when no strategy yields data.
func (c *Chain) Run(ctx context.Context, docType constants.DocumentType, src Source) (Result, error) {
	if !docType.IsModeled() {
		return Result{}, fmt.Errorf("%w: no extraction path for %s", common.ErrInvalidInput, docType)
	}
	key := normalize.LoadBearingKey(docType)
	var attempts []Attempt

	for _, s := range c.strategies {
		start := time.Now()
		name := s.Name()
		fields, raw, err := c.try(ctx, s, docType, src)
		elapsed := time.Since(start).Milliseconds()

		var outcome string
		switch {
		case err != nil:
			outcome = "error: " + err.Error()
			c.logger.Warn("extract.backend.error", "backend", name, "document_type", docType, "path", src.Path,
				"error", err, "elapsed_ms", elapsed)
		case len(fields) == 0:
			outcome = "no data"
			c.logger.Debug("extract.backend.no_data", "backend", name, "document_type", docType, "path", src.Path,
				"elapsed_ms", elapsed)
		default:
			rec, berr := normalize.BuildFrom(docType, fields, raw)
			if berr != nil {
				outcome = "error: " + berr.Error()
				break
			}
			if !normalize.HasLoadBearing(rec) {
				outcome = "missing " + key
				c.logger.Info("extract.backend.incomplete", "backend", name, "document_type", docType,
					"path", src.Path, "missing", key, "elapsed_ms", elapsed)
				break
			}
			attempts = append(attempts, Attempt{Backend: name, Outcome: "ok"})
			c.logger.Info("extract.backend.ok", "backend", name, "document_type", docType, "path", src.Path,
				"elapsed_ms", elapsed)
			return Result{Record: rec, Backend: name, Raw: raw, Attempts: attempts}, nil
		}
		attempts = append(attempts, Attempt{Backend: name, Outcome: outcome})
	}

	return Result{Attempts: attempts}, &ExhaustedError{DocumentType: docType, Attempts: attempts}
}

// try shields the chain from a panicking backend.
func (c *Chain) try(ctx context.Context, s Strategy, docType constants.DocumentType, src Source) (fields, raw map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	if rs, ok := s.(RawStrategy); ok {
		return rs.ExtractRaw(ctx, docType, src)
	}
	fields, err = s.Extract(ctx, docType, src)
	return fields, fields, err
}

// ExhaustedError lists why each backend failed.
type ExhaustedError struct {
	DocumentType constants.DocumentType
	Attempts     []Attempt
}

func (e *ExhaustedError) Error() string {
	if len(e.Attempts) == 0 {
		return fmt.Sprintf("extraction exhausted for %s: no backends configured", e.DocumentType.Label())
	}
	parts := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		parts[i] = a.String()
	}
	return fmt.Sprintf("extraction exhausted for %s: %s", e.DocumentType.Label(), strings.Join(parts, "; "))
}

func (e *ExhaustedError) Unwrap() error { return common.ErrExtractionExhausted }
