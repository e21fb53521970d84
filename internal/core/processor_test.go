package core

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/taxdocs/constants"
	"github.com/joseph-ayodele/taxdocs/internal/common"
	"github.com/joseph-ayodele/taxdocs/internal/entity"
	"github.com/joseph-ayodele/taxdocs/internal/extract"
	"github.com/joseph-ayodele/taxdocs/internal/repository"
	"github.com/joseph-ayodele/taxdocs/internal/validate"
)

// fakeText returns per-file text; "panic" in the file name makes it blow up.
type fakeText struct {
	calls int
}

func (f *fakeText) Extract(_ context.Context, path string) (extract.Source, error) {
	f.calls++
	name := filepath.Base(path)
	switch {
	case strings.Contains(name, "panic"):
		panic("decoder crashed on " + name)
	case strings.Contains(name, "unreadable"):
		return extract.Source{}, errors.New("tesseract: exit status 1")
	}
	return extract.Source{Path: path, Text: "text of " + name, Method: "pdf-text", Digital: true}, nil
}

// nameClassifier reads the type from the file name prefix.
type nameClassifier struct{}

func (nameClassifier) ClassifyFile(path, _ string) (constants.DocumentType, float64) {
	name := filepath.Base(path)
	switch {
	case strings.HasPrefix(name, "w2"):
		return constants.DocW2, 0.9
	case strings.HasPrefix(name, "int"):
		return constants.Doc1099INT, 0.8
	case strings.HasPrefix(name, "mortgage"):
		return constants.Doc1098, 0.7
	default:
		return constants.DocOther, 0.1
	}
}

// tableStrategy answers from a file-name keyed table.
type tableStrategy struct {
	mu   sync.Mutex
	data map[string]map[string]any
}

func (*tableStrategy) Name() string { return "table" }

func (s *tableStrategy) Extract(_ context.Context, _ constants.DocumentType, src extract.Source) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[filepath.Base(src.Path)], nil
}

func (s *tableStrategy) set(name string, raw map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[name] = raw
}

var (
	goodW2 = map[string]any{
		"employer_name":                "ACME CORP",
		"employee_name":                "JANE DOE",
		"wages_tips_compensation":      "58,414.00",
		"federal_income_tax_withheld":  "5120.00",
		"social_security_wages":        "58414.00",
		"social_security_tax_withheld": "3621.67",
		"medicare_wages":               "58414.00",
		"medicare_tax_withheld":        "847.00",
	}
	goodINT = map[string]any{"payer_name": "FIRST BANK", "interest_income": "120.55"}
)

type harness struct {
	proc     *Processor
	text     *fakeText
	strategy *tableStrategy
	docs     repository.DocumentRepository
	records  repository.RecordRepository
	years    repository.TaxYearRepository
	dir      string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()
	db, err := repository.OpenInMemory(ctx, uuid.NewString(), nil)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(db.Close)

	h := &harness{
		text:     &fakeText{},
		strategy: &tableStrategy{data: map[string]map[string]any{}},
		docs:     repository.NewDocumentRepository(db, nil),
		records:  repository.NewRecordRepository(db, nil),
		years:    repository.NewTaxYearRepository(db, nil),
		dir:      t.TempDir(),
	}
	h.proc, err = NewProcessor(Deps{
		Classifier: nameClassifier{},
		Text:       h.text,
		Chain:      extract.NewChain(nil, h.strategy),
		Validator:  validate.NewValidator(validate.DefaultTolerance, nil),
		TaxYears:   h.years,
		Documents:  h.docs,
		Records:    h.records,
	}, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	return h
}

func (h *harness) file(t *testing.T, name string) string {
	t.Helper()
	p := filepath.Join(h.dir, name)
	if err := os.WriteFile(p, []byte("contents of "+name), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func (h *harness) doc(t *testing.T, id uuid.UUID) *entity.Document {
	t.Helper()
	d, err := h.docs.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("get document: %v", err)
	}
	return d
}

func byName(rep *BatchReport) map[string]FileResult {
	out := map[string]FileResult{}
	for _, r := range rep.Results {
		out[filepath.Base(r.Path)] = r
	}
	return out
}

func TestRunBatch_IsolatesFailures(t *testing.T) {
	h := newHarness(t)
	h.file(t, "w2-acme.pdf")
	h.file(t, "w2-panic.pdf")
	h.file(t, "int-bank.pdf")
	h.strategy.set("w2-acme.pdf", goodW2)
	h.strategy.set("int-bank.pdf", goodINT)

	rep, err := h.proc.RunBatch(context.Background(), BatchRequest{Year: 2024, Input: h.dir})
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if rep.Total != 3 || rep.Validated != 2 || rep.Failures() != 1 {
		t.Fatalf("report = %+v", rep)
	}

	res := byName(rep)
	bad := res["w2-panic.pdf"]
	if bad.Outcome != OutcomeError || bad.Status != constants.StatusError {
		t.Fatalf("panicking file: %+v", bad)
	}
	d := h.doc(t, bad.DocumentID)
	if d.Status != constants.StatusError || d.ErrorMessage == nil || !strings.Contains(*d.ErrorMessage, "decoder crashed") {
		t.Fatalf("stored document: %+v", d)
	}

	for _, name := range []string{"w2-acme.pdf", "int-bank.pdf"} {
		r := res[name]
		if r.Outcome != OutcomeValidated || r.Status != constants.StatusValidated || r.Backend != "table" {
			t.Errorf("%s: %+v", name, r)
		}
		if got := h.doc(t, r.DocumentID); got.Status != constants.StatusValidated || got.ExtractionBackend == nil {
			t.Errorf("%s stored as %+v", name, got)
		}
	}
	w2, err := h.records.Get(context.Background(), constants.DocW2, res["w2-acme.pdf"].DocumentID)
	if err != nil {
		t.Fatalf("w2 record: %v", err)
	}
	if w2.(*entity.W2Data).WagesTipsCompensation.Decimal.StringFixed(2) != "58414.00" {
		t.Errorf("w2 record: %+v", w2)
	}
}

func TestRunBatch_DedupIsIdempotent(t *testing.T) {
	h := newHarness(t)
	h.file(t, "w2-acme.pdf")
	h.strategy.set("w2-acme.pdf", goodW2)
	ctx := context.Background()

	first, err := h.proc.RunBatch(ctx, BatchRequest{Year: 2024, Input: h.dir})
	if err != nil {
		t.Fatal(err)
	}
	calls := h.text.calls
	second, err := h.proc.RunBatch(ctx, BatchRequest{Year: 2024, Input: h.dir})
	if err != nil {
		t.Fatal(err)
	}
	if first.Validated != 1 || second.Skipped != 1 || second.Validated != 0 {
		t.Fatalf("first=%+v second=%+v", first, second)
	}
	if h.text.calls != calls {
		t.Fatal("duplicate run should not touch the text extractor")
	}
	ty, _ := h.years.GetByYear(ctx, 2024)
	docs, err := h.docs.List(ctx, entity.DocumentFilter{TaxYearID: ty.ID})
	if err != nil {
		t.Fatal(err)
	}
	recs, err := h.records.ListByTaxYear(ctx, constants.DocW2, ty.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 || len(recs) != 1 {
		t.Fatalf("documents=%d records=%d", len(docs), len(recs))
	}

	// same bytes, different year: processed again
	other, err := h.proc.RunBatch(ctx, BatchRequest{Year: 2023, Input: h.dir})
	if err != nil {
		t.Fatal(err)
	}
	if other.Validated != 1 {
		t.Fatalf("other year: %+v", other)
	}
}

func TestProcessFile_ExtractionExhausted(t *testing.T) {
	h := newHarness(t)
	path := h.file(t, "w2-blank.pdf")
	h.strategy.set("w2-blank.pdf", map[string]any{"employer_name": "ACME"})

	res, err := h.proc.ProcessPath(context.Background(), 2024, path)
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != OutcomeExtractionError {
		t.Fatalf("outcome = %s", res.Outcome)
	}
	d := h.doc(t, res.DocumentID)
	if d.Status != constants.StatusError || d.ErrorMessage == nil ||
		!strings.Contains(*d.ErrorMessage, "extraction exhausted for W-2") ||
		!strings.Contains(*d.ErrorMessage, "table: missing wages_tips_compensation") {
		t.Fatalf("stored: %+v", d)
	}
	if d.DocumentType != constants.DocW2 || d.OCRText == nil {
		t.Fatalf("classification and text should persist on failure: %+v", d)
	}
}

func TestProcessFile_ValidationErrorKeepsNoRecord(t *testing.T) {
	h := newHarness(t)
	path := h.file(t, "w2-noname.pdf")
	raw := map[string]any{}
	for k, v := range goodW2 {
		raw[k] = v
	}
	delete(raw, "employer_name")
	raw["employee_ssn"] = "123-45-678"
	h.strategy.set("w2-noname.pdf", raw)

	res, err := h.proc.ProcessPath(context.Background(), 2024, path)
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != OutcomeValidationError || !strings.Contains(res.Message, "Missing employer name") {
		t.Fatalf("result = %+v", res)
	}
	if _, err := h.records.Get(context.Background(), constants.DocW2, res.DocumentID); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("invalid record must not be saved: %v", err)
	}
	if d := h.doc(t, res.DocumentID); d.Status != constants.StatusError {
		t.Fatalf("status = %s", d.Status)
	}
}

// statusFailer refuses to persist one status.
type statusFailer struct {
	repository.DocumentRepository
	status constants.ProcessingStatus
}

func (f statusFailer) UpdateStatus(ctx context.Context, id uuid.UUID, status constants.ProcessingStatus, errMsg *string) error {
	if status == f.status {
		return errors.New("database is locked")
	}
	return f.DocumentRepository.UpdateStatus(ctx, id, status, errMsg)
}

func TestProcessFile_FailedValidatedWriteDropsRecord(t *testing.T) {
	h := newHarness(t)
	proc, err := NewProcessor(Deps{
		Classifier: nameClassifier{},
		Text:       h.text,
		Chain:      extract.NewChain(nil, h.strategy),
		Validator:  validate.NewValidator(validate.DefaultTolerance, nil),
		TaxYears:   h.years,
		Documents:  statusFailer{DocumentRepository: h.docs, status: constants.StatusValidated},
		Records:    h.records,
	}, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	path := h.file(t, "w2-locked.pdf")
	h.strategy.set("w2-locked.pdf", goodW2)

	res, err := proc.ProcessPath(context.Background(), 2024, path)
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != OutcomeError || !strings.Contains(res.Message, "database is locked") {
		t.Fatalf("result = %+v", res)
	}
	if d := h.doc(t, res.DocumentID); d.Status != constants.StatusError {
		t.Fatalf("status = %s", d.Status)
	}
	if _, err := h.records.Get(context.Background(), constants.DocW2, res.DocumentID); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("record should be removed when VALIDATED cannot be written: %v", err)
	}
}

func TestProcessFile_WarningsAreStored(t *testing.T) {
	h := newHarness(t)
	path := h.file(t, "w2-warn.pdf")
	raw := map[string]any{}
	for k, v := range goodW2 {
		raw[k] = v
	}
	raw["social_security_tax_withheld"] = "3000.00"
	h.strategy.set("w2-warn.pdf", raw)

	res, err := h.proc.ProcessPath(context.Background(), 2024, path)
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != OutcomeValidated || len(res.Warnings) != 1 {
		t.Fatalf("result = %+v", res)
	}
	if d := h.doc(t, res.DocumentID); len(d.Warnings) != 1 || !strings.Contains(d.Warnings[0], "Social Security tax") {
		t.Fatalf("warnings = %v", d.Warnings)
	}
}

func TestProcessFile_UnmodeledTypeSkipsExtraction(t *testing.T) {
	h := newHarness(t)
	path := h.file(t, "mortgage-1098.pdf")

	res, err := h.proc.ProcessPath(context.Background(), 2024, path)
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != OutcomeValidated || res.Status != constants.StatusValidated || res.Backend != "" {
		t.Fatalf("result = %+v", res)
	}
	if d := h.doc(t, res.DocumentID); d.DocumentType != constants.Doc1098 || d.ExtractionBackend != nil {
		t.Fatalf("stored = %+v", d)
	}
}

func TestProcessFile_UnreadableTextIsEmpty(t *testing.T) {
	h := newHarness(t)
	path := h.file(t, "w2-unreadable.pdf")
	h.strategy.set("w2-unreadable.pdf", goodW2)

	res, err := h.proc.ProcessPath(context.Background(), 2024, path)
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != OutcomeValidated {
		t.Fatalf("result = %+v", res)
	}
	d := h.doc(t, res.DocumentID)
	if d.OCRText == nil || *d.OCRText != "" {
		t.Fatalf("empty text should still be recorded: %v", d.OCRText)
	}
}

func TestReprocess(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	path := h.file(t, "w2-late.pdf")
	other := h.file(t, "w2-other.pdf")
	h.strategy.set("w2-other.pdf", goodW2)

	res, err := h.proc.ProcessPath(ctx, 2024, path)
	if err != nil || res.Outcome != OutcomeExtractionError {
		t.Fatalf("first pass: %+v %v", res, err)
	}
	if _, err := h.proc.ProcessPath(ctx, 2024, other); err != nil {
		t.Fatal(err)
	}

	// rewriting the file with another document's bytes collides
	same, _ := os.ReadFile(other)
	if err := os.WriteFile(path, same, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := h.proc.Reprocess(ctx, res.DocumentID); !errors.Is(err, common.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	if err := os.WriteFile(path, []byte("rescanned"), 0o644); err != nil {
		t.Fatal(err)
	}
	h.strategy.set("w2-late.pdf", goodW2)
	again, err := h.proc.Reprocess(ctx, res.DocumentID)
	if err != nil {
		t.Fatalf("Reprocess: %v", err)
	}
	if again.Outcome != OutcomeValidated || again.DocumentID != res.DocumentID {
		t.Fatalf("reprocess result = %+v", again)
	}
	d := h.doc(t, res.DocumentID)
	if d.Status != constants.StatusValidated || d.ErrorMessage != nil {
		t.Fatalf("stored = %+v", d)
	}

	// a validated document can be resubmitted; its record is rebuilt, not duplicated
	if _, err := h.proc.Reprocess(ctx, res.DocumentID); err != nil {
		t.Fatalf("second reprocess: %v", err)
	}
	ty, _ := h.years.GetByYear(ctx, 2024)
	recs, _ := h.records.ListByTaxYear(ctx, constants.DocW2, ty.ID)
	if len(recs) != 2 {
		t.Fatalf("records = %d, want 2", len(recs))
	}

	if _, err := h.proc.Reprocess(ctx, uuid.New()); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("unknown document: %v", err)
	}
}

func TestRunBatch_InvalidYear(t *testing.T) {
	h := newHarness(t)
	if _, err := h.proc.RunBatch(context.Background(), BatchRequest{Year: 1999, Input: h.dir}); !errors.Is(err, common.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestNewProcessor_RequiresDeps(t *testing.T) {
	if _, err := NewProcessor(Deps{}, 0, nil); err == nil {
		t.Fatal("expected error for missing dependencies")
	}
}
