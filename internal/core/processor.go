package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/taxdocs/constants"
	"github.com/joseph-ayodele/taxdocs/internal/common"
	"github.com/joseph-ayodele/taxdocs/internal/entity"
	"github.com/joseph-ayodele/taxdocs/internal/extract"
	"github.com/joseph-ayodele/taxdocs/internal/extract/normalize"
	"github.com/joseph-ayodele/taxdocs/internal/ingest"
	"github.com/joseph-ayodele/taxdocs/internal/lifecycle"
	"github.com/joseph-ayodele/taxdocs/internal/repository"
	"github.com/joseph-ayodele/taxdocs/internal/validate"
)

// Classifier names a document from its path and text.
type Classifier interface {
	ClassifyFile(path, text string) (constants.DocumentType, float64)
}

// Extractor runs the backend chain for one document.
type Extractor interface {
	Run(ctx context.Context, docType constants.DocumentType, src extract.Source) (extract.Result, error)
}

// Validator checks a typed record for a tax year.
type Validator interface {
	Validate(rec entity.Record, taxYear int) validate.Result
}

// Outcome is the per-file verdict reported by a batch.
type Outcome string

const (
	OutcomeValidated        Outcome = "validated"
	OutcomeSkippedDuplicate Outcome = "skipped-duplicate"
	OutcomeValidationError  Outcome = "validation-error"
	OutcomeExtractionError  Outcome = "extraction-error"
	OutcomeError            Outcome = "error"
)

// Failed reports whether the outcome counts against a batch.
func (o Outcome) Failed() bool {
	return o == OutcomeValidationError || o == OutcomeExtractionError || o == OutcomeError
}

// FileResult is what happened to one file.
type FileResult struct {
	Path         string                     `json:"path"`
	DocumentID   uuid.UUID                  `json:"document_id"`
	DocumentType constants.DocumentType     `json:"document_type"`
	Confidence   float64                    `json:"confidence"`
	Status       constants.ProcessingStatus `json:"status"`
	Outcome      Outcome                    `json:"outcome"`
	Backend      string                     `json:"backend,omitempty"`
	Message      string                     `json:"message,omitempty"`
	Warnings     []string                   `json:"warnings,omitempty"`
	Elapsed      time.Duration              `json:"elapsed"`
}

type Deps struct {
	Classifier Classifier
	Text       extract.TextExtractor
	Chain      Extractor
	Validator  Validator
	TaxYears   repository.TaxYearRepository
	Documents  repository.DocumentRepository
	Records    repository.RecordRepository
}

// Processor drives one document at a time through the lifecycle.
type Processor struct {
	Deps
	logger  *slog.Logger
	timeout time.Duration
}

// NewProcessor wires the pipeline. timeout bounds a single document; zero means unbounded.
func NewProcessor(deps Deps, timeout time.Duration, logger *slog.Logger) (*Processor, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch {
	case deps.Classifier == nil:
		return nil, errors.New("processor: classifier is required")
	case deps.Text == nil:
		return nil, errors.New("processor: text extractor is required")
	case deps.Chain == nil:
		return nil, errors.New("processor: extraction chain is required")
	case deps.Validator == nil:
		return nil, errors.New("processor: validator is required")
	case deps.TaxYears == nil || deps.Documents == nil || deps.Records == nil:
		return nil, errors.New("processor: repositories are required")
	}
	return &Processor{Deps: deps, logger: logger, timeout: timeout}, nil
}

// ProcessFile ingests path for the tax year. A file whose bytes are already stored for
// that year is skipped before anything is written. Failures after the document row
// exists are recorded on it and reported in the result, never returned.
func (p *Processor) ProcessFile(ctx context.Context, ty *entity.TaxYear, path string) (res FileResult) {
	start := time.Now()
	res.Path = path
	defer func() { res.Elapsed = time.Since(start) }()

	hash, err := ingest.HashFile(path)
	if err != nil {
		p.logger.Error("pipeline.document.error", "path", path, "error", err)
		res.Outcome, res.Message = OutcomeError, err.Error()
		return res
	}
	if existing, err := p.Documents.GetByHash(ctx, ty.ID, hash); err == nil {
		p.logger.Info("pipeline.document.duplicate", "path", path, "document_id", existing.ID)
		res.DocumentID, res.DocumentType, res.Status = existing.ID, existing.DocumentType, existing.Status
		res.Outcome, res.Message = OutcomeSkippedDuplicate, "already processed as "+existing.FileName
		return res
	} else if !errors.Is(err, common.ErrNotFound) {
		res.Outcome, res.Message = OutcomeError, err.Error()
		return res
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	doc := &entity.Document{
		TaxYearID: ty.ID,
		FileName:  filepath.Base(path),
		FilePath:  abs,
		FileHash:  hash,
		Status:    constants.StatusPending,
	}
	if err := p.Documents.Create(ctx, doc); err != nil {
		if errors.Is(err, common.ErrDuplicate) {
			res.Outcome, res.Message = OutcomeSkippedDuplicate, err.Error()
			return res
		}
		p.logger.Error("pipeline.document.error", "path", path, "error", err)
		res.Outcome, res.Message = OutcomeError, err.Error()
		return res
	}
	res.DocumentID = doc.ID
	p.logger.Info("pipeline.document.created", "document_id", doc.ID, "path", path, "year", ty.Year)

	p.run(ctx, ty, doc, lifecycle.New(constants.StatusPending), &res)
	return res
}

// Reprocess resubmits a finished document. The file is hashed again; new bytes must not
// collide with another document of the same year.
func (p *Processor) Reprocess(ctx context.Context, documentID uuid.UUID) (FileResult, error) {
	start := time.Now()
	doc, err := p.Documents.GetByID(ctx, documentID)
	if err != nil {
		return FileResult{}, err
	}
	if !lifecycle.Allowed(doc.Status, lifecycle.EventResubmit) {
		return FileResult{}, fmt.Errorf("%w: cannot resubmit a %s document", common.ErrIllegalTransition, doc.Status)
	}
	ty, err := p.TaxYears.GetByID(ctx, doc.TaxYearID)
	if err != nil {
		return FileResult{}, err
	}
	hash, err := ingest.HashFile(doc.FilePath)
	if err != nil {
		return FileResult{}, fmt.Errorf("%w: rehash %s: %v", common.ErrInvalidInput, doc.FilePath, err)
	}
	if err := p.Documents.ResetForReprocess(ctx, doc.ID, hash); err != nil {
		return FileResult{}, err
	}
	if err := p.Records.DeleteForDocument(ctx, doc.ID); err != nil {
		return FileResult{}, err
	}

	m := lifecycle.New(doc.Status)
	if err := p.advance(ctx, doc.ID, m, lifecycle.EventResubmit); err != nil {
		return FileResult{}, err
	}
	p.logger.Info("pipeline.document.resubmitted", "document_id", doc.ID, "hash_changed", hash != doc.FileHash)

	doc.FileHash = hash
	res := FileResult{Path: doc.FilePath, DocumentID: doc.ID}
	p.run(ctx, ty, doc, m, &res)
	res.Elapsed = time.Since(start)
	return res, nil
}

// run walks a PENDING document to a terminal status. Panics stop here.
func (p *Processor) run(ctx context.Context, ty *entity.TaxYear, doc *entity.Document, m *lifecycle.Machine, res *FileResult) {
	ctx = common.WithDocumentID(ctx, doc.ID.String())
	ctx, cancel := common.WithTimeout(ctx, p.timeout)
	defer cancel()
	logger := p.logger.With("document_id", doc.ID)

	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprintf("unexpected failure: %v", r)
			logger.Error("pipeline.document.panic", "path", doc.FilePath, "panic", r)
			p.fail(ctx, doc.ID, m, OutcomeError, msg, res)
		}
		res.Status = m.Status()
	}()

	if err := p.steps(ctx, logger, ty, doc, m, res); err != nil {
		logger.Error("pipeline.document.error", "path", doc.FilePath, "status", m.Status(), "error", err)
		outcome := res.Outcome
		if outcome == "" {
			outcome = OutcomeError
		}
		p.fail(ctx, doc.ID, m, outcome, err.Error(), res)
		return
	}
	logger.Info("pipeline.document.done", "path", doc.FilePath, "type", res.DocumentType, "status", m.Status(), "backend", res.Backend, "warnings", len(res.Warnings))
}

// steps performs the lifecycle. Any returned error moves the document to ERROR; a
// pre-set res.Outcome names the kind of failure.
func (p *Processor) steps(ctx context.Context, logger *slog.Logger, ty *entity.TaxYear, doc *entity.Document, m *lifecycle.Machine, res *FileResult) error {
	if err := p.advance(ctx, doc.ID, m, lifecycle.EventStart); err != nil {
		return err
	}

	src, err := p.Text.Extract(ctx, doc.FilePath)
	if err != nil {
		// unreadable text is recorded as empty; the structured backend may still read the file
		logger.Warn("pipeline.text.failed", "path", doc.FilePath, "error", err)
		src = extract.Source{Path: doc.FilePath, Method: "none", Warnings: []string{err.Error()}}
	}
	if src.Path == "" {
		src.Path = doc.FilePath
	}
	if err := p.Documents.SaveText(ctx, doc.ID, src.Text, src.Method); err != nil {
		return err
	}
	if err := p.advance(ctx, doc.ID, m, lifecycle.EventTextStored); err != nil {
		return err
	}
	logger.Debug("pipeline.text.stored", "method", src.Method, "chars", len(src.Text), "digital", src.Digital)

	docType, conf := p.Classifier.ClassifyFile(doc.FilePath, src.Text)
	res.DocumentType, res.Confidence = docType, conf
	if err := p.Documents.SaveClassification(ctx, doc.ID, docType, conf); err != nil {
		return err
	}
	logger.Info("pipeline.classified", "type", docType, "confidence", conf)

	if !docType.IsModeled() {
		if err := p.advance(ctx, doc.ID, m, lifecycle.EventSkipModel); err != nil {
			return err
		}
		res.Outcome, res.Message = OutcomeValidated, "stored for reference only"
		return nil
	}

	ext, err := p.Chain.Run(ctx, docType, src)
	if err != nil {
		res.Outcome = OutcomeExtractionError
		return err
	}
	res.Backend = ext.Backend
	if err := p.Documents.SaveExtraction(ctx, doc.ID, ext.Backend); err != nil {
		return err
	}
	if err := p.advance(ctx, doc.ID, m, lifecycle.EventExtracted); err != nil {
		return err
	}

	verdict := p.Validator.Validate(ext.Record, ty.Year)
	res.Warnings = verdict.Warnings
	if err := p.Documents.SaveWarnings(ctx, doc.ID, verdict.Warnings); err != nil {
		return err
	}
	if !verdict.Valid {
		res.Outcome = OutcomeValidationError
		canon := normalize.Canonicalize(docType, ext.Record.Raw())
		missing, hints := validate.MissingFields(docType, canon), validate.SuggestCorrections(canon)
		if len(missing) > 0 || len(hints) > 0 {
			logger.Warn("pipeline.validate.hints", "missing", missing, "suggestions", hints)
		}
		return fmt.Errorf("%s", strings.Join(verdict.Errors, "; "))
	}

	ext.Record.SetDocID(doc.ID)
	if err := p.Records.Save(ctx, ext.Record); err != nil {
		return err
	}
	if err := p.advance(ctx, doc.ID, m, lifecycle.EventValidated); err != nil {
		// An ERROR document keeps no record.
		if derr := p.Records.DeleteForDocument(ctx, doc.ID); derr != nil {
			logger.Error("pipeline.record.cleanup_failed", "error", derr)
		}
		return err
	}
	res.Outcome = OutcomeValidated
	return nil
}

// advance persists the status ev leads to, then fires ev. A failed write leaves m where it was.
func (p *Processor) advance(ctx context.Context, id uuid.UUID, m *lifecycle.Machine, ev lifecycle.Event) error {
	to, err := lifecycle.Next(m.Status(), ev)
	if err != nil {
		return err
	}
	if err := p.Documents.UpdateStatus(ctx, id, to, nil); err != nil {
		return err
	}
	_, err = m.Fire(ev)
	return err
}

// fail moves the document to ERROR with msg. The write uses a fresh context so an
// expired document deadline does not leave the row mid-flight.
func (p *Processor) fail(ctx context.Context, id uuid.UUID, m *lifecycle.Machine, outcome Outcome, msg string, res *FileResult) {
	res.Outcome, res.Message = outcome, msg
	to, err := m.Fire(lifecycle.EventFail)
	if err != nil {
		p.logger.Warn("pipeline.document.fail_skipped", "document_id", id, "status", m.Status(), "error", err)
		return
	}
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := p.Documents.UpdateStatus(wctx, id, to, &msg); err != nil {
		p.logger.Error("failed to record document error", "document_id", id, "error", err)
	}
}
