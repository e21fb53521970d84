package core

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/taxdocs/internal/ingest"
)

// BatchRequest names the year and the file or directory to process.
type BatchRequest struct {
	Year      int
	Input     string
	Recursive bool
	// Exts overrides the default extension filter when set.
	Exts map[string]struct{}
}

// BatchReport is the per-file outcome list plus totals.
type BatchReport struct {
	RunID            uuid.UUID     `json:"run_id"`
	Year             int           `json:"year"`
	Input            string        `json:"input"`
	Results          []FileResult  `json:"results"`
	Total            int           `json:"total"`
	Validated        int           `json:"validated"`
	Skipped          int           `json:"skipped_duplicate"`
	ValidationErrors int           `json:"validation_errors"`
	ExtractionErrors int           `json:"extraction_errors"`
	Errors           int           `json:"errors"`
	Elapsed          time.Duration `json:"elapsed"`
}

// Failures counts files that ended in ERROR or never got a document.
func (r *BatchReport) Failures() int {
	return r.ValidationErrors + r.ExtractionErrors + r.Errors
}

func (r *BatchReport) add(fr FileResult) {
	r.Results = append(r.Results, fr)
	r.Total++
	switch fr.Outcome {
	case OutcomeValidated:
		r.Validated++
	case OutcomeSkippedDuplicate:
		r.Skipped++
	case OutcomeValidationError:
		r.ValidationErrors++
	case OutcomeExtractionError:
		r.ExtractionErrors++
	default:
		r.Errors++
	}
}

// RunBatch processes every candidate under req.Input sequentially. One file's failure
// never stops the batch; only an invalid year or input is returned as an error.
func (p *Processor) RunBatch(ctx context.Context, req BatchRequest) (*BatchReport, error) {
	start := time.Now()
	ty, err := p.TaxYears.GetOrCreate(ctx, req.Year)
	if err != nil {
		return nil, err
	}
	lister := ingest.NewLister(req.Recursive, p.logger)
	lister.AllowedExts = req.Exts
	cands, _, err := lister.List(req.Input)
	if err != nil {
		return nil, err
	}

	report := &BatchReport{RunID: uuid.New(), Year: ty.Year, Input: req.Input}
	logger := p.logger.With("run_id", report.RunID)
	logger.Info("pipeline.batch.start", "year", ty.Year, "input", req.Input, "files", len(cands))

	for _, c := range cands {
		if err := ctx.Err(); err != nil {
			logger.Warn("pipeline.batch.cancelled", "remaining", len(cands)-report.Total)
			break
		}
		fr := p.ProcessFile(ctx, ty, c.Path)
		report.add(fr)
		logger.Info("pipeline.batch.file",
			"path", c.Path, "outcome", fr.Outcome, "type", fr.DocumentType,
			"status", fr.Status, "elapsed_ms", fr.Elapsed.Milliseconds())
	}

	report.Elapsed = time.Since(start)
	logger.Info("pipeline.batch.done",
		"total", report.Total, "validated", report.Validated, "skipped", report.Skipped,
		"failures", report.Failures(), "elapsed_ms", report.Elapsed.Milliseconds())
	return report, nil
}

// ProcessPath ingests a single path for year; the watcher feeds paths through here.
func (p *Processor) ProcessPath(ctx context.Context, year int, path string) (FileResult, error) {
	ty, err := p.TaxYears.GetOrCreate(ctx, year)
	if err != nil {
		return FileResult{}, err
	}
	return p.ProcessFile(ctx, ty, path), nil
}
