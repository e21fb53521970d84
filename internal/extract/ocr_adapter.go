package extract

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/taxdocs/internal/ocr"
)

type OCRAdapter struct {
	e      *ocr.Extractor
	logger *slog.Logger
}

func NewOCRAdapter(e *ocr.Extractor, logger *slog.Logger) *OCRAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &OCRAdapter{e: e, logger: logger}
}

func (a *OCRAdapter) Extract(ctx context.Context, path string) (Source, error) {
	r, err := a.e.Extract(ctx, path)
	if len(r.Warnings) > 0 {
		a.logger.Debug("ocr warnings", "path", path, "warnings", r.Warnings)
	}
	return Source{
		Path:       path,
		Text:       r.Text,
		Pages:      r.Pages,
		SourceType: r.SourceType,
		Method:     r.Method,
		Engine:     r.Engine,
		Digital:    r.Digital,
		Duration:   r.Duration,
		Warnings:   r.Warnings,
	}, err
}
