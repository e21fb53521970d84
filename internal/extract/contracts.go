package extract

import (
	"context"
	"time"

	"github.com/joseph-ayodele/taxdocs/constants"
)

// TextExtractor is Stage 1: file -> text.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (Source, error)
}

// Source is everything a backend may read for one document.
type Source struct {
	Path       string
	Text       string
	Pages      int
	SourceType string // "PDF" | "IMAGE"
	Method     string // "pdf-text" | "pdf-ocr" | "image-ocr"
	Engine     string
	// Digital marks embedded PDF text; only then is the line-pattern backend trusted.
	Digital  bool
	Duration time.Duration
	Warnings []string
}

func (s Source) IsPDF() bool { return s.SourceType == constants.PDF || constants.IsPDF(s.Path) }

// Strategy is one extraction backend. A nil map with a nil error means "no data".
type Strategy interface {
	Name() string
	Extract(ctx context.Context, docType constants.DocumentType, src Source) (map[string]any, error)
}

// RawStrategy is a Strategy whose returned fields may differ from what the backend sent.
// ExtractRaw returns both; raw is stored on the record unchanged.
type RawStrategy interface {
	Strategy
	ExtractRaw(ctx context.Context, docType constants.DocumentType, src Source) (fields, raw map[string]any, err error)
}
