package extract

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joseph-ayodele/taxdocs/constants"
	"github.com/joseph-ayodele/taxdocs/internal/extract/normalize"
	"github.com/joseph-ayodele/taxdocs/internal/extract/pdfservice"
)

// PDFService is the slice of the pdfservice client the strategy needs.
type PDFService interface {
	Extract(ctx context.Context, docType constants.DocumentType, pdf []byte) (*pdfservice.Response, error)
}

// StructuredStrategy reads form fields (or positioned page text) from the PDF-structure service.
type StructuredStrategy struct {
	svc PDFService
}

func NewStructuredStrategy(svc PDFService) *StructuredStrategy {
	return &StructuredStrategy{svc: svc}
}

func (*StructuredStrategy) Name() string { return "pdf-service" }

func (s *StructuredStrategy) Extract(ctx context.Context, docType constants.DocumentType, src Source) (map[string]any, error) {
	if !src.IsPDF() {
		return nil, nil
	}
	pdf, err := os.ReadFile(src.Path)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}
	resp, err := s.svc.Extract(ctx, docType, pdf)
	if err != nil {
		return nil, err
	}
	return FromServiceResponse(docType, resp), nil
}

// FromServiceResponse prefers form fields, then the 1099 data block, then page text run through ParseText.
func FromServiceResponse(docType constants.DocumentType, resp *pdfservice.Response) map[string]any {
	if resp == nil {
		return nil
	}
	if out := nonBlank(resp.FormFields); len(out) > 0 {
		return out
	}
	if out := nonBlank(resp.Data); len(out) > 0 {
		return out
	}
	if text := resp.PageText(); strings.TrimSpace(text) != "" {
		return ParseText(docType, text)
	}
	return nil
}

// nonBlank drops empty values and folds keys to snake case so the alias table can resolve them.
func nonBlank(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok {
			if strings.TrimSpace(s) == "" {
				continue
			}
			v = strings.TrimSpace(s)
		}
		out[normalize.Key(k)] = v
	}
	return out
}
