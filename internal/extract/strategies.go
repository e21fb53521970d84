package extract

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/joseph-ayodele/taxdocs/constants"
	"github.com/joseph-ayodele/taxdocs/internal/llm"
)

// TextPatternStrategy parses embedded PDF text with box-caption anchors.
type TextPatternStrategy struct{}

func (TextPatternStrategy) Name() string { return "text-patterns" }

func (TextPatternStrategy) Extract(_ context.Context, docType constants.DocumentType, src Source) (map[string]any, error) {
	// OCR text is too noisy for column alignment.
	if !src.Digital {
		return nil, nil
	}
	return ParseText(docType, src.Text), nil
}

// LLMStrategy hands the text to a FieldExtractor.
type LLMStrategy struct {
	fx     llm.FieldExtractor
	logger *slog.Logger
}

func NewLLMStrategy(fx llm.FieldExtractor, logger *slog.Logger) *LLMStrategy {
	if logger == nil {
		logger = slog.Default()
	}
	return &LLMStrategy{fx: fx, logger: logger}
}

func (*LLMStrategy) Name() string { return "llm" }

func (s *LLMStrategy) Extract(ctx context.Context, docType constants.DocumentType, src Source) (map[string]any, error) {
	fields, _, err := s.ExtractRaw(ctx, docType, src)
	return fields, err
}

// ExtractRaw returns the model's fields and, separately, its object as received.
func (s *LLMStrategy) ExtractRaw(ctx context.Context, docType constants.DocumentType, src Source) (map[string]any, map[string]any, error) {
	if src.Text == "" {
		return nil, nil, nil
	}
	fields, raw, err := s.fx.ExtractFields(ctx, llm.ExtractRequest{DocumentType: docType, Text: src.Text, FileName: src.Path})
	if errors.Is(err, llm.ErrNoData) {
		s.logger.Info("llm returned no usable json", "path", src.Path, "raw_bytes", len(raw))
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	var verbatim map[string]any
	if json.Unmarshal(raw, &verbatim) != nil || verbatim == nil {
		verbatim = fields
	}
	return fields, verbatim, nil
}
