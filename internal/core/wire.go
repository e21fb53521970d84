package core

import (
	"log/slog"

	"github.com/joseph-ayodele/taxdocs/internal/classify"
	"github.com/joseph-ayodele/taxdocs/internal/common"
	"github.com/joseph-ayodele/taxdocs/internal/export"
	"github.com/joseph-ayodele/taxdocs/internal/extract"
	"github.com/joseph-ayodele/taxdocs/internal/extract/pdfservice"
	"github.com/joseph-ayodele/taxdocs/internal/llm/openai"
	"github.com/joseph-ayodele/taxdocs/internal/ocr"
	"github.com/joseph-ayodele/taxdocs/internal/repository"
	"github.com/joseph-ayodele/taxdocs/internal/validate"
)

// Stack is everything a binary needs once the database is open.
type Stack struct {
	TaxYears   repository.TaxYearRepository
	Documents  repository.DocumentRepository
	Records    repository.RecordRepository
	Summary    repository.SummaryRepository
	Classifier *classify.Classifier
	Text       extract.TextExtractor
	Chain      *extract.Chain
	Processor  *Processor
	Export     *export.Service
}

// NewStack wires repositories, text acquisition, the backend chain and the processor
// from cfg. The structured backend is only added when PDF_SERVICE_URL is set.
func NewStack(cfg *common.Config, db *repository.DB, logger *slog.Logger) (*Stack, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Stack{
		TaxYears:  repository.NewTaxYearRepository(db, logger),
		Documents: repository.NewDocumentRepository(db, logger),
		Records:   repository.NewRecordRepository(db, logger),
	}
	s.Summary = repository.NewSummaryRepository(s.Records, logger)
	s.Export = export.NewService(s.TaxYears, s.Documents, s.Records, s.Summary, logger)
	s.Classifier = classify.NewClassifier(cfg.Pipeline.ClassifyThreshold, logger)

	s.Text = extract.NewOCRAdapter(ocr.NewExtractor(ocr.Config{
		TesseractLang: cfg.OCR.Language,
		DPI:           cfg.OCR.DPI,
		ServiceURL:    cfg.OCR.ServiceURL,
		Timeout:       cfg.OCR.Timeout,
	}, logger), logger)

	var strategies []extract.Strategy
	if cfg.PDF.URL != "" {
		strategies = append(strategies, extract.NewStructuredStrategy(pdfservice.NewClient(pdfservice.Config{
			BaseURL: cfg.PDF.URL,
			Timeout: cfg.PDF.Timeout,
		}, logger)))
	} else {
		logger.Info("pdf service not configured, structured backend disabled")
	}
	strategies = append(strategies, extract.TextPatternStrategy{})
	llmClient := openai.NewClient(openai.Config{
		APIKey:          cfg.LLM.APIKey,
		BaseURL:         cfg.LLM.BaseURL,
		Model:           cfg.LLM.Model,
		Temperature:     cfg.LLM.Temperature,
		Timeout:         cfg.LLM.Timeout,
		LenientOptional: true,
		Prefilter:       true,
	}, logger)
	strategies = append(strategies, extract.NewLLMStrategy(llmClient, logger))
	s.Chain = extract.NewChain(logger, strategies...)
	logger.Info("extraction chain ready", "backends", s.Chain.Backends(), "llm_model", llmClient.Model())

	proc, err := NewProcessor(Deps{
		Classifier: s.Classifier,
		Text:       s.Text,
		Chain:      s.Chain,
		Validator:  validate.NewValidator(validate.ParseTolerance(cfg.Pipeline.ValidateTolerance), logger),
		TaxYears:   s.TaxYears,
		Documents:  s.Documents,
		Records:    s.Records,
	}, cfg.Pipeline.DocumentTimeout, logger)
	if err != nil {
		return nil, err
	}
	s.Processor = proc
	return s, nil
}
