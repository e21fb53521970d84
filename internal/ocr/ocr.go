package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/taxdocs/constants"
)

const (
	MethodPDFText  = "pdf-text"
	MethodPDFOCR   = "pdf-ocr"
	MethodImageOCR = "image-ocr"

	EngineEmbedded  = "pdftotext"
	EngineTesseract = "tesseract"
	EngineService   = "ocr-service"
)

type Config struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	TesseractLang string // default "eng"
	DPI           int    // rasterization DPI for scanned PDFs, default 300
	MaxPages      int    // 0 = no limit
	TessdataDir   string

	// ServiceURL switches OCR to the remote service; empty means local tesseract.
	ServiceURL string
	Timeout    time.Duration
}

// Result is the text acquired for one file.
type Result struct {
	Text       string
	Pages      int
	SourceType string // constants.PDF | constants.IMAGE
	Method     string // MethodPDFText | MethodPDFOCR | MethodImageOCR
	Engine     string
	// Digital is true only for embedded PDF text that passed IsUsableDigitalText.
	Digital  bool
	Language string
	Duration time.Duration
	Warnings []string
}

type Extractor struct {
	cfg     Config
	runner  Runner
	service *ServiceClient
	logger  *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	e := &Extractor{cfg: cfg, runner: execRunner{logger: logger}, logger: logger}
	if cfg.ServiceURL != "" {
		e.service = NewServiceClient(cfg.ServiceURL, cfg.TesseractLang, cfg.DPI,
			&http.Client{Timeout: cfg.Timeout}, logger)
	}
	return e
}

// Extract picks a strategy based on file extension.
func (e *Extractor) Extract(ctx context.Context, path string) (Result, error) {
	start := time.Now()
	ext := constants.NormalizeExt(filepath.Ext(path))
	e.logger.Debug("ocr.extract.start", "path", path, "ext", ext, "remote", e.service != nil)

	var (
		res Result
		err error
	)
	switch constants.MapExtToFormat(ext) {
	case constants.PDF:
		res, err = e.extractPDF(ctx, path)
	case constants.IMAGE:
		res, err = e.extractImage(ctx, path)
	default:
		e.logger.Error("unsupported ocr extension", "extension", ext)
		return Result{}, fmt.Errorf("unsupported extension: %q", ext)
	}
	res.Duration = time.Since(start)
	if err != nil {
		e.logger.Error("ocr.extract.error", "path", path, "method", res.Method, "error", err)
		return res, err
	}
	e.logger.Info("ocr.extract.done",
		"path", path,
		"method", res.Method,
		"engine", res.Engine,
		"digital", res.Digital,
		"pages", res.Pages,
		"chars", len(res.Text),
		"elapsed_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}
