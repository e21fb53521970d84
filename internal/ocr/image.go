package ocr

import (
	"context"
	"fmt"
	"os"

	"github.com/joseph-ayodele/taxdocs/constants"
)

func (e *Extractor) extractImage(ctx context.Context, path string) (Result, error) {
	res := Result{
		SourceType: constants.IMAGE,
		Method:     MethodImageOCR,
		Pages:      1,
		Language:   e.cfg.TesseractLang,
	}

	if e.service != nil {
		res.Engine = EngineService
		data, err := os.ReadFile(path)
		if err != nil {
			return res, fmt.Errorf("read image: %w", err)
		}
		txt, err := e.service.OCRImage(ctx, data)
		if err != nil {
			return res, fmt.Errorf("ocr service: %w", err)
		}
		res.Text = Normalize(txt)
		return res, nil
	}

	res.Engine = EngineTesseract
	txt, warn, err := e.tesseractOCR(ctx, path)
	res.Warnings = warn
	if err != nil {
		return res, err
	}
	res.Text = Normalize(txt)
	return res, nil
}

func (e *Extractor) tesseractOCR(ctx context.Context, path string) (string, []string, error) {
	args := []string{path, "stdout", "-l", e.cfg.TesseractLang, "--dpi", fmt.Sprintf("%d", e.cfg.DPI)}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}

	// tesseract <file> stdout -l <lang>
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, args...)
	if err != nil {
		return "", stderrWarning(errb), fmt.Errorf("tesseract: %w", err)
	}

	// minor cleanup of obvious line noise
	return reBoxNoise.ReplaceAllString(string(out), ""), nil, nil
}
