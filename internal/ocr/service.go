package ocr

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/joseph-ayodele/taxdocs/internal/common"
)

// ServiceClient talks to the OCR microservice (POST /ocr/image, /ocr/pdf).
type ServiceClient struct {
	baseURL  string
	language string
	dpi      int
	http     *http.Client
	logger   *slog.Logger
}

type ocrRequest struct {
	Image    string `json:"image,omitempty"`
	PDF      string `json:"pdf,omitempty"`
	Language string `json:"language"`
	DPI      int    `json:"dpi"`
}

type ocrResponse struct {
	Text     string `json:"text"`
	FullText string `json:"full_text"`
}

func NewServiceClient(baseURL, language string, dpi int, client *http.Client, logger *slog.Logger) *ServiceClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &ServiceClient{
		baseURL:  strings.TrimRight(baseURL, "/"),
		language: language,
		dpi:      dpi,
		http:     client,
		logger:   logger.With("service", "ocr"),
	}
}

func (c *ServiceClient) OCRImage(ctx context.Context, image []byte) (string, error) {
	body := ocrRequest{Image: base64.StdEncoding.EncodeToString(image), Language: c.language, DPI: c.dpi}
	out, err := c.post(ctx, "/ocr/image", body)
	if err != nil {
		return "", err
	}
	return out.Text, nil
}

// OCRPDF returns the service's full_text, falling back to text for older service builds.
func (c *ServiceClient) OCRPDF(ctx context.Context, pdf []byte) (string, error) {
	body := ocrRequest{PDF: base64.StdEncoding.EncodeToString(pdf), Language: c.language, DPI: c.dpi}
	out, err := c.post(ctx, "/ocr/pdf", body)
	if err != nil {
		return "", err
	}
	if out.FullText != "" {
		return out.FullText, nil
	}
	return out.Text, nil
}

func (c *ServiceClient) post(ctx context.Context, endpoint string, body ocrRequest) (ocrResponse, error) {
	raw, status, err := common.SendJSON(ctx, c.http, c.baseURL+endpoint, body, nil, c.logger)
	if err != nil {
		return ocrResponse{}, fmt.Errorf("%s (status %d): %w", endpoint, status, err)
	}
	var out ocrResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return ocrResponse{}, fmt.Errorf("%s: decode response: %w", endpoint, err)
	}
	return out, nil
}
