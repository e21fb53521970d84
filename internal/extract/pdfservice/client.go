// Package pdfservice is a client for the PDF-structure extraction service, which reads
// fillable form fields and positioned page text out of tax-form PDFs.
package pdfservice

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/joseph-ayodele/taxdocs/constants"
	"github.com/joseph-ayodele/taxdocs/internal/common"
)

type Config struct {
	BaseURL string
	Timeout time.Duration
}

type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

type Page struct {
	Text string `json:"text"`
}

// Response is the union of the w2 and 1099 endpoint payloads.
type Response struct {
	Success    bool            `json:"success"`
	Error      string          `json:"error,omitempty"`
	FormFields map[string]any  `json:"form_fields,omitempty"`
	PageData   map[string]Page `json:"page_data,omitempty"`
	Data       map[string]any  `json:"data,omitempty"`
}

// PageText joins page texts in page-key order.
func (r *Response) PageText() string {
	keys := make([]string, 0, len(r.PageData))
	for k := range r.PageData {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		if t := r.PageData[k].Text; t != "" {
			b.WriteString(t)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
		logger:  logger.With("service", "pdfservice"),
	}
}

// Endpoint maps a document type to its service path.
func Endpoint(t constants.DocumentType) (string, bool) {
	switch t {
	case constants.DocW2:
		return "/extract/w2", true
	case constants.Doc1099INT:
		return "/extract/1099_int", true
	case constants.Doc1099DIV:
		return "/extract/1099_div", true
	default:
		return "", false
	}
}

// Extract posts the PDF for docType. A response with success=false is returned as an error.
func (c *Client) Extract(ctx context.Context, docType constants.DocumentType, pdf []byte) (*Response, error) {
	path, ok := Endpoint(docType)
	if !ok {
		return nil, fmt.Errorf("pdf service does not handle %s", docType)
	}
	body := map[string]string{"pdf": base64.StdEncoding.EncodeToString(pdf)}
	if docType == constants.DocW2 {
		body["format"] = "json"
	}

	raw, status, err := common.SendJSON(ctx, c.http, c.baseURL+path, body, nil, c.logger)
	if err != nil {
		return nil, fmt.Errorf("%s (status %d): %w", path, status, err)
	}
	var out Response
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%s: decode response: %w", path, err)
	}
	if !out.Success {
		msg := out.Error
		if msg == "" {
			msg = "success=false"
		}
		return nil, fmt.Errorf("%s: %s", path, msg)
	}
	c.logger.Debug("pdfservice.extract.ok", "path", path, "form_fields", len(out.FormFields),
		"pages", len(out.PageData), "data", len(out.Data))
	return &out, nil
}
