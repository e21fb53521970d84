package openai

import (
	"log/slog"
	"net/http"
	"os"
	"time"
)

// Config for the OpenAI-compatible client. Ollama serves the same API under /v1.
type Config struct {
	APIKey          string        // if empty, falls back to env OPENAI_API_KEY; local servers accept none
	BaseURL         string        // default http://localhost:11434/v1
	Model           string        // e.g., "llama3.2"
	Temperature     float32       // keep near 0 for repeatable extraction
	Timeout         time.Duration // http client timeout
	LenientOptional bool
	// Prefilter drops lines without amounts, box markers or tax keywords before prompting.
	Prefilter bool
}

type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:11434/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "llama3.2"
	}
	if cfg.Temperature < 0 {
		cfg.Temperature = 0
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger.With("service", "llm"),
	}
}

// Model reports the configured model name.
func (c *Client) Model() string { return c.cfg.Model }
