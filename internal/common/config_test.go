package common

import (
	"errors"
	"log/slog"
	"testing"
	"time"
)

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "Postgres")
	t.Setenv("DB_URL", "postgres://localhost/tax")
	t.Setenv("OCR_DPI", "200")
	t.Setenv("LLM_TIMEOUT", "5s")
	t.Setenv("CLASSIFY_THRESHOLD", "0.4")
	t.Setenv("WATCH_DIRS", " /a , ,/b")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := LoadConfig()
	if cfg.Database.Driver != "postgres" {
		t.Errorf("driver: got %q", cfg.Database.Driver)
	}
	if cfg.OCR.DPI != 200 {
		t.Errorf("dpi: got %d", cfg.OCR.DPI)
	}
	if cfg.LLM.Timeout != 5*time.Second {
		t.Errorf("llm timeout: got %s", cfg.LLM.Timeout)
	}
	if cfg.Pipeline.ClassifyThreshold != 0.4 {
		t.Errorf("threshold: got %v", cfg.Pipeline.ClassifyThreshold)
	}
	if len(cfg.Watch.Dirs) != 2 || cfg.Watch.Dirs[0] != "/a" || cfg.Watch.Dirs[1] != "/b" {
		t.Errorf("watch dirs: got %v", cfg.Watch.Dirs)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("log level: got %v", cfg.LogLevel)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("LLM_BASE_URL", "")
	t.Setenv("VALIDATE_TOLERANCE", "")
	cfg := LoadConfig()
	if cfg.LLM.BaseURL != "http://localhost:11434/v1" {
		t.Errorf("base url: got %q", cfg.LLM.BaseURL)
	}
	if cfg.Pipeline.ValidateTolerance != "1.00" {
		t.Errorf("tolerance: got %q", cfg.Pipeline.ValidateTolerance)
	}
}

func TestConfigValidate_RejectsUnknownDriver(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{Driver: "mysql", DSN: "x"}}
	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected error")
	}
	var appErr *AppError
	if !errors.As(err, &appErr) || appErr.Code != "CONFIG_ERROR" {
		t.Fatalf("expected CONFIG_ERROR, got %v", err)
	}
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput in chain")
	}
}

func TestValidator_OrdersErrorsBeforeWarnings(t *testing.T) {
	v := NewValidator()
	v.Warnf("a", "first warning")
	v.Errorf("b", "hard %d", 1)
	v.Required("c", "  ", "Missing c")
	v.Required("d", "ok", "Missing d")

	if !v.HasErrors() {
		t.Fatalf("expected errors")
	}
	got := v.Messages()
	want := []string{"hard 1", "Missing c", "WARNING: first warning"}
	if len(got) != len(want) {
		t.Fatalf("messages: got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("messages[%d]: got %q want %q", i, got[i], want[i])
		}
	}
	if v.ErrorMessage() != "hard 1; Missing c" {
		t.Errorf("error message: got %q", v.ErrorMessage())
	}
}

func TestHTTPStatus(t *testing.T) {
	if got := HTTPStatus(WrapError(ErrNotFound, "doc")); got != 404 {
		t.Errorf("not found: got %d", got)
	}
	if got := HTTPStatus(NewAppError("X", "bad", ErrInvalidInput)); got != 400 {
		t.Errorf("invalid: got %d", got)
	}
	if got := HTTPStatus(errors.New("boom")); got != 500 {
		t.Errorf("other: got %d", got)
	}
}
