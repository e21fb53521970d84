package common

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	OCR      OCRConfig
	PDF      PDFServiceConfig
	LLM      LLMConfig
	Pipeline PipelineConfig
	Watch    WatchConfig
	LogLevel slog.Level
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Driver      string // sqlite | postgres
	DSN         string
	MaxConns    int32
	DialTimeout time.Duration
}

// ServerConfig holds daemon listen addresses
type ServerConfig struct {
	HTTPAddr string
	GRPCAddr string
}

// OCRConfig holds OCR-related configuration. An empty ServiceURL means local tesseract.
type OCRConfig struct {
	ServiceURL string
	Language   string
	DPI        int
	Timeout    time.Duration
}

// PDFServiceConfig points at the PDF-structure extraction service; empty URL disables it.
type PDFServiceConfig struct {
	URL     string
	Timeout time.Duration
}

// LLMConfig holds LLM-related configuration
type LLMConfig struct {
	BaseURL     string
	Model       string
	APIKey      string
	Temperature float32
	Timeout     time.Duration
}

// PipelineConfig holds the hand-tuned thresholds.
type PipelineConfig struct {
	ClassifyThreshold float64
	ValidateTolerance string
	// DocumentTimeout bounds one document's trip through the lifecycle; zero disables it.
	DocumentTimeout time.Duration
}

// WatchConfig holds daemon watch settings
type WatchConfig struct {
	Dirs     []string
	Year     int
	Debounce time.Duration
}

// LoadConfig loads .env (if present) and then configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		Database: DatabaseConfig{
			Driver:      strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
			DSN:         getEnv("DB_URL", "file:taxdocs.db?_pragma=foreign_keys(1)"),
			MaxConns:    getEnvAsInt32("DB_MAX_CONNS", 10),
			DialTimeout: getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
		},
		Server: ServerConfig{
			HTTPAddr: getEnv("HTTP_ADDR", ":8081"),
			GRPCAddr: getEnv("GRPC_ADDR", ":8080"),
		},
		OCR: OCRConfig{
			ServiceURL: getEnv("OCR_SERVICE_URL", ""),
			Language:   getEnv("OCR_LANG", "eng"),
			DPI:        getEnvAsInt("OCR_DPI", 300),
			Timeout:    getEnvAsDuration("OCR_TIMEOUT", 60*time.Second),
		},
		PDF: PDFServiceConfig{
			URL:     getEnv("PDF_SERVICE_URL", ""),
			Timeout: getEnvAsDuration("PDF_SERVICE_TIMEOUT", 30*time.Second),
		},
		LLM: LLMConfig{
			BaseURL:     getEnv("LLM_BASE_URL", "http://localhost:11434/v1"),
			Model:       getEnv("LLM_MODEL", "llama3.2"),
			APIKey:      getEnv("LLM_API_KEY", ""),
			Temperature: getEnvAsFloat32("LLM_TEMPERATURE", 0.1),
			Timeout:     getEnvAsDuration("LLM_TIMEOUT", 60*time.Second),
		},
		Pipeline: PipelineConfig{
			ClassifyThreshold: getEnvAsFloat64("CLASSIFY_THRESHOLD", 0.3),
			ValidateTolerance: getEnv("VALIDATE_TOLERANCE", "1.00"),
			DocumentTimeout:   getEnvAsDuration("DOCUMENT_TIMEOUT", 5*time.Minute),
		},
		Watch: WatchConfig{
			Dirs:     getEnvAsList("WATCH_DIRS"),
			Year:     getEnvAsInt("WATCH_YEAR", time.Now().Year()-1),
			Debounce: getEnvAsDuration("WATCH_DEBOUNCE", 500*time.Millisecond),
		},
		LogLevel: ParseLogLevel(getEnv("LOG_LEVEL", "info")),
	}
}

// ParseLogLevel maps debug|info|warn|error to a slog level, defaulting to info.
func ParseLogLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return NewAppError("CONFIG_ERROR", "DB_DRIVER must be sqlite or postgres", ErrInvalidInput)
	}
	if c.Database.DSN == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL is required", ErrInvalidInput)
	}
	if c.Pipeline.ClassifyThreshold < 0 || c.Pipeline.ClassifyThreshold > 1 {
		return NewAppError("CONFIG_ERROR", "CLASSIFY_THRESHOLD must be within [0,1]", ErrInvalidInput)
	}
	if c.LLM.BaseURL == "" {
		return NewAppError("CONFIG_ERROR", "LLM_BASE_URL is required", ErrInvalidInput)
	}
	return nil
}
