package common

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig
	Extraction ExtractionConfig
	ParseAPI   ParseAPIConfig
	OpenAI     OpenAIConfig
	OCR        OCRConfig
	Export     ExportConfig
	Store      StoreConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Addr      string
	UploadDir string
}

// ExtractionConfig selects the extraction provider.
type ExtractionConfig struct {
	Provider string // "parseapi" | "openai"
}

// ParseAPIConfig configures the cloud document-parse provider.
type ParseAPIConfig struct {
	BaseURL      string
	APIKey       string
	Premium      bool
	PollInterval time.Duration
	Timeout      time.Duration
}

// OpenAIConfig configures the OpenAI-compatible vision provider.
type OpenAIConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float32
	Timeout     time.Duration
}

// OCRConfig configures the local Tesseract engine.
type OCRConfig struct {
	Languages []string
}

// ExportConfig holds export destination defaults.
type ExportConfig struct {
	Dir string
}

// StoreConfig holds the job-history database location.
type StoreConfig struct {
	Path string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:      getEnv("HTTP_ADDR", ":8080"),
			UploadDir: getEnv("UPLOAD_DIR", "./uploads"),
		},
		Extraction: ExtractionConfig{
			Provider: getEnv("EXTRACTION_PROVIDER", "parseapi"),
		},
		ParseAPI: ParseAPIConfig{
			BaseURL:      getEnv("PARSE_API_URL", "https://api.cloud.llamaindex.ai/api/v1/parsing"),
			APIKey:       getEnv("PARSE_API_KEY", ""),
			Premium:      getEnvAsBool("PARSE_PREMIUM_MODE", true),
			PollInterval: getEnvAsDuration("PARSE_POLL_INTERVAL", 2*time.Second),
			Timeout:      getEnvAsDuration("PARSE_TIMEOUT", 2*time.Minute),
		},
		OpenAI: OpenAIConfig{
			BaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			Model:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			Temperature: getEnvAsFloat32("OPENAI_TEMPERATURE", 0.0),
			Timeout:     getEnvAsDuration("OPENAI_TIMEOUT", 45*time.Second),
		},
		OCR: OCRConfig{
			Languages: getEnvAsList("OCR_LANGUAGES", []string{"eng"}),
		},
		Export: ExportConfig{
			Dir: getEnv("EXPORT_DIR", "./output"),
		},
		Store: StoreConfig{
			Path: getEnv("JOB_DB_PATH", "./invoice-jobs.db"),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
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

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return NewAppError(KindPrecondition, "HTTP_ADDR is required", nil)
	}
	switch c.Extraction.Provider {
	case "parseapi":
		if c.ParseAPI.APIKey == "" {
			return NewAppError(KindPrecondition, "PARSE_API_KEY is required", nil)
		}
	case "openai":
		if c.OpenAI.APIKey == "" {
			return NewAppError(KindPrecondition, "OPENAI_API_KEY is required", nil)
		}
	default:
		return NewAppError(KindPrecondition, "EXTRACTION_PROVIDER must be parseapi or openai", nil)
	}
	return nil
}
