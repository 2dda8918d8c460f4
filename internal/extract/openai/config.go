package openai

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joseph-ayodele/invoice-pipeline/internal/ocr"
)

// Config for the OpenAI-compatible provider.
type Config struct {
	APIKey      string        // if empty, falls back to env OPENAI_API_KEY
	BaseURL     string        // default https://api.openai.com/v1
	Model       string        // e.g. "gpt-4o-mini"
	Temperature float32       // 0..2
	Timeout     time.Duration // http client timeout
}

// Client extracts invoice fields by prompting an OpenAI-compatible model
// with locally OCR'd text. In enhanced mode it re-runs OCR and attaches the
// source image so the model can read what OCR could not.
type Client struct {
	cfg    Config
	http   *http.Client
	text   ocr.TextExtractor
	logger *slog.Logger
}

func NewClient(cfg Config, text ocr.TextExtractor, logger *slog.Logger) *Client {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		text:   text,
		logger: logger,
	}
}
