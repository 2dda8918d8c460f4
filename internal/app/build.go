// Package app wires configuration into a runnable pipeline. Shared by the
// server, batch, and watch entrypoints so provider selection lives in one
// place.
package app

import (
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/joseph-ayodele/invoice-pipeline/internal/common"
	"github.com/joseph-ayodele/invoice-pipeline/internal/export"
	"github.com/joseph-ayodele/invoice-pipeline/internal/extract"
	"github.com/joseph-ayodele/invoice-pipeline/internal/extract/openai"
	"github.com/joseph-ayodele/invoice-pipeline/internal/extract/parseapi"
	"github.com/joseph-ayodele/invoice-pipeline/internal/metrics"
	"github.com/joseph-ayodele/invoice-pipeline/internal/ocr"
	"github.com/joseph-ayodele/invoice-pipeline/internal/pipeline"
	"github.com/joseph-ayodele/invoice-pipeline/internal/store"
	"github.com/joseph-ayodele/invoice-pipeline/internal/validate"
)

// App bundles the built pipeline with its supporting services.
type App struct {
	Workflow *pipeline.Workflow
	Store    *store.Store
	Metrics  *metrics.Metrics
	Registry *prometheus.Registry
}

// Options toggles the optional collaborators.
type Options struct {
	History bool // open the job store and record invocations
	Metrics bool // register prometheus instruments
}

// Build constructs the workflow from configuration.
func Build(cfg *common.Config, logger *slog.Logger, opts Options) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	provider, err := buildProvider(cfg, logger)
	if err != nil {
		return nil, err
	}

	a := &App{}
	var wfOpts []pipeline.Option

	if opts.Metrics {
		a.Registry = prometheus.NewRegistry()
		a.Metrics = metrics.New(a.Registry)
		wfOpts = append(wfOpts, pipeline.WithMetrics(a.Metrics))
	}
	if opts.History {
		st, err := store.Open(cfg.Store.Path, logger)
		if err != nil {
			return nil, fmt.Errorf("open job store: %w", err)
		}
		a.Store = st
		wfOpts = append(wfOpts, pipeline.WithHistory(st))
	}

	extractor := extract.NewStage(provider, logger, a.Metrics)
	validator := validate.NewStage(logger)
	exporter := export.NewStage(export.NewService(logger), logger)

	a.Workflow = pipeline.NewWorkflow(extractor, validator, exporter, logger, wfOpts...)
	return a, nil
}

func buildProvider(cfg *common.Config, logger *slog.Logger) (extract.Provider, error) {
	switch cfg.Extraction.Provider {
	case "parseapi":
		return parseapi.NewClient(parseapi.Config{
			BaseURL:      cfg.ParseAPI.BaseURL,
			APIKey:       cfg.ParseAPI.APIKey,
			Premium:      cfg.ParseAPI.Premium,
			PollInterval: cfg.ParseAPI.PollInterval,
			Timeout:      cfg.ParseAPI.Timeout,
		}, logger), nil
	case "openai":
		text := ocr.NewTesseract(cfg.OCR.Languages, logger)
		return openai.NewClient(openai.Config{
			BaseURL:     cfg.OpenAI.BaseURL,
			APIKey:      cfg.OpenAI.APIKey,
			Model:       cfg.OpenAI.Model,
			Temperature: cfg.OpenAI.Temperature,
			Timeout:     cfg.OpenAI.Timeout,
		}, text, logger), nil
	default:
		return nil, common.NewAppError(common.KindPrecondition,
			fmt.Sprintf("unknown extraction provider %q", cfg.Extraction.Provider), nil)
	}
}

// Close releases held resources.
func (a *App) Close() error {
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}
