package extract

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/invoice-pipeline/constants"
	"github.com/joseph-ayodele/invoice-pipeline/internal/common"
	"github.com/joseph-ayodele/invoice-pipeline/internal/metrics"
	"github.com/joseph-ayodele/invoice-pipeline/internal/pipeline"
)

// ErrEmptyResult marks an extraction that yielded nothing usable even after
// the enhanced retry.
var ErrEmptyResult = errors.New("extraction returned no data")

// Stage drives a Provider: precondition check, standard attempt, a single
// enhanced retry on an empty payload, then payload decoding.
type Stage struct {
	provider Provider
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

func NewStage(provider Provider, logger *slog.Logger, m *metrics.Metrics) *Stage {
	if logger == nil {
		logger = slog.Default()
	}
	return &Stage{provider: provider, logger: logger, metrics: m}
}

func (s *Stage) Name() string { return "extract" }

// Process extracts structured fields for pc.InvoicePath into pc.Fields.
// The file-existence check happens here, before the external service is
// invoked; a missing file is a precondition error, not an extraction error.
func (s *Stage) Process(ctx context.Context, pc *pipeline.Context) (pipeline.Verdict, error) {
	if err := s.checkSource(pc.InvoicePath); err != nil {
		return pipeline.VerdictInvalid, err
	}

	s.logger.Info("extract.start", "invoice", pc.InvoicePath, "mode", ModeStandard)
	res, err := s.provider.Extract(ctx, pc.InvoicePath, ModeStandard)
	if err != nil {
		return pipeline.VerdictInvalid, common.NewAppError(common.KindExtraction,
			fmt.Sprintf("extract %s", pc.InvoicePath), err)
	}

	if strings.TrimSpace(res.Text) == "" {
		// exactly one retry, harder
		s.logger.Warn("extract.empty_payload", "invoice", pc.InvoicePath, "retry_mode", ModeEnhanced)
		s.metrics.IncExtractionRetry()
		res, err = s.provider.Extract(ctx, pc.InvoicePath, ModeEnhanced)
		if err != nil {
			return pipeline.VerdictInvalid, common.NewAppError(common.KindExtraction,
				fmt.Sprintf("enhanced extract %s", pc.InvoicePath), err)
		}
		if strings.TrimSpace(res.Text) == "" {
			return pipeline.VerdictInvalid, common.NewAppError(common.KindExtraction,
				fmt.Sprintf("no data for %s even after enhanced retry", pc.InvoicePath), ErrEmptyResult)
		}
	}

	pc.JobID = res.JobID
	pc.JobStatus = res.JobStatus
	pc.RawText = res.Text
	pc.Markdown = res.Markdown

	fields, err := DecodeFields(res.Text)
	if err != nil {
		// malformed payload is fatal and distinct from the empty case
		return pipeline.VerdictInvalid, common.NewAppError(common.KindExtraction,
			fmt.Sprintf("malformed payload for %s", pc.InvoicePath), err)
	}
	pc.Fields = fields

	s.logger.Info("extract.ok",
		"invoice", pc.InvoicePath,
		"job_id", pc.JobID,
		"fields", len(fields),
	)
	return pipeline.VerdictOK, nil
}

func (s *Stage) checkSource(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return common.NewAppError(common.KindPrecondition,
				fmt.Sprintf("invoice file not found: %s", path), err)
		}
		return common.NewAppError(common.KindPrecondition,
			fmt.Sprintf("stat invoice file %s", path), err)
	}
	if constants.MapExtToFormat(filepath.Ext(path)) == "" {
		return common.NewAppError(common.KindPrecondition,
			fmt.Sprintf("unsupported file type: %s", filepath.Ext(path)), nil)
	}
	return nil
}
