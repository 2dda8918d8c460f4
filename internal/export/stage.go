package export

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/invoice-pipeline/internal/common"
	"github.com/joseph-ayodele/invoice-pipeline/internal/pipeline"
)

// Stage writes the validated invoice record to its export destination.
type Stage struct {
	svc    *Service
	logger *slog.Logger
}

func NewStage(svc *Service, logger *slog.Logger) *Stage {
	if logger == nil {
		logger = slog.Default()
	}
	return &Stage{svc: svc, logger: logger}
}

func (s *Stage) Name() string { return "export" }

func (s *Stage) Process(ctx context.Context, pc *pipeline.Context) (pipeline.Verdict, error) {
	if pc.Fields == nil {
		return pipeline.VerdictInvalid, common.NewAppError(common.KindExport, "no structured fields to export", nil)
	}
	if err := s.svc.Append(ctx, pc.ExportPath, pc.Fields); err != nil {
		s.logger.Error("export.append.failed",
			"invoice", pc.InvoicePath,
			"destination", pc.ExportPath,
			"error", err,
		)
		return pipeline.VerdictInvalid, common.NewAppError(common.KindExport, "append to workbook", err)
	}
	return pipeline.VerdictOK, nil
}
