package validate

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/invoice-pipeline/internal/common"
	"github.com/joseph-ayodele/invoice-pipeline/internal/pipeline"
)

// Stage adapts Validate to the pipeline stage contract.
type Stage struct {
	logger *slog.Logger
}

func NewStage(logger *slog.Logger) *Stage {
	if logger == nil {
		logger = slog.Default()
	}
	return &Stage{logger: logger}
}

func (s *Stage) Name() string { return "validate" }

// Process validates pc.Fields. Absent fields are a fatal precondition (the
// orchestrator never runs this stage before extraction succeeds); rule
// violations are data, reported via VerdictInvalid and pc.Feedback.
func (s *Stage) Process(_ context.Context, pc *pipeline.Context) (pipeline.Verdict, error) {
	if pc.Fields == nil {
		return pipeline.VerdictInvalid, common.NewAppError(common.KindValidation, "no structured fields in context", nil)
	}

	// Feedback reflects only this attempt, never stale accumulation.
	pc.Feedback = nil

	ok, feedback := Validate(pc.Fields)
	pc.Feedback = feedback
	if !ok {
		s.logger.Warn("validate.invalid", "invoice", pc.InvoicePath, "issues", len(feedback))
		return pipeline.VerdictInvalid, nil
	}
	s.logger.Debug("validate.ok", "invoice", pc.InvoicePath)
	return pipeline.VerdictOK, nil
}
