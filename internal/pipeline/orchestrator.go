package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/invoice-pipeline/constants"
	"github.com/joseph-ayodele/invoice-pipeline/internal/common"
	"github.com/joseph-ayodele/invoice-pipeline/internal/metrics"
)

// JobOutcome is what the workflow records about a finished invocation.
type JobOutcome struct {
	Status       constants.JobStatus
	RemoteJobID  string
	RemoteStatus string
	RawPayload   string
	Feedback     []string
	Error        string
}

// JobRecorder persists per-invocation job history. Optional; the workflow
// degrades to no persistence when none is configured.
type JobRecorder interface {
	Start(ctx context.Context, invoicePath string) (string, error)
	Finish(ctx context.Context, jobID string, outcome JobOutcome) error
}

// Workflow sequences the stages over one Context per document and is the
// single place that converts every outcome into an Envelope. Concurrent
// invocations are independent; Run may be called from multiple goroutines.
type Workflow struct {
	logger    *slog.Logger
	extractor Stage
	validator Stage
	exporter  Stage
	history   JobRecorder
	metrics   *metrics.Metrics
}

// Option configures optional workflow collaborators.
type Option func(*Workflow)

// WithHistory records each invocation in the given job store.
func WithHistory(rec JobRecorder) Option {
	return func(w *Workflow) { w.history = rec }
}

// WithMetrics publishes pipeline outcome metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(w *Workflow) { w.metrics = m }
}

// NewWorkflow wires the three stages. exporter may be nil when export is
// never configured; it is also skipped per-invocation when the Context has
// no export path.
func NewWorkflow(extractor, validator, exporter Stage, logger *slog.Logger, opts ...Option) *Workflow {
	if logger == nil {
		logger = slog.Default()
	}
	w := &Workflow{
		logger:    logger,
		extractor: extractor,
		validator: validator,
		exporter:  exporter,
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// Run processes a single invoice through the workflow and always returns a
// well-formed envelope, never an error. exportPath may be "" to skip export.
func (w *Workflow) Run(ctx context.Context, invoicePath, exportPath string) (env *Envelope) {
	start := time.Now()
	pc := NewContext(invoicePath, exportPath)

	w.logger.Info("workflow.start", "invoice", invoicePath, "export", exportPath != "")

	var histID string
	if w.history != nil {
		if id, err := w.history.Start(ctx, invoicePath); err != nil {
			w.logger.Warn("workflow.history.start_failed", "invoice", invoicePath, "error", err)
		} else {
			histID = id
		}
	}

	defer func() {
		if r := recover(); r != nil {
			pc.setState(StateFailed)
			env = errorEnvelope(pc, common.NewAppError(common.KindInternal, fmt.Sprintf("unexpected failure: %v", r), nil))
		}
		w.finish(ctx, pc, histID, env, time.Since(start))
	}()

	pc.setState(StateExtracting)
	if _, err := w.extractor.Process(ctx, pc); err != nil {
		pc.setState(StateFailed)
		w.logger.Error("workflow.stage.failed", "stage", w.extractor.Name(), "invoice", invoicePath, "error", err)
		return errorEnvelope(pc, err)
	}
	pc.setState(StateExtracted)

	pc.setState(StateValidating)
	verdict, err := w.validator.Process(ctx, pc)
	if err != nil {
		pc.setState(StateFailed)
		w.logger.Error("workflow.stage.failed", "stage", w.validator.Name(), "invoice", invoicePath, "error", err)
		return errorEnvelope(pc, err)
	}
	if verdict == VerdictInvalid {
		pc.setState(StateInvalid)
		w.logger.Warn("workflow.validate.invalid", "invoice", invoicePath, "issues", len(pc.Feedback))
		return warningEnvelope(pc)
	}
	pc.setState(StateValid)

	if pc.ExportPath != "" && w.exporter != nil {
		pc.setState(StateExporting)
		if _, err := w.exporter.Process(ctx, pc); err != nil {
			// export failure must not discard the extraction/validation work
			pc.setState(StateFailed)
			w.logger.Error("workflow.stage.failed", "stage", w.exporter.Name(), "invoice", invoicePath, "destination", pc.ExportPath, "error", err)
			return errorEnvelope(pc, err)
		}
		pc.setState(StateExported)
	}

	return successEnvelope(pc)
}

func (w *Workflow) finish(ctx context.Context, pc *Context, histID string, env *Envelope, elapsed time.Duration) {
	if env == nil {
		return
	}
	w.metrics.ObserveRun(string(env.Status), elapsed)
	if w.history != nil && histID != "" {
		outcome := JobOutcome{
			Status:       jobStatusFor(env.Status),
			RemoteJobID:  pc.JobID,
			RemoteStatus: pc.JobStatus,
			RawPayload:   pc.RawText,
			Feedback:     pc.Feedback,
			Error:        env.Error,
		}
		if err := w.history.Finish(ctx, histID, outcome); err != nil {
			w.logger.Warn("workflow.history.finish_failed", "job_id", histID, "error", err)
		}
	}
	w.logger.Info("workflow.done",
		"invoice", pc.InvoicePath,
		"status", env.Status,
		"state", pc.State(),
		"elapsed_ms", elapsed.Milliseconds(),
	)
}

func jobStatusFor(s Status) constants.JobStatus {
	switch s {
	case StatusSuccess:
		return constants.JobStatusSucceeded
	case StatusWarning:
		return constants.JobStatusInvalid
	default:
		return constants.JobStatusFailed
	}
}
