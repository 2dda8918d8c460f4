package pipeline

import "context"

// Verdict is a stage's non-fatal outcome.
type Verdict int

const (
	// VerdictOK means the stage succeeded and the workflow proceeds.
	VerdictOK Verdict = iota
	// VerdictInvalid means the stage found recoverable validation failures;
	// the Context carries the feedback and the workflow ends in INVALID.
	VerdictInvalid
)

// Stage is one unit of pipeline work. A non-nil error is fatal and halts the
// workflow for this document; VerdictInvalid is data, not an error. Stages
// mutate the Context in place and never build the result envelope.
type Stage interface {
	Name() string
	Process(ctx context.Context, pc *Context) (Verdict, error)
}
