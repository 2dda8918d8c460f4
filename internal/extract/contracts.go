package extract

import "context"

// Mode selects how hard a provider should work on a document.
type Mode string

const (
	// ModeStandard is the provider's fast path.
	ModeStandard Mode = "standard"
	// ModeEnhanced is the fallback pass (e.g. forced OCR) used when the
	// standard pass comes back empty.
	ModeEnhanced Mode = "enhanced"
)

// RawResult is a provider's payload before decoding. Text carries the
// structured interchange payload (JSON, possibly fenced); Markdown is an
// optional human-readable rendition when the provider produces one.
type RawResult struct {
	Text      string
	Markdown  string
	JobID     string
	JobStatus string
}

// Provider is the single extraction capability the pipeline depends on.
// Concrete providers (cloud parse service, vision LLM) are interchangeable
// behind it; the orchestrator never sees provider-specific detail.
type Provider interface {
	Extract(ctx context.Context, path string, mode Mode) (RawResult, error)
}
