package pipeline

// State tracks where a Context sits in the linear workflow.
type State string

const (
	StateCreated    State = "CREATED"
	StateExtracting State = "EXTRACTING"
	StateExtracted  State = "EXTRACTED"
	StateValidating State = "VALIDATING"
	StateValid      State = "VALID"
	StateInvalid    State = "INVALID"
	StateExporting  State = "EXPORTING"
	StateExported   State = "EXPORTED"
	StateFailed     State = "FAILED"
)

// Context is the per-invoice mutable state threaded through the stages.
// One Context per invocation; it is never shared between concurrent
// invocations, so stages mutate it without locking.
type Context struct {
	// InvoicePath locates the source document. Immutable after creation.
	InvoicePath string

	// ExportPath names the tabular destination, or "" when export is not
	// configured for this invocation. Supplied by the caller, never derived.
	ExportPath string

	// JobID and JobStatus are extraction-service correlation identifiers,
	// absent until the extraction stage sets them.
	JobID     string
	JobStatus string

	// Fields holds the decoded invoice attributes once extraction succeeds.
	// Downstream stages must not inspect it before then.
	Fields map[string]any

	// RawText and Markdown carry the provider's raw and markdown payloads
	// for the envelope renderings.
	RawText  string
	Markdown string

	// Feedback lists the violations from the most recent validation attempt.
	// The validation stage resets it before every attempt.
	Feedback []string

	state State
}

// NewContext builds a Context in CREATED with only the paths populated.
func NewContext(invoicePath, exportPath string) *Context {
	return &Context{
		InvoicePath: invoicePath,
		ExportPath:  exportPath,
		state:       StateCreated,
	}
}

// State reports the current workflow state.
func (c *Context) State() State {
	return c.state
}

func (c *Context) setState(s State) {
	c.state = s
}
