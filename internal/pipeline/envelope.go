package pipeline

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joseph-ayodele/invoice-pipeline/internal/common"
	"github.com/joseph-ayodele/invoice-pipeline/internal/render"
)

// Status is the envelope-level outcome.
type Status string

const (
	StatusSuccess Status = "success"
	StatusWarning Status = "warning"
	StatusError   Status = "error"
)

// Renderings carries textual forms of the structured fields for consumers
// that want more than raw JSON.
type Renderings struct {
	JSON     map[string]any `json:"json"`
	Markdown string         `json:"markdown"`
	Text     string         `json:"text"`
}

// Details disambiguates error envelopes without parsing free text.
type Details struct {
	ErrorType       string `json:"error_type,omitempty"`
	FileExists      *bool  `json:"file_exists,omitempty"`
	ExtractionError string `json:"extraction_error,omitempty"`
	ValidationError string `json:"validation_error,omitempty"`
	ExportError     string `json:"export_error,omitempty"`
}

// Envelope is the uniform response returned to callers regardless of outcome.
// The Status field alone distinguishes success/warning/error.
type Envelope struct {
	Status             Status         `json:"status"`
	Message            string         `json:"message"`
	InvoicePath        string         `json:"invoice_path"`
	Data               *Renderings    `json:"data,omitempty"`
	ExtractedData      map[string]any `json:"extracted_data,omitempty"`
	ValidationFeedback []string       `json:"validation_feedback"`
	JobID              string         `json:"job_id,omitempty"`
	JobStatus          string         `json:"job_status,omitempty"`
	Error              string         `json:"error,omitempty"`
	Details            *Details       `json:"details,omitempty"`
}

func successEnvelope(pc *Context) *Envelope {
	md := pc.Markdown
	if md == "" {
		md = render.Markdown(pc.Fields)
	}
	return &Envelope{
		Status:      StatusSuccess,
		Message:     "invoice processed successfully",
		InvoicePath: pc.InvoicePath,
		Data: &Renderings{
			JSON:     pc.Fields,
			Markdown: md,
			Text:     render.PlainText(md),
		},
		ExtractedData:      pc.Fields,
		ValidationFeedback: feedbackOrEmpty(pc),
		JobID:              pc.JobID,
		JobStatus:          pc.JobStatus,
	}
}

func warningEnvelope(pc *Context) *Envelope {
	return &Envelope{
		Status:             StatusWarning,
		Message:            fmt.Sprintf("invoice data failed validation with %d issue(s)", len(pc.Feedback)),
		InvoicePath:        pc.InvoicePath,
		ExtractedData:      pc.Fields,
		ValidationFeedback: feedbackOrEmpty(pc),
		JobID:              pc.JobID,
		JobStatus:          pc.JobStatus,
	}
}

func errorEnvelope(pc *Context, err error) *Envelope {
	kind := common.KindOf(err)
	det := &Details{ErrorType: string(kind)}
	switch kind {
	case common.KindPrecondition:
		if errors.Is(err, fs.ErrNotExist) {
			exists := false
			det.FileExists = &exists
		}
	case common.KindExtraction:
		det.ExtractionError = err.Error()
	case common.KindValidation:
		det.ValidationError = err.Error()
	case common.KindExport:
		det.ExportError = err.Error()
	}
	return &Envelope{
		Status:             StatusError,
		Message:            fmt.Sprintf("error processing invoice %s: %v", pc.InvoicePath, err),
		InvoicePath:        pc.InvoicePath,
		ExtractedData:      pc.Fields,
		ValidationFeedback: feedbackOrEmpty(pc),
		JobID:              pc.JobID,
		JobStatus:          pc.JobStatus,
		Error:              err.Error(),
		Details:            det,
	}
}

func feedbackOrEmpty(pc *Context) []string {
	if pc.Feedback == nil {
		return []string{}
	}
	return pc.Feedback
}
