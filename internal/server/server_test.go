package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/invoice-pipeline/internal/pipeline"
)

type stubProcessor struct {
	lastInvoice string
	lastExport  string
	env         *pipeline.Envelope
}

func (s *stubProcessor) Run(_ context.Context, invoicePath, exportPath string) *pipeline.Envelope {
	s.lastInvoice = invoicePath
	s.lastExport = exportPath
	if s.env != nil {
		return s.env
	}
	return &pipeline.Envelope{
		Status:             pipeline.StatusSuccess,
		Message:            "invoice processed successfully",
		InvoicePath:        invoicePath,
		ValidationFeedback: []string{},
	}
}

func newTestServer(t *testing.T, proc Processor, opts ...Option) *Server {
	t.Helper()
	return New(Config{
		Addr:      ":0",
		UploadDir: t.TempDir(),
		ExportDir: t.TempDir(),
	}, proc, nil, opts...)
}

func multipartUpload(t *testing.T, filename, exportName string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte("fake image bytes"))
	require.NoError(t, err)
	if exportName != "" {
		require.NoError(t, mw.WriteField("export", exportName))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, &stubProcessor{})

	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	resp, err := srv.App().Test(req, int(5*time.Second/time.Millisecond))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
}

func TestProcessInvoiceReturnsEnvelope(t *testing.T) {
	proc := &stubProcessor{}
	srv := newTestServer(t, proc)

	body, ct := multipartUpload(t, "invoice.png", "march.xlsx")
	req, _ := http.NewRequest(http.MethodPost, "/process-invoice", body)
	req.Header.Set("Content-Type", ct)

	resp, err := srv.App().Test(req, int(5*time.Second/time.Millisecond))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var env pipeline.Envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	assert.Equal(t, pipeline.StatusSuccess, env.Status)
	assert.NotNil(t, env.ValidationFeedback)

	assert.Contains(t, proc.lastInvoice, "invoice.png")
	assert.Contains(t, proc.lastExport, "march.xlsx")
}

func TestProcessInvoiceEnvelopeStatusDoesNotDriveHTTPStatus(t *testing.T) {
	proc := &stubProcessor{env: &pipeline.Envelope{
		Status:             pipeline.StatusError,
		Message:            "error processing invoice",
		Error:              "extraction failed",
		ValidationFeedback: []string{},
	}}
	srv := newTestServer(t, proc)

	body, ct := multipartUpload(t, "invoice.png", "")
	req, _ := http.NewRequest(http.MethodPost, "/process-invoice", body)
	req.Header.Set("Content-Type", ct)

	resp, err := srv.App().Test(req, int(5*time.Second/time.Millisecond))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	raw, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(raw), `"status":"error"`)
}

func TestProcessInvoiceNoFile(t *testing.T) {
	srv := newTestServer(t, &stubProcessor{})

	req, _ := http.NewRequest(http.MethodPost, "/process-invoice", bytes.NewReader(nil))
	resp, err := srv.App().Test(req, int(5*time.Second/time.Millisecond))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestProcessInvoiceRejectsUnsupportedType(t *testing.T) {
	proc := &stubProcessor{}
	srv := newTestServer(t, proc)

	body, ct := multipartUpload(t, "invoice.docx", "")
	req, _ := http.NewRequest(http.MethodPost, "/process-invoice", body)
	req.Header.Set("Content-Type", ct)

	resp, err := srv.App().Test(req, int(5*time.Second/time.Millisecond))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, proc.lastInvoice, "pipeline must not run for rejected uploads")
}

type stubHistory struct{ jobs []JobView }

func (s stubHistory) List(context.Context, int) ([]JobView, error) { return s.jobs, nil }

func TestListJobs(t *testing.T) {
	hist := stubHistory{jobs: []JobView{{ID: "j1", InvoicePath: "/a.pdf", Status: "SUCCEEDED"}}}
	srv := newTestServer(t, &stubProcessor{}, WithHistory(hist))

	req, _ := http.NewRequest(http.MethodGet, "/jobs", nil)
	resp, err := srv.App().Test(req, int(5*time.Second/time.Millisecond))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var jobs []JobView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&jobs))
	require.Len(t, jobs, 1)
	assert.Equal(t, "j1", jobs[0].ID)
}

func TestListJobsWithoutHistory(t *testing.T) {
	srv := newTestServer(t, &stubProcessor{})

	req, _ := http.NewRequest(http.MethodGet, "/jobs", nil)
	resp, err := srv.App().Test(req, int(5*time.Second/time.Millisecond))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
