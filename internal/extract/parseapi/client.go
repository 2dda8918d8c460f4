// Package parseapi implements the extraction provider backed by the cloud
// document-parse service: upload, job polling, result fetch. The standard
// mode runs the premium parse preset; the enhanced mode forces an OCR pass
// for image-only documents.
package parseapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"

	"github.com/joseph-ayodele/invoice-pipeline/internal/common"
	"github.com/joseph-ayodele/invoice-pipeline/internal/extract"
)

// Config for the parse-service client.
type Config struct {
	BaseURL      string        // default https://api.cloud.llamaindex.ai/api/v1/parsing
	APIKey       string        // if empty, falls back to env PARSE_API_KEY
	Premium      bool          // premium parse preset
	PollInterval time.Duration // job status poll interval
	Timeout      time.Duration // overall per-extraction bound
}

type Client struct {
	cfg     Config
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	logger  *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("PARSE_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.cloud.llamaindex.ai/api/v1/parsing"
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:    "parseapi",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("parseapi.breaker.state_change", "name", name, "from", from.String(), "to", to.String())
		},
	})
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: 60 * time.Second},
		breaker: breaker,
		logger:  logger,
	}
}

type jobStatus struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Extract implements extract.Provider. It is cancellable at every poll and
// never retries on its own; retry policy belongs to the extraction stage.
func (c *Client) Extract(ctx context.Context, path string, mode extract.Mode) (extract.RawResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	rid := uuid.New().String()
	start := time.Now()
	c.logger.Info("parseapi.extract.start", "req_id", rid, "file", path, "mode", mode)

	job, err := c.upload(ctx, rid, path, mode)
	if err != nil {
		return extract.RawResult{}, err
	}

	final, err := c.waitForJob(ctx, rid, job.ID)
	if err != nil {
		return extract.RawResult{JobID: job.ID}, err
	}
	if !strings.EqualFold(final.Status, "SUCCESS") {
		return extract.RawResult{JobID: final.ID, JobStatus: final.Status},
			fmt.Errorf("parse job %s ended in %s: %s", final.ID, final.Status, final.Error)
	}

	payload, err := c.result(ctx, final.ID, "json")
	if err != nil {
		return extract.RawResult{JobID: final.ID, JobStatus: final.Status}, err
	}
	// markdown rendition is best-effort; consumers fall back to rendering
	// the structured fields themselves
	markdown, mdErr := c.result(ctx, final.ID, "markdown")
	if mdErr != nil {
		c.logger.Warn("parseapi.result.markdown_unavailable", "req_id", rid, "job_id", final.ID, "error", mdErr)
	}

	c.logger.Info("parseapi.extract.ok",
		"req_id", rid,
		"job_id", final.ID,
		"bytes", len(payload),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return extract.RawResult{
		Text:      string(payload),
		Markdown:  string(markdown),
		JobID:     final.ID,
		JobStatus: final.Status,
	}, nil
}

func (c *Client) upload(ctx context.Context, rid, path string, mode extract.Mode) (jobStatus, error) {
	f, err := os.Open(path)
	if err != nil {
		return jobStatus{}, common.WrapError(err, "open invoice file")
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			c.logger.Warn("parseapi.upload.close_error", "req_id", rid, "error", cerr)
		}
	}()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return jobStatus{}, common.WrapError(err, "build multipart")
	}
	if _, err := io.Copy(part, f); err != nil {
		return jobStatus{}, common.WrapError(err, "copy file into request")
	}
	fields := map[string]string{
		"premium_mode": strconv.FormatBool(c.cfg.Premium),
		"ocr":          strconv.FormatBool(mode == extract.ModeEnhanced),
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return jobStatus{}, common.WrapError(err, "write form field")
		}
	}
	if err := mw.Close(); err != nil {
		return jobStatus{}, common.WrapError(err, "finalize multipart")
	}

	raw, err := c.do(ctx, http.MethodPost, c.cfg.BaseURL+"/upload", &buf, mw.FormDataContentType())
	if err != nil {
		return jobStatus{}, common.WrapError(err, "upload")
	}
	var job jobStatus
	if err := json.Unmarshal(raw, &job); err != nil {
		return jobStatus{}, common.WrapError(err, "decode upload response")
	}
	if job.ID == "" {
		return jobStatus{}, fmt.Errorf("upload response carries no job id")
	}
	return job, nil
}

func (c *Client) waitForJob(ctx context.Context, rid, jobID string) (jobStatus, error) {
	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()
	for {
		raw, err := c.do(ctx, http.MethodGet, c.cfg.BaseURL+"/job/"+jobID, nil, "")
		if err != nil {
			return jobStatus{ID: jobID}, common.WrapError(err, "poll job")
		}
		var job jobStatus
		if err := json.Unmarshal(raw, &job); err != nil {
			return jobStatus{ID: jobID}, common.WrapError(err, "decode job status")
		}
		switch strings.ToUpper(job.Status) {
		case "SUCCESS", "ERROR", "CANCELED":
			return job, nil
		}
		c.logger.Debug("parseapi.job.pending", "req_id", rid, "job_id", jobID, "status", job.Status)
		select {
		case <-ctx.Done():
			return jobStatus{ID: jobID}, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Client) result(ctx context.Context, jobID, kind string) ([]byte, error) {
	raw, err := c.do(ctx, http.MethodGet, c.cfg.BaseURL+"/job/"+jobID+"/result/"+kind, nil, "")
	if err != nil {
		return nil, common.WrapError(err, "fetch "+kind+" result")
	}
	return raw, nil
}

// do executes one HTTP call through the circuit breaker and returns the raw
// body on any 2xx status.
func (c *Client) do(ctx context.Context, method, url string, body io.Reader, contentType string) ([]byte, error) {
	return c.breaker.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, method, url, body)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer func(rc io.ReadCloser) {
			if cerr := rc.Close(); cerr != nil {
				c.logger.Warn("parseapi.http.body_close_error", "error", cerr)
			}
		}(resp.Body)

		raw, _ := io.ReadAll(resp.Body)
		if resp.StatusCode/100 != 2 {
			return nil, fmt.Errorf("non-2xx status %d: %s", resp.StatusCode, truncate(string(raw), 512))
		}
		return raw, nil
	})
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "...(truncated)"
}
