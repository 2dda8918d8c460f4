package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-pipeline/internal/extract"
)

// Extract implements extract.Provider over text-only chat/completions, with
// a vision attachment in enhanced mode. This provider handles image
// invoices; PDF sources should go through the parse-service provider.
func (c *Client) Extract(ctx context.Context, path string, mode extract.Mode) (extract.RawResult, error) {
	rid := uuid.New().String()
	start := time.Now()

	ocrRes, err := c.text.Extract(ctx, path)
	if err != nil {
		return extract.RawResult{}, fmt.Errorf("ocr pass: %w", err)
	}

	c.logger.Info("llm.extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"mode", mode,
		"text_len", len(ocrRes.Text),
	)

	schema := extract.BuildInvoiceJSONSchema()
	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": c.userContent(path, ocrRes.Text, mode)},
			{"role": "system", "content": "JSON Schema:\n" + mustJSON(schema)},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	raw, err := c.post(ctx, endpoint, body)
	if err != nil {
		c.logger.Error("llm.extract.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return extract.RawResult{}, err
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		return extract.RawResult{}, fmt.Errorf("decode completion response: %w", err)
	}
	if len(cc.Choices) == 0 {
		return extract.RawResult{}, fmt.Errorf("no choices in completion response")
	}
	content := extract.StripFences(cc.Choices[0].Message.Content)

	// structural check only; missing fields are the rule validator's job
	if err := extract.ValidateAgainstSchema(extract.TolerantSchema(schema), []byte(content)); err != nil {
		c.logger.Error("llm.extract.schema_validation_failed",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return extract.RawResult{}, fmt.Errorf("schema validation failed: %w", err)
	}

	c.logger.Info("llm.extract.ok",
		"req_id", rid,
		"bytes", len(content),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return extract.RawResult{Text: content, JobID: rid, JobStatus: "COMPLETED"}, nil
}

const systemPrompt = "You are an expert invoice data extractor. Extract the following information from the invoice: " +
	"invoice_number (string), date (YYYY-MM-DD), vendor_name (string), total_amount (number), " +
	"line_items (list of objects with description, quantity, unit_price, total_price). " +
	"Return ONLY JSON that matches the provided schema. If a field is not found, omit it."

// userContent builds the user message. Standard mode sends OCR text only;
// enhanced mode also attaches the source image as a data URL.
func (c *Client) userContent(path, ocrText string, mode extract.Mode) any {
	prompt := "Extract invoice information from the following text:\n" + ocrText
	if mode != extract.ModeEnhanced {
		return prompt
	}
	dataURL, _, err := readAsDataURL(path)
	if err != nil {
		c.logger.Warn("llm.extract.attach_failed", "file", path, "error", err)
		return prompt
	}
	return []map[string]any{
		{"type": "text", "text": prompt},
		{"type": "image_url", "image_url": map[string]any{"url": dataURL}},
	}
}

func (c *Client) post(ctx context.Context, url string, body map[string]any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("completion http error: %w", err)
	}
	defer func(rc io.ReadCloser) {
		if cerr := rc.Close(); cerr != nil {
			c.logger.Warn("llm.http.body_close_error", "error", cerr)
		}
	}(resp.Body)

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("completion status %d: %s", resp.StatusCode, raw)
	}
	return raw, nil
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
