// Package ai calls the model service that extracts tables from paper text.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"paper2table/internal/schema"
)

// Client talks to the model service's chat endpoint and turns its output
// into validated tables files.
type Client struct {
	BaseURL string
	Model   string
	HTTP    *http.Client

	log *zap.SugaredLogger
}

// NewClient builds a client for the given service URL and model id.
func NewClient(baseURL, model string, log *zap.Logger) *Client {
	return &Client{
		BaseURL: baseURL,
		Model:   model,
		HTTP:    &http.Client{Timeout: 120 * time.Second},
		log:     log.Sugar().Named("ai.client"),
	}
}

// PageText is the text layer of one paper page, 1-based.
type PageText struct {
	Page int    `json:"page"`
	Text string `json:"text"`
}

// doPostWithRetry performs an HTTP POST to the given path with retry and
// exponential backoff.
func (c *Client) doPostWithRetry(ctx context.Context, path string, body []byte) (*http.Response, error) {
	attempts := 3
	var lastErr error
	for i := 0; i < attempts; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.HTTP.Do(req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if i < attempts-1 {
			backoff := time.Duration(1<<i) * time.Second
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return nil, lastErr
}

// chat posts one prompt and returns the model's raw output string.
func (c *Client) chat(ctx context.Context, prompt string) (string, error) {
	chatReq := map[string]interface{}{
		"agent": c.Model,
		"input": prompt,
	}
	body, err := json.Marshal(chatReq)
	if err != nil {
		return "", err
	}

	c.log.Debugw("posting chat request", "url", c.BaseURL+"/v1/chat", "bytes", len(body))

	resp, err := c.doPostWithRetry(ctx, "/v1/chat", body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	c.log.Debugw("chat response", "status", resp.StatusCode, "bytes", len(respBytes))

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("model service returned status %d", resp.StatusCode)
	}

	var chatResp struct {
		Agent  string `json:"agent"`
		Output string `json:"output"`
	}
	if err := json.Unmarshal(respBytes, &chatResp); err != nil {
		return "", err
	}
	return chatResp.Output, nil
}

var extractionInstructions = strings.Join([]string{
	"CONTEXT",
	"=======",
	"You are a PhD researcher.",
	"",
	"TASK",
	"====",
	"You are going to read the given paper pages and extract zero or more tables that correspond to the given column structure.",
	"",
	"RESTRICTIONS",
	"============",
	" * Only consider data that is in tabular format. Ignore any plain text paragraph",
	" * Don't try to translate data. Keep it in its original language",
	" * Don't try to transform cell contents nor to resume text nor to paraphrase it. Extract data as-is",
	" * If there is no data available for a column and a row, don't try to generate new data. Place an empty string instead",
	" * When possible, generate in the citation output field an APA-style cite of the paper the tables were extracted from",
	" * When a table spans across multiple pages, generate multiple table_fragments, one for each page. Otherwise, generate a single table fragment",
	" * Annotate each table fragment with the page number where it appears",
	"",
	"You MUST return ONLY a single JSON object conforming to the JSON Schema below and NOTHING ELSE - no commentary, no markdown, no code fences.",
}, "\n")

// ExtractTables asks the model to extract every table matching the column
// schema from the given pages. The response is schema-validated; an invalid
// first answer triggers one repair round before failing.
func (c *Client) ExtractTables(ctx context.Context, pages []PageText, columnSchema string) (schema.TablesFile, error) {
	payload := map[string]interface{}{
		"columns": columnSchema,
		"pages":   pages,
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return schema.TablesFile{}, err
	}

	prompt := extractionInstructions +
		"\n\nJSON-SCHEMA:\n" + string(schema.TablesSchema()) +
		"\n\nPAPER:\n" + string(payloadBytes)

	output, err := c.chat(ctx, prompt)
	if err != nil {
		return schema.TablesFile{}, err
	}

	file, parseErr := decodeTables(output)
	if parseErr == nil {
		return file, nil
	}

	c.log.Warnw("model output invalid, attempting repair", "error", parseErr)
	repaired, repairErr := c.repairTables(ctx, output, parseErr)
	if repairErr != nil {
		return schema.TablesFile{}, fmt.Errorf("model output invalid after repair: %w", parseErr)
	}
	return repaired, nil
}

// repairTables sends the broken output back together with the violations and
// asks for a corrected document.
func (c *Client) repairTables(ctx context.Context, broken string, cause error) (schema.TablesFile, error) {
	prompt := "The following output was supposed to be a single JSON object conforming to the JSON Schema below, but it is invalid: " +
		cause.Error() +
		"\nReturn ONLY the corrected JSON object, preserving all extracted data, and NOTHING ELSE." +
		"\n\nJSON-SCHEMA:\n" + string(schema.TablesSchema()) +
		"\n\nINVALID OUTPUT:\n" + broken

	output, err := c.chat(ctx, prompt)
	if err != nil {
		return schema.TablesFile{}, err
	}
	return decodeTables(output)
}

// decodeTables parses model output into a validated tables file, recovering
// the JSON object from surrounding prose or code fences when necessary.
func decodeTables(output string) (schema.TablesFile, error) {
	raw := []byte(output)
	if err := schema.ValidateBytes(raw); err != nil {
		sub, ok := extractJSONObject(output)
		if !ok {
			return schema.TablesFile{}, err
		}
		raw = []byte(sub)
		if err := schema.ValidateBytes(raw); err != nil {
			return schema.TablesFile{}, err
		}
	}
	return schema.Decode(raw)
}

// extractJSONObject cuts the substring between the first '{' and the last
// '}' of the output.
func extractJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}
