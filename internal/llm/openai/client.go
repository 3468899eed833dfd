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
	"github.com/macrotrack/planparse/internal/llm"
)

// Interpret implements llm.PlanInterpreter over chat/completions with JSON
// response mode. Text and image inputs share the same system prompt; only the
// user turn differs (text block vs image_url block).
func (c *Client) Interpret(ctx context.Context, in llm.Input) (llm.CandidatePlan, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.logger.Info("llm.interpret.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"text_len", len(in.Text),
		"has_image", in.ImageURL != "",
	)

	var userContent any
	if in.ImageURL != "" {
		userContent = []map[string]any{
			{"type": "text", "text": llm.ImageTaskText},
			{"type": "image_url", "image_url": map[string]any{"url": in.ImageURL}},
		}
	} else {
		userContent = llm.BuildUserText(in.Text)
	}

	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"max_tokens":      c.cfg.MaxTokens,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": llm.BuildSystemPrompt()},
			{"role": "user", "content": userContent},
		},
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	raw, err := c.post(ctx, endpoint, body)
	if err != nil {
		c.logger.Error("llm.interpret.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.CandidatePlan{}, nil, err
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.logger.Error("llm.interpret.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.CandidatePlan{}, raw, fmt.Errorf("decode openai response: %w", err)
	}
	if len(cc.Choices) == 0 {
		c.logger.Error("llm.interpret.no_choices", "req_id", rid, "raw_bytes", len(raw))
		return llm.CandidatePlan{}, raw, fmt.Errorf("no choices in openai response")
	}
	content := strings.TrimSpace(cc.Choices[0].Message.Content)
	if content == "" {
		c.logger.Error("llm.interpret.empty_content", "req_id", rid)
		return llm.CandidatePlan{}, raw, fmt.Errorf("empty content in openai response")
	}

	plan, cleaned, err := llm.DecodeCandidatePlan([]byte(content), c.logger)
	if err != nil {
		c.logger.Error("llm.interpret.invalid_payload",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.CandidatePlan{}, []byte(content), err
	}

	c.logger.Info("llm.interpret.ok",
		"req_id", rid,
		"plan_name", plan.PlanName,
		"meals", len(plan.Meals),
		"confidence", plan.Confidence,
		"warnings", len(plan.Warnings),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return plan, cleaned, nil
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
		return nil, fmt.Errorf("openai http error: %w", err)
	}
	defer func(body io.ReadCloser) {
		if cerr := body.Close(); cerr != nil {
			c.logger.Warn("openai response body close error", "error", cerr)
		}
	}(resp.Body)

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("openai status %d: %s", resp.StatusCode, string(raw))
	}
	return raw, nil
}
