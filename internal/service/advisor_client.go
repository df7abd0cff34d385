package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/courseloop/courseloop-api/internal/config"
)

// AdvisorCallResult holds a chat completion reply including token usage.
type AdvisorCallResult struct {
	Content      string
	InputTokens  int
	OutputTokens int
	FinishReason string // "length" indicates truncation
}

// IsTruncated returns true if the reply was cut off at the max_tokens limit.
func (r *AdvisorCallResult) IsTruncated() bool {
	return r.FinishReason == "length"
}

// AdvisorClient calls an OpenAI-compatible chat completion API.
type AdvisorClient struct {
	cfg    *config.Config
	logger *slog.Logger
	client *http.Client
}

// NewAdvisorClient creates a new advisor client.
func NewAdvisorClient(cfg *config.Config, logger *slog.Logger) *AdvisorClient {
	return &AdvisorClient{
		cfg:    cfg,
		logger: logger,
		client: &http.Client{Timeout: cfg.AdvisorTimeout},
	}
}

// Call sends a single-message chat completion request and returns the reply.
func (c *AdvisorClient) Call(ctx context.Context, prompt string) (*AdvisorCallResult, error) {
	if c.cfg.AdvisorAPIKey == "" {
		return nil, fmt.Errorf("no advisor API key configured")
	}

	reqBody := map[string]any{
		"model": c.cfg.AdvisorModel,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"temperature": c.cfg.AdvisorTemperature,
		"max_tokens":  c.cfg.AdvisorMaxTokens,
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	c.logger.Debug("making advisor API request",
		"model", c.cfg.AdvisorModel,
		"api_url", c.cfg.AdvisorAPIURL,
		"prompt_length", len(prompt),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.AdvisorAPIURL, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.AdvisorAPIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("advisor API request failed", "error", err)
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("advisor API error",
			"status_code", resp.StatusCode,
			"response", string(body),
		)
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	return parseChatCompletion(body)
}

// parseChatCompletion extracts the first choice from an OpenAI-style reply.
func parseChatCompletion(body []byte) (*AdvisorCallResult, error) {
	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
			FinishReason string `json:"finish_reason"`
		} `json:"choices"`
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
		} `json:"usage"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	return &AdvisorCallResult{
		Content:      parsed.Choices[0].Message.Content,
		InputTokens:  parsed.Usage.PromptTokens,
		OutputTokens: parsed.Usage.CompletionTokens,
		FinishReason: parsed.Choices[0].FinishReason,
	}, nil
}
