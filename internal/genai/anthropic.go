package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ignite/pressroom/internal/pkg/httpretry"
	"github.com/ignite/pressroom/internal/pkg/logger"
)

const anthropicURL = "https://api.anthropic.com/v1/messages"

// AnthropicClient generates content through the Anthropic Messages API.
type AnthropicClient struct {
	apiKey     string
	model      string
	timeout    time.Duration
	reviewPass bool
	client     httpretry.HTTPDoer
	baseURL    string
}

// NewAnthropicClient creates an Anthropic-backed generator. Requests go
// through a retrying HTTP client so transient API errors don't burn a
// publish attempt.
func NewAnthropicClient(apiKey, model string, timeout time.Duration, reviewPass bool) *AnthropicClient {
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &AnthropicClient{
		apiKey:     apiKey,
		model:      model,
		timeout:    timeout,
		reviewPass: reviewPass,
		client:     httpretry.NewRetryClient(&http.Client{Timeout: timeout}, 3),
		baseURL:    anthropicURL,
	}
}

// SetBaseURL overrides the API endpoint (used in tests).
func (c *AnthropicClient) SetBaseURL(u string) { c.baseURL = u }

// SetHTTPClient overrides the HTTP client (used in tests).
func (c *AnthropicClient) SetHTTPClient(doer httpretry.HTTPDoer) { c.client = doer }

// Generate produces a blog draft for the prompt. Deadline overruns map to
// ErrTimeout so the retry policy can classify them as transient.
func (c *AnthropicClient) Generate(ctx context.Context, prompt string, metadata map[string]string) (*Generated, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	text, err := c.message(ctx, systemPrompt, buildPrompt(prompt, metadata), 4000)
	if err != nil {
		return nil, err
	}
	g, err := parseGenerated(text)
	if err != nil {
		return nil, err
	}
	logger.Info("content generated",
		"provider", "anthropic", "model", c.model, "prompt", prompt,
		"chars", len(g.Content), "duration_ms", time.Since(start).Milliseconds())

	if c.reviewPass {
		review, err := c.message(ctx, reviewPrompt, g.Content, 500)
		if err != nil {
			// The draft is already good; a failed review pass is not
			// worth failing the publish over.
			logger.Warn("review pass failed", "model", c.model, "error", err.Error())
			return g, nil
		}
		g.Review = review
	}
	return g, nil
}

func (c *AnthropicClient) message(ctx context.Context, system, user string, maxTokens int) (string, error) {
	reqBody := map[string]interface{}{
		"model":      c.model,
		"max_tokens": maxTokens,
		"system":     system,
		"messages": []map[string]string{
			{"role": "user", "content": user},
		},
	}

	body, _ := json.Marshal(reqBody)
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
			return "", ErrTimeout
		}
		return "", fmt.Errorf("anthropic request: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("anthropic error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var out struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", fmt.Errorf("parse anthropic response: %w", err)
	}
	if len(out.Content) == 0 {
		return "", ErrEmpty
	}
	return out.Content[0].Text, nil
}
