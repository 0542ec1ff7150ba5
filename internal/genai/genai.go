// Package genai turns generation prompts into publishable blog content.
// Two backends are available: direct Anthropic API access and AWS Bedrock.
// Both produce the same Generated shape so the publish executor doesn't
// care which one is configured.
package genai

import (
	"context"
	"errors"
)

// Sentinel errors. ErrTimeout marks a generation that ran out of time;
// the retry policy treats it as transient.
var (
	ErrTimeout = errors.New("content generation timed out")
	ErrEmpty   = errors.New("generation returned no content")
)

// Generated is one generated blog draft.
type Generated struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Excerpt string `json:"excerpt"`

	// Review holds the optional quality-review verdict when the review
	// pass is enabled. Empty otherwise.
	Review string `json:"review,omitempty"`
}

// Generator produces blog content from a prompt. metadata carries
// campaign context (goal, audience) passed through to the model.
type Generator interface {
	Generate(ctx context.Context, prompt string, metadata map[string]string) (*Generated, error)
}
