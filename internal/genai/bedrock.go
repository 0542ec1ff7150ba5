package genai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/ignite/pressroom/internal/pkg/logger"
)

// bedrockInvoker is the slice of the Bedrock runtime client we use.
type bedrockInvoker interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// BedrockClient generates content through AWS Bedrock's InvokeModel API
// using the Anthropic message format.
type BedrockClient struct {
	client     bedrockInvoker
	modelID    string
	timeout    time.Duration
	reviewPass bool
}

type bedrockMessage struct {
	Role    string                `json:"role"`
	Content []bedrockContentBlock `json:"content"`
}

type bedrockContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type bedrockRequest struct {
	AnthropicVersion string           `json:"anthropic_version"`
	MaxTokens        int              `json:"max_tokens"`
	System           string           `json:"system,omitempty"`
	Messages         []bedrockMessage `json:"messages"`
}

type bedrockResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// NewBedrockClient creates a Bedrock-backed generator using the default
// AWS credential chain. Region comes from AWS_REGION, falling back to
// us-east-1.
func NewBedrockClient(ctx context.Context, modelID string, timeout time.Duration, reviewPass bool) (*BedrockClient, error) {
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = "us-east-1"
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	if modelID == "" {
		modelID = "anthropic.claude-sonnet-4-20250514-v1:0"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &BedrockClient{
		client:     bedrockruntime.NewFromConfig(cfg),
		modelID:    modelID,
		timeout:    timeout,
		reviewPass: reviewPass,
	}, nil
}

// newBedrockClientWithInvoker wires a fake invoker (used in tests).
func newBedrockClientWithInvoker(inv bedrockInvoker, modelID string, timeout time.Duration, reviewPass bool) *BedrockClient {
	return &BedrockClient{client: inv, modelID: modelID, timeout: timeout, reviewPass: reviewPass}
}

// Generate produces a blog draft for the prompt.
func (c *BedrockClient) Generate(ctx context.Context, prompt string, metadata map[string]string) (*Generated, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	text, err := c.invoke(ctx, systemPrompt, buildPrompt(prompt, metadata), 4000)
	if err != nil {
		return nil, err
	}
	g, err := parseGenerated(text)
	if err != nil {
		return nil, err
	}
	logger.Info("content generated",
		"provider", "bedrock", "model", c.modelID, "prompt", prompt,
		"chars", len(g.Content), "duration_ms", time.Since(start).Milliseconds())

	if c.reviewPass {
		if review, err := c.invoke(ctx, reviewPrompt, g.Content, 500); err == nil {
			g.Review = review
		}
	}
	return g, nil
}

func (c *BedrockClient) invoke(ctx context.Context, system, user string, maxTokens int) (string, error) {
	body, err := json.Marshal(bedrockRequest{
		AnthropicVersion: "bedrock-2023-05-31",
		MaxTokens:        maxTokens,
		System:           system,
		Messages: []bedrockMessage{
			{Role: "user", Content: []bedrockContentBlock{{Type: "text", Text: user}}},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal bedrock request: %w", err)
	}

	output, err := c.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(c.modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
			return "", ErrTimeout
		}
		return "", fmt.Errorf("bedrock invoke: %w", err)
	}

	var resp bedrockResponse
	if err := json.Unmarshal(output.Body, &resp); err != nil {
		return "", fmt.Errorf("parse bedrock response: %w", err)
	}
	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	if text == "" {
		return "", ErrEmpty
	}
	return text, nil
}
