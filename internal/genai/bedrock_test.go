package genai

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

type fakeInvoker struct {
	reply   string
	err     error
	gotBody []byte
}

func (f *fakeInvoker) InvokeModel(_ context.Context, in *bedrockruntime.InvokeModelInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	f.gotBody = in.Body
	if f.err != nil {
		return nil, f.err
	}
	body, _ := json.Marshal(bedrockResponse{
		Content: []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		}{{Type: "text", Text: f.reply}},
	})
	return &bedrockruntime.InvokeModelOutput{Body: body}, nil
}

func TestBedrockGenerate(t *testing.T) {
	inv := &fakeInvoker{reply: `{"title":"T","content":"C","excerpt":"E"}`}
	c := newBedrockClientWithInvoker(inv, "anthropic.claude-sonnet-4-20250514-v1:0", 10*time.Second, false)

	g, err := c.Generate(context.Background(), "write about spring", nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if g.Title != "T" || g.Content != "C" {
		t.Fatalf("unexpected result: %+v", g)
	}

	var req bedrockRequest
	if err := json.Unmarshal(inv.gotBody, &req); err != nil {
		t.Fatalf("request body: %v", err)
	}
	if req.AnthropicVersion != "bedrock-2023-05-31" {
		t.Fatalf("wrong anthropic_version: %s", req.AnthropicVersion)
	}
	if len(req.Messages) != 1 || req.Messages[0].Content[0].Text != "write about spring" {
		t.Fatalf("prompt not carried: %+v", req.Messages)
	}
}

func TestBedrockGenerateInvokeError(t *testing.T) {
	inv := &fakeInvoker{err: errors.New("throttled")}
	c := newBedrockClientWithInvoker(inv, "m", 10*time.Second, false)

	if _, err := c.Generate(context.Background(), "p", nil); err == nil {
		t.Fatal("expected invoke error")
	}
}

func TestBedrockGenerateEmptyReply(t *testing.T) {
	inv := &fakeInvoker{reply: ""}
	c := newBedrockClientWithInvoker(inv, "m", 10*time.Second, false)

	if _, err := c.Generate(context.Background(), "p", nil); !errors.Is(err, ErrEmpty) {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
}
