package genai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func anthropicReply(t *testing.T, text string) []byte {
	t.Helper()
	b, err := json.Marshal(map[string]interface{}{
		"content": []map[string]string{{"type": "text", "text": text}},
	})
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestAnthropicGenerate(t *testing.T) {
	var gotKey, gotVersion string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-api-key")
		gotVersion = r.Header.Get("anthropic-version")
		w.Write(anthropicReply(t, `{"title":"Spring Tips","content":"<p>body</p>","excerpt":"A teaser."}`))
	}))
	defer srv.Close()

	c := NewAnthropicClient("sk-test", "", 10*time.Second, false)
	c.SetBaseURL(srv.URL)

	g, err := c.Generate(context.Background(), "write about spring", map[string]string{"goal": "signups"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if g.Title != "Spring Tips" || g.Content != "<p>body</p>" {
		t.Fatalf("unexpected result: %+v", g)
	}
	if gotKey != "sk-test" || gotVersion != "2023-06-01" {
		t.Fatalf("auth headers not set: key=%q version=%q", gotKey, gotVersion)
	}
}

func TestAnthropicGenerateWrappedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(anthropicReply(t, "Here you go:\n{\"title\":\"T\",\"content\":\"C\",\"excerpt\":\"E\"}\nEnjoy!"))
	}))
	defer srv.Close()

	c := NewAnthropicClient("sk-test", "", 10*time.Second, false)
	c.SetBaseURL(srv.URL)

	g, err := c.Generate(context.Background(), "p", nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if g.Title != "T" {
		t.Fatalf("JSON not extracted from prose: %+v", g)
	}
}

func TestAnthropicGenerateAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"overloaded"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewAnthropicClient("sk-test", "", 10*time.Second, false)
	c.SetBaseURL(srv.URL)

	if _, err := c.Generate(context.Background(), "p", nil); err == nil {
		t.Fatal("expected error on non-200 response")
	}
}

func TestAnthropicGenerateReviewPass(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Write(anthropicReply(t, `{"title":"T","content":"C","excerpt":"E"}`))
			return
		}
		w.Write(anthropicReply(t, "Reads well."))
	}))
	defer srv.Close()

	c := NewAnthropicClient("sk-test", "", 10*time.Second, true)
	c.SetBaseURL(srv.URL)

	g, err := c.Generate(context.Background(), "p", nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if g.Review != "Reads well." {
		t.Fatalf("expected review verdict, got %q", g.Review)
	}
	if calls != 2 {
		t.Fatalf("expected 2 API calls, got %d", calls)
	}
}

func TestAnthropicGenerateTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server notices the client disconnect and
		// cancels the request context; otherwise srv.Close hangs forever.
		io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer srv.Close()

	c := NewAnthropicClient("sk-test", "", 50*time.Millisecond, false)
	c.SetBaseURL(srv.URL)
	c.SetHTTPClient(&http.Client{})

	_, err := c.Generate(context.Background(), "p", nil)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestParseGenerated(t *testing.T) {
	if _, err := parseGenerated("no json here"); !errors.Is(err, ErrEmpty) {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
	if _, err := parseGenerated(`{"title":"","content":"c"}`); !errors.Is(err, ErrEmpty) {
		t.Fatalf("expected ErrEmpty for blank title, got %v", err)
	}
}

func TestBuildPrompt(t *testing.T) {
	got := buildPrompt("write a post", map[string]string{"goal": "growth", "audience": "devs"})
	want := "write a post\n\nContext:\n- audience: devs\n- goal: growth\n"
	if got != want {
		t.Fatalf("prompt mismatch:\n%q\nwant\n%q", got, want)
	}
	if buildPrompt("p", nil) != "p" {
		t.Fatal("metadata-free prompt must pass through")
	}
}
