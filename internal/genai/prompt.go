package genai

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

const systemPrompt = `You are a professional content writer for a blog publishing platform. ` +
	`Respond ONLY with a JSON object of the form ` +
	`{"title": "...", "content": "...", "excerpt": "..."} ` +
	`where content is full HTML blog content and excerpt is a 1-2 sentence summary. ` +
	`No markdown fences, no commentary.`

const reviewPrompt = `You are an editorial reviewer. Assess the following blog draft for ` +
	`factual soundness, tone, and structure. Respond with one short paragraph.`

// buildPrompt folds campaign metadata into the user prompt so generation
// can reflect the campaign's goal and audience. Keys are sorted for a
// stable prompt.
func buildPrompt(prompt string, metadata map[string]string) string {
	if len(metadata) == 0 {
		return prompt
	}
	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(prompt)
	b.WriteString("\n\nContext:\n")
	for _, k := range keys {
		fmt.Fprintf(&b, "- %s: %s\n", k, metadata[k])
	}
	return b.String()
}

// parseGenerated extracts the {title, content, excerpt} object from raw
// model output. Models occasionally wrap JSON in prose or fences, so we
// scan for the outermost object.
func parseGenerated(text string) (*Generated, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("%w: no JSON object in model output", ErrEmpty)
	}

	var g Generated
	if err := json.Unmarshal([]byte(text[start:end+1]), &g); err != nil {
		return nil, fmt.Errorf("parse generated content: %w", err)
	}
	if g.Title == "" || g.Content == "" {
		return nil, ErrEmpty
	}
	return &g, nil
}
