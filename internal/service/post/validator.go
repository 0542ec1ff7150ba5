package post

import (
	"fmt"

	"github.com/ignite/pressroom/internal/domain"
)

const maxTitleLen = 200

// Validate is the scheduling validator: a pure check of a post against its
// parent campaign. campaign is nil for standalone posts, which skips the
// window-containment rule. The first violated rule wins and is returned as
// a FieldError so callers can render field-level messages.
func Validate(p *domain.ScheduledPost, c *domain.Campaign) *domain.FieldError {
	if p.Title == "" {
		return domain.Invalid("title", "title is required")
	}
	if len(p.Title) > maxTitleLen {
		return domain.Invalid("title", fmt.Sprintf("title exceeds %d characters", maxTitleLen))
	}

	// Content source: exactly one of blog_id or auto_generate.
	hasBlog := p.BlogID != nil && *p.BlogID != ""
	switch {
	case hasBlog && p.AutoGenerate:
		return domain.Invalid("blog_id", "blog_id and auto_generate are mutually exclusive")
	case !hasBlog && !p.AutoGenerate:
		return domain.Invalid("blog_id", "either blog_id or auto_generate is required")
	case p.AutoGenerate && p.GenerationPrompt == "":
		return domain.Invalid("generation_prompt", "generation prompt is required for auto-generated posts")
	}

	if c != nil {
		if !c.Window(p.ScheduledAt) {
			return domain.Invalid("scheduled_at", "scheduled time falls outside the campaign window")
		}
	}
	return nil
}
