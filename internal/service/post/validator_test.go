package post_test

import (
	"strings"
	"testing"
	"time"

	"github.com/ignite/pressroom/internal/domain"
	"github.com/ignite/pressroom/internal/service/post"
)

func strp(s string) *string { return &s }

func TestValidate(t *testing.T) {
	start := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	c := &domain.Campaign{
		StartDate: start,
		EndDate:   start.AddDate(0, 0, 30),
	}
	inWindow := start.AddDate(0, 0, 10)

	tests := []struct {
		name      string
		post      domain.ScheduledPost
		campaign  *domain.Campaign
		wantField string // "" means valid
	}{
		{
			name:     "blog post in window",
			post:     domain.ScheduledPost{Title: "Launch", BlogID: strp("b1"), ScheduledAt: inWindow},
			campaign: c,
		},
		{
			name: "auto-generate with prompt",
			post: domain.ScheduledPost{Title: "Launch", AutoGenerate: true,
				GenerationPrompt: "write about spring", ScheduledAt: inWindow},
			campaign: c,
		},
		{
			name:      "missing title",
			post:      domain.ScheduledPost{BlogID: strp("b1"), ScheduledAt: inWindow},
			campaign:  c,
			wantField: "title",
		},
		{
			name:      "title too long",
			post:      domain.ScheduledPost{Title: strings.Repeat("x", 201), BlogID: strp("b1"), ScheduledAt: inWindow},
			campaign:  c,
			wantField: "title",
		},
		{
			name: "both content sources",
			post: domain.ScheduledPost{Title: "Launch", BlogID: strp("b1"), AutoGenerate: true,
				GenerationPrompt: "p", ScheduledAt: inWindow},
			campaign:  c,
			wantField: "blog_id",
		},
		{
			name:      "no content source",
			post:      domain.ScheduledPost{Title: "Launch", ScheduledAt: inWindow},
			campaign:  c,
			wantField: "blog_id",
		},
		{
			name:      "empty blog_id counts as absent",
			post:      domain.ScheduledPost{Title: "Launch", BlogID: strp(""), ScheduledAt: inWindow},
			campaign:  c,
			wantField: "blog_id",
		},
		{
			name:      "auto-generate without prompt",
			post:      domain.ScheduledPost{Title: "Launch", AutoGenerate: true, ScheduledAt: inWindow},
			campaign:  c,
			wantField: "generation_prompt",
		},
		{
			name:      "outside campaign window",
			post:      domain.ScheduledPost{Title: "Launch", BlogID: strp("b1"), ScheduledAt: start.AddDate(0, 0, 35)},
			campaign:  c,
			wantField: "scheduled_at",
		},
		{
			name:     "window boundaries are inclusive",
			post:     domain.ScheduledPost{Title: "Launch", BlogID: strp("b1"), ScheduledAt: c.EndDate},
			campaign: c,
		},
		{
			name: "standalone skips window check",
			post: domain.ScheduledPost{Title: "Launch", BlogID: strp("b1"), ScheduledAt: start.AddDate(1, 0, 0)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ferr := post.Validate(&tt.post, tt.campaign)
			if tt.wantField == "" {
				if ferr != nil {
					t.Fatalf("unexpected violation: %v", ferr)
				}
				return
			}
			if ferr == nil {
				t.Fatalf("expected %s violation, got none", tt.wantField)
			}
			if ferr.Field != tt.wantField {
				t.Fatalf("expected %s violation, got %s (%s)", tt.wantField, ferr.Field, ferr.Reason)
			}
		})
	}
}
