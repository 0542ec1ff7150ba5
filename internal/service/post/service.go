package post

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/pressroom/internal/domain"
)

// Service implements scheduled-post business logic.
type Service struct {
	repo      Repository
	campaigns CampaignSource
	now       func() time.Time
}

// NewService creates a post service. campaigns may be nil when campaign
// attachment is not supported by the caller (all posts standalone).
func NewService(repo Repository, campaigns CampaignSource) *Service {
	return &Service{repo: repo, campaigns: campaigns, now: time.Now}
}

// SetClock overrides the wall clock (used in tests).
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// Get returns a single scheduled post.
func (s *Service) Get(ctx context.Context, siteID, id string) (*domain.ScheduledPost, error) {
	return s.repo.Get(ctx, siteID, id)
}

// List returns posts matching the filter.
func (s *Service) List(ctx context.Context, siteID string, f ListFilter) ([]domain.ScheduledPost, int, error) {
	return s.repo.List(ctx, siteID, f)
}

// CreateInput holds the fields for creating a scheduled post.
type CreateInput struct {
	CampaignID       *string           `json:"campaign_id"`
	Title            string            `json:"title"`
	BlogID           *string           `json:"blog_id"`
	AutoGenerate     bool              `json:"auto_generate"`
	GenerationPrompt string            `json:"generation_prompt"`
	ScheduledAt      time.Time         `json:"scheduled_at"`
	Timezone         string            `json:"timezone"`
	Metadata         map[string]string `json:"metadata"`
}

// Create validates and persists a new post in pending status. A post whose
// scheduled_at has already passed is rejected; catching up on overdue work
// is the orchestrator's job, not the editor's.
func (s *Service) Create(ctx context.Context, siteID string, input CreateInput) (*domain.ScheduledPost, error) {
	if input.Timezone == "" {
		input.Timezone = "UTC"
	}
	if _, err := time.LoadLocation(input.Timezone); err != nil {
		return nil, domain.Invalid("timezone", "unrecognized IANA timezone")
	}
	if !input.ScheduledAt.After(s.now()) {
		return nil, domain.Invalid("scheduled_at", "scheduled time must be in the future")
	}

	p := &domain.ScheduledPost{
		ID:               uuid.New().String(),
		SiteID:           siteID,
		CampaignID:       input.CampaignID,
		Title:            input.Title,
		BlogID:           input.BlogID,
		AutoGenerate:     input.AutoGenerate,
		GenerationPrompt: input.GenerationPrompt,
		ScheduledAt:      input.ScheduledAt,
		Timezone:         input.Timezone,
		Metadata:         input.Metadata,
		Status:           domain.PostPending,
	}

	c, err := s.parentCampaign(ctx, siteID, p)
	if err != nil {
		return nil, err
	}
	if ferr := Validate(p, c); ferr != nil {
		return nil, ferr
	}

	id, err := s.repo.Create(ctx, p)
	if err != nil {
		return nil, err
	}
	p.ID = id
	return p, nil
}

// Update modifies an editable post. Published and cancelled posts are
// immutable; posts already past due are rejected too, since the
// orchestrator may pick them up at any moment.
func (s *Service) Update(ctx context.Context, siteID, id string, u UpdateFields) error {
	p, err := s.repo.Get(ctx, siteID, id)
	if err != nil {
		return err
	}
	if !p.Editable() {
		return ErrNotEditable
	}
	if !p.ScheduledAt.After(s.now()) {
		return ErrPastDue
	}

	merged := *p
	applyUpdate(&merged, u)
	if u.Timezone != nil {
		if _, err := time.LoadLocation(*u.Timezone); err != nil {
			return domain.Invalid("timezone", "unrecognized IANA timezone")
		}
	}
	c, err := s.parentCampaign(ctx, siteID, &merged)
	if err != nil {
		return err
	}
	if ferr := Validate(&merged, c); ferr != nil {
		return ferr
	}

	return s.repo.Update(ctx, siteID, id, u)
}

// Confirm moves a pending post to scheduled, marking the slot as reviewed
// by an editor. Both states are equally eligible for publishing.
func (s *Service) Confirm(ctx context.Context, siteID, id string) error {
	return s.repo.UpdateStatusFrom(ctx, siteID, id,
		[]domain.PostStatus{domain.PostPending}, domain.PostScheduled)
}

// Cancel cancels a pending, scheduled, or failed post. The conditional
// update means a post that publishes concurrently wins the race and stays
// published.
func (s *Service) Cancel(ctx context.Context, siteID, id string) error {
	p, err := s.repo.Get(ctx, siteID, id)
	if err != nil {
		return err
	}
	if !p.Status.CanTransition(domain.PostCancelled) {
		return fmt.Errorf("%w: %s -> cancelled", ErrInvalidTransition, p.Status)
	}
	return s.repo.UpdateStatusFrom(ctx, siteID, id,
		[]domain.PostStatus{domain.PostPending, domain.PostScheduled, domain.PostFailed},
		domain.PostCancelled)
}

// Delete removes a post. Published posts are kept for audit.
func (s *Service) Delete(ctx context.Context, siteID, id string) error {
	p, err := s.repo.Get(ctx, siteID, id)
	if err != nil {
		return err
	}
	if p.Status == domain.PostPublished {
		return ErrNotEditable
	}
	return s.repo.Delete(ctx, siteID, id)
}

func (s *Service) parentCampaign(ctx context.Context, siteID string, p *domain.ScheduledPost) (*domain.Campaign, error) {
	if p.CampaignID == nil || *p.CampaignID == "" {
		return nil, nil
	}
	if s.campaigns == nil {
		return nil, domain.Invalid("campaign_id", "campaign attachment is not supported")
	}
	c, err := s.campaigns.Get(ctx, siteID, *p.CampaignID)
	if err != nil {
		return nil, domain.Invalid("campaign_id", "campaign not found")
	}
	return c, nil
}

func applyUpdate(p *domain.ScheduledPost, u UpdateFields) {
	if u.Title != nil {
		p.Title = *u.Title
	}
	if u.BlogID != nil {
		p.BlogID = u.BlogID
	}
	if u.AutoGenerate != nil {
		p.AutoGenerate = *u.AutoGenerate
	}
	if u.GenerationPrompt != nil {
		p.GenerationPrompt = *u.GenerationPrompt
	}
	if u.ScheduledAt != nil {
		p.ScheduledAt = *u.ScheduledAt
	}
	if u.Timezone != nil {
		p.Timezone = *u.Timezone
	}
	if u.Metadata != nil {
		p.Metadata = u.Metadata
	}
}
