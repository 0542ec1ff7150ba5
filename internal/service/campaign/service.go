package campaign

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/pressroom/internal/domain"
	"github.com/robfig/cron/v3"
)

// Service implements campaign business logic. It coordinates between the
// repository layer and the status transition rules in domain. All public
// methods are safe for concurrent use if the underlying repository is
// concurrency-safe.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a campaign service backed by the given repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// SetClock overrides the wall clock (used in tests).
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// Get returns a single campaign.
func (s *Service) Get(ctx context.Context, siteID, id string) (*domain.Campaign, error) {
	return s.repo.Get(ctx, siteID, id)
}

// GetWithStats returns a campaign with derived counters aggregated live
// from its child posts.
func (s *Service) GetWithStats(ctx context.Context, siteID, id string) (*domain.Campaign, error) {
	return s.repo.GetWithStats(ctx, siteID, id)
}

// List returns campaigns matching the filter.
func (s *Service) List(ctx context.Context, siteID string, f ListFilter) ([]domain.Campaign, int, error) {
	return s.repo.List(ctx, siteID, f)
}

// CreateInput holds the fields for creating a new campaign.
type CreateInput struct {
	Name              string                  `json:"name"`
	Description       string                  `json:"description"`
	Goal              string                  `json:"goal"`
	TargetAudience    string                  `json:"target_audience"`
	StartDate         time.Time               `json:"start_date"`
	EndDate           time.Time               `json:"end_date"`
	Frequency         domain.PostingFrequency `json:"posting_frequency"`
	CustomSchedule    string                  `json:"custom_schedule"`
	Timezone          string                  `json:"timezone"`
	TotalPostsPlanned *int                    `json:"total_posts_planned"`
	Budget            *float64                `json:"budget"`
	SuccessMetrics    map[string]string       `json:"success_metrics"`
}

// Create validates and persists a new campaign in draft status.
func (s *Service) Create(ctx context.Context, siteID string, input CreateInput) (*domain.Campaign, error) {
	if input.Timezone == "" {
		input.Timezone = "UTC"
	}

	c := &domain.Campaign{
		ID:                uuid.New().String(),
		SiteID:            siteID,
		Name:              input.Name,
		Description:       input.Description,
		Goal:              input.Goal,
		TargetAudience:    input.TargetAudience,
		StartDate:         input.StartDate,
		EndDate:           input.EndDate,
		Frequency:         input.Frequency,
		CustomSchedule:    input.CustomSchedule,
		Timezone:          input.Timezone,
		TotalPostsPlanned: input.TotalPostsPlanned,
		Budget:            input.Budget,
		SuccessMetrics:    input.SuccessMetrics,
		Status:            domain.CampaignDraft,
	}

	if ferr := validateSchedule(c); ferr != nil {
		return nil, ferr
	}

	id, err := s.repo.Create(ctx, c)
	if err != nil {
		return nil, err
	}
	c.ID = id
	return c, nil
}

// Update modifies structural campaign fields. Updates are rejected once the
// campaign reaches a terminal state.
func (s *Service) Update(ctx context.Context, siteID, id string, u UpdateFields) error {
	c, err := s.repo.Get(ctx, siteID, id)
	if err != nil {
		return err
	}
	if c.Status.IsTerminal() {
		return ErrNotEditable
	}

	// Validate the merged result before touching the row, so a partial
	// update can never leave the schedule inconsistent.
	merged := *c
	applyUpdate(&merged, u)
	if ferr := validateSchedule(&merged); ferr != nil {
		return ferr
	}

	// A shrunk window must not strand posts that were valid when created.
	if u.StartDate != nil || u.EndDate != nil {
		n, err := s.repo.CountPostsOutsideWindow(ctx, id, merged.StartDate, merged.EndDate)
		if err != nil {
			return err
		}
		if n > 0 {
			field := "end_date"
			if u.StartDate != nil {
				field = "start_date"
			}
			return domain.Invalid(field, fmt.Sprintf("new window leaves %d existing posts outside the campaign dates", n))
		}
	}

	return s.repo.Update(ctx, siteID, id, u)
}

// Activate transitions a draft campaign to active.
func (s *Service) Activate(ctx context.Context, siteID, id string) error {
	return s.transition(ctx, siteID, id, []domain.CampaignStatus{domain.CampaignDraft}, domain.CampaignActive)
}

// Pause transitions an active campaign to paused. The orchestrator skips
// posts belonging to paused campaigns.
func (s *Service) Pause(ctx context.Context, siteID, id string) error {
	return s.transition(ctx, siteID, id, []domain.CampaignStatus{domain.CampaignActive}, domain.CampaignPaused)
}

// Resume transitions a paused campaign back to active.
func (s *Service) Resume(ctx context.Context, siteID, id string) error {
	return s.transition(ctx, siteID, id, []domain.CampaignStatus{domain.CampaignPaused}, domain.CampaignActive)
}

// Cancel cancels an active or paused campaign and cascades cancellation to
// all non-terminal child posts in a single transaction. Posts that already
// published or failed keep their history for audit.
func (s *Service) Cancel(ctx context.Context, siteID, id string) error {
	c, err := s.repo.Get(ctx, siteID, id)
	if err != nil {
		return err
	}
	if !c.Status.CanTransition(domain.CampaignCancelled) {
		return fmt.Errorf("%w: %s -> cancelled", ErrInvalidTransition, c.Status)
	}
	return s.repo.CancelWithPosts(ctx, siteID, id)
}

// Delete removes a campaign. Only draft campaigns with no child posts
// (past or present) may be deleted; anything with activity is kept for audit.
func (s *Service) Delete(ctx context.Context, siteID, id string) error {
	c, err := s.repo.Get(ctx, siteID, id)
	if err != nil {
		return err
	}
	if c.Status != domain.CampaignDraft {
		return ErrNotEditable
	}
	n, err := s.repo.PostCount(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrHasActivity
	}
	return s.repo.Delete(ctx, siteID, id)
}

func (s *Service) transition(ctx context.Context, siteID, id string, from []domain.CampaignStatus, to domain.CampaignStatus) error {
	c, err := s.repo.Get(ctx, siteID, id)
	if err != nil {
		return err
	}
	if !c.Status.CanTransition(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, c.Status, to)
	}
	return s.repo.UpdateStatusFrom(ctx, siteID, id, from, to)
}

// validateSchedule checks the cross-field schedule invariants. Returns a
// FieldError naming the first violated field.
func validateSchedule(c *domain.Campaign) *domain.FieldError {
	if c.Name == "" {
		return domain.Invalid("name", "name is required")
	}
	if c.Goal == "" {
		return domain.Invalid("goal", "goal is required")
	}
	if c.StartDate.IsZero() {
		return domain.Invalid("start_date", "start date is required")
	}
	if c.EndDate.IsZero() {
		return domain.Invalid("end_date", "end date is required")
	}
	if !c.EndDate.After(c.StartDate) {
		return domain.Invalid("end_date", "end date must be after start date")
	}
	if !domain.ValidFrequency(c.Frequency) {
		return domain.Invalid("posting_frequency", "unknown posting frequency")
	}
	if c.Frequency == domain.FrequencyCustom {
		if c.CustomSchedule == "" {
			return domain.Invalid("custom_schedule", "custom schedule is required for custom frequency")
		}
		if _, err := cron.ParseStandard(c.CustomSchedule); err != nil {
			return domain.Invalid("custom_schedule", "invalid cron expression: "+err.Error())
		}
	} else if c.CustomSchedule != "" {
		return domain.Invalid("custom_schedule", "custom schedule is only allowed with custom frequency")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return domain.Invalid("timezone", "unrecognized IANA timezone")
	}
	return nil
}

func applyUpdate(c *domain.Campaign, u UpdateFields) {
	if u.Name != nil {
		c.Name = *u.Name
	}
	if u.Description != nil {
		c.Description = *u.Description
	}
	if u.Goal != nil {
		c.Goal = *u.Goal
	}
	if u.TargetAudience != nil {
		c.TargetAudience = *u.TargetAudience
	}
	if u.StartDate != nil {
		c.StartDate = *u.StartDate
	}
	if u.EndDate != nil {
		c.EndDate = *u.EndDate
	}
	if u.Frequency != nil {
		c.Frequency = *u.Frequency
	}
	if u.CustomSchedule != nil {
		c.CustomSchedule = *u.CustomSchedule
	}
	if u.Timezone != nil {
		c.Timezone = *u.Timezone
	}
	if u.TotalPostsPlanned != nil {
		c.TotalPostsPlanned = u.TotalPostsPlanned
	}
	if u.Budget != nil {
		c.Budget = u.Budget
	}
	if u.SuccessMetrics != nil {
		c.SuccessMetrics = u.SuccessMetrics
	}
}
