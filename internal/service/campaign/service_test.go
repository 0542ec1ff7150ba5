package campaign_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ignite/pressroom/internal/domain"
	"github.com/ignite/pressroom/internal/service/campaign"
)

// memRepo is an in-memory campaign repository for unit testing.
type memRepo struct {
	mu        sync.Mutex
	campaigns map[string]*domain.Campaign // keyed by id
	postCount map[string]int              // campaignID -> posts ever created
	cancelled map[string]bool             // campaigns whose posts were cascaded
	stranded  map[string]int              // campaignID -> posts outside a proposed window
}

func newMemRepo() *memRepo {
	return &memRepo{
		campaigns: make(map[string]*domain.Campaign),
		postCount: make(map[string]int),
		cancelled: make(map[string]bool),
		stranded:  make(map[string]int),
	}
}

func (m *memRepo) Get(_ context.Context, siteID, id string) (*domain.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok || c.SiteID != siteID {
		return nil, campaign.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memRepo) GetWithStats(ctx context.Context, siteID, id string) (*domain.Campaign, error) {
	return m.Get(ctx, siteID, id)
}

func (m *memRepo) List(_ context.Context, siteID string, f campaign.ListFilter) ([]domain.Campaign, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Campaign
	for _, c := range m.campaigns {
		if c.SiteID != siteID {
			continue
		}
		if f.Status != "" && string(c.Status) != f.Status {
			continue
		}
		out = append(out, *c)
	}
	return out, len(out), nil
}

func (m *memRepo) Create(_ context.Context, c *domain.Campaign) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == "" {
		return "", fmt.Errorf("id required")
	}
	cp := *c
	m.campaigns[cp.ID] = &cp
	return cp.ID, nil
}

func (m *memRepo) Update(_ context.Context, siteID, id string, u campaign.UpdateFields) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok || c.SiteID != siteID {
		return campaign.ErrNotFound
	}
	if u.Name != nil {
		c.Name = *u.Name
	}
	if u.EndDate != nil {
		c.EndDate = *u.EndDate
	}
	return nil
}

func (m *memRepo) Delete(_ context.Context, siteID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok || c.SiteID != siteID {
		return campaign.ErrNotFound
	}
	delete(m.campaigns, id)
	return nil
}

func (m *memRepo) UpdateStatusFrom(_ context.Context, siteID, id string, from []domain.CampaignStatus, to domain.CampaignStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok || c.SiteID != siteID {
		return campaign.ErrNotFound
	}
	for _, f := range from {
		if c.Status == f {
			c.Status = to
			return nil
		}
	}
	return campaign.ErrInvalidTransition
}

func (m *memRepo) CancelWithPosts(_ context.Context, siteID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok || c.SiteID != siteID {
		return campaign.ErrNotFound
	}
	c.Status = domain.CampaignCancelled
	m.cancelled[id] = true
	return nil
}

func (m *memRepo) PostCount(_ context.Context, campaignID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.postCount[campaignID], nil
}

func (m *memRepo) CountPostsOutsideWindow(_ context.Context, campaignID string, _, _ time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stranded[campaignID], nil
}

const testSite = "site-1"

func validInput() campaign.CreateInput {
	start := time.Now().Add(24 * time.Hour)
	return campaign.CreateInput{
		Name:      "Spring Launch",
		Goal:      "drive signups",
		StartDate: start,
		EndDate:   start.AddDate(0, 1, 0),
		Frequency: domain.FrequencyWeekly,
		Timezone:  "America/New_York",
	}
}

func TestCreate(t *testing.T) {
	svc := campaign.NewService(newMemRepo())
	c, err := svc.Create(context.Background(), testSite, validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.Status != domain.CampaignDraft {
		t.Fatalf("expected draft, got %s", c.Status)
	}
	if c.Timezone != "America/New_York" {
		t.Fatalf("timezone not carried: %s", c.Timezone)
	}
}

func TestCreateRejectsBadDates(t *testing.T) {
	svc := campaign.NewService(newMemRepo())
	in := validInput()
	in.EndDate = in.StartDate.Add(-time.Hour)

	_, err := svc.Create(context.Background(), testSite, in)
	var ferr *domain.FieldError
	if !errors.As(err, &ferr) {
		t.Fatalf("expected FieldError, got %v", err)
	}
	if ferr.Field != "end_date" {
		t.Fatalf("expected end_date violation, got %s", ferr.Field)
	}
}

func TestCreateCustomScheduleRequired(t *testing.T) {
	svc := campaign.NewService(newMemRepo())

	in := validInput()
	in.Frequency = domain.FrequencyCustom
	_, err := svc.Create(context.Background(), testSite, in)
	var ferr *domain.FieldError
	if !errors.As(err, &ferr) || ferr.Field != "custom_schedule" {
		t.Fatalf("expected custom_schedule FieldError, got %v", err)
	}

	// Valid cron expression passes.
	in.CustomSchedule = "0 9 * * MON"
	if _, err := svc.Create(context.Background(), testSite, in); err != nil {
		t.Fatalf("valid custom schedule rejected: %v", err)
	}

	// custom_schedule without custom frequency is also a violation.
	in2 := validInput()
	in2.CustomSchedule = "0 9 * * *"
	_, err = svc.Create(context.Background(), testSite, in2)
	if !errors.As(err, &ferr) || ferr.Field != "custom_schedule" {
		t.Fatalf("expected custom_schedule FieldError, got %v", err)
	}
}

func TestCreateRejectsBadTimezone(t *testing.T) {
	svc := campaign.NewService(newMemRepo())
	in := validInput()
	in.Timezone = "Mars/Olympus_Mons"

	_, err := svc.Create(context.Background(), testSite, in)
	var ferr *domain.FieldError
	if !errors.As(err, &ferr) || ferr.Field != "timezone" {
		t.Fatalf("expected timezone FieldError, got %v", err)
	}
}

func TestLifecycleTransitions(t *testing.T) {
	repo := newMemRepo()
	svc := campaign.NewService(repo)
	ctx := context.Background()

	c, _ := svc.Create(ctx, testSite, validInput())

	// draft -> paused is illegal
	if err := svc.Pause(ctx, testSite, c.ID); !errors.Is(err, campaign.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition pausing draft, got %v", err)
	}

	if err := svc.Activate(ctx, testSite, c.ID); err != nil {
		t.Fatalf("activate: %v", err)
	}
	if err := svc.Pause(ctx, testSite, c.ID); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if err := svc.Resume(ctx, testSite, c.ID); err != nil {
		t.Fatalf("resume: %v", err)
	}

	// double activate is illegal
	if err := svc.Activate(ctx, testSite, c.ID); !errors.Is(err, campaign.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition on double activate, got %v", err)
	}
}

func TestCancelCascades(t *testing.T) {
	repo := newMemRepo()
	svc := campaign.NewService(repo)
	ctx := context.Background()

	c, _ := svc.Create(ctx, testSite, validInput())
	svc.Activate(ctx, testSite, c.ID)

	if err := svc.Cancel(ctx, testSite, c.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if !repo.cancelled[c.ID] {
		t.Fatal("cancel must cascade to child posts")
	}

	// Cancelling again is illegal — cancelled is terminal.
	if err := svc.Cancel(ctx, testSite, c.ID); !errors.Is(err, campaign.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestUpdateRejectedWhenTerminal(t *testing.T) {
	repo := newMemRepo()
	svc := campaign.NewService(repo)
	ctx := context.Background()

	c, _ := svc.Create(ctx, testSite, validInput())
	svc.Activate(ctx, testSite, c.ID)
	svc.Cancel(ctx, testSite, c.ID)

	name := "renamed"
	err := svc.Update(ctx, testSite, c.ID, campaign.UpdateFields{Name: &name})
	if !errors.Is(err, campaign.ErrNotEditable) {
		t.Fatalf("expected ErrNotEditable, got %v", err)
	}
}

func TestUpdateValidatesMergedResult(t *testing.T) {
	repo := newMemRepo()
	svc := campaign.NewService(repo)
	ctx := context.Background()

	c, _ := svc.Create(ctx, testSite, validInput())

	// Moving end_date before start_date must be rejected even though
	// start_date itself is untouched.
	bad := c.StartDate.Add(-time.Hour)
	err := svc.Update(ctx, testSite, c.ID, campaign.UpdateFields{EndDate: &bad})
	var ferr *domain.FieldError
	if !errors.As(err, &ferr) || ferr.Field != "end_date" {
		t.Fatalf("expected end_date FieldError, got %v", err)
	}
}

func TestUpdateRejectsWindowShrinkStrandingPosts(t *testing.T) {
	repo := newMemRepo()
	svc := campaign.NewService(repo)
	ctx := context.Background()

	c, _ := svc.Create(ctx, testSite, validInput())
	repo.stranded[c.ID] = 2

	// The shrunk window is valid on its own, but two existing posts
	// would fall outside it.
	shorter := c.StartDate.AddDate(0, 0, 7)
	err := svc.Update(ctx, testSite, c.ID, campaign.UpdateFields{EndDate: &shorter})
	var ferr *domain.FieldError
	if !errors.As(err, &ferr) || ferr.Field != "end_date" {
		t.Fatalf("expected end_date FieldError, got %v", err)
	}

	// Once no posts are stranded the same edit goes through.
	repo.stranded[c.ID] = 0
	if err := svc.Update(ctx, testSite, c.ID, campaign.UpdateFields{EndDate: &shorter}); err != nil {
		t.Fatalf("update: %v", err)
	}
}

func TestCancelDraftRejected(t *testing.T) {
	svc := campaign.NewService(newMemRepo())
	ctx := context.Background()

	c, _ := svc.Create(ctx, testSite, validInput())

	// Drafts are deleted, not cancelled.
	if err := svc.Cancel(ctx, testSite, c.ID); !errors.Is(err, campaign.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestDeleteGuards(t *testing.T) {
	repo := newMemRepo()
	svc := campaign.NewService(repo)
	ctx := context.Background()

	c, _ := svc.Create(ctx, testSite, validInput())

	// Draft with child posts may not be deleted.
	repo.postCount[c.ID] = 2
	if err := svc.Delete(ctx, testSite, c.ID); !errors.Is(err, campaign.ErrHasActivity) {
		t.Fatalf("expected ErrHasActivity, got %v", err)
	}

	repo.postCount[c.ID] = 0
	if err := svc.Delete(ctx, testSite, c.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	// Active campaigns may not be deleted.
	c2, _ := svc.Create(ctx, testSite, validInput())
	svc.Activate(ctx, testSite, c2.ID)
	if err := svc.Delete(ctx, testSite, c2.ID); !errors.Is(err, campaign.ErrNotEditable) {
		t.Fatalf("expected ErrNotEditable, got %v", err)
	}
}

func TestGetNotFound(t *testing.T) {
	svc := campaign.NewService(newMemRepo())
	_, err := svc.Get(context.Background(), testSite, "nonexistent")
	if err != campaign.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
