package post_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ignite/pressroom/internal/domain"
	"github.com/ignite/pressroom/internal/service/post"
)

type memRepo struct {
	mu    sync.Mutex
	posts map[string]*domain.ScheduledPost
}

func newMemRepo() *memRepo {
	return &memRepo{posts: make(map[string]*domain.ScheduledPost)}
}

func (m *memRepo) Get(_ context.Context, siteID, id string) (*domain.ScheduledPost, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok || p.SiteID != siteID {
		return nil, post.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memRepo) List(_ context.Context, siteID string, f post.ListFilter) ([]domain.ScheduledPost, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.ScheduledPost
	for _, p := range m.posts {
		if p.SiteID != siteID {
			continue
		}
		if f.Status != "" && string(p.Status) != f.Status {
			continue
		}
		if f.CampaignID != "" && (p.CampaignID == nil || *p.CampaignID != f.CampaignID) {
			continue
		}
		out = append(out, *p)
	}
	return out, len(out), nil
}

func (m *memRepo) Create(_ context.Context, p *domain.ScheduledPost) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == "" {
		return "", fmt.Errorf("id required")
	}
	cp := *p
	m.posts[cp.ID] = &cp
	return cp.ID, nil
}

func (m *memRepo) Update(_ context.Context, siteID, id string, u post.UpdateFields) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok || p.SiteID != siteID {
		return post.ErrNotFound
	}
	if u.Title != nil {
		p.Title = *u.Title
	}
	if u.ScheduledAt != nil {
		p.ScheduledAt = *u.ScheduledAt
	}
	return nil
}

func (m *memRepo) Delete(_ context.Context, siteID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok || p.SiteID != siteID {
		return post.ErrNotFound
	}
	delete(m.posts, id)
	return nil
}

func (m *memRepo) UpdateStatusFrom(_ context.Context, siteID, id string, from []domain.PostStatus, to domain.PostStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok || p.SiteID != siteID {
		return post.ErrNotFound
	}
	for _, f := range from {
		if p.Status == f {
			p.Status = to
			return nil
		}
	}
	return post.ErrInvalidTransition
}

// campaignSource serves a fixed set of campaigns.
type campaignSource map[string]*domain.Campaign

func (cs campaignSource) Get(_ context.Context, _, id string) (*domain.Campaign, error) {
	c, ok := cs[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return c, nil
}

var testNow = time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC)

func newTestService(repo *memRepo, cs campaignSource) *post.Service {
	svc := post.NewService(repo, cs)
	svc.SetClock(func() time.Time { return testNow })
	return svc
}

func standaloneInput() post.CreateInput {
	blogID := "blog-1"
	return post.CreateInput{
		Title:       "Announcement",
		BlogID:      &blogID,
		ScheduledAt: testNow.Add(48 * time.Hour),
	}
}

func TestCreateStandalone(t *testing.T) {
	svc := newTestService(newMemRepo(), nil)
	p, err := svc.Create(context.Background(), "site-1", standaloneInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.Status != domain.PostPending {
		t.Fatalf("expected pending, got %s", p.Status)
	}
	if p.Timezone != "UTC" {
		t.Fatalf("expected UTC default timezone, got %s", p.Timezone)
	}
}

func TestCreateRejectsPastScheduledAt(t *testing.T) {
	svc := newTestService(newMemRepo(), nil)
	in := standaloneInput()
	in.ScheduledAt = testNow.Add(-time.Hour)

	_, err := svc.Create(context.Background(), "site-1", in)
	var ferr *domain.FieldError
	if !errors.As(err, &ferr) || ferr.Field != "scheduled_at" {
		t.Fatalf("expected scheduled_at FieldError, got %v", err)
	}
}

func TestCreateEnforcesCampaignWindow(t *testing.T) {
	cs := campaignSource{
		"camp-1": {
			ID:        "camp-1",
			StartDate: testNow,
			EndDate:   testNow.AddDate(0, 0, 30),
		},
	}
	svc := newTestService(newMemRepo(), cs)

	in := standaloneInput()
	campID := "camp-1"
	in.CampaignID = &campID
	in.ScheduledAt = testNow.AddDate(0, 0, 35) // past the campaign end

	_, err := svc.Create(context.Background(), "site-1", in)
	var ferr *domain.FieldError
	if !errors.As(err, &ferr) || ferr.Field != "scheduled_at" {
		t.Fatalf("expected scheduled_at window violation, got %v", err)
	}

	in.ScheduledAt = testNow.AddDate(0, 0, 10)
	if _, err := svc.Create(context.Background(), "site-1", in); err != nil {
		t.Fatalf("in-window create rejected: %v", err)
	}
}

func TestCreateUnknownCampaign(t *testing.T) {
	svc := newTestService(newMemRepo(), campaignSource{})
	in := standaloneInput()
	campID := "ghost"
	in.CampaignID = &campID

	_, err := svc.Create(context.Background(), "site-1", in)
	var ferr *domain.FieldError
	if !errors.As(err, &ferr) || ferr.Field != "campaign_id" {
		t.Fatalf("expected campaign_id FieldError, got %v", err)
	}
}

func TestUpdateGuards(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo, nil)
	ctx := context.Background()

	p, _ := svc.Create(ctx, "site-1", standaloneInput())
	title := "Renamed"

	if err := svc.Update(ctx, "site-1", p.ID, post.UpdateFields{Title: &title}); err != nil {
		t.Fatalf("update: %v", err)
	}

	// Published posts are immutable.
	repo.posts[p.ID].Status = domain.PostPublished
	if err := svc.Update(ctx, "site-1", p.ID, post.UpdateFields{Title: &title}); !errors.Is(err, post.ErrNotEditable) {
		t.Fatalf("expected ErrNotEditable, got %v", err)
	}

	// Past-due posts belong to the orchestrator.
	repo.posts[p.ID].Status = domain.PostPending
	repo.posts[p.ID].ScheduledAt = testNow.Add(-time.Minute)
	if err := svc.Update(ctx, "site-1", p.ID, post.UpdateFields{Title: &title}); !errors.Is(err, post.ErrPastDue) {
		t.Fatalf("expected ErrPastDue, got %v", err)
	}
}

func TestUpdateRevalidatesWindow(t *testing.T) {
	cs := campaignSource{
		"camp-1": {
			ID:        "camp-1",
			StartDate: testNow,
			EndDate:   testNow.AddDate(0, 0, 30),
		},
	}
	repo := newMemRepo()
	svc := newTestService(repo, cs)
	ctx := context.Background()

	in := standaloneInput()
	campID := "camp-1"
	in.CampaignID = &campID
	in.ScheduledAt = testNow.AddDate(0, 0, 10)
	p, err := svc.Create(ctx, "site-1", in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	outside := testNow.AddDate(0, 0, 40)
	err = svc.Update(ctx, "site-1", p.ID, post.UpdateFields{ScheduledAt: &outside})
	var ferr *domain.FieldError
	if !errors.As(err, &ferr) || ferr.Field != "scheduled_at" {
		t.Fatalf("expected window violation on reschedule, got %v", err)
	}
}

func TestConfirmAndCancel(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo, nil)
	ctx := context.Background()

	p, _ := svc.Create(ctx, "site-1", standaloneInput())

	if err := svc.Confirm(ctx, "site-1", p.ID); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if got := repo.posts[p.ID].Status; got != domain.PostScheduled {
		t.Fatalf("expected scheduled, got %s", got)
	}

	if err := svc.Cancel(ctx, "site-1", p.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if got := repo.posts[p.ID].Status; got != domain.PostCancelled {
		t.Fatalf("expected cancelled, got %s", got)
	}

	// cancelled is terminal
	if err := svc.Cancel(ctx, "site-1", p.ID); !errors.Is(err, post.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestCancelFailedPost(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo, nil)
	ctx := context.Background()

	p, _ := svc.Create(ctx, "site-1", standaloneInput())
	repo.posts[p.ID].Status = domain.PostFailed

	if err := svc.Cancel(ctx, "site-1", p.ID); err != nil {
		t.Fatalf("cancel failed post: %v", err)
	}
}

func TestDeletePublishedRejected(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo, nil)
	ctx := context.Background()

	p, _ := svc.Create(ctx, "site-1", standaloneInput())
	repo.posts[p.ID].Status = domain.PostPublished

	if err := svc.Delete(ctx, "site-1", p.ID); !errors.Is(err, post.ErrNotEditable) {
		t.Fatalf("expected ErrNotEditable, got %v", err)
	}

	repo.posts[p.ID].Status = domain.PostFailed
	if err := svc.Delete(ctx, "site-1", p.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
}
