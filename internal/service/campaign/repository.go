package campaign

import (
	"context"
	"time"

	"github.com/ignite/pressroom/internal/domain"
)

// Repository defines the data access contract for campaigns.
// Implementations must be safe for concurrent use.
type Repository interface {
	// Get returns a single campaign. Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, siteID, id string) (*domain.Campaign, error)

	// GetWithStats returns a campaign with its derived counters populated
	// from a live aggregation over child posts.
	GetWithStats(ctx context.Context, siteID, id string) (*domain.Campaign, error)

	// List returns campaigns matching the given filter, ordered by created_at DESC.
	List(ctx context.Context, siteID string, filter ListFilter) ([]domain.Campaign, int, error)

	// Create inserts a new campaign and returns its ID.
	Create(ctx context.Context, c *domain.Campaign) (string, error)

	// Update modifies a campaign. Only non-nil fields in the update are applied.
	Update(ctx context.Context, siteID, id string, u UpdateFields) error

	// Delete removes a campaign. Callers must check deletability first.
	Delete(ctx context.Context, siteID, id string) error

	// UpdateStatusFrom transitions a campaign's status with a conditional
	// update: it only succeeds if the row is still in one of the given
	// from-statuses. Returns ErrInvalidTransition when the row was in a
	// different state (lost race or illegal operation).
	UpdateStatusFrom(ctx context.Context, siteID, id string, from []domain.CampaignStatus, to domain.CampaignStatus) error

	// CancelWithPosts atomically cancels the campaign and every non-terminal
	// child post in a single transaction (all-or-nothing).
	CancelWithPosts(ctx context.Context, siteID, id string) error

	// PostCount returns how many scheduled posts have ever existed under the
	// campaign, regardless of status. Used by the delete guard.
	PostCount(ctx context.Context, campaignID string) (int, error)

	// CountPostsOutsideWindow returns how many non-cancelled child posts
	// have a scheduled_at outside [start, end]. Window edits use it to
	// refuse changes that would strand existing posts.
	CountPostsOutsideWindow(ctx context.Context, campaignID string, start, end time.Time) (int, error)
}

// ListFilter controls pagination and filtering for campaign lists.
type ListFilter struct {
	Status string
	Search string
	Limit  int
	Offset int
}

// UpdateFields holds the mutable fields for a campaign update.
// Nil fields are not applied.
type UpdateFields struct {
	Name              *string                  `json:"name"`
	Description       *string                  `json:"description"`
	Goal              *string                  `json:"goal"`
	TargetAudience    *string                  `json:"target_audience"`
	StartDate         *time.Time               `json:"start_date"`
	EndDate           *time.Time               `json:"end_date"`
	Frequency         *domain.PostingFrequency `json:"posting_frequency"`
	CustomSchedule    *string                  `json:"custom_schedule"`
	Timezone          *string                  `json:"timezone"`
	TotalPostsPlanned *int                     `json:"total_posts_planned"`
	Budget            *float64                 `json:"budget"`
	SuccessMetrics    map[string]string        `json:"success_metrics"`
}
