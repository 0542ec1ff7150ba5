package post

import (
	"context"
	"time"

	"github.com/ignite/pressroom/internal/domain"
)

// Repository defines the data access contract for scheduled posts.
// Implementations must be safe for concurrent use.
type Repository interface {
	// Get returns a single post. Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, siteID, id string) (*domain.ScheduledPost, error)

	// List returns posts matching the filter, ordered by scheduled_at ASC.
	List(ctx context.Context, siteID string, filter ListFilter) ([]domain.ScheduledPost, int, error)

	// Create inserts a new post and returns its ID.
	Create(ctx context.Context, p *domain.ScheduledPost) (string, error)

	// Update modifies a post. Only non-nil fields in the update are applied.
	Update(ctx context.Context, siteID, id string, u UpdateFields) error

	// Delete removes a post. Callers must check deletability first.
	Delete(ctx context.Context, siteID, id string) error

	// UpdateStatusFrom transitions a post's status with a conditional
	// update that only succeeds if the row is still in one of the given
	// from-statuses. Returns ErrInvalidTransition on a lost race.
	UpdateStatusFrom(ctx context.Context, siteID, id string, from []domain.PostStatus, to domain.PostStatus) error
}

// CampaignSource is the slice of the campaign layer this service needs:
// loading the parent campaign so the Scheduling Validator can check window
// containment.
type CampaignSource interface {
	Get(ctx context.Context, siteID, id string) (*domain.Campaign, error)
}

// ListFilter controls filtering for post lists (calendar and list views).
type ListFilter struct {
	Status     string
	CampaignID string
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}

// UpdateFields holds the mutable fields for a post update.
// Nil fields are not applied.
type UpdateFields struct {
	Title            *string           `json:"title"`
	BlogID           *string           `json:"blog_id"`
	AutoGenerate     *bool             `json:"auto_generate"`
	GenerationPrompt *string           `json:"generation_prompt"`
	ScheduledAt      *time.Time        `json:"scheduled_at"`
	Timezone         *string           `json:"timezone"`
	Metadata         map[string]string `json:"metadata"`
}
