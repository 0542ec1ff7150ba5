package domain

import (
	"time"
)

// PostStatus enumerates the lifecycle of a single scheduled post.
type PostStatus string

const (
	// PostPending and PostScheduled are both "not yet due" states. Pending
	// is the creation default; scheduled means an editor confirmed the slot.
	// The orchestrator treats them identically.
	PostPending   PostStatus = "pending"
	PostScheduled PostStatus = "scheduled"
	PostPublished PostStatus = "published"
	PostFailed    PostStatus = "failed"
	PostCancelled PostStatus = "cancelled"
)

// postTransitions is the single authoritative transition table for posts.
// failed -> pending is the retry re-arm edge; failed with exhausted
// attempts simply never takes it.
var postTransitions = map[PostStatus][]PostStatus{
	PostPending:   {PostScheduled, PostPublished, PostFailed, PostCancelled},
	PostScheduled: {PostPending, PostPublished, PostFailed, PostCancelled},
	PostFailed:    {PostPending, PostCancelled},
}

// CanTransition reports whether a post may move from its current status to
// the target status. published and cancelled have no outgoing edges.
func (s PostStatus) CanTransition(to PostStatus) bool {
	for _, t := range postTransitions[s] {
		if t == to {
			return true
		}
	}
	return false
}

// IsTerminal returns true for states the orchestrator never touches again.
// failed is semi-terminal: the retry policy may re-arm it to pending.
func (s PostStatus) IsTerminal() bool {
	return s == PostPublished || s == PostCancelled
}

// Due reports whether a post in this status is eligible for orchestrator
// pickup (lease metadata and scheduled_at checked separately).
func (s PostStatus) Due() bool {
	return s == PostPending || s == PostScheduled
}

// ScheduledPost is one obligation to publish a piece of content at a
// specific time, optionally under a campaign.
type ScheduledPost struct {
	ID         string  `json:"id" db:"id"`
	SiteID     string  `json:"site_id" db:"site_id"`
	CampaignID *string `json:"campaign_id,omitempty" db:"campaign_id"`
	Title      string  `json:"title" db:"title"`

	// Content source: exactly one of BlogID or AutoGenerate must be set.
	// For auto-generate posts, BlogID is filled in at publish time with the
	// generated blog's id.
	BlogID           *string `json:"blog_id,omitempty" db:"blog_id"`
	AutoGenerate     bool    `json:"auto_generate" db:"auto_generate"`
	GenerationPrompt string  `json:"generation_prompt,omitempty" db:"generation_prompt"`

	ScheduledAt time.Time         `json:"scheduled_at" db:"scheduled_at"`
	Timezone    string            `json:"timezone" db:"timezone"`
	Metadata    map[string]string `json:"metadata,omitempty" db:"metadata"`

	Status PostStatus `json:"status" db:"status"`

	PublishedAt     *time.Time `json:"published_at,omitempty" db:"published_at"`
	ErrorMessage    string     `json:"error_message,omitempty" db:"error_message"`
	PublishAttempts int        `json:"publish_attempts" db:"publish_attempts"`

	// Retry and lease metadata, owned by the orchestrator.
	NotBefore   *time.Time `json:"not_before,omitempty" db:"not_before"`
	LeasedUntil *time.Time `json:"-" db:"leased_until"`
	LeasedBy    string     `json:"-" db:"leased_by"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Editable reports whether editors may still modify this post.
func (p *ScheduledPost) Editable() bool {
	return p.Status == PostPending || p.Status == PostScheduled
}
