package domain

import "time"

// BlogStatus enumerates the publication states of a blog document.
type BlogStatus string

const (
	BlogDraft       BlogStatus = "draft"
	BlogPublished   BlogStatus = "published"
	BlogUnpublished BlogStatus = "unpublished"
)

// Blog is a blog document as seen at the orchestrator's boundary with the
// blog store. The orchestrator reads, creates, and publishes blogs; it
// never edits their content.
type Blog struct {
	ID          string     `json:"id" db:"id"`
	SiteID      string     `json:"site_id" db:"site_id"`
	Title       string     `json:"title" db:"title"`
	Content     string     `json:"content" db:"content"`
	Excerpt     string     `json:"excerpt" db:"excerpt"`
	Status      BlogStatus `json:"status" db:"status"`
	PublishedAt *time.Time `json:"published_at,omitempty" db:"published_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}
