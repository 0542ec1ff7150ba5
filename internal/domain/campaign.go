package domain

import (
	"time"
)

// CampaignStatus enumerates the lifecycle states of a campaign.
type CampaignStatus string

const (
	CampaignDraft     CampaignStatus = "draft"
	CampaignActive    CampaignStatus = "active"
	CampaignPaused    CampaignStatus = "paused"
	CampaignCompleted CampaignStatus = "completed"
	CampaignCancelled CampaignStatus = "cancelled"
)

// campaignTransitions is the single authoritative transition table.
// Anything not listed here is an illegal transition.
var campaignTransitions = map[CampaignStatus][]CampaignStatus{
	CampaignDraft:  {CampaignActive},
	CampaignActive: {CampaignPaused, CampaignCompleted, CampaignCancelled},
	CampaignPaused: {CampaignActive, CampaignCancelled},
}

// CanTransition reports whether a campaign may move from its current
// status to the target status. Terminal states have no outgoing edges.
func (s CampaignStatus) CanTransition(to CampaignStatus) bool {
	for _, t := range campaignTransitions[s] {
		if t == to {
			return true
		}
	}
	return false
}

// IsTerminal returns true if the campaign is in a final state.
func (s CampaignStatus) IsTerminal() bool {
	return s == CampaignCompleted || s == CampaignCancelled
}

// PostingFrequency describes the cadence of a campaign's publishing plan.
type PostingFrequency string

const (
	FrequencyDaily    PostingFrequency = "daily"
	FrequencyWeekly   PostingFrequency = "weekly"
	FrequencyBiweekly PostingFrequency = "biweekly"
	FrequencyMonthly  PostingFrequency = "monthly"
	FrequencyCustom   PostingFrequency = "custom"
)

// ValidFrequency reports whether f is a recognized posting frequency.
func ValidFrequency(f PostingFrequency) bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly, FrequencyCustom:
		return true
	}
	return false
}

// Campaign is a time-boxed policy describing how often and over what window
// blog posts should be published.
type Campaign struct {
	ID             string           `json:"id" db:"id"`
	SiteID         string           `json:"site_id" db:"site_id"`
	Name           string           `json:"name" db:"name"`
	Description    string           `json:"description,omitempty" db:"description"`
	Goal           string           `json:"goal" db:"goal"`
	TargetAudience string           `json:"target_audience,omitempty" db:"target_audience"`
	StartDate      time.Time        `json:"start_date" db:"start_date"`
	EndDate        time.Time        `json:"end_date" db:"end_date"`
	Frequency      PostingFrequency `json:"posting_frequency" db:"posting_frequency"`
	CustomSchedule string           `json:"custom_schedule,omitempty" db:"custom_schedule"`
	Timezone       string           `json:"timezone" db:"timezone"`

	TotalPostsPlanned *int              `json:"total_posts_planned,omitempty" db:"total_posts_planned"`
	Budget            *float64          `json:"budget,omitempty" db:"budget"`
	SuccessMetrics    map[string]string `json:"success_metrics,omitempty" db:"success_metrics"`

	Status CampaignStatus `json:"status" db:"status"`

	// Derived counters. Populated by aggregation over child posts,
	// never mutated independently.
	PostsPublished int `json:"posts_published" db:"posts_published"`
	PostsScheduled int `json:"posts_scheduled" db:"posts_scheduled"`
	PostsPending   int `json:"posts_pending" db:"posts_pending"`

	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// Window reports whether t falls inside the campaign's date range (inclusive).
func (c *Campaign) Window(t time.Time) bool {
	return !t.Before(c.StartDate) && !t.After(c.EndDate)
}
