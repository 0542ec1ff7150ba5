package campaign_test

import (
	"testing"
	"time"

	"github.com/ignite/pressroom/internal/domain"
	"github.com/ignite/pressroom/internal/service/campaign"
)

func planCampaign(freq domain.PostingFrequency) *domain.Campaign {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC) // a Monday
	return &domain.Campaign{
		StartDate: start,
		EndDate:   start.AddDate(0, 0, 28),
		Frequency: freq,
		Timezone:  "UTC",
	}
}

func TestPlanDatesDaily(t *testing.T) {
	c := planCampaign(domain.FrequencyDaily)
	dates, err := campaign.PlanDates(c, 0)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if len(dates) != 29 { // window is inclusive on both ends
		t.Fatalf("expected 29 daily slots, got %d", len(dates))
	}
	if !dates[0].Equal(c.StartDate) {
		t.Fatalf("first slot must be the window start, got %v", dates[0])
	}
	if dates[1].Sub(dates[0]) != 24*time.Hour {
		t.Fatalf("daily step wrong: %v", dates[1].Sub(dates[0]))
	}
}

func TestPlanDatesWeekly(t *testing.T) {
	dates, err := campaign.PlanDates(planCampaign(domain.FrequencyWeekly), 0)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if len(dates) != 5 {
		t.Fatalf("expected 5 weekly slots, got %d", len(dates))
	}
}

func TestPlanDatesHonorsTotalPlanned(t *testing.T) {
	c := planCampaign(domain.FrequencyDaily)
	planned := 3
	c.TotalPostsPlanned = &planned

	dates, err := campaign.PlanDates(c, 0)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if len(dates) != 3 {
		t.Fatalf("expected 3 slots capped by total_posts_planned, got %d", len(dates))
	}
}

func TestPlanDatesCustomCron(t *testing.T) {
	c := planCampaign(domain.FrequencyCustom)
	c.CustomSchedule = "0 9 * * MON" // every Monday 09:00

	dates, err := campaign.PlanDates(c, 0)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if len(dates) != 5 {
		t.Fatalf("expected 5 Mondays, got %d", len(dates))
	}
	// Window start lands exactly on a slot and must be included.
	if !dates[0].Equal(c.StartDate) {
		t.Fatalf("slot at window start excluded: %v", dates[0])
	}
	for _, d := range dates {
		if d.Weekday() != time.Monday || d.Hour() != 9 {
			t.Fatalf("slot off cadence: %v", d)
		}
	}
}

func TestPlanDatesTimezone(t *testing.T) {
	c := planCampaign(domain.FrequencyDaily)
	c.Timezone = "America/New_York"

	dates, err := campaign.PlanDates(c, 5)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if got := dates[0].Location().String(); got != "America/New_York" {
		t.Fatalf("slots must be in the campaign timezone, got %s", got)
	}
}

func TestPlanDatesBadCron(t *testing.T) {
	c := planCampaign(domain.FrequencyCustom)
	c.CustomSchedule = "not a cron"
	if _, err := campaign.PlanDates(c, 0); err == nil {
		t.Fatal("expected error for malformed cron expression")
	}
}
