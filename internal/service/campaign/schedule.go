package campaign

import (
	"time"

	"github.com/ignite/pressroom/internal/domain"
	"github.com/robfig/cron/v3"
)

// PlanDates expands a campaign's cadence into concrete publish times inside
// its date window, in the campaign's timezone. Editors use this as a
// preview before filling slots with scheduled posts.
//
// limit bounds the result; total_posts_planned tightens it further when set.
func PlanDates(c *domain.Campaign, limit int) ([]time.Time, error) {
	if limit <= 0 {
		limit = 100
	}
	if c.TotalPostsPlanned != nil && *c.TotalPostsPlanned > 0 && *c.TotalPostsPlanned < limit {
		limit = *c.TotalPostsPlanned
	}

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, err
	}
	start := c.StartDate.In(loc)
	end := c.EndDate.In(loc)

	if c.Frequency == domain.FrequencyCustom {
		sched, err := cron.ParseStandard(c.CustomSchedule)
		if err != nil {
			return nil, err
		}
		var out []time.Time
		// Next is exclusive of its argument, so step back one second to
		// include a slot exactly at the window start.
		for t := sched.Next(start.Add(-time.Second)); !t.After(end) && len(out) < limit; t = sched.Next(t) {
			out = append(out, t)
		}
		return out, nil
	}

	step := func(t time.Time) time.Time {
		switch c.Frequency {
		case domain.FrequencyDaily:
			return t.AddDate(0, 0, 1)
		case domain.FrequencyWeekly:
			return t.AddDate(0, 0, 7)
		case domain.FrequencyBiweekly:
			return t.AddDate(0, 0, 14)
		case domain.FrequencyMonthly:
			return t.AddDate(0, 1, 0)
		default:
			return end.Add(time.Second) // unknown frequency terminates the loop
		}
	}

	var out []time.Time
	for t := start; !t.After(end) && len(out) < limit; t = step(t) {
		out = append(out, t)
	}
	return out, nil
}
