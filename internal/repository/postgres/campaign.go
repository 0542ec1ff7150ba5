package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/pressroom/internal/domain"
	"github.com/ignite/pressroom/internal/service/campaign"
)

// CampaignRepo implements campaign.Repository against PostgreSQL.
type CampaignRepo struct{ db *sql.DB }

// NewCampaignRepo creates a Postgres-backed campaign repository.
func NewCampaignRepo(db *sql.DB) *CampaignRepo { return &CampaignRepo{db: db} }

const campaignCols = `id, site_id, name, COALESCE(description,''), goal,
	COALESCE(target_audience,''), start_date, end_date, posting_frequency,
	COALESCE(custom_schedule,''), timezone, total_posts_planned, budget,
	COALESCE(success_metrics,'{}'::jsonb), status, completed_at, created_at, updated_at`

func scanCampaign(row interface{ Scan(...interface{}) error }) (*domain.Campaign, error) {
	c := &domain.Campaign{}
	var metrics []byte
	err := row.Scan(
		&c.ID, &c.SiteID, &c.Name, &c.Description, &c.Goal,
		&c.TargetAudience, &c.StartDate, &c.EndDate, &c.Frequency,
		&c.CustomSchedule, &c.Timezone, &c.TotalPostsPlanned, &c.Budget,
		&metrics, &c.Status, &c.CompletedAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(metrics) > 0 {
		if err := json.Unmarshal(metrics, &c.SuccessMetrics); err != nil {
			return nil, fmt.Errorf("decode success_metrics: %w", err)
		}
	}
	return c, nil
}

func (r *CampaignRepo) Get(ctx context.Context, siteID, id string) (*domain.Campaign, error) {
	c, err := scanCampaign(r.db.QueryRowContext(ctx, `
		SELECT `+campaignCols+`
		FROM campaigns
		WHERE id = $1 AND site_id = $2
	`, id, siteID))
	if err == sql.ErrNoRows {
		return nil, campaign.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get campaign: %w", err)
	}
	return c, nil
}

// GetWithStats loads the campaign plus derived counters aggregated live
// over its child posts. Counters are never read from stored columns.
func (r *CampaignRepo) GetWithStats(ctx context.Context, siteID, id string) (*domain.Campaign, error) {
	c, err := r.Get(ctx, siteID, id)
	if err != nil {
		return nil, err
	}
	err = r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE status = 'published'),
			COUNT(*) FILTER (WHERE status = 'scheduled'),
			COUNT(*) FILTER (WHERE status = 'pending')
		FROM scheduled_posts
		WHERE campaign_id = $1
	`, id).Scan(&c.PostsPublished, &c.PostsScheduled, &c.PostsPending)
	if err != nil {
		return nil, fmt.Errorf("campaign stats: %w", err)
	}
	return c, nil
}

func (r *CampaignRepo) List(ctx context.Context, siteID string, f campaign.ListFilter) ([]domain.Campaign, int, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}

	where := ` WHERE site_id = $1`
	args := []interface{}{siteID}
	idx := 2
	if f.Status != "" {
		where += fmt.Sprintf(" AND status = $%d", idx)
		args = append(args, f.Status)
		idx++
	}
	if f.Search != "" {
		where += fmt.Sprintf(" AND name ILIKE $%d", idx)
		args = append(args, "%"+f.Search+"%")
		idx++
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM campaigns`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count campaigns: %w", err)
	}

	q := `SELECT ` + campaignCols + ` FROM campaigns` + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list campaigns: %w", err)
	}
	defer rows.Close()

	var out []domain.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan campaign: %w", err)
		}
		out = append(out, *c)
	}
	return out, total, rows.Err()
}

func (r *CampaignRepo) Create(ctx context.Context, c *domain.Campaign) (string, error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	metrics, err := json.Marshal(c.SuccessMetrics)
	if err != nil {
		return "", fmt.Errorf("encode success_metrics: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO campaigns
			(id, site_id, name, description, goal, target_audience,
			 start_date, end_date, posting_frequency, custom_schedule, timezone,
			 total_posts_planned, budget, success_metrics, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, NOW(), NOW())
	`, c.ID, c.SiteID, c.Name, c.Description, c.Goal, c.TargetAudience,
		c.StartDate, c.EndDate, c.Frequency, c.CustomSchedule, c.Timezone,
		c.TotalPostsPlanned, c.Budget, metrics, c.Status)
	if err != nil {
		return "", fmt.Errorf("create campaign: %w", err)
	}
	return c.ID, nil
}

func (r *CampaignRepo) Update(ctx context.Context, siteID, id string, u campaign.UpdateFields) error {
	sets := []string{}
	args := []interface{}{}
	idx := 1
	add := func(col string, val interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, idx))
		args = append(args, val)
		idx++
	}

	if u.Name != nil {
		add("name", *u.Name)
	}
	if u.Description != nil {
		add("description", *u.Description)
	}
	if u.Goal != nil {
		add("goal", *u.Goal)
	}
	if u.TargetAudience != nil {
		add("target_audience", *u.TargetAudience)
	}
	if u.StartDate != nil {
		add("start_date", *u.StartDate)
	}
	if u.EndDate != nil {
		add("end_date", *u.EndDate)
	}
	if u.Frequency != nil {
		add("posting_frequency", *u.Frequency)
	}
	if u.CustomSchedule != nil {
		add("custom_schedule", *u.CustomSchedule)
	}
	if u.Timezone != nil {
		add("timezone", *u.Timezone)
	}
	if u.TotalPostsPlanned != nil {
		add("total_posts_planned", *u.TotalPostsPlanned)
	}
	if u.Budget != nil {
		add("budget", *u.Budget)
	}
	if u.SuccessMetrics != nil {
		metrics, err := json.Marshal(u.SuccessMetrics)
		if err != nil {
			return fmt.Errorf("encode success_metrics: %w", err)
		}
		add("success_metrics", metrics)
	}

	if len(sets) == 0 {
		return nil
	}

	sets = append(sets, "updated_at = NOW()")
	q := fmt.Sprintf("UPDATE campaigns SET %s WHERE id = $%d AND site_id = $%d",
		joinComma(sets), idx, idx+1)
	args = append(args, id, siteID)

	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("update campaign: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return campaign.ErrNotFound
	}
	return nil
}

func (r *CampaignRepo) Delete(ctx context.Context, siteID, id string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM campaigns WHERE id = $1 AND site_id = $2 AND status = 'draft'
	`, id, siteID)
	if err != nil {
		return fmt.Errorf("delete campaign: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return campaign.ErrNotFound
	}
	return nil
}

// UpdateStatusFrom is the conditional transition: the row only moves when
// it is still in one of the expected from-statuses, so concurrent
// operations cannot double-apply a transition.
func (r *CampaignRepo) UpdateStatusFrom(ctx context.Context, siteID, id string, from []domain.CampaignStatus, to domain.CampaignStatus) error {
	args := []interface{}{to, id, siteID}
	in := ""
	for i, s := range from {
		if i > 0 {
			in += ", "
		}
		in += fmt.Sprintf("$%d", len(args)+1)
		args = append(args, s)
	}

	completed := ""
	if to == domain.CampaignCompleted {
		completed = ", completed_at = NOW()"
	}

	res, err := r.db.ExecContext(ctx, fmt.Sprintf(`
		UPDATE campaigns SET status = $1, updated_at = NOW()%s
		WHERE id = $2 AND site_id = $3 AND status IN (%s)
	`, completed, in), args...)
	if err != nil {
		return fmt.Errorf("transition campaign: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return campaign.ErrInvalidTransition
	}
	return nil
}

// CancelWithPosts cancels the campaign and all of its non-terminal posts in
// one transaction. Published and failed posts keep their history.
func (r *CampaignRepo) CancelWithPosts(ctx context.Context, siteID, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin cancel: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE campaigns SET status = 'cancelled', updated_at = NOW()
		WHERE id = $1 AND site_id = $2 AND status IN ('active','paused')
	`, id, siteID)
	if err != nil {
		return fmt.Errorf("cancel campaign: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return campaign.ErrInvalidTransition
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE scheduled_posts SET status = 'cancelled', updated_at = NOW()
		WHERE campaign_id = $1 AND status IN ('pending','scheduled','failed')
	`, id)
	if err != nil {
		return fmt.Errorf("cancel campaign posts: %w", err)
	}

	return tx.Commit()
}

func (r *CampaignRepo) PostCount(ctx context.Context, campaignID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM scheduled_posts WHERE campaign_id = $1
	`, campaignID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("post count: %w", err)
	}
	return n, nil
}

func (r *CampaignRepo) CountPostsOutsideWindow(ctx context.Context, campaignID string, start, end time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM scheduled_posts
		WHERE campaign_id = $1
		  AND status <> 'cancelled'
		  AND (scheduled_at < $2 OR scheduled_at > $3)
	`, campaignID, start, end).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count posts outside window: %w", err)
	}
	return n, nil
}

func joinComma(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out
}
