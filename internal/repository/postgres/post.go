package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/ignite/pressroom/internal/domain"
	"github.com/ignite/pressroom/internal/service/post"
)

// PostRepo implements post.Repository against PostgreSQL. It covers the
// editor-facing CRUD surface; lease and claim queries belong to the
// orchestrator, which owns its own SQL.
type PostRepo struct{ db *sql.DB }

// NewPostRepo creates a Postgres-backed scheduled-post repository.
func NewPostRepo(db *sql.DB) *PostRepo { return &PostRepo{db: db} }

const postCols = `id, site_id, campaign_id, title, blog_id, auto_generate,
	COALESCE(generation_prompt,''), scheduled_at, timezone,
	COALESCE(metadata,'{}'::jsonb), status, published_at,
	COALESCE(error_message,''), publish_attempts, not_before,
	leased_until, COALESCE(leased_by,''), created_at, updated_at`

func scanPost(row interface{ Scan(...interface{}) error }) (*domain.ScheduledPost, error) {
	p := &domain.ScheduledPost{}
	var meta []byte
	err := row.Scan(
		&p.ID, &p.SiteID, &p.CampaignID, &p.Title, &p.BlogID, &p.AutoGenerate,
		&p.GenerationPrompt, &p.ScheduledAt, &p.Timezone,
		&meta, &p.Status, &p.PublishedAt,
		&p.ErrorMessage, &p.PublishAttempts, &p.NotBefore,
		&p.LeasedUntil, &p.LeasedBy, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &p.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata: %w", err)
		}
	}
	return p, nil
}

func (r *PostRepo) Get(ctx context.Context, siteID, id string) (*domain.ScheduledPost, error) {
	p, err := scanPost(r.db.QueryRowContext(ctx, `
		SELECT `+postCols+`
		FROM scheduled_posts
		WHERE id = $1 AND site_id = $2
	`, id, siteID))
	if err == sql.ErrNoRows {
		return nil, post.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	return p, nil
}

func (r *PostRepo) List(ctx context.Context, siteID string, f post.ListFilter) ([]domain.ScheduledPost, int, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}

	where := ` WHERE site_id = $1`
	args := []interface{}{siteID}
	idx := 2
	if f.Status != "" {
		where += fmt.Sprintf(" AND status = $%d", idx)
		args = append(args, f.Status)
		idx++
	}
	if f.CampaignID != "" {
		where += fmt.Sprintf(" AND campaign_id = $%d", idx)
		args = append(args, f.CampaignID)
		idx++
	}
	if f.From != nil {
		where += fmt.Sprintf(" AND scheduled_at >= $%d", idx)
		args = append(args, *f.From)
		idx++
	}
	if f.To != nil {
		where += fmt.Sprintf(" AND scheduled_at <= $%d", idx)
		args = append(args, *f.To)
		idx++
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM scheduled_posts`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count posts: %w", err)
	}

	q := `SELECT ` + postCols + ` FROM scheduled_posts` + where +
		fmt.Sprintf(" ORDER BY scheduled_at ASC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	var out []domain.ScheduledPost
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan post: %w", err)
		}
		out = append(out, *p)
	}
	return out, total, rows.Err()
}

func (r *PostRepo) Create(ctx context.Context, p *domain.ScheduledPost) (string, error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	meta, err := json.Marshal(p.Metadata)
	if err != nil {
		return "", fmt.Errorf("encode metadata: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO scheduled_posts
			(id, site_id, campaign_id, title, blog_id, auto_generate,
			 generation_prompt, scheduled_at, timezone, metadata, status,
			 publish_attempts, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 0, NOW(), NOW())
	`, p.ID, p.SiteID, p.CampaignID, p.Title, p.BlogID, p.AutoGenerate,
		p.GenerationPrompt, p.ScheduledAt, p.Timezone, meta, p.Status)
	if err != nil {
		return "", fmt.Errorf("create post: %w", err)
	}
	return p.ID, nil
}

func (r *PostRepo) Update(ctx context.Context, siteID, id string, u post.UpdateFields) error {
	sets := []string{}
	args := []interface{}{}
	idx := 1
	add := func(col string, val interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, idx))
		args = append(args, val)
		idx++
	}

	if u.Title != nil {
		add("title", *u.Title)
	}
	if u.BlogID != nil {
		add("blog_id", *u.BlogID)
	}
	if u.AutoGenerate != nil {
		add("auto_generate", *u.AutoGenerate)
	}
	if u.GenerationPrompt != nil {
		add("generation_prompt", *u.GenerationPrompt)
	}
	if u.ScheduledAt != nil {
		add("scheduled_at", *u.ScheduledAt)
	}
	if u.Timezone != nil {
		add("timezone", *u.Timezone)
	}
	if u.Metadata != nil {
		meta, err := json.Marshal(u.Metadata)
		if err != nil {
			return fmt.Errorf("encode metadata: %w", err)
		}
		add("metadata", meta)
	}

	if len(sets) == 0 {
		return nil
	}

	sets = append(sets, "updated_at = NOW()")
	q := fmt.Sprintf("UPDATE scheduled_posts SET %s WHERE id = $%d AND site_id = $%d",
		joinComma(sets), idx, idx+1)
	args = append(args, id, siteID)

	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return post.ErrNotFound
	}
	return nil
}

func (r *PostRepo) Delete(ctx context.Context, siteID, id string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM scheduled_posts
		WHERE id = $1 AND site_id = $2 AND status <> 'published'
	`, id, siteID)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return post.ErrNotFound
	}
	return nil
}

func (r *PostRepo) UpdateStatusFrom(ctx context.Context, siteID, id string, from []domain.PostStatus, to domain.PostStatus) error {
	args := []interface{}{to, id, siteID}
	in := ""
	for i, s := range from {
		if i > 0 {
			in += ", "
		}
		in += fmt.Sprintf("$%d", len(args)+1)
		args = append(args, s)
	}

	res, err := r.db.ExecContext(ctx, fmt.Sprintf(`
		UPDATE scheduled_posts SET status = $1, updated_at = NOW()
		WHERE id = $2 AND site_id = $3 AND status IN (%s)
	`, in), args...)
	if err != nil {
		return fmt.Errorf("transition post: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return post.ErrInvalidTransition
	}
	return nil
}
