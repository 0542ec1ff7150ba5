package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/ignite/pressroom/internal/domain"
	"github.com/ignite/pressroom/internal/worker"
)

// BlogRepo implements worker.BlogStore against PostgreSQL.
type BlogRepo struct{ db *sql.DB }

// NewBlogRepo creates a Postgres-backed blog store.
func NewBlogRepo(db *sql.DB) *BlogRepo { return &BlogRepo{db: db} }

func (r *BlogRepo) GetBlog(ctx context.Context, siteID, id string) (*domain.Blog, error) {
	b := &domain.Blog{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, site_id, title, content, COALESCE(excerpt,''), status,
		       published_at, created_at, updated_at
		FROM blogs
		WHERE id = $1 AND site_id = $2
	`, id, siteID).Scan(
		&b.ID, &b.SiteID, &b.Title, &b.Content, &b.Excerpt, &b.Status,
		&b.PublishedAt, &b.CreatedAt, &b.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, worker.ErrContentMissing
	}
	if err != nil {
		return nil, fmt.Errorf("get blog: %w", err)
	}
	return b, nil
}

func (r *BlogRepo) CreateBlog(ctx context.Context, b *domain.Blog) (string, error) {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO blogs (id, site_id, title, content, excerpt, status,
		                   published_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
	`, b.ID, b.SiteID, b.Title, b.Content, b.Excerpt, b.Status, b.PublishedAt)
	if err != nil {
		return "", fmt.Errorf("create blog: %w", err)
	}
	return b.ID, nil
}

func (r *BlogRepo) SetBlogStatus(ctx context.Context, siteID, id string, status domain.BlogStatus) error {
	q := `UPDATE blogs SET status = $1, updated_at = NOW() WHERE id = $2 AND site_id = $3`
	if status == domain.BlogPublished {
		q = `UPDATE blogs SET status = $1, published_at = NOW(), updated_at = NOW()
		     WHERE id = $2 AND site_id = $3`
	}
	res, err := r.db.ExecContext(ctx, q, status, id, siteID)
	if err != nil {
		return fmt.Errorf("set blog status: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return worker.ErrContentMissing
	}
	return nil
}
