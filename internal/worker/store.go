package worker

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ignite/pressroom/internal/domain"
)

// PostStore is the slice of post persistence the publish executor needs.
// Kept narrow so tests can fake it.
type PostStore interface {
	// RecordBlogID stores the generated blog's id on the post before the
	// publish commit, so a re-run after lease expiry reuses the blog
	// instead of generating a duplicate.
	RecordBlogID(ctx context.Context, postID, blogID string) error

	// CommitPublished flips the post to published if it is still in a
	// publishable status. Returns false when the post moved elsewhere in
	// the meantime (cancelled concurrently); the caller must treat that
	// as the other side winning.
	CommitPublished(ctx context.Context, postID string) (bool, error)

	// MarkFailure records a failed attempt: error message, incremented
	// attempt counter, the next status, and the earliest next attempt
	// time for retries.
	MarkFailure(ctx context.Context, postID, msg string, next domain.PostStatus, notBefore *time.Time) error

	// NoteError records a message on the post without touching its status
	// or attempt counter. Used for anomalies after the publish commit,
	// where the post is already terminal but an operator needs to see
	// what went wrong.
	NoteError(ctx context.Context, postID, msg string) error
}

// SQLPostStore implements PostStore plus the orchestrator's lease queries
// against PostgreSQL.
type SQLPostStore struct{ db *sql.DB }

// NewSQLPostStore creates a Postgres-backed post store.
func NewSQLPostStore(db *sql.DB) *SQLPostStore { return &SQLPostStore{db: db} }

// Claim atomically leases up to limit due posts for workerID. A post is
// due when its status is pending or scheduled, scheduled_at and not_before
// have passed, no live lease exists, and its campaign (if any) is not
// paused, cancelled, or still draft. SKIP LOCKED keeps concurrent ticks
// from blocking on each other; the conditional UPDATE guarantees a post is
// handed to exactly one worker.
func (s *SQLPostStore) Claim(ctx context.Context, workerID string, limit int, ttl time.Duration) ([]domain.ScheduledPost, error) {
	rows, err := s.db.QueryContext(ctx, `
		UPDATE scheduled_posts
		SET leased_by = $1,
		    leased_until = NOW() + $2::interval,
		    updated_at = NOW()
		WHERE id IN (
			SELECT p.id FROM scheduled_posts p
			LEFT JOIN campaigns c ON c.id = p.campaign_id
			WHERE p.status IN ('pending','scheduled')
			  AND p.scheduled_at <= NOW()
			  AND (p.not_before IS NULL OR p.not_before <= NOW())
			  AND (p.leased_until IS NULL OR p.leased_until < NOW())
			  AND (p.campaign_id IS NULL OR c.status IN ('active','completed'))
			ORDER BY p.scheduled_at ASC
			LIMIT $3
			FOR UPDATE OF p SKIP LOCKED
		)
		RETURNING id, site_id, campaign_id, title, blog_id, auto_generate,
		          COALESCE(generation_prompt,''), scheduled_at, timezone,
		          COALESCE(metadata,'{}'::jsonb), status, publish_attempts
	`, workerID, ttl.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("claim posts: %w", err)
	}
	defer rows.Close()

	var out []domain.ScheduledPost
	for rows.Next() {
		var p domain.ScheduledPost
		var meta []byte
		if err := rows.Scan(
			&p.ID, &p.SiteID, &p.CampaignID, &p.Title, &p.BlogID, &p.AutoGenerate,
			&p.GenerationPrompt, &p.ScheduledAt, &p.Timezone,
			&meta, &p.Status, &p.PublishAttempts,
		); err != nil {
			return nil, fmt.Errorf("scan claimed post: %w", err)
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &p.Metadata); err != nil {
				return nil, fmt.Errorf("decode metadata: %w", err)
			}
		}
		p.LeasedBy = workerID
		out = append(out, p)
	}
	return out, rows.Err()
}

// ReleaseLease clears the lease after processing, whatever the outcome.
func (s *SQLPostStore) ReleaseLease(ctx context.Context, postID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE scheduled_posts
		SET leased_by = NULL, leased_until = NULL, updated_at = NOW()
		WHERE id = $1
	`, postID)
	if err != nil {
		return fmt.Errorf("release lease: %w", err)
	}
	return nil
}

func (s *SQLPostStore) RecordBlogID(ctx context.Context, postID, blogID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE scheduled_posts SET blog_id = $1, updated_at = NOW() WHERE id = $2
	`, blogID, postID)
	if err != nil {
		return fmt.Errorf("record blog id: %w", err)
	}
	return nil
}

func (s *SQLPostStore) CommitPublished(ctx context.Context, postID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE scheduled_posts
		SET status = 'published',
		    published_at = NOW(),
		    error_message = '',
		    not_before = NULL,
		    updated_at = NOW()
		WHERE id = $1 AND status IN ('pending','scheduled')
	`, postID)
	if err != nil {
		return false, fmt.Errorf("commit published: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (s *SQLPostStore) MarkFailure(ctx context.Context, postID, msg string, next domain.PostStatus, notBefore *time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE scheduled_posts
		SET status = $1,
		    error_message = $2,
		    publish_attempts = publish_attempts + 1,
		    not_before = $3,
		    updated_at = NOW()
		WHERE id = $4 AND status IN ('pending','scheduled')
	`, next, msg, notBefore, postID)
	if err != nil {
		return fmt.Errorf("mark failure: %w", err)
	}
	return nil
}

func (s *SQLPostStore) NoteError(ctx context.Context, postID, msg string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE scheduled_posts SET error_message = $1, updated_at = NOW() WHERE id = $2
	`, msg, postID)
	if err != nil {
		return fmt.Errorf("note error: %w", err)
	}
	return nil
}

// RecomputeCounters rewrites a campaign's derived counters from a live
// aggregation over its posts. Redundant runs are harmless.
func (s *SQLPostStore) RecomputeCounters(ctx context.Context, campaignID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE campaigns SET
			posts_published = agg.published,
			posts_scheduled = agg.scheduled,
			posts_pending   = agg.pending,
			updated_at = NOW()
		FROM (
			SELECT
				COUNT(*) FILTER (WHERE status = 'published') AS published,
				COUNT(*) FILTER (WHERE status = 'scheduled') AS scheduled,
				COUNT(*) FILTER (WHERE status = 'pending')   AS pending
			FROM scheduled_posts
			WHERE campaign_id = $1
		) agg
		WHERE campaigns.id = $1
	`, campaignID)
	if err != nil {
		return fmt.Errorf("recompute counters: %w", err)
	}
	return nil
}
