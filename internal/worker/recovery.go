package worker

import (
	"context"
	"database/sql"
	"log"
	"time"
)

const (
	// DefaultRecoveryInterval is how often we scan for expired leases.
	DefaultRecoveryInterval = 2 * time.Minute
)

// LeaseRecoveryWorker periodically clears expired leases and enforces the
// attempt ceiling. If a publish worker crashes mid-attempt, its lease
// simply expires and the post becomes claimable again; this worker speeds
// that up and acts as a backstop behind the retry policy for posts whose
// attempt counter ran past the ceiling.
type LeaseRecoveryWorker struct {
	db          *sql.DB
	interval    time.Duration
	maxAttempts int
}

// NewLeaseRecoveryWorker creates a recovery worker.
func NewLeaseRecoveryWorker(db *sql.DB, interval time.Duration, maxAttempts int) *LeaseRecoveryWorker {
	if interval <= 0 {
		interval = DefaultRecoveryInterval
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &LeaseRecoveryWorker{db: db, interval: interval, maxAttempts: maxAttempts}
}

// Start begins the recovery loop. It blocks until ctx is cancelled.
func (lr *LeaseRecoveryWorker) Start(ctx context.Context) {
	log.Printf("[LeaseRecovery] Starting (interval=%s, max_attempts=%d)", lr.interval, lr.maxAttempts)

	ticker := time.NewTicker(lr.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[LeaseRecovery] Stopping")
			return
		case <-ticker.C:
			lr.recover(ctx)
		}
	}
}

// recover performs two passes:
//  1. Clear leases that expired without being released (worker crash).
//  2. Fail posts whose attempt counter somehow exceeded the ceiling while
//     still claimable.
func (lr *LeaseRecoveryWorker) recover(ctx context.Context) {
	queryCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	res, err := lr.db.ExecContext(queryCtx, `
		UPDATE scheduled_posts
		SET leased_by = NULL, leased_until = NULL, updated_at = NOW()
		WHERE leased_until IS NOT NULL AND leased_until < NOW()
	`)
	if err != nil {
		log.Printf("[LeaseRecovery] Clear expired leases error: %v", err)
	} else if n, _ := res.RowsAffected(); n > 0 {
		log.Printf("[LeaseRecovery] Cleared %d expired leases", n)
	}

	res, err = lr.db.ExecContext(queryCtx, `
		UPDATE scheduled_posts
		SET status = 'failed', not_before = NULL, updated_at = NOW()
		WHERE status IN ('pending','scheduled')
		  AND publish_attempts >= $1
	`, lr.maxAttempts)
	if err != nil {
		log.Printf("[LeaseRecovery] Enforce attempt ceiling error: %v", err)
	} else if n, _ := res.RowsAffected(); n > 0 {
		log.Printf("[LeaseRecovery] Failed %d posts past the attempt ceiling", n)
	}
}
