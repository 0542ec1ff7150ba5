package worker

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ignite/pressroom/internal/domain"
	"github.com/ignite/pressroom/internal/pkg/distlock"
	"github.com/redis/go-redis/v9"
)

const (
	// DefaultTickInterval is how often the orchestrator looks for due posts.
	DefaultTickInterval = 30 * time.Second

	// DefaultLeaseTTL bounds how long a claimed post stays invisible to
	// other workers before its lease expires.
	DefaultLeaseTTL = 2 * time.Minute

	// DefaultWorkers is the size of the publish worker pool.
	DefaultWorkers = 4

	// ClaimBatchSize caps how many posts one tick claims.
	ClaimBatchSize = 50
)

// postExecutor is what the orchestrator dispatches claimed posts to.
type postExecutor interface {
	Execute(ctx context.Context, p *domain.ScheduledPost) error
}

// Orchestrator is the periodic publishing loop. Each tick it claims due
// posts under a lease, fans them out to a bounded worker pool, then
// reconciles campaign counters and auto-completion for every campaign the
// batch touched.
type Orchestrator struct {
	db          *sql.DB
	store       *SQLPostStore
	executor    postExecutor
	redisClient *redis.Client // optional; nil falls back to PG advisory locks

	workerID             string
	tickInterval         time.Duration
	leaseTTL             time.Duration
	workers              int
	completePendingPosts bool // cancel still-pending posts on auto-completion

	// Stats
	postsPublished int64
	postsFailed    int64
	errors         int64

	// Control
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
	mu      sync.RWMutex
}

// NewOrchestrator creates an orchestrator with default timing.
func NewOrchestrator(db *sql.DB, executor postExecutor) *Orchestrator {
	return &Orchestrator{
		db:           db,
		store:        NewSQLPostStore(db),
		executor:     executor,
		workerID:     fmt.Sprintf("orchestrator-%s-%d", getHostname(), time.Now().UnixNano()%10000),
		tickInterval: DefaultTickInterval,
		leaseTTL:     DefaultLeaseTTL,
		workers:      DefaultWorkers,
	}
}

// SetRedisClient sets the Redis client for distributed locking. If set,
// tick guarding uses Redis locks; otherwise PG advisory locks.
func (o *Orchestrator) SetRedisClient(client *redis.Client) { o.redisClient = client }

// SetTiming overrides tick interval, lease TTL, and pool size.
func (o *Orchestrator) SetTiming(tick, leaseTTL time.Duration, workers int) {
	if tick > 0 {
		o.tickInterval = tick
	}
	if leaseTTL > 0 {
		o.leaseTTL = leaseTTL
	}
	if workers > 0 {
		o.workers = workers
	}
}

// SetCompleteCancelsPending controls whether campaign auto-completion
// cancels still-pending posts or leaves them schedulable.
func (o *Orchestrator) SetCompleteCancelsPending(v bool) { o.completePendingPosts = v }

// Start begins the orchestrator loop.
func (o *Orchestrator) Start() error {
	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return fmt.Errorf("orchestrator already running")
	}
	o.running = true
	o.ctx, o.cancel = context.WithCancel(context.Background())
	o.mu.Unlock()

	log.Printf("[Orchestrator] Starting (tick=%v, lease_ttl=%v, workers=%d)",
		o.tickInterval, o.leaseTTL, o.workers)

	o.wg.Add(1)
	go o.tickLoop()

	o.wg.Add(1)
	go o.heartbeatLoop()

	return nil
}

// Stop gracefully stops the orchestrator, waiting for in-flight publishes.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if !o.running {
		o.mu.Unlock()
		return
	}
	o.running = false
	o.mu.Unlock()

	log.Printf("[Orchestrator] Stopping...")
	o.cancel()
	o.wg.Wait()
	log.Printf("[Orchestrator] Stopped. Published: %d, Failed: %d",
		atomic.LoadInt64(&o.postsPublished), atomic.LoadInt64(&o.postsFailed))
}

func (o *Orchestrator) tickLoop() {
	defer o.wg.Done()

	ticker := time.NewTicker(o.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-o.ctx.Done():
			return
		case <-ticker.C:
			o.tick()
		}
	}
}

// tick claims and publishes one batch. A distributed lock keeps multiple
// orchestrator instances from claiming in the same instant; losing the
// lock is not an error, the other instance covers the batch.
func (o *Orchestrator) tick() {
	ctx, cancel := context.WithTimeout(o.ctx, 5*time.Minute)
	defer cancel()

	lock := distlock.NewLock(o.redisClient, o.db, "orchestrator:tick", o.workerID, o.tickInterval)
	acquired, err := lock.Acquire(ctx)
	if err != nil {
		log.Printf("[Orchestrator] Tick lock error: %v", err)
		atomic.AddInt64(&o.errors, 1)
		return
	}
	if !acquired {
		return
	}
	defer lock.Release(ctx)

	posts, err := o.store.Claim(ctx, o.workerID, ClaimBatchSize, o.leaseTTL)
	if err != nil {
		log.Printf("[Orchestrator] Claim error: %v", err)
		atomic.AddInt64(&o.errors, 1)
		return
	}
	if len(posts) == 0 {
		o.reconcileCampaigns(ctx, nil)
		return
	}

	log.Printf("[Orchestrator] Claimed %d due posts", len(posts))

	// The lock's TTL is one tick interval; a slow batch (generation calls)
	// can outlive it, so keep extending until the batch settles.
	done := make(chan struct{})
	go o.keepLockAlive(ctx, lock, done)
	touched := o.runBatch(ctx, posts)
	close(done)

	o.reconcileCampaigns(ctx, touched)
}

// keepLockAlive re-extends the tick lock while a batch runs. Losing the
// lock mid-batch is logged and the extension loop stops; the leases on the
// claimed posts still protect each individual publish.
func (o *Orchestrator) keepLockAlive(ctx context.Context, lock distlock.DistLock, done <-chan struct{}) {
	ticker := time.NewTicker(o.tickInterval / 2)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := lock.Extend(ctx, o.tickInterval); err != nil {
				log.Printf("[Orchestrator] Tick lock extend: %v", err)
				return
			}
		}
	}
}

// runBatch fans the claimed posts out to the worker pool and returns the
// set of campaign ids the batch touched.
func (o *Orchestrator) runBatch(ctx context.Context, posts []domain.ScheduledPost) map[string]struct{} {
	jobs := make(chan domain.ScheduledPost)
	var mu sync.Mutex
	touched := make(map[string]struct{})

	var wg sync.WaitGroup
	for i := 0; i < o.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range jobs {
				if err := o.executor.Execute(ctx, &p); err != nil {
					atomic.AddInt64(&o.postsFailed, 1)
				} else {
					atomic.AddInt64(&o.postsPublished, 1)
				}
				if err := o.store.ReleaseLease(ctx, p.ID); err != nil {
					log.Printf("[Orchestrator] Release lease for %s: %v", p.ID, err)
				}
				if p.CampaignID != nil {
					mu.Lock()
					touched[*p.CampaignID] = struct{}{}
					mu.Unlock()
				}
			}
		}()
	}

	for _, p := range posts {
		select {
		case <-ctx.Done():
		case jobs <- p:
		}
	}
	close(jobs)
	wg.Wait()
	return touched
}

// reconcileCampaigns recomputes counters for touched campaigns and runs
// campaign auto-completion.
func (o *Orchestrator) reconcileCampaigns(ctx context.Context, touched map[string]struct{}) {
	for id := range touched {
		if err := o.store.RecomputeCounters(ctx, id); err != nil {
			log.Printf("[Orchestrator] Recompute %s: %v", id, err)
			atomic.AddInt64(&o.errors, 1)
		}
	}
	o.completeElapsedCampaigns(ctx)
}

// completeElapsedCampaigns moves active campaigns to completed when their
// window has passed or all planned posts reached a terminal state. A post
// that exhausted its retries is terminal too: nothing re-arms a failed row,
// so it counts toward the plan the same as published and cancelled.
func (o *Orchestrator) completeElapsedCampaigns(ctx context.Context) {
	res, err := o.db.ExecContext(ctx, `
		UPDATE campaigns
		SET status = 'completed', completed_at = NOW(), updated_at = NOW()
		WHERE status = 'active'
		  AND (
		    end_date < NOW()
		    OR (
		      total_posts_planned IS NOT NULL
		      AND total_posts_planned > 0
		      AND total_posts_planned <= (
		        SELECT COUNT(*) FROM scheduled_posts p
		        WHERE p.campaign_id = campaigns.id
		          AND p.status IN ('published','failed','cancelled')
		      )
		    )
		  )
	`)
	if err != nil {
		log.Printf("[Orchestrator] Auto-completion error: %v", err)
		atomic.AddInt64(&o.errors, 1)
		return
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return
	}
	log.Printf("[Orchestrator] Auto-completed %d campaigns", n)

	if o.completePendingPosts {
		res, err := o.db.ExecContext(ctx, `
			UPDATE scheduled_posts SET status = 'cancelled', updated_at = NOW()
			WHERE status IN ('pending','scheduled')
			  AND campaign_id IN (SELECT id FROM campaigns WHERE status = 'completed')
		`)
		if err != nil {
			log.Printf("[Orchestrator] Cancel-on-complete error: %v", err)
			return
		}
		if c, _ := res.RowsAffected(); c > 0 {
			log.Printf("[Orchestrator] Cancelled %d posts of completed campaigns", c)
		}
	}
}

// heartbeatLoop logs a periodic stats line so operators can see the loop
// is alive even when no posts are due.
func (o *Orchestrator) heartbeatLoop() {
	defer o.wg.Done()

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-o.ctx.Done():
			return
		case <-ticker.C:
			log.Printf("[Orchestrator] Heartbeat: published=%d failed=%d errors=%d",
				atomic.LoadInt64(&o.postsPublished),
				atomic.LoadInt64(&o.postsFailed),
				atomic.LoadInt64(&o.errors))
		}
	}
}

func getHostname() string {
	return "pressroom-worker"
}
