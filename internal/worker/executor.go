package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ignite/pressroom/internal/domain"
	"github.com/ignite/pressroom/internal/genai"
)

// BlogStore is the executor's view of blog persistence.
type BlogStore interface {
	GetBlog(ctx context.Context, siteID, id string) (*domain.Blog, error)
	CreateBlog(ctx context.Context, b *domain.Blog) (string, error)
	SetBlogStatus(ctx context.Context, siteID, id string, status domain.BlogStatus) error
}

// Executor publishes a single leased post. Publishing is at-least-once:
// a lease expiry can hand the same post to another worker, so every step
// is written to be safe to repeat. The final status flip is a conditional
// update, which lets a concurrent cancellation win.
type Executor struct {
	blogs BlogStore
	gen   genai.Generator
	store PostStore
	retry RetryPolicy
}

// NewExecutor creates a publish executor. gen may be nil when content
// generation is not configured; auto-generate posts then fail permanently.
func NewExecutor(blogs BlogStore, gen genai.Generator, store PostStore, retry RetryPolicy) *Executor {
	return &Executor{blogs: blogs, gen: gen, store: store, retry: retry}
}

// Execute runs one publish attempt for a leased post. The returned error
// reports the attempt's outcome for stats; the post's own state has
// already been settled by the time Execute returns.
func (e *Executor) Execute(ctx context.Context, p *domain.ScheduledPost) error {
	blogID, err := e.resolveContent(ctx, p)
	if err != nil {
		return e.fail(ctx, p, err)
	}

	committed, err := e.store.CommitPublished(ctx, p.ID)
	if err != nil {
		return e.fail(ctx, p, err)
	}
	if !committed {
		// The post left pending/scheduled while we worked, almost always
		// a concurrent cancel. The blog stays unpublished.
		log.Printf("[Executor] Post %s changed state during publish, skipping", p.ID)
		return nil
	}

	if err := e.blogs.SetBlogStatus(ctx, p.SiteID, blogID, domain.BlogPublished); err != nil {
		// The post already committed, so this cannot re-arm a retry. Leave
		// the inconsistency on the post where operators will see it, then
		// surface the failure for stats.
		msg := fmt.Sprintf("published but blog %s not flipped: %v", blogID, err)
		if nerr := e.store.NoteError(ctx, p.ID, msg); nerr != nil {
			log.Printf("[Executor] Post %s: %s (note failed too: %v)", p.ID, msg, nerr)
		}
		return fmt.Errorf("publish blog %s: %w", blogID, err)
	}

	log.Printf("[Executor] Published post %s (blog %s)", p.ID, blogID)
	return nil
}

// resolveContent returns the id of the blog this post publishes, creating
// one via generation when needed. For auto-generate posts the blog id is
// recorded on the post before the commit, so a repeat run reuses it.
func (e *Executor) resolveContent(ctx context.Context, p *domain.ScheduledPost) (string, error) {
	if p.BlogID != nil && *p.BlogID != "" {
		// Verify the blog exists before committing anything. A blog that
		// is already published is fine; republishing is a no-op.
		if _, err := e.blogs.GetBlog(ctx, p.SiteID, *p.BlogID); err != nil {
			return "", err
		}
		return *p.BlogID, nil
	}

	if !p.AutoGenerate {
		return "", ErrContentMissing
	}
	if e.gen == nil {
		return "", fmt.Errorf("%w: no content generator configured", ErrContentMissing)
	}

	g, err := e.gen.Generate(ctx, p.GenerationPrompt, p.Metadata)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	blogID, err := e.blogs.CreateBlog(ctx, &domain.Blog{
		SiteID:  p.SiteID,
		Title:   g.Title,
		Content: g.Content,
		Excerpt: g.Excerpt,
		Status:  domain.BlogDraft,
	})
	if err != nil {
		return "", fmt.Errorf("create blog: %w", err)
	}
	if err := e.store.RecordBlogID(ctx, p.ID, blogID); err != nil {
		return "", err
	}
	p.BlogID = &blogID
	return blogID, nil
}

// fail settles a failed attempt: the retry policy decides between
// re-arming the post with a backoff gate and leaving it failed for good.
func (e *Executor) fail(ctx context.Context, p *domain.ScheduledPost, cause error) error {
	attempts := p.PublishAttempts + 1
	d := e.retry.Decide(attempts, cause)

	next := domain.PostFailed
	var notBefore *time.Time
	if !d.GiveUp {
		next = domain.PostPending
		at := d.At
		notBefore = &at
	}

	if err := e.store.MarkFailure(ctx, p.ID, cause.Error(), next, notBefore); err != nil {
		return fmt.Errorf("record failure: %w", err)
	}

	if d.GiveUp {
		log.Printf("[Executor] Post %s failed permanently after %d attempts: %v", p.ID, attempts, cause)
	} else {
		log.Printf("[Executor] Post %s attempt %d failed, retry at %s: %v",
			p.ID, attempts, d.At.Format(time.RFC3339), cause)
	}
	return cause
}
