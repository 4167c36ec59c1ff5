package track

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"clonewatch/internal/api"
	"clonewatch/internal/model"
)

const (
	// DefaultInterval is the fixed delay between successful polls.
	DefaultInterval = 2 * time.Second

	// DefaultMaxFailures is the consecutive-failure budget before the
	// follow loop gives up.
	DefaultMaxFailures = 5

	maxBackoff = 30 * time.Second
)

// ErrPollingExhausted means too many consecutive status checks failed and
// the follow loop stopped instead of retrying forever.
var ErrPollingExhausted = errors.New("polling exhausted")

// remote is the slice of the backend surface the controller needs.
// *api.Client satisfies it.
type remote interface {
	CreateJob(ctx context.Context, rawURL string, opts api.CloneOptions) (string, error)
	JobStatus(ctx context.Context, jobID string) (model.Job, error)
	FetchResult(ctx context.Context, jobID string) (model.JobResult, error)
	ListJobs(ctx context.Context) ([]model.Job, error)
}

// Options tune a Controller. Zero values pick the defaults.
type Options struct {
	Interval    time.Duration
	MaxFailures int

	// OnUpdate, when set, observes every job snapshot written to the store.
	OnUpdate func(model.Job)
}

// Controller drives one job from submission to a terminal status. Polls are
// strictly sequential: the next status check is scheduled only after the
// current one resolves, so a slow backend can never pile up requests.
type Controller struct {
	api         remote
	store       *Store
	interval    time.Duration
	maxFailures int
	onUpdate    func(model.Job)

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewController(remote remote, store *Store, opts Options) *Controller {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	maxFailures := opts.MaxFailures
	if maxFailures <= 0 {
		maxFailures = DefaultMaxFailures
	}
	return &Controller{
		api:         remote,
		store:       store,
		interval:    interval,
		maxFailures: maxFailures,
		onUpdate:    opts.OnUpdate,
	}
}

// Submit validates the URL and creates a remote job. Tracking does not start
// until the caller hands the returned id to Start or Follow.
func (c *Controller) Submit(ctx context.Context, rawURL string, opts api.CloneOptions) (string, error) {
	return c.api.CreateJob(ctx, rawURL, opts)
}

// Start follows jobID in the background. Any previous follow loop is
// cancelled first, so at most one loop is live per controller.
func (c *Controller) Start(jobID string) {
	ctx, done := c.rearm()
	go func() {
		defer close(done)
		_ = c.Follow(ctx, jobID)
	}()
}

// Stop cancels the active follow loop, if any, and waits for it to exit.
func (c *Controller) Stop() {
	c.mu.Lock()
	cancel := c.cancel
	done := c.done
	c.cancel = nil
	c.done = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// rearm cancels the previous loop and installs a fresh cancellation handle.
// The returned done channel is the one installed here: the caller's goroutine
// must close it, so a racing rearm can never hand one loop's channel to
// another loop.
func (c *Controller) rearm() (context.Context, chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	c.mu.Lock()
	prevCancel := c.cancel
	prevDone := c.done
	c.cancel = cancel
	c.done = done
	c.mu.Unlock()

	if prevCancel != nil {
		prevCancel()
	}
	if prevDone != nil {
		<-prevDone
	}
	return ctx, done
}

// Follow polls jobID until it reaches a terminal status, writing every
// snapshot into the store. It blocks until the job terminates, the
// consecutive-failure budget is spent, or ctx is cancelled.
//
// A failed poll does not change stored state; the next attempt is scheduled
// with exponential backoff. A successful poll resets the failure count.
func (c *Controller) Follow(ctx context.Context, jobID string) error {
	failures := 0
	backoff := c.interval

	for {
		job, err := c.api.JobStatus(ctx, jobID)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			failures++
			if failures >= c.maxFailures {
				exhausted := fmt.Errorf("job %s: %w after %d consecutive failed polls", jobID, ErrPollingExhausted, failures)
				c.store.SetTrackingError(exhausted)
				return exhausted
			}
			if err := sleep(ctx, backoff); err != nil {
				return err
			}
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}
		failures = 0
		backoff = c.interval

		c.store.SetTracking(job)
		if c.onUpdate != nil {
			c.onUpdate(job)
		}

		switch job.Status {
		case model.StatusCompleted:
			c.finishCompleted(ctx, job)
			return nil
		case model.StatusFailed:
			c.refreshHistory(ctx)
			return nil
		}

		if err := sleep(ctx, c.interval); err != nil {
			return err
		}
	}
}

// finishCompleted fetches the result exactly once, stores it, and refreshes
// history. A failed result fetch is recorded on the tracking view instead of
// being retried.
func (c *Controller) finishCompleted(ctx context.Context, job model.Job) {
	res, err := c.api.FetchResult(ctx, job.ID)
	if err != nil {
		c.store.SetTrackingError(fmt.Errorf("job %s completed but result fetch failed: %w", job.ID, err))
	} else {
		c.store.SetResult(res)
	}
	c.refreshHistory(ctx)
}

// refreshHistory is best effort; the store keeps the last successful fetch
// when the call fails.
func (c *Controller) refreshHistory(ctx context.Context) {
	jobs, err := c.api.ListJobs(ctx)
	if err != nil {
		return
	}
	c.store.SetHistory(jobs)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
