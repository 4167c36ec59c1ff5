package track

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"clonewatch/internal/api"
	"clonewatch/internal/model"
)

type step struct {
	job model.Job
	err error
}

// fakeRemote scripts backend responses per JobStatus call; the last step
// repeats once the script is consumed.
type fakeRemote struct {
	mu          sync.Mutex
	steps       []step
	idx         int
	statusCalls int
	fetchCalls  int
	listCalls   int
	result      model.JobResult
	history     []model.Job

	statusDelay time.Duration
	blockJobs   map[string]bool

	inFlight    int32
	maxInFlight int32
}

func (f *fakeRemote) CreateJob(ctx context.Context, rawURL string, opts api.CloneOptions) (string, error) {
	return "job-1", nil
}

func (f *fakeRemote) JobStatus(ctx context.Context, jobID string) (model.Job, error) {
	cur := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		prev := atomic.LoadInt32(&f.maxInFlight)
		if cur <= prev || atomic.CompareAndSwapInt32(&f.maxInFlight, prev, cur) {
			break
		}
	}

	if f.blockJobs[jobID] {
		<-ctx.Done()
		return model.Job{}, ctx.Err()
	}
	if f.statusDelay > 0 {
		time.Sleep(f.statusDelay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusCalls++
	i := f.idx
	if i >= len(f.steps) {
		i = len(f.steps) - 1
	}
	f.idx++
	s := f.steps[i]
	return s.job, s.err
}

func (f *fakeRemote) FetchResult(ctx context.Context, jobID string) (model.JobResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchCalls++
	return f.result, nil
}

func (f *fakeRemote) ListJobs(ctx context.Context) ([]model.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	return f.history, nil
}

func fastOptions() Options {
	return Options{Interval: time.Millisecond, MaxFailures: 3}
}

func TestFollow_CompletedSequence(t *testing.T) {
	remote := &fakeRemote{
		steps: []step{
			{job: model.Job{ID: "job-1", Status: model.StatusPending, Progress: 10}},
			{job: model.Job{ID: "job-1", Status: model.StatusScraping, Progress: 40}},
			{job: model.Job{ID: "job-1", Status: model.StatusCompleted, Progress: 100}},
		},
		result:  model.JobResult{JobID: "job-1", GeneratedHTML: "<p>ok</p>"},
		history: []model.Job{{ID: "job-1", Status: model.StatusCompleted}},
	}
	store := NewStore()

	var seen []string
	opts := fastOptions()
	opts.OnUpdate = func(j model.Job) { seen = append(seen, j.Status) }
	c := NewController(remote, store, opts)

	if err := c.Follow(context.Background(), "job-1"); err != nil {
		t.Fatalf("Follow: %v", err)
	}

	if remote.statusCalls != 3 {
		t.Fatalf("status calls = %d, want exactly 3", remote.statusCalls)
	}
	if remote.fetchCalls != 1 {
		t.Fatalf("result fetches = %d, want exactly 1", remote.fetchCalls)
	}
	if remote.listCalls != 1 {
		t.Fatalf("history refreshes = %d, want exactly 1", remote.listCalls)
	}

	want := []string{model.StatusPending, model.StatusScraping, model.StatusCompleted}
	if len(seen) != len(want) {
		t.Fatalf("observed %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("observed %v, want %v", seen, want)
		}
	}

	snap := store.Snapshot()
	if snap.State != StateViewing || snap.Result == nil || snap.Result.GeneratedHTML != "<p>ok</p>" {
		t.Fatalf("store not viewing the fetched result: %+v", snap)
	}
	if len(snap.History) != 1 {
		t.Fatalf("history not refreshed: %+v", snap.History)
	}
}

func TestFollow_FailedJobSkipsResultFetch(t *testing.T) {
	remote := &fakeRemote{
		steps: []step{
			{job: model.Job{ID: "job-1", Status: model.StatusScraping, Progress: 20}},
			{job: model.Job{ID: "job-1", Status: model.StatusFailed, ErrorMessage: "timeout"}},
		},
	}
	store := NewStore()
	c := NewController(remote, store, fastOptions())

	if err := c.Follow(context.Background(), "job-1"); err != nil {
		t.Fatalf("Follow: %v", err)
	}

	if remote.fetchCalls != 0 {
		t.Fatalf("result fetches = %d, want 0 for failed job", remote.fetchCalls)
	}
	if remote.listCalls != 1 {
		t.Fatalf("history refreshes = %d, want 1", remote.listCalls)
	}

	snap := store.Snapshot()
	if snap.State != StateTracking {
		t.Fatalf("state = %v, want tracking", snap.State)
	}
	if snap.Job.Status != model.StatusFailed || snap.Job.ErrorMessage != "timeout" {
		t.Fatalf("failure snapshot not stored: %+v", snap.Job)
	}
}

func TestFollow_NeverOverlapsPolls(t *testing.T) {
	steps := make([]step, 0, 6)
	for i := 0; i < 5; i++ {
		steps = append(steps, step{job: model.Job{ID: "job-1", Status: model.StatusProcessing}})
	}
	steps = append(steps, step{job: model.Job{ID: "job-1", Status: model.StatusCompleted}})

	remote := &fakeRemote{steps: steps, statusDelay: 10 * time.Millisecond}
	c := NewController(remote, NewStore(), fastOptions())

	if err := c.Follow(context.Background(), "job-1"); err != nil {
		t.Fatalf("Follow: %v", err)
	}
	if max := atomic.LoadInt32(&remote.maxInFlight); max != 1 {
		t.Fatalf("max in-flight polls = %d, want 1", max)
	}
}

func TestFollow_TransientFailureIsSwallowed(t *testing.T) {
	flaky := &api.TransientError{Op: "poll status", StatusCode: 502}
	remote := &fakeRemote{
		steps: []step{
			{err: flaky},
			{err: flaky},
			{job: model.Job{ID: "job-1", Status: model.StatusCompleted}},
		},
	}
	store := NewStore()
	c := NewController(remote, store, fastOptions())

	if err := c.Follow(context.Background(), "job-1"); err != nil {
		t.Fatalf("Follow should recover from transient failures: %v", err)
	}
	if remote.fetchCalls != 1 {
		t.Fatalf("result fetches = %d, want 1", remote.fetchCalls)
	}
}

func TestFollow_ExhaustsRetryBudget(t *testing.T) {
	remote := &fakeRemote{
		steps: []step{{err: &api.TransientError{Op: "poll status", StatusCode: 502}}},
	}
	store := NewStore()
	c := NewController(remote, store, fastOptions())

	err := c.Follow(context.Background(), "job-1")
	if !errors.Is(err, ErrPollingExhausted) {
		t.Fatalf("expected ErrPollingExhausted, got %v", err)
	}
	if remote.statusCalls != 3 {
		t.Fatalf("status calls = %d, want the failure budget of 3", remote.statusCalls)
	}
	if !errors.Is(store.Snapshot().TrackErr, ErrPollingExhausted) {
		t.Fatal("exhaustion not surfaced through the store")
	}
}

func TestStart_CancelsPreviousLoop(t *testing.T) {
	remote := &fakeRemote{
		steps:     []step{{job: model.Job{ID: "new", Status: model.StatusCompleted}}},
		result:    model.JobResult{JobID: "new", GeneratedHTML: "<p>new</p>"},
		blockJobs: map[string]bool{"old": true},
	}
	store := NewStore()
	c := NewController(remote, store, fastOptions())

	c.Start("old")
	// Second Start must cancel the blocked loop before arming the new one.
	c.Start("new")

	deadline := time.Now().Add(2 * time.Second)
	for store.Snapshot().State != StateViewing {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for the new job to finish")
		}
		time.Sleep(time.Millisecond)
	}
	c.Stop()

	snap := store.Snapshot()
	if snap.State != StateViewing || snap.Result == nil || snap.Result.JobID != "new" {
		t.Fatalf("expected result of the new job, got %+v", snap)
	}

	// Stop with no live loop is a no-op.
	c.Stop()
}

func TestStart_ConcurrentCallsNeverDeadlock(t *testing.T) {
	// Every loop blocks in JobStatus until cancelled, so each Start must
	// tear down the exact loop it replaces. A mixed-up done-channel handoff
	// shows up here as a hang.
	remote := &fakeRemote{blockJobs: map[string]bool{"job-1": true}}
	store := NewStore()
	c := NewController(remote, store, fastOptions())

	finished := make(chan struct{})
	go func() {
		var wg sync.WaitGroup
		for g := 0; g < 16; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < 25; i++ {
					c.Start("job-1")
				}
			}()
		}
		wg.Wait()
		c.Stop()
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(10 * time.Second):
		t.Fatal("concurrent Start calls deadlocked")
	}
}
