package track

import (
	"sync"

	"clonewatch/internal/model"
)

// ViewState says what the client is currently showing: nothing, a live job
// being tracked, or a historical result.
type ViewState int

const (
	StateIdle ViewState = iota
	StateTracking
	StateViewing
)

func (s ViewState) String() string {
	switch s {
	case StateTracking:
		return "tracking"
	case StateViewing:
		return "viewing"
	default:
		return "idle"
	}
}

// Store owns the displayed job/result pair and the cached history list.
// Tracking and Viewing are mutually exclusive: setters switch the whole
// state, so the invalid both-set combination cannot be observed.
type Store struct {
	mu       sync.Mutex
	state    ViewState
	job      model.Job
	result   *model.JobResult
	trackErr error
	history  []model.Job
}

// Snapshot is a point-in-time copy of the store, safe to read without locks.
type Snapshot struct {
	State    ViewState
	Job      model.Job
	Result   *model.JobResult
	TrackErr error
	History  []model.Job
}

func NewStore() *Store {
	return &Store{}
}

// SetTracking records the latest poll snapshot for the live job and switches
// the view to it, superseding any displayed result.
func (s *Store) SetTracking(job model.Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateTracking
	s.job = job
	s.result = nil
	s.trackErr = nil
}

// SetTrackingError records a tracking failure (for example an exhausted
// retry budget) while keeping the last known job snapshot visible.
func (s *Store) SetTrackingError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateTracking
	s.trackErr = err
}

// SetResult switches the view to a result, whether freshly completed or
// selected from history. Clears live-tracking display state.
func (s *Store) SetResult(res model.JobResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateViewing
	s.result = &res
	s.trackErr = nil
}

// SetHistory replaces the cached history with the last successful fetch.
func (s *Store) SetHistory(jobs []model.Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append([]model.Job(nil), jobs...)
}

// RemoveJob drops a confirmed-deleted job from history. If the displayed
// result belongs to that job, the view falls back to idle; an already
// rendered result elsewhere is unaffected.
func (s *Store) RemoveJob(jobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.history[:0]
	for _, j := range s.history {
		if j.ID != jobID {
			kept = append(kept, j)
		}
	}
	s.history = kept

	if s.state == StateViewing && s.result != nil && s.result.JobID == jobID {
		s.state = StateIdle
		s.result = nil
	}
	if s.state == StateTracking && s.job.ID == jobID {
		s.state = StateIdle
		s.job = model.Job{}
		s.trackErr = nil
	}
}

// Clear resets the view to idle. History is kept.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateIdle
	s.job = model.Job{}
	s.result = nil
	s.trackErr = nil
}

// Snapshot returns a copy of the current store contents. The history slice
// is copied; the result pointer is shared but results are immutable.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		State:    s.state,
		Job:      s.job,
		Result:   s.result,
		TrackErr: s.trackErr,
		History:  append([]model.Job(nil), s.history...),
	}
}
