// README: In-memory job registry; all lifecycle mutation goes through here.
package job

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store owns the canonical job table. Transition and Progress are atomic per
// job: a concurrent reader never observes a half-updated record (e.g. done
// with no result).
type Store struct {
	mu   sync.Mutex
	jobs map[string]*Job
	now  func() time.Time
}

func NewStore() *Store {
	return &Store{jobs: make(map[string]*Job), now: time.Now}
}

// SetClock overrides the store's clock. Test hook.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

// Create registers a new job in state queued. Ids are random 128-bit values,
// unpredictable and unique for the process lifetime.
func (s *Store) Create(request any) *Job {
	now := s.now()
	j := &Job{
		ID:        newID(),
		Status:    StatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
		Request:   request,
	}
	s.mu.Lock()
	s.jobs[j.ID] = j
	s.mu.Unlock()
	return j
}

// Get returns a snapshot of the job, or ErrNotFound.
func (s *Store) Get(id string) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return snapshot(j), nil
}

// SetRunning moves a queued job to running.
func (s *Store) SetRunning(id string) error {
	return s.transition(id, StatusRunning, nil)
}

// SetResult terminally completes the job with its result.
func (s *Store) SetResult(id string, result any) error {
	return s.transition(id, StatusDone, func(j *Job) {
		j.Result = result
	})
}

// SetFailure terminally fails the job with a reason and client-safe message.
func (s *Store) SetFailure(id string, reason FailReason, message string) error {
	return s.transition(id, StatusFailed, func(j *Job) {
		j.Err = &Failure{Reason: reason, Message: message}
	})
}

func (s *Store) transition(id string, to Status, apply func(*Job)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return ErrNotFound
	}
	if j.Status.Terminal() {
		return ErrTerminal
	}
	if !CanTransition(j.Status, to) {
		return ErrInvalidState
	}
	if apply != nil {
		apply(j)
	}
	j.Status = to
	j.UpdatedAt = s.now()
	return nil
}

// Progress appends a step to the job's progress log. Steps may still be
// appended after a terminal transition (e.g. "job finished").
func (s *Store) Progress(id, msg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return ErrNotFound
	}
	j.Steps = append(j.Steps, Step{Seq: len(j.Steps) + 1, TS: s.now(), Msg: msg})
	j.UpdatedAt = s.now()
	return nil
}

// Prune evicts terminal jobs not updated within ttl. Queued and running jobs
// are never pruned; their lifetime is bounded by the provider timeout.
func (s *Store) Prune(ttl time.Duration) int {
	cutoff := s.now().Add(-ttl)
	s.mu.Lock()
	defer s.mu.Unlock()
	pruned := 0
	for id, j := range s.jobs {
		if j.Status.Terminal() && j.UpdatedAt.Before(cutoff) {
			delete(s.jobs, id)
			pruned++
		}
	}
	return pruned
}

// RunPruner evicts stale terminal jobs until ctx is cancelled.
func (s *Store) RunPruner(ctx context.Context, interval, ttl time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Prune(ttl)
		}
	}
}

func snapshot(j *Job) *Job {
	out := *j
	out.Steps = make([]Step, len(j.Steps))
	copy(out.Steps, j.Steps)
	if j.Err != nil {
		e := *j.Err
		out.Err = &e
	}
	return &out
}

func newID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
