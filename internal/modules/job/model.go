// README: Job aggregate, lifecycle states, and failure taxonomy.
package job

import (
	"errors"
	"time"
)

type Status string

const (
	StatusQueued  Status = "queued"
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

// Terminal reports whether a status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusFailed
}

// FailReason distinguishes the failure kinds a client or operator needs to
// tell apart when polling a failed job.
type FailReason string

const (
	ReasonProviderUnavailable FailReason = "provider_unavailable"
	ReasonProviderTimeout     FailReason = "provider_timeout"
	ReasonProviderRejected    FailReason = "provider_rejected"
	ReasonParse               FailReason = "parse_error"
	ReasonInternal            FailReason = "internal"
)

// Failure is the terminal error payload of a failed job. Message is
// client-safe; provider internals stay in server-side logs.
type Failure struct {
	Reason  FailReason `json:"reason"`
	Message string     `json:"message"`
}

// Step is one progress entry appended while a job runs.
type Step struct {
	Seq int       `json:"seq"`
	TS  time.Time `json:"ts"`
	Msg string    `json:"msg"`
}

// Job is the canonical record owned by the Store. Request and Result are
// treated as immutable once set; readers receive copies of the record itself.
type Job struct {
	ID        string
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
	Request   any
	Steps     []Step
	Result    any
	Err       *Failure
}

var (
	ErrNotFound = errors.New("job not found")
	// ErrTerminal guards against a slow or duplicate orchestration attempt
	// clobbering an already-delivered result.
	ErrTerminal     = errors.New("job already in terminal state")
	ErrInvalidState = errors.New("invalid job state transition")
)

// AllowedTransitions represents the job state flow as code.
var AllowedTransitions = map[Status][]Status{
	StatusQueued:  {StatusRunning},
	StatusRunning: {StatusDone, StatusFailed},
}

func CanTransition(from, to Status) bool {
	for _, s := range AllowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
