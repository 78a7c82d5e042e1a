package ai

import (
	"context"
	"errors"
)

// Provider defines the contract for the external LLM. This interface allows
// swapping providers (Gemini, OpenAI, etc.) and substituting fakes in tests.
type Provider interface {
	// Generate sends a single prompt and returns the raw response text. The
	// text is untrusted: arbitrary latency, arbitrary content, possibly
	// non-JSON. Errors wrap one of the sentinel errors below.
	Generate(ctx context.Context, prompt string) (string, error)
}

// Sentinel errors classifying provider failures. Callers use errors.Is to map
// them to job failure reasons.
var (
	// ErrUnavailable covers network failures and provider-side 5xx errors.
	ErrUnavailable = errors.New("provider unavailable")
	// ErrTimeout marks a call that exceeded its bounded deadline.
	ErrTimeout = errors.New("provider timeout")
	// ErrRejected marks a provider-side refusal (safety block, bad request).
	ErrRejected = errors.New("provider rejected request")
)
