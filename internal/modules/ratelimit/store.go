// README: In-memory sliding-window store with lazy and periodic pruning.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps per-client timestamp windows in process memory. Entries
// are pruned lazily on every Take and swept periodically so memory stays
// bounded under sustained distinct-client churn.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string][]time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string][]time.Time)}
}

func (s *MemoryStore) Take(_ context.Context, key string, now time.Time, window time.Duration, max int) (bool, time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := now.Add(-window)
	times := s.entries[key]

	// drop timestamps that slid out of the window
	kept := times[:0]
	for _, t := range times {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= max {
		retryAfter := kept[0].Add(window).Sub(now)
		if retryAfter < 0 {
			retryAfter = 0
		}
		s.entries[key] = kept
		return false, retryAfter, nil
	}

	s.entries[key] = append(kept, now)
	return true, 0, nil
}

// Sweep evicts clients whose newest timestamp is older than window.
// Run periodically; combined with lazy pruning it bounds memory.
func (s *MemoryStore) Sweep(now time.Time, window time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := now.Add(-window)
	evicted := 0
	for key, times := range s.entries {
		if len(times) == 0 || !times[len(times)-1].After(cutoff) {
			delete(s.entries, key)
			evicted++
		}
	}
	return evicted
}

// Len reports the number of tracked clients. Test hook.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// RunSweeper prunes idle clients until ctx is cancelled.
func (s *MemoryStore) RunSweeper(ctx context.Context, interval, window time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(time.Now(), window)
		}
	}
}
