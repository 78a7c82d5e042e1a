// README: Job store tests (lifecycle, terminal guard, snapshots, pruning).
package job

import (
	"errors"
	"testing"
	"time"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusQueued, StatusRunning, true},
		{StatusRunning, StatusDone, true},
		{StatusRunning, StatusFailed, true},
		// no skipping
		{StatusQueued, StatusDone, false},
		{StatusQueued, StatusFailed, false},
		// terminal states have no outgoing transitions
		{StatusDone, StatusRunning, false},
		{StatusFailed, StatusRunning, false},
		{StatusDone, StatusFailed, false},
		// no backwards moves
		{StatusRunning, StatusQueued, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestCreateIDsUniqueAndWellFormed(t *testing.T) {
	s := NewStore()
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		j := s.Create(nil)
		if len(j.ID) != 32 {
			t.Fatalf("id %q is not 32 chars", j.ID)
		}
		for _, c := range j.ID {
			if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
				t.Fatalf("id %q is not lowercase hex", j.ID)
			}
		}
		if seen[j.ID] {
			t.Fatalf("duplicate id %q", j.ID)
		}
		seen[j.ID] = true
	}
}

func TestLifecycle(t *testing.T) {
	s := NewStore()
	j := s.Create(map[string]string{"destination": "Tokyo"})

	got, err := s.Get(j.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != StatusQueued {
		t.Fatalf("status = %s, want queued", got.Status)
	}

	if err := s.SetRunning(j.ID); err != nil {
		t.Fatal(err)
	}
	if got, _ = s.Get(j.ID); got.Status != StatusRunning {
		t.Fatalf("status = %s, want running", got.Status)
	}

	if err := s.SetResult(j.ID, "itinerary"); err != nil {
		t.Fatal(err)
	}
	got, _ = s.Get(j.ID)
	if got.Status != StatusDone {
		t.Fatalf("status = %s, want done", got.Status)
	}
	if got.Result != "itinerary" {
		t.Fatalf("result = %v", got.Result)
	}
	if got.Err != nil {
		t.Fatalf("done job carries error: %v", got.Err)
	}
}

func TestTerminalGuard(t *testing.T) {
	s := NewStore()
	j := s.Create(nil)
	s.SetRunning(j.ID)
	if err := s.SetResult(j.ID, "first"); err != nil {
		t.Fatal(err)
	}

	// a slow duplicate attempt must not clobber the delivered result
	if err := s.SetFailure(j.ID, ReasonInternal, "late failure"); !errors.Is(err, ErrTerminal) {
		t.Fatalf("err = %v, want ErrTerminal", err)
	}
	if err := s.SetResult(j.ID, "second"); !errors.Is(err, ErrTerminal) {
		t.Fatalf("err = %v, want ErrTerminal", err)
	}

	got, _ := s.Get(j.ID)
	if got.Result != "first" || got.Status != StatusDone || got.Err != nil {
		t.Fatalf("terminal job mutated: %+v", got)
	}
}

func TestInvalidTransitions(t *testing.T) {
	s := NewStore()
	j := s.Create(nil)
	if err := s.SetResult(j.ID, "x"); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("queued->done: err = %v, want ErrInvalidState", err)
	}
	if err := s.SetFailure(j.ID, ReasonInternal, "x"); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("queued->failed: err = %v, want ErrInvalidState", err)
	}
}

func TestNotFound(t *testing.T) {
	s := NewStore()
	if _, err := s.Get("does-not-exist"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if err := s.SetRunning("does-not-exist"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestProgressSequence(t *testing.T) {
	s := NewStore()
	j := s.Create(nil)
	for _, msg := range []string{"one", "two", "three"} {
		if err := s.Progress(j.ID, msg); err != nil {
			t.Fatal(err)
		}
	}
	got, _ := s.Get(j.ID)
	if len(got.Steps) != 3 {
		t.Fatalf("steps = %d, want 3", len(got.Steps))
	}
	for i, step := range got.Steps {
		if step.Seq != i+1 {
			t.Fatalf("step %d has seq %d", i, step.Seq)
		}
	}
	if got.Steps[2].Msg != "three" {
		t.Fatalf("last step = %q", got.Steps[2].Msg)
	}
}

func TestSnapshotIsolation(t *testing.T) {
	s := NewStore()
	j := s.Create(nil)
	s.Progress(j.ID, "one")

	snap, _ := s.Get(j.ID)
	snap.Steps[0].Msg = "tampered"
	snap.Status = StatusDone

	fresh, _ := s.Get(j.ID)
	if fresh.Steps[0].Msg != "one" || fresh.Status != StatusQueued {
		t.Fatal("snapshot mutation leaked into the store")
	}
}

func TestPruneEvictsOnlyStaleTerminalJobs(t *testing.T) {
	s := NewStore()
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time { return current })

	done := s.Create(nil)
	s.SetRunning(done.ID)
	s.SetResult(done.ID, "r")

	failed := s.Create(nil)
	s.SetRunning(failed.ID)
	s.SetFailure(failed.ID, ReasonProviderTimeout, "t")

	running := s.Create(nil)
	s.SetRunning(running.ID)

	queued := s.Create(nil)

	current = current.Add(2 * time.Hour)
	pruned := s.Prune(time.Hour)
	if pruned != 2 {
		t.Fatalf("pruned = %d, want 2", pruned)
	}
	if _, err := s.Get(done.ID); !errors.Is(err, ErrNotFound) {
		t.Fatal("stale done job survived prune")
	}
	if _, err := s.Get(running.ID); err != nil {
		t.Fatal("running job was pruned")
	}
	if _, err := s.Get(queued.ID); err != nil {
		t.Fatal("queued job was pruned")
	}
}
