package progress

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func testSimulator() *Simulator {
	s := New()
	s.StepDuration = 40 * time.Millisecond
	s.Interval = 10 * time.Millisecond
	s.TrackInterval = 5 * time.Millisecond
	s.CompleteHold = 20 * time.Millisecond
	return s
}

// recorder collects every snapshot the simulator publishes.
type recorder struct {
	mu    sync.Mutex
	snaps []Snapshot
}

func (r *recorder) listen(s Snapshot) {
	r.mu.Lock()
	r.snaps = append(r.snaps, s)
	r.mu.Unlock()
}

func (r *recorder) all() []Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Snapshot, len(r.snaps))
	copy(out, r.snaps)
	return out
}

func weightedSteps() []Step {
	return []Step{
		{ID: "a", Label: "Fetching", Weight: 1},
		{ID: "b", Label: "Analyzing", Weight: 2},
		{ID: "c", Label: "Scoring", Weight: 1},
	}
}

func TestStartMonotonicAndCapped(t *testing.T) {
	sim := testSimulator()
	rec := &recorder{}
	sim.AddListener(rec.listen)

	sim.Start(weightedSteps())
	time.Sleep(200 * time.Millisecond)
	sim.Reset()

	snaps := rec.all()
	if len(snaps) < 3 {
		t.Fatalf("Expected multiple snapshots, got %d", len(snaps))
	}

	prev := 0.0
	for i, snap := range snaps[:len(snaps)-1] { // last snapshot is the reset
		if snap.Percent < prev {
			t.Errorf("Snapshot %d: progress decreased from %f to %f", i, prev, snap.Percent)
		}
		if snap.Percent > StepsCap {
			t.Errorf("Snapshot %d: progress %f exceeds steps-only cap %f", i, snap.Percent, StepsCap)
		}
		prev = snap.Percent
	}
}

func TestStepLabelTransition(t *testing.T) {
	sim := testSimulator()
	sim.Start(weightedSteps())
	defer sim.Reset()

	if got := sim.Snapshot().CurrentStep; got != "Fetching" {
		t.Fatalf("Expected first label 'Fetching', got %q", got)
	}

	// Wait past the first step's time slot.
	time.Sleep(sim.StepDuration + 20*time.Millisecond)

	snap := sim.Snapshot()
	if snap.CurrentStep != "Analyzing" {
		t.Errorf("Expected label 'Analyzing' after first slot, got %q", snap.CurrentStep)
	}
	// The first step (weight 1 of 4) is fully accumulated by now.
	minExpected := 1.0 / 4.0 * StepsCap
	if snap.Percent < minExpected {
		t.Errorf("Expected at least %f after first step, got %f", minExpected, snap.Percent)
	}
}

func TestSingleStepPartialCredit(t *testing.T) {
	sim := testSimulator()
	sim.Start([]Step{{ID: "x", Label: "Working", Weight: 5}})
	defer sim.Reset()

	time.Sleep(15 * time.Millisecond)
	early := sim.Snapshot()
	if early.Percent <= 0 {
		t.Error("Expected progress to climb via partial credit")
	}
	if early.Percent >= StepsCap {
		t.Errorf("Expected partial credit below cap, got %f", early.Percent)
	}
	if early.CurrentStep != "Working" {
		t.Errorf("Expected label 'Working', got %q", early.CurrentStep)
	}

	time.Sleep(sim.StepDuration * 3)
	late := sim.Snapshot()
	if late.Percent > StepsCap {
		t.Errorf("Expected progress parked at cap, got %f", late.Percent)
	}
	if !late.Running {
		t.Error("Steps-only run must not terminate on elapsed time alone")
	}
}

func TestZeroWeightJumpsToCap(t *testing.T) {
	sim := testSimulator()
	sim.Start([]Step{{ID: "z", Label: "Degenerate", Weight: 0}})
	defer sim.Reset()

	time.Sleep(30 * time.Millisecond)
	if got := sim.Snapshot().Percent; got != StepsCap {
		t.Errorf("Expected deterministic jump to %f on zero total weight, got %f", StepsCap, got)
	}
}

func TestEmptyStepsIsNoOp(t *testing.T) {
	sim := testSimulator()
	sim.Start(nil)

	snap := sim.Snapshot()
	if snap.Running || snap.Percent != 0 || snap.CurrentStep != "" {
		t.Errorf("Expected idle state for empty step list, got %+v", snap)
	}
}

func TestRunSuccess(t *testing.T) {
	sim := testSimulator()
	rec := &recorder{}
	sim.AddListener(rec.listen)

	result, err := Run(context.Background(), sim, weightedSteps(), func(ctx context.Context) (string, error) {
		time.Sleep(60 * time.Millisecond)
		return "reports", nil
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result != "reports" {
		t.Errorf("Expected resolved value to pass through, got %q", result)
	}

	snap := sim.Snapshot()
	if snap.Percent != 100 {
		t.Errorf("Expected 100 after settlement, got %f", snap.Percent)
	}
	if !snap.Running {
		t.Error("Expected running to stay true during the completion hold")
	}

	time.Sleep(sim.CompleteHold + 30*time.Millisecond)
	if sim.Snapshot().Running {
		t.Error("Expected running=false after the completion hold")
	}

	// No in-flight snapshot may exceed the tracking cap before the jump to 100.
	for i, s := range rec.all() {
		if s.Percent > TrackCap && s.Percent != 100 {
			t.Errorf("Snapshot %d: progress %f exceeded tracking cap %f", i, s.Percent, TrackCap)
		}
	}
}

func TestRunFailure(t *testing.T) {
	sim := testSimulator()
	opErr := errors.New("upstream rejected")

	_, err := Run(context.Background(), sim, weightedSteps(), func(ctx context.Context) (int, error) {
		time.Sleep(30 * time.Millisecond)
		return 0, opErr
	})
	if !errors.Is(err, opErr) {
		t.Fatalf("Expected original error to propagate, got %v", err)
	}

	snap := sim.Snapshot()
	if snap.Running {
		t.Error("Expected running=false immediately after failure")
	}
	if snap.Percent == 100 {
		t.Error("Failure must not force progress to 100")
	}
	if snap.CurrentStep == completeLabel {
		t.Error("Failure must not show the completion label")
	}
}

func TestCompleteAndHold(t *testing.T) {
	sim := testSimulator()
	sim.Start(weightedSteps())

	sim.Complete()
	snap := sim.Snapshot()
	if snap.Percent != 100 || snap.CurrentStep != completeLabel {
		t.Errorf("Expected 100/%q after Complete, got %+v", completeLabel, snap)
	}
	if !snap.Running {
		t.Error("Expected running=true during the completion hold")
	}

	// Idempotent while at 100.
	sim.Complete()
	if got := sim.Snapshot().Percent; got != 100 {
		t.Errorf("Expected Complete to be idempotent, got %f", got)
	}

	time.Sleep(sim.CompleteHold + 30*time.Millisecond)
	if sim.Snapshot().Running {
		t.Error("Expected running=false after the completion hold")
	}
}

func TestResetFromAnyState(t *testing.T) {
	sim := testSimulator()
	sim.Start(weightedSteps())
	time.Sleep(30 * time.Millisecond)

	sim.Reset()
	snap := sim.Snapshot()
	if snap.Percent != 0 || snap.CurrentStep != "" || snap.Running {
		t.Errorf("Expected zeroed state after reset, got %+v", snap)
	}

	// Reset after completion cancels the hold timer too.
	sim.Start(weightedSteps())
	sim.Complete()
	sim.Reset()
	time.Sleep(sim.CompleteHold + 30*time.Millisecond)
	snap = sim.Snapshot()
	if snap.Percent != 0 || snap.Running {
		t.Errorf("Expected reset state to survive a stale hold timer, got %+v", snap)
	}
}

func TestNewRunCancelsPrevious(t *testing.T) {
	sim := testSimulator()
	sim.Start(weightedSteps())
	time.Sleep(30 * time.Millisecond)

	sim.Start([]Step{{ID: "n", Label: "Second run", Weight: 1}})
	defer sim.Reset()
	time.Sleep(30 * time.Millisecond)

	snap := sim.Snapshot()
	if snap.CurrentStep != "Second run" {
		t.Errorf("Expected the second run's label, got %q", snap.CurrentStep)
	}
	// The fresh run restarted from zero, so the old loop must be dead: the
	// percentage stays within what the new run alone could have reached.
	maxExpected := StepsCap
	if snap.Percent > maxExpected {
		t.Errorf("Progress %f exceeds cap, a stale loop may be alive", snap.Percent)
	}
}

func TestTrackWrapsOperation(t *testing.T) {
	sim := testSimulator()
	called := false
	err := sim.Track(context.Background(), weightedSteps(), func(ctx context.Context) error {
		called = true
		return nil
	})
	if err != nil {
		t.Fatalf("Track failed: %v", err)
	}
	if !called {
		t.Error("Expected the wrapped operation to run")
	}
	if got := sim.Snapshot().Percent; got != 100 {
		t.Errorf("Expected 100 after settlement, got %f", got)
	}
}
