package progress

import (
	"context"
	"sync"
	"time"
)

// Step is a named logical phase of a multi-stage operation. Weight is the
// relative share of the overall displayed progress the step represents.
type Step struct {
	ID     string  `json:"id"`
	Label  string  `json:"label"`
	Weight float64 `json:"weight"`
}

// Snapshot is the read-only view of a simulator exposed to display code.
type Snapshot struct {
	Percent     float64 `json:"percent"`
	CurrentStep string  `json:"currentStep"`
	Running     bool    `json:"running"`
}

// Caps for the two run variants. Simulated progress parks below 100 until
// the real operation is confirmed complete, reserving visible headroom for
// the final jump.
const (
	StepsCap = 90.0
	TrackCap = 98.0
)

const completeLabel = "Complete"

// Defaults for the simulator tunables.
const (
	DefaultStepDuration  = 2 * time.Second
	DefaultInterval      = 2500 * time.Millisecond
	DefaultTrackInterval = 50 * time.Millisecond
	DefaultCompleteHold  = 500 * time.Millisecond
)

// Simulator provides the illusion of granular progress for an operation
// whose actual completion fraction cannot be observed. Each step is given a
// fixed time slot; progress interpolates within the active slot and weights
// decide how much of the percentage budget each step contributes.
//
// There is one engine and two entry points: Start runs the steps-only loop
// (capped at StepsCap, terminated only by Complete or Reset), and Run/Track
// wrap a real operation (capped at TrackCap until the operation settles).
type Simulator struct {
	// Tunables, settable before a run. Zero values fall back to defaults.
	StepDuration  time.Duration // fixed time slot per step
	Interval      time.Duration // tick cadence of the steps-only loop
	TrackInterval time.Duration // tick cadence of the operation-tracking loop
	CompleteHold  time.Duration // how long the 100% state stays visibly running

	mu        sync.Mutex
	percent   float64
	current   string
	running   bool
	startedAt time.Time
	stop      chan struct{} // owned by the active loop; closed on cancel
	holdTimer *time.Timer
	listeners []func(Snapshot)
}

// New creates a simulator with default timings.
func New() *Simulator {
	return &Simulator{
		StepDuration:  DefaultStepDuration,
		Interval:      DefaultInterval,
		TrackInterval: DefaultTrackInterval,
		CompleteHold:  DefaultCompleteHold,
	}
}

// AddListener registers a callback invoked after every state change.
func (s *Simulator) AddListener(fn func(Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Snapshot returns the current state.
func (s *Simulator) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Simulator) snapshotLocked() Snapshot {
	return Snapshot{Percent: s.percent, CurrentStep: s.current, Running: s.running}
}

// Start begins a steps-only run capped at StepsCap. The loop never
// terminates on elapsed time alone; the caller must call Complete or Reset.
// An empty step list is a no-op.
func (s *Simulator) Start(steps []Step) {
	s.begin(steps, StepsCap, s.interval())
}

// Track runs op while simulating progress over steps, capped at TrackCap
// until op settles. On success the simulator jumps to 100, shows the
// completion label and stays running for CompleteHold. On failure the run
// stops immediately, the percentage is left where it was, and the error is
// returned unchanged.
func (s *Simulator) Track(ctx context.Context, steps []Step, op func(context.Context) error) error {
	_, err := Run(ctx, s, steps, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

// Run is the operation-tracking entry point for operations that produce a
// value. It shares Track's settlement semantics.
func Run[T any](ctx context.Context, s *Simulator, steps []Step, op func(context.Context) (T, error)) (T, error) {
	stop := s.begin(steps, TrackCap, s.trackInterval())
	out, err := op(ctx)
	if err != nil {
		s.abort(stop)
		var zero T
		return zero, err
	}
	s.finish(stop)
	return out, nil
}

// Complete marks the run finished: 100%, completion label, and running
// until CompleteHold elapses. Idempotent while already at 100.
func (s *Simulator) Complete() {
	s.mu.Lock()
	if s.percent == 100 {
		s.mu.Unlock()
		return
	}
	s.cancelLoopLocked()
	s.completeLocked()
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
}

// Reset zeroes the state and cancels any pending loop or hold timer. Safe
// at any time; starting a new run performs the same cancellation.
func (s *Simulator) Reset() {
	s.mu.Lock()
	s.cancelLoopLocked()
	s.percent = 0
	s.current = ""
	s.running = false
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
}

// begin resets state, marks the run active and spawns the tick loop. It
// returns the loop's stop channel so the caller can settle the right run
// even when another run has started since.
func (s *Simulator) begin(steps []Step, cap float64, interval time.Duration) chan struct{} {
	s.mu.Lock()
	s.cancelLoopLocked()
	if len(steps) == 0 {
		s.percent = 0
		s.current = ""
		s.running = false
		s.mu.Unlock()
		return nil
	}
	stop := make(chan struct{})
	s.stop = stop
	s.percent = 0
	s.current = steps[0].Label
	s.running = true
	s.startedAt = time.Now()
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)

	go s.loop(steps, cap, interval, stop)
	return stop
}

func (s *Simulator) loop(steps []Step, cap float64, interval time.Duration, stop chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.tick(steps, cap, stop)
		}
	}
}

// tick recomputes percent and label from elapsed wall-clock time. The stop
// channel identifies the owning run: a tick racing a Reset or a new Start
// must not touch the fresh state.
func (s *Simulator) tick(steps []Step, cap float64, stop chan struct{}) {
	s.mu.Lock()
	if s.stop != stop {
		s.mu.Unlock()
		return
	}

	total := 0.0
	for _, st := range steps {
		total += st.Weight
	}
	if total <= 0 {
		// Degenerate weights: deterministic jump to the cap.
		if cap > s.percent {
			s.percent = cap
		}
		snap := s.snapshotLocked()
		s.mu.Unlock()
		s.notify(snap)
		return
	}

	elapsed := time.Since(s.startedAt)
	idx := int(elapsed / s.stepDuration())
	if idx >= len(steps) {
		idx = len(steps) - 1
	}

	accumulated := 0.0
	for i := 0; i < idx; i++ {
		accumulated += steps[i].Weight
	}
	within := elapsed - time.Duration(idx)*s.stepDuration()
	fraction := float64(within) / float64(s.stepDuration())
	if fraction > 1 {
		fraction = 1
	}

	pct := (accumulated + fraction*steps[idx].Weight) / total * cap
	if pct > cap {
		pct = cap
	}
	// Progress is monotone within a run.
	if pct > s.percent {
		s.percent = pct
	}
	s.current = steps[idx].Label
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
}

// finish settles the given run successfully.
func (s *Simulator) finish(stop chan struct{}) {
	s.mu.Lock()
	if stop != nil && s.stop != stop {
		s.mu.Unlock()
		return
	}
	s.cancelLoopLocked()
	s.completeLocked()
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
}

// abort stops the given run after the operation failed. The percentage is
// left at its last value and no completion label is shown.
func (s *Simulator) abort(stop chan struct{}) {
	s.mu.Lock()
	if stop != nil && s.stop != stop {
		s.mu.Unlock()
		return
	}
	s.cancelLoopLocked()
	s.running = false
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
}

func (s *Simulator) completeLocked() {
	s.percent = 100
	s.current = completeLabel
	s.running = true
	timer := time.AfterFunc(s.completeHold(), func() {
		s.mu.Lock()
		if s.percent != 100 {
			s.mu.Unlock()
			return
		}
		s.running = false
		snap := s.snapshotLocked()
		s.mu.Unlock()
		s.notify(snap)
	})
	s.holdTimer = timer
}

func (s *Simulator) cancelLoopLocked() {
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
	if s.holdTimer != nil {
		s.holdTimer.Stop()
		s.holdTimer = nil
	}
}

// notify runs outside the lock so listeners may call Snapshot.
func (s *Simulator) notify(snap Snapshot) {
	s.mu.Lock()
	listeners := make([]func(Snapshot), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(snap)
	}
}

func (s *Simulator) stepDuration() time.Duration {
	if s.StepDuration > 0 {
		return s.StepDuration
	}
	return DefaultStepDuration
}

func (s *Simulator) interval() time.Duration {
	if s.Interval > 0 {
		return s.Interval
	}
	return DefaultInterval
}

func (s *Simulator) trackInterval() time.Duration {
	if s.TrackInterval > 0 {
		return s.TrackInterval
	}
	return DefaultTrackInterval
}

func (s *Simulator) completeHold() time.Duration {
	if s.CompleteHold > 0 {
		return s.CompleteHold
	}
	return DefaultCompleteHold
}
