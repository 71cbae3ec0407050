package scheduler

import (
	"fmt"
	"time"
)

// Policy decides when a turn may resolve.
type Policy uint8

const (
	// Timed resolves when the turn timer elapses.
	Timed Policy = iota
	// EndEarly resolves when the timer elapses or every live snake has an
	// intent, whichever comes first.
	EndEarly
	// LockStep resolves only once every live snake has an intent.
	LockStep
)

func (p Policy) String() string {
	switch p {
	case Timed:
		return "timed"
	case EndEarly:
		return "end-early"
	case LockStep:
		return "lock-step"
	default:
		return fmt.Sprintf("policy(%d)", uint8(p))
	}
}

// PolicyFor maps the wait/end_early switches and the timeout onto a policy.
// No timer at all means lock-step.
func PolicyFor(timeout time.Duration, wait, endEarly bool) Policy {
	switch {
	case wait || timeout <= 0:
		return LockStep
	case endEarly:
		return EndEarly
	default:
		return Timed
	}
}

// Turn is the tick state shared by every stage.
type Turn struct {
	Current   int
	Max       int
	Ready     bool
	Requested bool
	Timeout   time.Duration
	Policy    Policy

	elapsed time.Duration
}

func NewTurn(max int, timeout time.Duration, policy Policy) *Turn {
	return &Turn{Max: max, Timeout: timeout, Policy: policy}
}

// Finished reports whether every turn has been played. A game with
// Max <= 0 is over before it starts.
func (t *Turn) Finished() bool {
	return t.Current >= t.Max
}

func (t *Turn) Tick(dt time.Duration) {
	t.elapsed += dt
}

func (t *Turn) Elapsed() time.Duration { return t.elapsed }

// Evaluate updates Ready. A finished game is never ready, and neither is a
// turn whose intents have not been requested yet.
func (t *Turn) Evaluate(allReady bool) bool {
	switch {
	case t.Finished() || !t.Requested:
		t.Ready = false
	case t.Policy == LockStep:
		t.Ready = allReady
	case t.Policy == EndEarly:
		t.Ready = t.elapsed >= t.Timeout || allReady
	default:
		t.Ready = t.elapsed >= t.Timeout
	}
	return t.Ready
}

// End closes the current turn: the flags and timer reset and the counter
// advances by exactly one.
func (t *Turn) End() {
	t.Ready = false
	t.Requested = false
	t.elapsed = 0
	t.Current++
}

// HandshakeTimeout is the per-turn timeout told to external agents, -1 in
// lock-step mode.
func (t *Turn) HandshakeTimeout() int64 {
	if t.Policy == LockStep {
		return -1
	}
	return t.Timeout.Milliseconds()
}
