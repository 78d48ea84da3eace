package movement

import "math"

// Result is the outcome of one Step.
type Result struct {
	State State
	Reps  int

	// Counted is true on the single frame a repetition was added.
	Counted bool

	// GoLower is raised on DOWN frames whose shallower knee is still above
	// the depth threshold. It is an output only and never affects State.
	GoLower bool

	// RepMinKneeDeg is the deepest knee angle seen since the previous
	// counted repetition. Only meaningful when Counted is true.
	RepMinKneeDeg float64
}

// StateMachine tracks direction, the going-up latch and the repetition count
// for one session. Not safe for concurrent use.
type StateMachine struct {
	depthThresholdDeg float64

	state   State
	reps    int
	goingUp bool // true once UP was entered; only DOWN clears it

	repMinKnee float64
}

// NewStateMachine creates a machine in STABLE with zero repetitions.
func NewStateMachine(depthThresholdDeg float64) *StateMachine {
	return &StateMachine{
		depthThresholdDeg: depthThresholdDeg,
		state:             StateStable,
		repMinKnee:        math.Inf(1),
	}
}

// Step advances the machine with one frame of signals. Frames without
// usable landmarks must not be passed in; the machine then simply holds.
func (m *StateMachine) Step(s Signals) Result {
	minKnee := s.MinKneeDeg()
	if minKnee < m.repMinKnee {
		m.repMinKnee = minKnee
	}

	res := Result{}
	switch {
	case StandingUp(s):
		m.state = StateUp
		if !m.goingUp {
			m.reps++
			m.goingUp = true
			res.Counted = true
			res.RepMinKneeDeg = m.repMinKnee
			m.repMinKnee = math.Inf(1)
		}
	case SquattingDown(s):
		m.state = StateDown
		m.goingUp = false
		res.GoLower = minKnee > m.depthThresholdDeg
	default:
		m.state = StateStable
	}

	res.State = m.state
	res.Reps = m.reps
	return res
}

// State returns the current direction.
func (m *StateMachine) State() State { return m.state }

// Reps returns the repetition count.
func (m *StateMachine) Reps() int { return m.reps }

// GoingUp returns the going-up latch.
func (m *StateMachine) GoingUp() bool { return m.goingUp }

// DepthThreshold returns the configured knee depth threshold in degrees.
func (m *StateMachine) DepthThreshold() float64 { return m.depthThresholdDeg }

// Reset returns the machine to its initial state. Used on session restart.
func (m *StateMachine) Reset() {
	m.state = StateStable
	m.reps = 0
	m.goingUp = false
	m.repMinKnee = math.Inf(1)
}
