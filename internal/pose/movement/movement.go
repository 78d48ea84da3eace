package movement

import "math"

// State is the detected movement direction.
type State string

const (
	StateStable State = "STABLE" // Initial; neither signal fired
	StateUp     State = "UP"     // Standing up
	StateDown   State = "DOWN"   // Squatting down
)

// Heuristic deltas. Shoulder heights are normalised image coordinates
// (Y grows downwards), knee angles are degrees.
const (
	// ShoulderDeltaY is how far the instantaneous shoulder height must move
	// away from its smoothed average to count as rising or dropping.
	ShoulderDeltaY = 0.01
	// KneeDeltaDeg is how far the instantaneous knee angle must move away
	// from its smoothed average to count as opening or closing.
	KneeDeltaDeg = 3.0
)

// Signals is the per-frame input to the state machine. Averages come from
// the session's smoothing windows and include the current sample.
type Signals struct {
	LeftShoulderY     float64
	RightShoulderY    float64
	AvgLeftShoulderY  float64
	AvgRightShoulderY float64

	LeftKneeDeg     float64
	RightKneeDeg    float64
	AvgLeftKneeDeg  float64
	AvgRightKneeDeg float64
}

// MinKneeDeg returns the smaller of the two instantaneous knee angles.
func (s Signals) MinKneeDeg() float64 {
	return math.Min(s.LeftKneeDeg, s.RightKneeDeg)
}

// StandingUp reports whether both shoulders rose above their average and both
// knees opened beyond their average.
func StandingUp(s Signals) bool {
	shouldersRising := s.LeftShoulderY < s.AvgLeftShoulderY-ShoulderDeltaY &&
		s.RightShoulderY < s.AvgRightShoulderY-ShoulderDeltaY
	kneesOpening := s.LeftKneeDeg > s.AvgLeftKneeDeg+KneeDeltaDeg &&
		s.RightKneeDeg > s.AvgRightKneeDeg+KneeDeltaDeg
	return shouldersRising && kneesOpening
}

// SquattingDown is the mirror of StandingUp.
func SquattingDown(s Signals) bool {
	shouldersDropping := s.LeftShoulderY > s.AvgLeftShoulderY+ShoulderDeltaY &&
		s.RightShoulderY > s.AvgRightShoulderY+ShoulderDeltaY
	kneesClosing := s.LeftKneeDeg < s.AvgLeftKneeDeg-KneeDeltaDeg &&
		s.RightKneeDeg < s.AvgRightKneeDeg-KneeDeltaDeg
	return shouldersDropping && kneesClosing
}
