package movement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// steady is a frame where every instantaneous value equals its average.
func steady() Signals {
	return Signals{
		LeftShoulderY: 0.3, RightShoulderY: 0.3,
		AvgLeftShoulderY: 0.3, AvgRightShoulderY: 0.3,
		LeftKneeDeg: 170, RightKneeDeg: 170,
		AvgLeftKneeDeg: 170, AvgRightKneeDeg: 170,
	}
}

// rising moves shoulders up and opens the knees past the deltas.
func rising() Signals {
	s := steady()
	s.LeftShoulderY -= 2 * ShoulderDeltaY
	s.RightShoulderY -= 2 * ShoulderDeltaY
	s.LeftKneeDeg += 2 * KneeDeltaDeg
	s.RightKneeDeg += 2 * KneeDeltaDeg
	return s
}

// falling drops the shoulders and closes the knees to the given angle.
func falling(knee float64) Signals {
	s := steady()
	s.LeftShoulderY += 2 * ShoulderDeltaY
	s.RightShoulderY += 2 * ShoulderDeltaY
	s.LeftKneeDeg = knee
	s.RightKneeDeg = knee + 5
	s.AvgLeftKneeDeg = knee + 2*KneeDeltaDeg
	s.AvgRightKneeDeg = knee + 5 + 2*KneeDeltaDeg
	return s
}

func TestNewStateMachine(t *testing.T) {
	m := NewStateMachine(120)
	assert.Equal(t, StateStable, m.State())
	assert.Equal(t, 0, m.Reps())
	assert.False(t, m.GoingUp())
	assert.Equal(t, 120.0, m.DepthThreshold())
}

func TestSignals_MutuallyExclusive(t *testing.T) {
	for _, s := range []Signals{steady(), rising(), falling(100)} {
		assert.False(t, StandingUp(s) && SquattingDown(s))
	}
	assert.True(t, StandingUp(rising()))
	assert.True(t, SquattingDown(falling(100)))
	assert.False(t, StandingUp(steady()))
	assert.False(t, SquattingDown(steady()))
}

func TestSignals_RequireBothSides(t *testing.T) {
	s := rising()
	s.RightShoulderY = s.AvgRightShoulderY
	assert.False(t, StandingUp(s), "one shoulder rising is not enough")

	s = rising()
	s.LeftKneeDeg = s.AvgLeftKneeDeg + KneeDeltaDeg/2
	assert.False(t, StandingUp(s), "knee below delta is not enough")
}

func TestStep_RisingEdgeCountsOnce(t *testing.T) {
	m := NewStateMachine(120)

	res := m.Step(rising())
	assert.Equal(t, StateUp, res.State)
	assert.True(t, res.Counted)
	assert.Equal(t, 1, res.Reps)

	for i := 0; i < 5; i++ {
		res = m.Step(rising())
		assert.Equal(t, StateUp, res.State)
		assert.False(t, res.Counted, "UP frame %d re-counted", i)
		assert.Equal(t, 1, res.Reps)
	}
}

func TestStep_StableDoesNotResetLatch(t *testing.T) {
	m := NewStateMachine(120)
	m.Step(rising())
	res := m.Step(steady())
	assert.Equal(t, StateStable, res.State)
	assert.True(t, m.GoingUp())

	res = m.Step(rising())
	assert.False(t, res.Counted)
	assert.Equal(t, 1, res.Reps)
}

func TestStep_FullCycles(t *testing.T) {
	m := NewStateMachine(120)
	want := 0
	for cycle := 0; cycle < 4; cycle++ {
		for _, s := range []Signals{steady(), falling(100), falling(95), steady(), rising(), rising(), steady()} {
			before := m.Reps()
			res := m.Step(s)
			require.GreaterOrEqual(t, res.Reps, before, "counter decreased")
			if res.Counted {
				want++
				assert.Equal(t, before+1, res.Reps)
			}
		}
	}
	assert.Equal(t, 4, want)
	assert.Equal(t, 4, m.Reps())
}

func TestStep_GoLower(t *testing.T) {
	m := NewStateMachine(120)

	res := m.Step(falling(140))
	assert.Equal(t, StateDown, res.State)
	assert.True(t, res.GoLower, "140° with threshold 120° should cue go lower")

	res = m.Step(falling(100))
	assert.Equal(t, StateDown, res.State)
	assert.False(t, res.GoLower)

	res = m.Step(rising())
	assert.False(t, res.GoLower, "cue only raised while DOWN")
}

func TestStep_RepMinKnee(t *testing.T) {
	m := NewStateMachine(120)
	m.Step(falling(110))
	m.Step(falling(92))
	m.Step(steady())
	res := m.Step(rising())
	require.True(t, res.Counted)
	assert.Equal(t, 92.0, res.RepMinKneeDeg)

	m.Step(falling(130))
	res = m.Step(rising())
	require.True(t, res.Counted)
	assert.Equal(t, 130.0, res.RepMinKneeDeg)
}

func TestReset(t *testing.T) {
	m := NewStateMachine(120)
	m.Step(rising())
	m.Reset()
	assert.Equal(t, 0, m.Reps())
	assert.Equal(t, StateStable, m.State())
	assert.False(t, m.GoingUp())
}
