package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The classifier's trained output order. A mismatch is silent at runtime and
// catastrophic for results, so it is pinned here.
func TestLabelOrderContract(t *testing.T) {
	want := [NumLabels]string{
		"Bad Head",
		"Bad Back Round",
		"Bad Back Warp",
		"Bad Lifted Heels",
		"Bad Inward Knee",
		"Bad Shallow",
		"Good",
	}
	assert.Equal(t, want, LabelNames())
	assert.Equal(t, 7, NumLabels)
	assert.Equal(t, Label(0), BadHead)
	assert.Equal(t, Label(5), BadShallow)
	assert.Equal(t, Label(6), Good)

	for i, name := range want {
		l, err := ParseLabel(name)
		require.NoError(t, err)
		assert.Equal(t, Label(i), l)
		assert.Equal(t, name, l.String())
	}

	_, err := ParseLabel("Bad_Shallow")
	assert.Error(t, err)
	assert.Equal(t, "label(9)", Label(9).String())
}

func TestProbabilities_ArgMax(t *testing.T) {
	tests := []struct {
		name string
		p    Probabilities
		want Label
	}{
		{"tie resolves to lowest index", Probabilities{0.5, 0.5, 0, 0, 0, 0, 0}, BadHead},
		{"late tie", Probabilities{0, 0, 0, 0, 0, 0.4, 0.4}, BadShallow},
		{"clear winner", Probabilities{0.1, 0, 0, 0, 0, 0.1, 0.8}, Good},
		{"all zero", Probabilities{}, BadHead},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.p.ArgMax())
		})
	}
}

func TestProbabilities_IsZero(t *testing.T) {
	assert.True(t, Probabilities{}.IsZero())
	assert.False(t, Probabilities{0, 0, 1e-9}.IsZero())

	p := Probabilities{1, 2, 3, 4, 5, 6, 7}
	s := p.Slice()
	s[0] = 100
	assert.Equal(t, 1.0, p[0])
}
