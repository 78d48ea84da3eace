package classify

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Label is a movement-form class. The numeric order is the classifier's
// trained output order and must never change.
type Label int

const (
	BadHead Label = iota
	BadBackRound
	BadBackWarp
	BadLiftedHeels
	BadInwardKnee
	BadShallow
	Good

	// NumLabels is the classifier output width.
	NumLabels = 7
)

var labelNames = [NumLabels]string{
	BadHead:        "Bad Head",
	BadBackRound:   "Bad Back Round",
	BadBackWarp:    "Bad Back Warp",
	BadLiftedHeels: "Bad Lifted Heels",
	BadInwardKnee:  "Bad Inward Knee",
	BadShallow:     "Bad Shallow",
	Good:           "Good",
}

// String returns the display name.
func (l Label) String() string {
	if l < 0 || int(l) >= NumLabels {
		return fmt.Sprintf("label(%d)", int(l))
	}
	return labelNames[l]
}

// LabelNames returns the display names in classifier output order.
func LabelNames() [NumLabels]string {
	return labelNames
}

// ParseLabel resolves a display name.
func ParseLabel(name string) (Label, error) {
	for i, n := range labelNames {
		if n == name {
			return Label(i), nil
		}
	}
	return 0, fmt.Errorf("unknown label %q", name)
}

// Probabilities is a per-label probability vector. After smoothing the sum
// approximates but need not equal 1; it is not renormalised.
type Probabilities [NumLabels]float64

// ArgMax returns the most probable label. Ties resolve to the lowest index.
func (p Probabilities) ArgMax() Label {
	return Label(floats.MaxIdx(p[:]))
}

// IsZero reports whether every entry is zero (no classification yet).
func (p Probabilities) IsZero() bool {
	for _, v := range p {
		if v != 0 {
			return false
		}
	}
	return true
}

// Slice returns the probabilities as a fresh slice.
func (p Probabilities) Slice() []float64 {
	out := make([]float64, NumLabels)
	copy(out, p[:])
	return out
}
