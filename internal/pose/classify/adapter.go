package classify

import (
	"fmt"

	"github.com/banshee-data/squat.report/internal/pose/landmarks"
	"github.com/banshee-data/squat.report/internal/pose/window"
)

// Result is the classification outcome for one frame.
type Result struct {
	Probabilities Probabilities
	// Label is the arg-max of Probabilities; only meaningful when Ready.
	Label Label
	// Ready is true once both the feature and probability windows are full.
	Ready bool
	// Err is set when the classifier failed this frame and the previous
	// output was held.
	Err error
}

// Adapter stages feature vectors and smooths classifier output for one
// session. Not safe for concurrent use.
type Adapter struct {
	classifier     Classifier
	sequenceLength int

	features *window.Window[[]float64]
	history  *window.Window[[]float64]

	last        Result
	invocations int
	failures    int
}

// NewAdapter creates an adapter with the given window sizes.
func NewAdapter(c Classifier, sequenceLength, horizon int) *Adapter {
	return &Adapter{
		classifier:     c,
		sequenceLength: sequenceLength,
		features:       window.New[[]float64](sequenceLength),
		history:        window.New[[]float64](horizon),
	}
}

// Step folds one frame's features into the adapter and returns the current
// smoothed classification.
//
// Output is all-zero until the feature window is full and then until the
// probability window is full. A failed classifier call holds the previous
// frame's result and reports the failure in Result.Err.
func (a *Adapter) Step(fv landmarks.FeatureVector) Result {
	a.features.Push(fv)
	if !a.features.IsFull() {
		a.last = Result{}
		return a.last
	}

	out, err := a.invoke(a.sequence())
	if err != nil {
		a.failures++
		opsf("classifier failure #%d, holding previous output: %v", a.failures, err)
		held := a.last
		held.Err = err
		return held
	}

	a.history.Push(out.Slice())
	if !a.history.IsFull() {
		tracef("probability window %d/%d", a.history.Len(), a.history.Cap())
		a.last = Result{}
		return a.last
	}

	var avg Probabilities
	copy(avg[:], window.MeanVector(a.history, NumLabels))
	a.last = Result{
		Probabilities: avg,
		Label:         avg.ArgMax(),
		Ready:         true,
	}
	return a.last
}

func (a *Adapter) sequence() [][]float64 {
	snap := a.features.Snapshot()
	seq := make([][]float64, len(snap))
	copy(seq, snap)
	return seq
}

// invoke calls the classifier, converting panics and malformed results into
// errors so a bad model cannot take down the stream.
func (a *Adapter) invoke(seq [][]float64) (p Probabilities, err error) {
	if err := validateSequence(seq, a.sequenceLength); err != nil {
		return p, fmt.Errorf("%w: %v", ErrClassifierFailure, err)
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrClassifierFailure, r)
		}
	}()

	a.invocations++
	out, err := a.classifier.Predict(seq)
	if err != nil {
		return p, fmt.Errorf("%w: %w", ErrClassifierFailure, err)
	}
	p, err = validateOutput(out)
	if err != nil {
		return p, fmt.Errorf("%w: %w", ErrClassifierFailure, err)
	}
	return p, nil
}

// Last returns the most recent result without advancing.
func (a *Adapter) Last() Result { return a.last }

// Invocations returns how many times the classifier was called.
func (a *Adapter) Invocations() int { return a.invocations }

// Failures returns how many classifier calls failed.
func (a *Adapter) Failures() int { return a.failures }

// Reset clears both windows and the held output.
func (a *Adapter) Reset() {
	a.features.Reset()
	a.history.Reset()
	a.last = Result{}
	a.invocations = 0
	a.failures = 0
}
