package classify

import (
	"errors"
	"fmt"
	"math"

	"github.com/banshee-data/squat.report/internal/pose/landmarks"
)

const (
	// SequenceLength is the number of feature vectors per classifier call.
	SequenceLength = 30
	// SmoothingHorizon is the number of classifier outputs averaged.
	SmoothingHorizon = 5
)

var (
	// ErrClassifierFailure wraps any error raised while invoking a classifier.
	ErrClassifierFailure = errors.New("classifier invocation failed")
	// ErrMalformedOutput marks a classifier result with the wrong shape or
	// non-finite values.
	ErrMalformedOutput = errors.New("malformed classifier output")
)

// Classifier maps a feature sequence (oldest first) to one probability per
// Label. Implementations may block for the duration of a forward pass.
type Classifier interface {
	Predict(sequence [][]float64) ([]float64, error)
}

// ClassifierFunc adapts a function to the Classifier interface.
type ClassifierFunc func(sequence [][]float64) ([]float64, error)

// Predict calls f.
func (f ClassifierFunc) Predict(sequence [][]float64) ([]float64, error) {
	return f(sequence)
}

// validateSequence checks the input shape before it reaches the model.
func validateSequence(sequence [][]float64, length int) error {
	if len(sequence) != length {
		return fmt.Errorf("sequence length %d, want %d", len(sequence), length)
	}
	for i, fv := range sequence {
		if len(fv) != landmarks.FeatureDim {
			return fmt.Errorf("feature vector %d has %d values, want %d", i, len(fv), landmarks.FeatureDim)
		}
	}
	return nil
}

// validateOutput checks the classifier result shape and values.
func validateOutput(out []float64) (Probabilities, error) {
	var p Probabilities
	if len(out) != NumLabels {
		return p, fmt.Errorf("%w: %d values, want %d", ErrMalformedOutput, len(out), NumLabels)
	}
	for i, v := range out {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return p, fmt.Errorf("%w: %s is %v", ErrMalformedOutput, Label(i), v)
		}
		p[i] = v
	}
	return p, nil
}
