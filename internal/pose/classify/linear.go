package classify

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/squat.report/internal/pose/landmarks"
)

// LinearModel is the on-disk form of a LinearClassifier.
type LinearModel struct {
	Labels  []string    `json:"labels"`
	Weights [][]float64 `json:"weights"` // NumLabels rows × FeatureDim columns
	Bias    []float64   `json:"bias"`
}

// LinearClassifier scores the time-averaged feature vector with a linear
// layer followed by softmax. It is stateless and safe for concurrent use.
type LinearClassifier struct {
	w *mat.Dense
	b *mat.VecDense
}

// NewLinearClassifier validates m and builds a classifier from it. The label
// list must match the fixed Label order exactly.
func NewLinearClassifier(m LinearModel) (*LinearClassifier, error) {
	if len(m.Labels) != NumLabels {
		return nil, fmt.Errorf("model has %d labels, want %d", len(m.Labels), NumLabels)
	}
	for i, name := range m.Labels {
		if name != Label(i).String() {
			return nil, fmt.Errorf("model label %d is %q, want %q", i, name, Label(i))
		}
	}
	if len(m.Weights) != NumLabels {
		return nil, fmt.Errorf("model has %d weight rows, want %d", len(m.Weights), NumLabels)
	}
	if len(m.Bias) != NumLabels {
		return nil, fmt.Errorf("model has %d bias values, want %d", len(m.Bias), NumLabels)
	}

	data := make([]float64, 0, NumLabels*landmarks.FeatureDim)
	for i, row := range m.Weights {
		if len(row) != landmarks.FeatureDim {
			return nil, fmt.Errorf("weight row %d has %d values, want %d", i, len(row), landmarks.FeatureDim)
		}
		data = append(data, row...)
	}
	bias := make([]float64, NumLabels)
	copy(bias, m.Bias)

	return &LinearClassifier{
		w: mat.NewDense(NumLabels, landmarks.FeatureDim, data),
		b: mat.NewVecDense(NumLabels, bias),
	}, nil
}

// LoadLinearClassifier reads a LinearModel JSON file.
func LoadLinearClassifier(path string) (*LinearClassifier, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("model file must have .json extension, got %q", ext)
	}
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read model file: %w", err)
	}
	var m LinearModel
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse model JSON: %w", err)
	}
	c, err := NewLinearClassifier(m)
	if err != nil {
		return nil, fmt.Errorf("invalid model %s: %w", cleanPath, err)
	}
	diagf("loaded linear model from %s", cleanPath)
	return c, nil
}

// Predict implements Classifier.
func (c *LinearClassifier) Predict(sequence [][]float64) ([]float64, error) {
	if len(sequence) == 0 {
		return nil, fmt.Errorf("empty sequence")
	}
	mean := make([]float64, landmarks.FeatureDim)
	for i, fv := range sequence {
		if len(fv) != landmarks.FeatureDim {
			return nil, fmt.Errorf("feature vector %d has %d values, want %d", i, len(fv), landmarks.FeatureDim)
		}
		floats.Add(mean, fv)
	}
	floats.Scale(1/float64(len(sequence)), mean)

	var z mat.VecDense
	z.MulVec(c.w, mat.NewVecDense(landmarks.FeatureDim, mean))
	z.AddVec(&z, c.b)

	logits := make([]float64, NumLabels)
	for i := range logits {
		logits[i] = z.AtVec(i)
	}
	return softmax(logits), nil
}

// softmax normalises logits in place and returns them.
func softmax(logits []float64) []float64 {
	maxLogit := floats.Max(logits)
	for i, v := range logits {
		logits[i] = math.Exp(v - maxLogit)
	}
	floats.Scale(1/floats.Sum(logits), logits)
	return logits
}

// NewUniformClassifier returns a LinearClassifier with zero weights. It
// always predicts the uniform distribution and is the fallback when no model
// file is configured.
func NewUniformClassifier() *LinearClassifier {
	return &LinearClassifier{
		w: mat.NewDense(NumLabels, landmarks.FeatureDim, nil),
		b: mat.NewVecDense(NumLabels, nil),
	}
}
