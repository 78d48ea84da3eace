package classify

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/squat.report/internal/pose/landmarks"
)

func zeroModel() LinearModel {
	names := LabelNames()
	m := LinearModel{
		Labels:  names[:],
		Weights: make([][]float64, NumLabels),
		Bias:    make([]float64, NumLabels),
	}
	for i := range m.Weights {
		m.Weights[i] = make([]float64, landmarks.FeatureDim)
	}
	return m
}

func TestLinearClassifier_UniformWithZeroWeights(t *testing.T) {
	c, err := NewLinearClassifier(zeroModel())
	require.NoError(t, err)

	seq := make([][]float64, SequenceLength)
	for i := range seq {
		seq[i] = featureVector(0.5)
	}
	out, err := c.Predict(seq)
	require.NoError(t, err)
	require.Len(t, out, NumLabels)
	for _, p := range out {
		assert.InDelta(t, 1.0/NumLabels, p, 1e-12)
	}
}

func TestLinearClassifier_BiasAndWeights(t *testing.T) {
	m := zeroModel()
	m.Bias[Good] = 2
	// Reward a high left-knee visibility for BadShallow.
	m.Weights[BadShallow][int(landmarks.LeftKnee)*landmarks.ValuesPerJoint+3] = 10

	c, err := NewLinearClassifier(m)
	require.NoError(t, err)

	seq := [][]float64{featureVector(0), featureVector(0)}
	out, err := c.Predict(seq)
	require.NoError(t, err)
	assert.Equal(t, Good, Probabilities(out).ArgMax())

	seq = [][]float64{featureVector(1), featureVector(1)}
	out, err = c.Predict(seq)
	require.NoError(t, err)
	assert.Equal(t, BadShallow, Probabilities(out).ArgMax())

	sum := 0.0
	for _, p := range out {
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestLinearClassifier_Errors(t *testing.T) {
	c, err := NewLinearClassifier(zeroModel())
	require.NoError(t, err)

	_, err = c.Predict(nil)
	assert.Error(t, err)
	_, err = c.Predict([][]float64{{1, 2}})
	assert.Error(t, err)
}

func TestNewLinearClassifier_RejectsMismatchedLabels(t *testing.T) {
	m := zeroModel()
	m.Labels[5] = "Bad_Shallow"
	_, err := NewLinearClassifier(m)
	assert.Error(t, err)

	m = zeroModel()
	m.Labels[0], m.Labels[1] = m.Labels[1], m.Labels[0]
	_, err = NewLinearClassifier(m)
	assert.Error(t, err)

	m = zeroModel()
	m.Weights[2] = m.Weights[2][:10]
	_, err = NewLinearClassifier(m)
	assert.Error(t, err)

	m = zeroModel()
	m.Bias = m.Bias[:3]
	_, err = NewLinearClassifier(m)
	assert.Error(t, err)
}

func TestLoadLinearClassifier(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.json")
	data, err := json.Marshal(zeroModel())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	c, err := LoadLinearClassifier(path)
	require.NoError(t, err)
	assert.NotNil(t, c)

	_, err = LoadLinearClassifier(filepath.Join(dir, "model.bin"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o644))
	_, err = LoadLinearClassifier(bad)
	assert.Error(t, err)
}

func TestSoftmax_Stable(t *testing.T) {
	out := softmax([]float64{1000, 1000, 0, 0, 0, 0, 0})
	assert.InDelta(t, 0.5, out[0], 1e-9)
	assert.InDelta(t, 0.5, out[1], 1e-9)
}

func TestNewUniformClassifier(t *testing.T) {
	out, err := NewUniformClassifier().Predict([][]float64{featureVector(0.3)})
	require.NoError(t, err)
	for _, p := range out {
		assert.InDelta(t, 1.0/NumLabels, p, 1e-12)
	}
	// Uniform output ties resolve to the first label.
	assert.Equal(t, BadHead, Probabilities(out).ArgMax())
}
