package landmarks

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJointOrderingContract(t *testing.T) {
	// The classifier was trained on this exact layout.
	assert.Equal(t, 33, NumJoints)
	assert.Equal(t, 132, FeatureDim)
	assert.Equal(t, Joint(11), LeftShoulder)
	assert.Equal(t, Joint(12), RightShoulder)
	assert.Equal(t, Joint(23), LeftHip)
	assert.Equal(t, Joint(24), RightHip)
	assert.Equal(t, Joint(25), LeftKnee)
	assert.Equal(t, Joint(26), RightKnee)
	assert.Equal(t, Joint(27), LeftAnkle)
	assert.Equal(t, Joint(28), RightAnkle)
	assert.Equal(t, Joint(32), RightFootIndex)
}

func TestJointNames(t *testing.T) {
	assert.Equal(t, "left_knee", LeftKnee.String())
	assert.Equal(t, "joint(40)", Joint(40).String())
	assert.False(t, Joint(-1).Valid())

	j, err := ParseJoint("right_ankle")
	require.NoError(t, err)
	assert.Equal(t, RightAnkle, j)

	_, err = ParseJoint("tail")
	assert.Error(t, err)
}

func TestJointAngle(t *testing.T) {
	tests := []struct {
		name    string
		a, v, c Landmark
		want    float64
	}{
		{"straight", Landmark{X: 0, Y: 0}, Landmark{X: 0, Y: 1}, Landmark{X: 0, Y: 2}, 180},
		{"right angle", Landmark{X: 1, Y: 1}, Landmark{X: 0, Y: 1}, Landmark{X: 0, Y: 2}, 90},
		{"closed", Landmark{X: 0, Y: 2}, Landmark{X: 0, Y: 1}, Landmark{X: 0, Y: 2}, 0},
		{"ignores z", Landmark{X: 1, Y: 1, Z: 5}, Landmark{X: 0, Y: 1, Z: -3}, Landmark{X: 0, Y: 2}, 90},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, JointAngle(tt.a, tt.v, tt.c), 1e-9)
		})
	}

	assert.True(t, math.IsNaN(JointAngle(Landmark{}, Landmark{}, Landmark{X: 1})))
}

func TestKneeAngle_MissingJoint(t *testing.T) {
	hip := Landmark{X: 0.5, Y: 0.5, Visibility: 0.9}
	knee := Landmark{X: 0.5, Y: 0.7, Visibility: 0.9}
	ankle := Landmark{X: 0.5, Y: 0.9, Visibility: 0.2}

	_, err := KneeAngle(hip, knee, ankle, 0.5)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingJoint))

	angle, err := KneeAngle(hip, knee, ankle, 0.1)
	require.NoError(t, err)
	assert.InDelta(t, 180, angle, 1e-9)

	_, err = KneeAngle(knee, knee, ankle, 0)
	assert.ErrorIs(t, err, ErrMissingJoint)
}

func TestFromValues(t *testing.T) {
	rows := make([][]float64, NumJoints)
	for i := range rows {
		rows[i] = []float64{float64(i) / 100, 0.5, 0, 0.9}
	}
	rows[LeftKnee] = []float64{0.4, 0.7, 0.1}

	s, err := FromValues(rows)
	require.NoError(t, err)
	assert.Equal(t, 1.0, s.Get(LeftKnee).Visibility)
	assert.Equal(t, 0.9, s.Get(RightKnee).Visibility)

	_, err = FromValues(rows[:10])
	assert.Error(t, err)

	rows[3] = []float64{0.1}
	_, err = FromValues(rows)
	assert.Error(t, err)

	rows[3] = []float64{math.NaN(), 0, 0, 1}
	_, err = FromValues(rows)
	assert.Error(t, err)
}

func TestExtractFeatureVector(t *testing.T) {
	s := &Set{}
	for i := range s.Points {
		s.Points[i] = Landmark{X: float64(i), Y: float64(i) + 0.1, Z: float64(i) + 0.2, Visibility: float64(i) + 0.3}
	}

	fv := ExtractFeatureVector(s)
	require.Len(t, fv, FeatureDim)
	for j := 0; j < NumJoints; j++ {
		off := j * ValuesPerJoint
		assert.Equal(t, float64(j), fv[off])
		assert.InDelta(t, float64(j)+0.1, fv[off+1], 1e-12)
		assert.InDelta(t, float64(j)+0.2, fv[off+2], 1e-12)
		assert.InDelta(t, float64(j)+0.3, fv[off+3], 1e-12)
	}

	zero := ExtractFeatureVector(nil)
	require.Len(t, zero, FeatureDim)
	for _, v := range zero {
		assert.Zero(t, v)
	}
}

func TestSetMeasurements(t *testing.T) {
	s := &Set{}
	for i := range s.Points {
		s.Points[i].Visibility = 1
	}
	s.Points[LeftShoulder] = Landmark{X: 0.45, Y: 0.3, Visibility: 1}
	s.Points[RightShoulder] = Landmark{X: 0.55, Y: 0.32, Visibility: 1}
	s.Points[LeftHip] = Landmark{X: 0.45, Y: 0.5, Visibility: 1}
	s.Points[LeftKnee] = Landmark{X: 0.45, Y: 0.7, Visibility: 1}
	s.Points[LeftAnkle] = Landmark{X: 0.45, Y: 0.9, Visibility: 1}
	s.Points[RightHip] = Landmark{X: 0.75, Y: 0.7, Visibility: 1}
	s.Points[RightKnee] = Landmark{X: 0.55, Y: 0.7, Visibility: 1}
	s.Points[RightAnkle] = Landmark{X: 0.55, Y: 0.9, Visibility: 1}

	l, r, err := s.ShoulderY(0.5)
	require.NoError(t, err)
	assert.Equal(t, 0.3, l)
	assert.Equal(t, 0.32, r)

	lk, rk, err := s.KneeAngles(0.5)
	require.NoError(t, err)
	assert.InDelta(t, 180, lk, 1e-9)
	assert.InDelta(t, 90, rk, 1e-9)

	s.Points[RightShoulder].Visibility = 0.1
	_, _, err = s.ShoulderY(0.5)
	assert.ErrorIs(t, err, ErrMissingJoint)
}

func TestConnections(t *testing.T) {
	legs := 0
	for _, c := range Connections {
		assert.True(t, c[0].Valid() && c[1].Valid(), "connection %v", c)
		if c.IsLeg() {
			legs++
		}
	}
	// hip-knee, knee-ankle, ankle-heel, heel-foot, ankle-foot per side
	assert.Equal(t, 10, legs)
	assert.False(t, Connection{LeftHip, RightHip}.IsLeg())
	assert.False(t, Connection{LeftShoulder, LeftHip}.IsLeg())
}

func TestPixelPoint(t *testing.T) {
	x, y := PixelPoint(Landmark{X: 0.5, Y: 0.25}, 640, 480)
	assert.Equal(t, 320, x)
	assert.Equal(t, 120, y)
}
