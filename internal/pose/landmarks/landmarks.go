package landmarks

import (
	"errors"
	"fmt"
	"math"
)

// ErrMissingJoint is returned when a joint needed for a measurement is absent
// or below the visibility threshold. Callers skip the angle-dependent work for
// that frame only.
var ErrMissingJoint = errors.New("missing joint")

// Landmark is one joint estimate in normalised image coordinates.
// X and Y are in [0,1] relative to frame width/height, Y grows downwards.
type Landmark struct {
	X          float64
	Y          float64
	Z          float64
	Visibility float64
}

// Set is the landmark result for one frame. A nil *Set means the estimator
// found no person.
type Set struct {
	Points [NumJoints]Landmark
}

// FromValues builds a Set from the estimator's row-per-joint output,
// each row being [x, y, z, visibility]. A missing visibility column is
// treated as fully visible.
func FromValues(rows [][]float64) (*Set, error) {
	if len(rows) != NumJoints {
		return nil, fmt.Errorf("expected %d landmarks, got %d", NumJoints, len(rows))
	}
	s := &Set{}
	for i, row := range rows {
		if len(row) < 3 || len(row) > ValuesPerJoint {
			return nil, fmt.Errorf("landmark %s: expected 3 or 4 values, got %d", Joint(i), len(row))
		}
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("landmark %s: non-finite value", Joint(i))
			}
		}
		lm := Landmark{X: row[0], Y: row[1], Z: row[2], Visibility: 1}
		if len(row) == ValuesPerJoint {
			lm.Visibility = row[3]
		}
		s.Points[i] = lm
	}
	return s, nil
}

// Get returns the landmark for joint j.
func (s *Set) Get(j Joint) Landmark {
	return s.Points[j]
}

// Visible reports whether joint j meets the visibility threshold.
func (s *Set) Visible(j Joint, minVisibility float64) bool {
	return s.Points[j].Visibility >= minVisibility
}

func (s *Set) require(minVisibility float64, joints ...Joint) error {
	for _, j := range joints {
		if !s.Visible(j, minVisibility) {
			return fmt.Errorf("%w: %s visibility %.2f < %.2f", ErrMissingJoint, j, s.Points[j].Visibility, minVisibility)
		}
	}
	return nil
}

// ShoulderY returns the vertical positions of both shoulders.
func (s *Set) ShoulderY(minVisibility float64) (left, right float64, err error) {
	if err := s.require(minVisibility, LeftShoulder, RightShoulder); err != nil {
		return 0, 0, err
	}
	return s.Points[LeftShoulder].Y, s.Points[RightShoulder].Y, nil
}

// KneeAngles returns the left and right knee angles in degrees.
func (s *Set) KneeAngles(minVisibility float64) (left, right float64, err error) {
	left, err = KneeAngle(s.Points[LeftHip], s.Points[LeftKnee], s.Points[LeftAnkle], minVisibility)
	if err != nil {
		return 0, 0, fmt.Errorf("left knee: %w", err)
	}
	right, err = KneeAngle(s.Points[RightHip], s.Points[RightKnee], s.Points[RightAnkle], minVisibility)
	if err != nil {
		return 0, 0, fmt.Errorf("right knee: %w", err)
	}
	return left, right, nil
}
