package testutil

import (
	"math"

	"github.com/banshee-data/squat.report/internal/pose/landmarks"
)

// Fixed geometry used by SquatPose, in normalised image coordinates.
const (
	poseHipY     = 0.55
	poseShinLen  = 0.2
	poseThighLen = 0.2
	poseLeftX    = 0.45
	poseRightX   = 0.55
)

// SquatPose builds a fully visible landmark set whose knees both bend to
// kneeDeg and whose shoulders sit at shoulderY. Every other joint is placed
// near the torso so features are non-zero.
func SquatPose(kneeDeg, shoulderY float64) *landmarks.Set {
	var s landmarks.Set
	for i := range s.Points {
		s.Points[i] = landmarks.Landmark{X: 0.5, Y: shoulderY - 0.1, Visibility: 1}
	}
	place := func(j landmarks.Joint, x, y float64) {
		s.Points[j] = landmarks.Landmark{X: x, Y: y, Visibility: 1}
	}

	rad := kneeDeg * math.Pi / 180
	for _, side := range []struct {
		x                          float64
		shoulder, hip, knee, ankle landmarks.Joint
	}{
		{poseLeftX, landmarks.LeftShoulder, landmarks.LeftHip, landmarks.LeftKnee, landmarks.LeftAnkle},
		{poseRightX, landmarks.RightShoulder, landmarks.RightHip, landmarks.RightKnee, landmarks.RightAnkle},
	} {
		kneeY := poseHipY + poseThighLen
		place(side.shoulder, side.x, shoulderY)
		place(side.hip, side.x, poseHipY)
		place(side.knee, side.x, kneeY)
		// The thigh points straight up from the knee; rotate the shin away
		// from it by the requested angle.
		place(side.ankle, side.x+poseShinLen*math.Sin(rad), kneeY-poseShinLen*math.Cos(rad))
	}
	return &s
}

// HideJoint returns a copy of s with joint j below any visibility threshold.
func HideJoint(s *landmarks.Set, j landmarks.Joint) *landmarks.Set {
	c := *s
	c.Points[j].Visibility = 0
	return &c
}
