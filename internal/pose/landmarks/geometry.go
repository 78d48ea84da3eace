package landmarks

import (
	"fmt"
	"math"
)

// JointAngle returns the angle in degrees at vertex formed by the segments
// vertex→a and vertex→c, measured in the image (x,y) plane. Z and visibility
// are ignored. Returns NaN when either segment has zero length.
func JointAngle(a, vertex, c Landmark) float64 {
	ax, ay := a.X-vertex.X, a.Y-vertex.Y
	cx, cy := c.X-vertex.X, c.Y-vertex.Y

	na := math.Hypot(ax, ay)
	nc := math.Hypot(cx, cy)
	if na == 0 || nc == 0 {
		return math.NaN()
	}

	cos := (ax*cx + ay*cy) / (na * nc)
	// Rounding can push |cos| marginally above 1.
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos) * 180 / math.Pi
}

// KneeAngle returns the knee flexion angle (180 = straight leg) for one side.
// ErrMissingJoint is returned if any joint is below minVisibility or the
// geometry is degenerate.
func KneeAngle(hip, knee, ankle Landmark, minVisibility float64) (float64, error) {
	for _, lm := range [...]struct {
		name string
		l    Landmark
	}{{"hip", hip}, {"knee", knee}, {"ankle", ankle}} {
		if lm.l.Visibility < minVisibility {
			return 0, fmt.Errorf("%w: %s visibility %.2f < %.2f", ErrMissingJoint, lm.name, lm.l.Visibility, minVisibility)
		}
	}
	angle := JointAngle(hip, knee, ankle)
	if math.IsNaN(angle) {
		return 0, fmt.Errorf("%w: degenerate hip-knee-ankle geometry", ErrMissingJoint)
	}
	return angle, nil
}

// PixelPoint converts a normalised landmark into integer pixel coordinates.
func PixelPoint(lm Landmark, width, height int) (x, y int) {
	return int(lm.X * float64(width)), int(lm.Y * float64(height))
}
