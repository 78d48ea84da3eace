package landmarks

// FeatureVector is the flattened classifier input for one frame: for every
// joint in Joint order, (x, y, z, visibility).
type FeatureVector []float64

// ExtractFeatureVector flattens s into a FeatureVector of length FeatureDim.
// A nil Set yields an all-zero vector, matching the estimator's "no pose"
// encoding used when the classifier was trained.
func ExtractFeatureVector(s *Set) FeatureVector {
	fv := make(FeatureVector, FeatureDim)
	if s == nil {
		return fv
	}
	for j := 0; j < NumJoints; j++ {
		lm := s.Points[j]
		off := j * ValuesPerJoint
		fv[off] = lm.X
		fv[off+1] = lm.Y
		fv[off+2] = lm.Z
		fv[off+3] = lm.Visibility
	}
	return fv
}
