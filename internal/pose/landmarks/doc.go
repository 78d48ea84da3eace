// Package landmarks owns the per-frame body landmark model consumed from the
// external pose estimator.
//
// Responsibilities: the fixed 33-joint enumeration, LandmarkSet parsing,
// FeatureVector extraction for the sequence classifier, and the joint-angle
// geometry used by the movement heuristics.
//
// The joint ordering is a contract with the classifier: features are laid out
// in Joint order, four values per joint (x, y, z, visibility). Reordering the
// enumeration silently breaks every trained model.
package landmarks
