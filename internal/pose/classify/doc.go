// Package classify adapts an external sequence classifier to the per-frame
// pipeline.
//
// The classifier is a black box: a [SequenceLength][landmarks.FeatureDim]
// sequence in, a probability vector over the fixed Label set out. The Adapter
// stages feature vectors, invokes the classifier once per frame when the
// sequence is complete, and smooths the last SmoothingHorizon outputs.
//
// Two backends are provided: LinearClassifier (softmax over a linear model,
// evaluated in-process) and ProcessClassifier (an external model worker
// spoken to over length-prefixed msgpack).
package classify
