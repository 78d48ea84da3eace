// Package pipeline provides the per-session orchestration for squat analysis.
//
// A Session wires the landmark geometry, smoothing windows, movement state
// machine, classification adapter and overlay renderer into one synchronous
// frame-in/frame-out call. The pipeline does not own domain logic; it
// delegates to the layer packages and reports through optional sinks
// (RepSink, FrameObserver) so persistence and charting stay outside.
//
// Dependency rules: pipeline may import every internal/pose package and
// internal/config. Nothing under internal/pose may import pipeline.
package pipeline
