// Package monitor records per-frame session telemetry and renders it as a
// static PNG (knee angles and shoulder height with rep markers) or as an
// interactive HTML chart of the smoothed class probabilities.
package monitor
