// Package overlay owns drawing of the annotated output frame.
//
// Render is a pure function of its inputs: it never mutates the source frame
// and keeps no state between calls. Callers (the pipeline) decide what to
// draw; this package only decides how it looks.
//
// Dependency rules: overlay may import landmarks and classify for their
// types. It must not import pipeline, movement state, or storage.
package overlay
