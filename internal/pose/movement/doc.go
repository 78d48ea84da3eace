// Package movement owns squat direction detection and repetition counting.
//
// A StateMachine consumes instantaneous and smoothed shoulder heights and
// knee angles once per frame and decides STABLE, UP or DOWN. Repetitions are
// counted on the rising edge into UP, guarded by a separate going-up latch so
// several consecutive UP frames count once.
//
// No SQL, rendering or classifier code belongs here.
package movement
