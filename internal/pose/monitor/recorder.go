package monitor

import (
	"errors"
	"math"
	"sync"

	"github.com/banshee-data/squat.report/internal/pose/classify"
	"github.com/banshee-data/squat.report/internal/pose/movement"
	"github.com/banshee-data/squat.report/internal/pose/pipeline"
)

// ErrNoData is returned when a chart is requested before any frame with a
// detected person was recorded.
var ErrNoData = errors.New("monitor: no frames recorded")

// Sample is one recorded frame. Measurements are NaN when not taken.
type Sample struct {
	Index          int
	LeftKneeDeg    float64
	RightKneeDeg   float64
	LeftShoulderY  float64
	RightShoulderY float64
	State          movement.State
	Reps           int
	Counted        bool
	GoLower        bool
	Probabilities  classify.Probabilities
	Ready          bool
}

// SeriesRecorder collects frame results for charting. It implements
// pipeline.FrameObserver and is safe for concurrent use, so a chart can be
// served while a session is still running.
type SeriesRecorder struct {
	mu        sync.Mutex
	samples   []Sample
	threshold float64
	maxFrames int
}

// NewSeriesRecorder returns a recorder that draws depthThreshold as a
// reference line. maxFrames bounds memory; older samples are dropped once it
// is reached. Zero means unbounded.
func NewSeriesRecorder(depthThreshold float64, maxFrames int) *SeriesRecorder {
	return &SeriesRecorder{threshold: depthThreshold, maxFrames: maxFrames}
}

// ObserveFrame records frames in which a person was detected.
func (r *SeriesRecorder) ObserveFrame(res pipeline.FrameResult) {
	if !res.PersonDetected {
		return
	}
	s := Sample{
		Index:          res.Index,
		LeftKneeDeg:    res.LeftKneeDeg,
		RightKneeDeg:   res.RightKneeDeg,
		LeftShoulderY:  res.LeftShoulderY,
		RightShoulderY: res.RightShoulderY,
		State:          res.State,
		Reps:           res.Reps,
		Counted:        res.Counted,
		GoLower:        res.GoLower,
		Probabilities:  res.Classification.Probabilities,
		Ready:          res.Classification.Ready,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.samples = append(r.samples, s)
	if r.maxFrames > 0 && len(r.samples) > r.maxFrames {
		drop := len(r.samples) - r.maxFrames
		r.samples = append(r.samples[:0], r.samples[drop:]...)
	}
}

// Samples returns a copy of the recorded frames in arrival order.
func (r *SeriesRecorder) Samples() []Sample {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Sample, len(r.samples))
	copy(out, r.samples)
	return out
}

// RepFrames returns the frame indices on which a rep was counted.
func (r *SeriesRecorder) RepFrames() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	var frames []int
	for _, s := range r.samples {
		if s.Counted {
			frames = append(frames, s.Index)
		}
	}
	return frames
}

// Reset discards all recorded samples.
func (r *SeriesRecorder) Reset() {
	r.mu.Lock()
	r.samples = nil
	r.mu.Unlock()
}

func minKnee(s Sample) float64 {
	if math.IsNaN(s.LeftKneeDeg) || math.IsNaN(s.RightKneeDeg) {
		return math.NaN()
	}
	return math.Min(s.LeftKneeDeg, s.RightKneeDeg)
}
