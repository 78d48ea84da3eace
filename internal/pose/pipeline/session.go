package pipeline

import (
	"errors"
	"fmt"
	"image"
	"io"
	"math"
	"reflect"
	"sync"
	"time"

	"github.com/banshee-data/squat.report/internal/config"
	"github.com/banshee-data/squat.report/internal/pose/classify"
	"github.com/banshee-data/squat.report/internal/pose/landmarks"
	"github.com/banshee-data/squat.report/internal/pose/movement"
	"github.com/banshee-data/squat.report/internal/pose/overlay"
	"github.com/banshee-data/squat.report/internal/pose/window"
	"github.com/banshee-data/squat.report/internal/timeutil"
)

// ErrSessionClosed is reported on frames submitted after Close.
var ErrSessionClosed = errors.New("session closed")

// RepEvent describes one counted repetition.
type RepEvent struct {
	Rep        int
	FrameIndex int
	// MinKneeDeg is the deepest knee angle seen since the previous rep.
	MinKneeDeg   float64
	DepthReached bool
	// Label is the smoothed top classification at the moment of counting;
	// LabelReady is false while the classifier is still warming up.
	Label      classify.Label
	LabelReady bool
}

// RepSink receives counted repetitions. Errors are logged and never stop the
// stream.
type RepSink interface {
	RecordRep(ev RepEvent) error
}

// FrameObserver receives every FrameResult after processing. Observers run
// under the session lock and must not call back into the session.
type FrameObserver interface {
	ObserveFrame(res FrameResult)
}

// FrameResult summarises what the pipeline did with one frame.
type FrameResult struct {
	Index          int
	PersonDetected bool
	// MissingJoint is set when a person was detected but a joint needed for
	// the movement signals was not visible.
	MissingJoint error

	State   movement.State
	Reps    int
	Counted bool
	GoLower bool

	// Raw measurements; NaN when not measured this frame.
	LeftKneeDeg    float64
	RightKneeDeg   float64
	LeftShoulderY  float64
	RightShoulderY float64

	Classification classify.Result

	// Err carries a classifier failure or a recovered panic. The frame was
	// still rendered.
	Err     error
	Latency time.Duration
}

// MinKneeDeg returns the smaller measured knee angle, or NaN.
func (r FrameResult) MinKneeDeg() float64 {
	if math.IsNaN(r.LeftKneeDeg) || math.IsNaN(r.RightKneeDeg) {
		return math.NaN()
	}
	return math.Min(r.LeftKneeDeg, r.RightKneeDeg)
}

// SessionConfig holds the dependencies of a Session.
type SessionConfig struct {
	Tuning     *config.TuningConfig // nil uses built-in defaults
	Classifier classify.Classifier
	RepSink    RepSink         // Optional
	Observers  []FrameObserver // Optional
	Clock      timeutil.Clock  // Optional: defaults to RealClock
	Palette    *overlay.Palette
}

// Summary is a snapshot of session counters.
type Summary struct {
	Frames             int
	PersonFrames       int
	MissingJointFrames int
	Reps               int
	DepthReachedReps   int
	ClassifierFailures int
	State              movement.State
	LastLabel          classify.Label
	LabelReady         bool
}

// Session owns all mutable state for one analysed stream. A single mutex
// admits one frame at a time; independent sessions share nothing.
type Session struct {
	mu sync.Mutex

	minVisibility float64
	depthDeg      float64

	shoulders *window.Window[[]float64]
	leftKnee  *window.Window[float64]
	rightKnee *window.Window[float64]
	machine   *movement.StateMachine
	adapter   *classify.Adapter

	classifier classify.Classifier
	sink       RepSink
	observers  []FrameObserver
	clock      timeutil.Clock
	palette    overlay.Palette
	labels     [classify.NumLabels]string

	summary Summary
	closed  bool
}

// isNilInterface checks if an interface value is nil or contains a nil pointer.
func isNilInterface(i interface{}) bool {
	if i == nil {
		return true
	}
	v := reflect.ValueOf(i)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
		return v.IsNil()
	}
	return false
}

// NewSession validates the tuning config and builds a session. An invalid
// config is rejected here, before any frame is processed.
func NewSession(cfg SessionConfig) (*Session, error) {
	tuning := cfg.Tuning
	if tuning == nil {
		tuning = config.EmptyTuningConfig()
	}
	if err := tuning.Validate(); err != nil {
		return nil, fmt.Errorf("invalid session config: %w", err)
	}
	if isNilInterface(cfg.Classifier) {
		return nil, errors.New("session requires a classifier")
	}

	s := &Session{
		minVisibility: tuning.GetJointVisibilityThreshold(),
		depthDeg:      tuning.GetKneeAngleDepth(),
		shoulders:     window.New[[]float64](tuning.GetShoulderSmoothingFrames()),
		leftKnee:      window.New[float64](tuning.GetKneeSmoothingFrames()),
		rightKnee:     window.New[float64](tuning.GetKneeSmoothingFrames()),
		machine:       movement.NewStateMachine(tuning.GetKneeAngleDepth()),
		adapter:       classify.NewAdapter(cfg.Classifier, tuning.GetSequenceLength(), tuning.GetProbabilitySmoothing()),
		classifier:    cfg.Classifier,
		clock:         cfg.Clock,
		palette:       overlay.DefaultPalette(),
		labels:        classify.LabelNames(),
	}
	if !isNilInterface(cfg.RepSink) {
		s.sink = cfg.RepSink
	}
	for _, o := range cfg.Observers {
		if !isNilInterface(o) {
			s.observers = append(s.observers, o)
		}
	}
	if s.clock == nil {
		s.clock = timeutil.RealClock{}
	}
	if cfg.Palette != nil {
		s.palette = *cfg.Palette
	}
	s.summary.State = movement.StateStable

	diagf("session started: depth=%.1f° visibility>=%.2f smoothing shoulder=%d knee=%d",
		s.depthDeg, s.minVisibility, s.shoulders.Cap(), s.leftKnee.Cap())
	return s, nil
}

// ProcessFrame runs one frame through the pipeline and returns the annotated
// copy. set is nil when the landmark provider detected no person. The call
// never panics: any failure is reported in FrameResult.Err and a frame is
// still returned.
func (s *Session) ProcessFrame(frame *image.RGBA, set *landmarks.Set) (out *image.RGBA, res FrameResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := s.clock.Now()
	res = FrameResult{
		Index:          s.summary.Frames,
		LeftKneeDeg:    math.NaN(),
		RightKneeDeg:   math.NaN(),
		LeftShoulderY:  math.NaN(),
		RightShoulderY: math.NaN(),
	}
	s.summary.Frames++

	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("frame %d: recovered panic: %v", res.Index, r)
			opsf("%v", res.Err)
			res.State = s.machine.State()
			res.Reps = s.machine.Reps()
			out = s.render(frame, overlay.Scene{Direction: string(res.State), Reps: res.Reps})
		}
		res.Latency = s.clock.Since(start)
		for _, o := range s.observers {
			o.ObserveFrame(res)
		}
	}()

	if s.closed {
		res.Err = ErrSessionClosed
		res.State, res.Reps = s.machine.State(), s.machine.Reps()
		return s.render(frame, overlay.Scene{Direction: string(res.State), Reps: res.Reps}), res
	}

	if set == nil {
		return s.processNoPerson(frame, &res), res
	}
	return s.processPerson(frame, set, &res), res
}

// processNoPerson holds every counter and window and renders zero bars.
func (s *Session) processNoPerson(frame *image.RGBA, res *FrameResult) *image.RGBA {
	res.State = s.machine.State()
	res.Reps = s.machine.Reps()
	tracef("frame %d: no person", res.Index)
	return s.render(frame, overlay.Scene{Direction: string(res.State), Reps: res.Reps})
}

func (s *Session) processPerson(frame *image.RGBA, set *landmarks.Set, res *FrameResult) *image.RGBA {
	res.PersonDetected = true
	s.summary.PersonFrames++

	w, h := frameSize(frame)
	scene := overlay.Scene{
		Points:   overlay.SkeletonPoints(set, w, h),
		LegColor: s.palette.Bone,
	}

	var counted movement.Result
	if sig, err := s.measure(set, res); err != nil {
		// Joints missing: windows and the state machine hold for this frame.
		res.MissingJoint = err
		s.summary.MissingJointFrames++
		res.State = s.machine.State()
		res.Reps = s.machine.Reps()
		tracef("frame %d: %v", res.Index, err)
	} else {
		mr := s.machine.Step(sig)
		res.State = mr.State
		res.Reps = mr.Reps
		res.Counted = mr.Counted
		res.GoLower = mr.GoLower
		counted = mr

		minKnee := sig.MinKneeDeg()
		scene.LegColor = s.palette.LegColor(minKnee, s.depthDeg)
		scene.KneeText = fmt.Sprintf("%.2f degrees", minKnee)
		scene.KneeAnchor = scene.Points[landmarks.LeftKnee]
		scene.GoLower = mr.GoLower
	}

	cr := s.adapter.Step(landmarks.ExtractFeatureVector(set))
	res.Classification = cr
	if cr.Err != nil {
		res.Err = cr.Err
		s.summary.ClassifierFailures++
	}
	if cr.Ready {
		s.summary.LastLabel = cr.Label
		s.summary.LabelReady = true
	}

	if res.Counted {
		s.emitRep(res.Index, counted, cr)
	}
	s.summary.Reps = res.Reps
	s.summary.State = res.State

	scene.Direction = string(res.State)
	scene.Reps = res.Reps
	scene.Probabilities = cr.Probabilities
	return s.render(frame, scene)
}

// measure reads the movement signals for this frame and folds them into the
// smoothing windows. Nothing is pushed unless every signal is available.
func (s *Session) measure(set *landmarks.Set, res *FrameResult) (movement.Signals, error) {
	ly, ry, err := set.ShoulderY(s.minVisibility)
	if err != nil {
		return movement.Signals{}, err
	}
	lk, rk, err := set.KneeAngles(s.minVisibility)
	if err != nil {
		return movement.Signals{}, err
	}
	res.LeftShoulderY, res.RightShoulderY = ly, ry
	res.LeftKneeDeg, res.RightKneeDeg = lk, rk

	s.shoulders.Push([]float64{ly, ry})
	s.leftKnee.Push(lk)
	s.rightKnee.Push(rk)

	avgShoulder := window.MeanVector(s.shoulders, 2)
	return movement.Signals{
		LeftShoulderY:     ly,
		RightShoulderY:    ry,
		AvgLeftShoulderY:  avgShoulder[0],
		AvgRightShoulderY: avgShoulder[1],
		LeftKneeDeg:       lk,
		RightKneeDeg:      rk,
		AvgLeftKneeDeg:    window.Mean(s.leftKnee),
		AvgRightKneeDeg:   window.Mean(s.rightKnee),
	}, nil
}

func (s *Session) emitRep(frameIndex int, mr movement.Result, cr classify.Result) {
	ev := RepEvent{
		Rep:          mr.Reps,
		FrameIndex:   frameIndex,
		MinKneeDeg:   mr.RepMinKneeDeg,
		DepthReached: mr.RepMinKneeDeg < s.depthDeg,
		Label:        cr.Label,
		LabelReady:   cr.Ready,
	}
	if ev.DepthReached {
		s.summary.DepthReachedReps++
	}
	diagf("rep %d at frame %d: min knee %.1f° depth=%t label=%s",
		ev.Rep, ev.FrameIndex, ev.MinKneeDeg, ev.DepthReached, ev.Label)
	if s.sink == nil {
		return
	}
	if err := s.sink.RecordRep(ev); err != nil {
		opsf("failed to record rep %d: %v", ev.Rep, err)
	}
}

func (s *Session) render(frame *image.RGBA, scene overlay.Scene) *image.RGBA {
	scene.Labels = s.labels
	scene.Palette = s.palette
	return overlay.Render(frame, scene)
}

func frameSize(frame *image.RGBA) (int, int) {
	if frame == nil || frame.Bounds().Empty() {
		return overlay.DefaultWidth, overlay.DefaultHeight
	}
	return frame.Bounds().Dx(), frame.Bounds().Dy()
}

// Summary returns a snapshot of the session counters.
func (s *Session) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summary
}

// Reset clears all windows, counters and the held classification, as on a
// session restart. The classifier itself is kept.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shoulders.Reset()
	s.leftKnee.Reset()
	s.rightKnee.Reset()
	s.machine.Reset()
	s.adapter.Reset()
	s.summary = Summary{State: movement.StateStable}
	diagf("session reset")
}

// Close ends the session and releases the classifier if it holds resources.
// Frames submitted afterwards are rendered but not analysed.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	diagf("session closed: frames=%d reps=%d classifier_failures=%d",
		s.summary.Frames, s.summary.Reps, s.summary.ClassifierFailures)
	if c, ok := s.classifier.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
