package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/tuning.defaults.json"

// ErrOutOfRange is wrapped by every Validate failure. A session must never be
// started from a config that fails validation.
var ErrOutOfRange = errors.New("configuration out of range")

// Fixed values. The classifier was trained on these shapes, so they are
// accepted in the file for documentation but cannot be changed.
const (
	SequenceLength       = 30
	ProbabilitySmoothing = 5
)

// Supported classifier backends.
const (
	ClassifierLinear  = "linear"
	ClassifierProcess = "process"
)

// TuningConfig represents the root configuration for a squat analysis
// session. All fields are optional; the Get* methods supply defaults.
type TuningConfig struct {
	// Landmark provider params
	DetectionConfidence      *float64 `json:"detection_confidence,omitempty"`
	TrackingConfidence       *float64 `json:"tracking_confidence,omitempty"`
	JointVisibilityThreshold *float64 `json:"joint_visibility_threshold,omitempty"`

	// Movement params
	KneeAngleDepth          *float64 `json:"knee_angle_depth,omitempty"` // degrees
	ShoulderSmoothingFrames *int     `json:"shoulder_smoothing_frames,omitempty"`
	KneeSmoothingFrames     *int     `json:"knee_smoothing_frames,omitempty"`

	// Classification params
	ProbabilitySmoothing *int     `json:"probability_smoothing,omitempty"`
	SequenceLength       *int     `json:"sequence_length,omitempty"`
	Classifier           *string  `json:"classifier,omitempty"`
	ClassifierWeights    *string  `json:"classifier_weights,omitempty"`
	ClassifierCommand    []string `json:"classifier_command,omitempty"`
	ClassifierTimeout    *string  `json:"classifier_timeout,omitempty"` // duration string like "2s"
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// Use LoadTuningConfig to load actual values from the defaults file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
// Fields omitted from the JSON file retain their default values, so
// partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	// Validate the config file path.
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,             // from cmd/squat/
		"../../" + DefaultConfigPath,          // from internal/config/
		"../../../" + DefaultConfigPath,       // from internal/pose/pipeline/
		"../../../../" + DefaultConfigPath,    // from internal/pose/storage/sqlite/
		"../../../../../" + DefaultConfigPath, // even deeper
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

func outOfRange(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrOutOfRange, fmt.Sprintf(format, args...))
}

func checkUnit(name string, v *float64) error {
	if v != nil && (math.IsNaN(*v) || *v < 0 || *v > 1) {
		return outOfRange("%s must be between 0 and 1, got %f", name, *v)
	}
	return nil
}

func checkPositive(name string, v *int) error {
	if v != nil && *v <= 0 {
		return outOfRange("%s must be positive, got %d", name, *v)
	}
	return nil
}

// Validate checks that the configuration values are within their documented
// domains. The first offending field is reported, wrapped in ErrOutOfRange.
// Values are never clamped.
func (c *TuningConfig) Validate() error {
	if err := checkUnit("detection_confidence", c.DetectionConfidence); err != nil {
		return err
	}
	if err := checkUnit("tracking_confidence", c.TrackingConfidence); err != nil {
		return err
	}
	if err := checkUnit("joint_visibility_threshold", c.JointVisibilityThreshold); err != nil {
		return err
	}

	if c.KneeAngleDepth != nil {
		if d := *c.KneeAngleDepth; math.IsNaN(d) || d < 80 || d > 160 {
			return outOfRange("knee_angle_depth must be between 80 and 160 degrees, got %f", d)
		}
	}
	if err := checkPositive("shoulder_smoothing_frames", c.ShoulderSmoothingFrames); err != nil {
		return err
	}
	if err := checkPositive("knee_smoothing_frames", c.KneeSmoothingFrames); err != nil {
		return err
	}

	if c.ProbabilitySmoothing != nil && *c.ProbabilitySmoothing != ProbabilitySmoothing {
		return outOfRange("probability_smoothing is fixed at %d, got %d", ProbabilitySmoothing, *c.ProbabilitySmoothing)
	}
	if c.SequenceLength != nil && *c.SequenceLength != SequenceLength {
		return outOfRange("sequence_length is fixed at %d, got %d", SequenceLength, *c.SequenceLength)
	}

	switch c.GetClassifier() {
	case ClassifierLinear:
	case ClassifierProcess:
		if len(c.ClassifierCommand) == 0 || c.ClassifierCommand[0] == "" {
			return outOfRange("classifier_command is required for the %q classifier", ClassifierProcess)
		}
	default:
		return outOfRange("unknown classifier %q", c.GetClassifier())
	}

	if c.ClassifierTimeout != nil && *c.ClassifierTimeout != "" {
		d, err := time.ParseDuration(*c.ClassifierTimeout)
		if err != nil {
			return fmt.Errorf("%w: invalid classifier_timeout '%s': %w", ErrOutOfRange, *c.ClassifierTimeout, err)
		}
		if d < 0 {
			return outOfRange("classifier_timeout must be non-negative, got %s", d)
		}
	}

	return nil
}

// GetDetectionConfidence returns the detection_confidence value or the default.
func (c *TuningConfig) GetDetectionConfidence() float64 {
	if c.DetectionConfidence == nil {
		return 0.5
	}
	return *c.DetectionConfidence
}

// GetTrackingConfidence returns the tracking_confidence value or the default.
func (c *TuningConfig) GetTrackingConfidence() float64 {
	if c.TrackingConfidence == nil {
		return 0.5
	}
	return *c.TrackingConfidence
}

// GetJointVisibilityThreshold returns the joint_visibility_threshold value or the default.
func (c *TuningConfig) GetJointVisibilityThreshold() float64 {
	if c.JointVisibilityThreshold == nil {
		return 0.5
	}
	return *c.JointVisibilityThreshold
}

// GetKneeAngleDepth returns the knee_angle_depth value or the default.
func (c *TuningConfig) GetKneeAngleDepth() float64 {
	if c.KneeAngleDepth == nil {
		return 120
	}
	return *c.KneeAngleDepth
}

// GetShoulderSmoothingFrames returns the shoulder_smoothing_frames value or the default.
func (c *TuningConfig) GetShoulderSmoothingFrames() int {
	if c.ShoulderSmoothingFrames == nil {
		return 5
	}
	return *c.ShoulderSmoothingFrames
}

// GetKneeSmoothingFrames returns the knee_smoothing_frames value or the default.
func (c *TuningConfig) GetKneeSmoothingFrames() int {
	if c.KneeSmoothingFrames == nil {
		return 5
	}
	return *c.KneeSmoothingFrames
}

// GetProbabilitySmoothing always returns the fixed smoothing horizon.
func (c *TuningConfig) GetProbabilitySmoothing() int {
	return ProbabilitySmoothing
}

// GetSequenceLength always returns the fixed feature window length.
func (c *TuningConfig) GetSequenceLength() int {
	return SequenceLength
}

// GetClassifier returns the classifier backend name or the default.
func (c *TuningConfig) GetClassifier() string {
	if c.Classifier == nil || *c.Classifier == "" {
		return ClassifierLinear
	}
	return *c.Classifier
}

// GetClassifierWeights returns the classifier_weights path, or "" for the
// built-in uniform model.
func (c *TuningConfig) GetClassifierWeights() string {
	if c.ClassifierWeights == nil {
		return ""
	}
	return *c.ClassifierWeights
}

// GetClassifierCommand returns a copy of the worker argv.
func (c *TuningConfig) GetClassifierCommand() []string {
	return append([]string(nil), c.ClassifierCommand...)
}

// GetClassifierTimeout parses and returns the ClassifierTimeout as a time.Duration.
func (c *TuningConfig) GetClassifierTimeout() time.Duration {
	if c.ClassifierTimeout == nil || *c.ClassifierTimeout == "" {
		return 2 * time.Second // default
	}
	d, err := time.ParseDuration(*c.ClassifierTimeout)
	if err != nil {
		return 2 * time.Second // default on parse error
	}
	return d
}

// DefaultTuningConfig returns a config with every field populated from the
// built-in defaults.
func DefaultTuningConfig() *TuningConfig {
	empty := EmptyTuningConfig()
	return &TuningConfig{
		DetectionConfidence:      ptrFloat64(empty.GetDetectionConfidence()),
		TrackingConfidence:       ptrFloat64(empty.GetTrackingConfidence()),
		JointVisibilityThreshold: ptrFloat64(empty.GetJointVisibilityThreshold()),
		KneeAngleDepth:           ptrFloat64(empty.GetKneeAngleDepth()),
		ShoulderSmoothingFrames:  ptrInt(empty.GetShoulderSmoothingFrames()),
		KneeSmoothingFrames:      ptrInt(empty.GetKneeSmoothingFrames()),
		ProbabilitySmoothing:     ptrInt(ProbabilitySmoothing),
		SequenceLength:           ptrInt(SequenceLength),
		Classifier:               ptrString(ClassifierLinear),
		ClassifierTimeout:        ptrString("2s"),
	}
}
