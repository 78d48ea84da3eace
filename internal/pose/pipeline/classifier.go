package pipeline

import (
	"context"
	"fmt"

	"github.com/banshee-data/squat.report/internal/config"
	"github.com/banshee-data/squat.report/internal/pose/classify"
)

// NewClassifier builds the classifier backend named by the tuning config.
// A process backend must be closed by the caller (Session.Close does this).
func NewClassifier(ctx context.Context, tuning *config.TuningConfig) (classify.Classifier, error) {
	if tuning == nil {
		tuning = config.EmptyTuningConfig()
	}
	switch name := tuning.GetClassifier(); name {
	case config.ClassifierLinear:
		path := tuning.GetClassifierWeights()
		if path == "" {
			diagf("no classifier weights configured, using uniform model")
			return classify.NewUniformClassifier(), nil
		}
		c, err := classify.LoadLinearClassifier(path)
		if err != nil {
			return nil, err
		}
		return c, nil
	case config.ClassifierProcess:
		c, err := classify.StartProcessClassifier(ctx, tuning.GetClassifierCommand(), tuning.GetClassifierTimeout())
		if err != nil {
			return nil, fmt.Errorf("failed to start classifier worker: %w", err)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("%w: unknown classifier %q", config.ErrOutOfRange, name)
	}
}
