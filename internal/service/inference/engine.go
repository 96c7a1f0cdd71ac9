package inference

import (
	"context"
	"errors"

	"github.com/medYousseffathallah/Datacollector/internal/model"
)

var (
	// ErrEngineStopped is returned by Infer when the engine is not running.
	ErrEngineStopped = errors.New("inference engine is not running")
	// ErrTimeout is returned when one inference call exceeds its budget.
	ErrTimeout = errors.New("inference timed out")
)

// Engine runs segmentation on one frame at a time.
//
// An empty result with a nil error means nothing was found. A non-nil error
// means the engine could not produce a result for this frame.
type Engine interface {
	Start() error
	Infer(ctx context.Context, frame *model.Frame) (*model.InferenceResult, error)
	Stop() error
}
