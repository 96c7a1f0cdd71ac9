package inference

import (
	"context"
	"fmt"
	"time"

	"github.com/medYousseffathallah/Datacollector/internal/model"
)

type timeoutEngine struct {
	Engine
	timeout time.Duration
}

type inferReply struct {
	result *model.InferenceResult
	err    error
}

// WithTimeout bounds every Infer call of engine. Engines that ignore ctx keep
// running in the background after the deadline; their late result is discarded.
// A non-positive timeout returns engine unchanged.
func WithTimeout(engine Engine, timeout time.Duration) Engine {
	if timeout <= 0 {
		return engine
	}
	return &timeoutEngine{Engine: engine, timeout: timeout}
}

func (e *timeoutEngine) Infer(ctx context.Context, frame *model.Frame) (*model.InferenceResult, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	reply := make(chan inferReply, 1)
	go func() {
		result, err := e.Engine.Infer(ctx, frame)
		reply <- inferReply{result: result, err: err}
	}()

	select {
	case r := <-reply:
		return r.result, r.err
	case <-ctx.Done():
		return nil, fmt.Errorf("%w after %v: %w", ErrTimeout, e.timeout, ctx.Err())
	}
}
