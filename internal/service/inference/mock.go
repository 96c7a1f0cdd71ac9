package inference

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/medYousseffathallah/Datacollector/internal/logger"
	"github.com/medYousseffathallah/Datacollector/internal/model"
)

// MockOptions shapes what MockEngine reports.
type MockOptions struct {
	ClassID int
	Score   float64
	Count   int           // detections per frame, 0 yields empty results
	Latency time.Duration // simulated inference time
	Radius  float64       // circle radius, normalized to the frame
	Err     error         // returned by every Infer call when set
}

// DefaultMockOptions reports one centered circle of class 0 at 0.95.
func DefaultMockOptions() MockOptions {
	return MockOptions{
		ClassID: 0,
		Score:   0.95,
		Count:   1,
		Latency: 30 * time.Millisecond,
		Radius:  0.15,
	}
}

// MockEngine stands in for a real model on hosts without one.
type MockEngine struct {
	opts    MockOptions
	logger  *logger.Logger
	mu      sync.Mutex
	running bool
	calls   int
}

func NewMockEngine(opts MockOptions, logger *logger.Logger) *MockEngine {
	return &MockEngine{opts: opts, logger: logger}
}

func (e *MockEngine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.running = true
	e.logger.Info("Mock inference engine started (class %d, score %.2f)", e.opts.ClassID, e.opts.Score)
	return nil
}

func (e *MockEngine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.running = false
	return nil
}

// Calls returns how many Infer calls reached the engine while running.
func (e *MockEngine) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

func (e *MockEngine) Infer(ctx context.Context, frame *model.Frame) (*model.InferenceResult, error) {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return nil, ErrEngineStopped
	}
	e.calls++
	e.mu.Unlock()

	if e.opts.Latency > 0 {
		timer := time.NewTimer(e.opts.Latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if e.opts.Err != nil {
		return nil, e.opts.Err
	}

	result := &model.InferenceResult{}
	for i := 0; i < e.opts.Count; i++ {
		// spread extra detections horizontally so they do not overlap exactly
		cx := 0.5
		if e.opts.Count > 1 {
			cx = 0.2 + 0.6*float64(i)/float64(e.opts.Count-1)
		}
		result.Detections = append(result.Detections, model.Detection{
			ClassID: e.opts.ClassID,
			Score:   e.opts.Score,
			Polygon: Circle(cx, 0.5, e.opts.Radius, 32),
		})
	}
	return result, nil
}

// Circle approximates a circle in normalized coordinates with n vertices.
func Circle(cx, cy, r float64, n int) []model.Point {
	points := make([]model.Point, n)
	for i := range points {
		a := 2 * math.Pi * float64(i) / float64(n)
		points[i] = model.Point{X: cx + r*math.Cos(a), Y: cy + r*math.Sin(a)}
	}
	return points
}
