package sampling

import (
	"sync"
	"time"

	"github.com/medYousseffathallah/Datacollector/internal/logger"
	"github.com/medYousseffathallah/Datacollector/internal/model"
)

// MotionDetector vetoes capture on static scenes.
type MotionDetector interface {
	Detect(frame *model.Frame) (bool, error)
}

// Gate decides, per camera, whether now is a capture candidate.
//
// A camera is eligible once interval has elapsed since its last accepted
// sample. Only Accept moves that time forward, so a cycle that produced
// nothing leaves the camera eligible on the next iteration.
type Gate struct {
	interval time.Duration
	motion   MotionDetector
	logger   *logger.Logger

	mu   sync.Mutex
	last map[string]time.Time
}

// NewGate creates a gate. motion may be nil to disable the motion pre-filter.
func NewGate(interval time.Duration, motion MotionDetector, logger *logger.Logger) *Gate {
	return &Gate{
		interval: interval,
		motion:   motion,
		logger:   logger,
		last:     make(map[string]time.Time),
	}
}

// Interval returns the configured minimum gap between accepted samples.
func (g *Gate) Interval() time.Duration {
	return g.interval
}

// Eligible applies the interval rule only. A camera never accepted is always eligible.
func (g *Gate) Eligible(cameraID string, now time.Time) bool {
	g.mu.Lock()
	last, ok := g.last[cameraID]
	g.mu.Unlock()

	return !ok || now.Sub(last) >= g.interval
}

// Admit is Eligible AND motion. The motion detector only runs when the
// interval rule passes; a detector error lets the frame through.
func (g *Gate) Admit(frame *model.Frame, now time.Time) bool {
	if !g.Eligible(frame.CameraID, now) {
		return false
	}
	if g.motion == nil {
		return true
	}

	moving, err := g.motion.Detect(frame)
	if err != nil {
		g.logger.Warning("Motion detection failed for camera %s: %v", frame.CameraID, err)
		return true
	}
	return moving
}

// Accept records a committed sample for cameraID at time at.
func (g *Gate) Accept(cameraID string, at time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.last[cameraID] = at
}

// LastAccepted returns the last accepted time, or false if the camera was never accepted.
func (g *Gate) LastAccepted(cameraID string) (time.Time, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	t, ok := g.last[cameraID]
	return t, ok
}
