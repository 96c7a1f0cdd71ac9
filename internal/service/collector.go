package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/medYousseffathallah/Datacollector/internal/dto"
	"github.com/medYousseffathallah/Datacollector/internal/logger"
	"github.com/medYousseffathallah/Datacollector/internal/model"
	"github.com/medYousseffathallah/Datacollector/internal/service/camera"
	"github.com/medYousseffathallah/Datacollector/internal/service/filter"
	"github.com/medYousseffathallah/Datacollector/internal/service/inference"
	"github.com/medYousseffathallah/Datacollector/internal/service/sampling"
)

// DefaultLoopInterval is the pause between two passes over the cameras.
const DefaultLoopInterval = 100 * time.Millisecond

// Collector lifecycle states.
const (
	StateIdle     = "idle"
	StateRunning  = "running"
	StateStopping = "stopping"
	StateStopped  = "stopped"
)

// SampleWriter commits one filtered frame.
type SampleWriter interface {
	SaveSample(frame *model.Frame, cameraID string, objects []dto.LabeledObject, classes []string) (*model.Sample, error)
}

// Publisher receives an event for every committed sample.
type Publisher interface {
	Publish(event dto.SampleEvent)
}

// viewerCounter is implemented by publishers that know whether anyone is
// listening. Preview images are only encoded while someone is.
type viewerCounter interface {
	HasClients() bool
}

// CollectorOptions tunes the orchestration loop.
type CollectorOptions struct {
	LoopInterval  time.Duration
	Publisher     Publisher
	PreviewImages bool // attach the JPEG to published events
}

// CollectorStats is a snapshot of the loop counters.
type CollectorStats struct {
	State           string `json:"state"`
	Iterations      uint64 `json:"iterations"`
	Inferences      uint64 `json:"inferences"`
	InferenceErrors uint64 `json:"inference_errors"`
	EmptyResults    uint64 `json:"empty_results"`
	Commits         uint64 `json:"commits"`
	PersistFailures uint64 `json:"persist_failures"`
}

// Collector drives capture, sampling, inference, filtering and persistence.
// Inference and persistence run on the goroutine that calls Run.
type Collector struct {
	cameras *camera.Manager
	gate    *sampling.Gate
	engine  inference.Engine
	filter  *filter.Filter
	writer  SampleWriter
	opts    CollectorOptions
	logger  *logger.Logger

	state           atomic.Value
	iterations      atomic.Uint64
	inferences      atomic.Uint64
	inferenceErrors atomic.Uint64
	emptyResults    atomic.Uint64
	commits         atomic.Uint64
	persistFailures atomic.Uint64
}

func NewCollector(cameras *camera.Manager, gate *sampling.Gate, engine inference.Engine, filter *filter.Filter, writer SampleWriter, opts CollectorOptions, logger *logger.Logger) *Collector {
	if opts.LoopInterval <= 0 {
		opts.LoopInterval = DefaultLoopInterval
	}
	c := &Collector{
		cameras: cameras,
		gate:    gate,
		engine:  engine,
		filter:  filter,
		writer:  writer,
		opts:    opts,
		logger:  logger,
	}
	c.state.Store(StateIdle)
	return c
}

// Run starts the engine and the cameras, loops until ctx is done, then stops
// the cameras and the engine. It returns an error only if startup fails.
func (c *Collector) Run(ctx context.Context) error {
	if err := c.engine.Start(); err != nil {
		c.state.Store(StateStopped)
		return fmt.Errorf("failed to start inference engine: %w", err)
	}

	c.cameras.StartAll()
	c.state.Store(StateRunning)
	c.logger.Info("🎬 Collector running with %d camera(s), interval %v", c.cameras.Len(), c.gate.Interval())

	ticker := time.NewTicker(c.opts.LoopInterval)
	defer ticker.Stop()

	for ctx.Err() == nil {
		c.iterate(ctx)

		select {
		case <-ctx.Done():
		case <-ticker.C:
		}
	}

	c.shutdown()
	return nil
}

func (c *Collector) shutdown() {
	c.state.Store(StateStopping)
	c.logger.Info("Stopping collector...")

	c.cameras.StopAll()
	if err := c.engine.Stop(); err != nil {
		c.logger.Error("Failed to stop inference engine: %v", err)
	}

	c.state.Store(StateStopped)
	st := c.Stats()
	c.logger.Info("🛑 Collector stopped: %d samples committed, %d persist failures", st.Commits, st.PersistFailures)
}

// iterate makes one pass over a snapshot of the latest frames, cameras in id order.
func (c *Collector) iterate(ctx context.Context) {
	c.iterations.Add(1)

	frames := c.cameras.Frames()
	ids := make([]string, 0, len(frames))
	for id := range frames {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if ctx.Err() != nil {
			return
		}
		c.process(ctx, id, frames[id])
	}
}

func (c *Collector) process(ctx context.Context, cameraID string, frame *model.Frame) {
	now := time.Now()
	if !c.gate.Admit(frame, now) {
		return
	}

	c.inferences.Add(1)
	result, err := c.engine.Infer(ctx, frame)
	if err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			return
		}
		c.inferenceErrors.Add(1)
		c.logger.Warning("Inference failed for camera %s: %v", cameraID, err)
		return
	}

	filtered := c.filter.Apply(result, frame.Width, frame.Height)
	if filtered.Empty() {
		c.emptyResults.Add(1)
		return
	}

	sample, err := c.writer.SaveSample(frame, cameraID, filtered.Objects, filtered.Classes)
	if err != nil {
		c.persistFailures.Add(1)
		c.logger.Error("Failed to save sample for camera %s: %v", cameraID, err)
		return
	}

	c.gate.Accept(cameraID, now)
	c.commits.Add(1)
	c.logger.Info("📸 Saved %s (%s, %d object(s): %v)", sample.ID, sample.Split, sample.ObjectsCount, sample.Classes)

	c.publish(sample, frame)
}

func (c *Collector) publish(sample *model.Sample, frame *model.Frame) {
	if c.opts.Publisher == nil {
		return
	}
	event := dto.SampleEvent{
		ID:        sample.ID,
		Camera:    sample.CameraID,
		Split:     sample.Split,
		Objects:   sample.ObjectsCount,
		Classes:   sample.Classes,
		Timestamp: sample.Timestamp,
	}
	if c.opts.PreviewImages && c.hasViewers() {
		event.Image = base64.StdEncoding.EncodeToString(frame.Data)
	}
	c.opts.Publisher.Publish(event)
}

func (c *Collector) hasViewers() bool {
	vc, ok := c.opts.Publisher.(viewerCounter)
	return !ok || vc.HasClients()
}

// State returns the lifecycle state.
func (c *Collector) State() string {
	return c.state.Load().(string)
}

// Stats returns a snapshot of the loop counters.
func (c *Collector) Stats() CollectorStats {
	return CollectorStats{
		State:           c.State(),
		Iterations:      c.iterations.Load(),
		Inferences:      c.inferences.Load(),
		InferenceErrors: c.inferenceErrors.Load(),
		EmptyResults:    c.emptyResults.Load(),
		Commits:         c.commits.Load(),
		PersistFailures: c.persistFailures.Load(),
	}
}
