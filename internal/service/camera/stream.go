package camera

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/medYousseffathallah/Datacollector/internal/config"
	"github.com/medYousseffathallah/Datacollector/internal/dto"
	"github.com/medYousseffathallah/Datacollector/internal/logger"
	"github.com/medYousseffathallah/Datacollector/internal/model"
)

const (
	// DefaultReconnectBackoff is the wait between failed open attempts.
	DefaultReconnectBackoff = 5 * time.Second
	// DefaultIdleDelay caps CPU usage between reads.
	DefaultIdleDelay = 20 * time.Millisecond
)

// StreamOptions tunes the acquisition loop.
type StreamOptions struct {
	ReconnectBackoff time.Duration
	IdleDelay        time.Duration
}

func (o StreamOptions) withDefaults() StreamOptions {
	if o.ReconnectBackoff <= 0 {
		o.ReconnectBackoff = DefaultReconnectBackoff
	}
	if o.IdleDelay <= 0 {
		o.IdleDelay = DefaultIdleDelay
	}
	return o
}

// Stream owns one camera source and keeps the most recent frame it decoded.
type Stream struct {
	cam     config.Camera
	source  FrameSource
	opts    StreamOptions
	logger  *logger.Logger
	cell    frameCell
	opened  bool // touched only by the acquisition goroutine
	seq     uint64
	lifeMu  sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running atomic.Bool

	connected    atomic.Bool
	framesRead   atomic.Uint64
	readFailures atomic.Uint64
	openAttempts atomic.Uint64
	openFailures atomic.Uint64
	lastFrameAt  atomic.Int64
	lastOpenFail atomic.Int64
}

// NewStream creates a stopped stream around source.
func NewStream(cam config.Camera, source FrameSource, opts StreamOptions, logger *logger.Logger) *Stream {
	return &Stream{
		cam:    cam,
		source: source,
		opts:   opts.withDefaults(),
		logger: logger,
	}
}

// ID returns the camera id.
func (s *Stream) ID() string {
	return s.cam.ID
}

// Name returns the display name, falling back to the id.
func (s *Stream) Name() string {
	if s.cam.Name != "" {
		return s.cam.Name
	}
	return s.cam.ID
}

// Start launches the acquisition loop. Calling Start on a running stream is a no-op.
func (s *Stream) Start() {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()

	if s.running.Load() {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	s.running.Store(true)

	go s.run(ctx, s.done)
	s.logger.Info("Camera %s (%s) started", s.Name(), s.cam.ID)
}

// Stop signals the loop and blocks until it has exited. Calling Stop twice is a no-op.
func (s *Stream) Stop() {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()

	if !s.running.Load() {
		return
	}

	s.cancel()
	<-s.done
	s.running.Store(false)
	s.logger.Info("Camera %s (%s) stopped", s.Name(), s.cam.ID)
}

// Frame returns a copy of the latest frame without blocking.
func (s *Stream) Frame() (*model.Frame, bool) {
	return s.cell.load()
}

// Status reports the loop counters.
func (s *Stream) Status() dto.CameraStatus {
	st := dto.CameraStatus{
		ID:            s.cam.ID,
		Name:          s.Name(),
		Running:       s.running.Load(),
		Connected:     s.connected.Load(),
		FramesRead:    s.framesRead.Load(),
		FramesDropped: s.cell.droppedCount(),
		ReadFailures:  s.readFailures.Load(),
		OpenAttempts:  s.openAttempts.Load(),
		OpenFailures:  s.openFailures.Load(),
	}
	if ns := s.lastFrameAt.Load(); ns != 0 {
		st.LastFrameAt = time.Unix(0, ns)
	}
	if ns := s.lastOpenFail.Load(); ns != 0 {
		st.LastOpenFailAt = time.Unix(0, ns)
	}
	return st
}

func (s *Stream) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer s.release()

	for ctx.Err() == nil {
		if !s.opened {
			s.openAttempts.Add(1)
			if err := s.source.Open(); err != nil {
				s.openFailures.Add(1)
				s.lastOpenFail.Store(time.Now().UnixNano())
				s.logger.Warning("Camera %s disconnected: %v. Retrying in %v", s.Name(), err, s.opts.ReconnectBackoff)
				if !sleepCtx(ctx, s.opts.ReconnectBackoff) {
					return
				}
				continue
			}
			s.opened = true
			s.connected.Store(true)
			s.logger.Info("Camera %s connected", s.Name())
		}

		frame, err := s.source.Read()
		if err != nil {
			s.readFailures.Add(1)
			s.logger.Warning("Camera %s failed to read frame: %v. Reconnecting", s.Name(), err)
			s.release()
			if !sleepCtx(ctx, s.opts.ReconnectBackoff) {
				return
			}
			continue
		}

		s.publish(frame)

		if !sleepCtx(ctx, s.opts.IdleDelay) {
			return
		}
	}
}

func (s *Stream) publish(frame *model.Frame) {
	s.seq++
	frame.CameraID = s.cam.ID
	frame.Seq = s.seq
	if frame.CapturedAt.IsZero() {
		frame.CapturedAt = time.Now()
	}

	s.cell.store(frame)
	s.framesRead.Add(1)
	s.lastFrameAt.Store(frame.CapturedAt.UnixNano())
}

// release closes the source handle so the next iteration re-opens it.
func (s *Stream) release() {
	if !s.opened {
		return
	}
	if err := s.source.Close(); err != nil {
		s.logger.Warning("Camera %s: failed to release source: %v", s.Name(), err)
	}
	s.opened = false
	s.connected.Store(false)
}

// sleepCtx waits for d or until ctx is done. It returns false if ctx ended.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
