package camera

import (
	"fmt"
	"sync"

	"github.com/medYousseffathallah/Datacollector/internal/config"
	"github.com/medYousseffathallah/Datacollector/internal/dto"
	"github.com/medYousseffathallah/Datacollector/internal/logger"
	"github.com/medYousseffathallah/Datacollector/internal/model"
)

// SourceFactory builds the frame source for one camera.
type SourceFactory func(cam config.Camera) (FrameSource, error)

// NewSourceFactory picks the source by url: the synthetic url gets a
// SyntheticSource, "udp://host:port" a UDPSource, anything else goes to device.
func NewSourceFactory(device SourceFactory) SourceFactory {
	return func(cam config.Camera) (FrameSource, error) {
		if cam.IsSynthetic() {
			return NewSyntheticSource(cam.ID, 0, 0, 0), nil
		}
		if IsUDPURL(cam.URL) {
			return NewUDPSource(cam.URL[len(UDPScheme):]), nil
		}
		if device == nil {
			return nil, fmt.Errorf("camera %s: no device backend for url %q", cam.ID, cam.URL)
		}
		return device(cam)
	}
}

// Manager owns one Stream per enabled camera for its whole lifetime.
type Manager struct {
	streams []*Stream
	byID    map[string]*Stream
	logger  *logger.Logger
}

// NewManager creates streams for the enabled cameras only.
func NewManager(cameras []config.Camera, factory SourceFactory, opts StreamOptions, logger *logger.Logger) (*Manager, error) {
	m := &Manager{
		byID:   make(map[string]*Stream),
		logger: logger,
	}

	for _, cam := range cameras {
		if !cam.IsEnabled() {
			logger.Info("Camera %s disabled, skipping", cam.ID)
			continue
		}
		if _, dup := m.byID[cam.ID]; dup {
			return nil, fmt.Errorf("duplicate camera id %s", cam.ID)
		}

		source, err := factory(cam)
		if err != nil {
			return nil, fmt.Errorf("failed to create source for camera %s: %w", cam.ID, err)
		}

		stream := NewStream(cam, source, opts, logger)
		m.streams = append(m.streams, stream)
		m.byID[cam.ID] = stream
	}

	logger.Info("📷 Camera manager created with %d stream(s)", len(m.streams))
	return m, nil
}

// StartAll starts every stream.
func (m *Manager) StartAll() {
	for _, s := range m.streams {
		s.Start()
	}
}

// StopAll stops every stream and returns once all acquisition loops have exited.
func (m *Manager) StopAll() {
	var wg sync.WaitGroup
	for _, s := range m.streams {
		wg.Add(1)
		go func(s *Stream) {
			defer wg.Done()
			s.Stop()
		}(s)
	}
	wg.Wait()
	m.logger.Info("🛑 All cameras stopped")
}

// Frames takes one snapshot of the latest frames. Cameras without a frame yet are absent.
func (m *Manager) Frames() map[string]*model.Frame {
	frames := make(map[string]*model.Frame, len(m.streams))
	for _, s := range m.streams {
		if frame, ok := s.Frame(); ok {
			frames[s.ID()] = frame
		}
	}
	return frames
}

// Stream returns the stream for a camera id.
func (m *Manager) Stream(id string) (*Stream, bool) {
	s, ok := m.byID[id]
	return s, ok
}

// IDs returns the camera ids in config order.
func (m *Manager) IDs() []string {
	ids := make([]string, 0, len(m.streams))
	for _, s := range m.streams {
		ids = append(ids, s.ID())
	}
	return ids
}

// Statuses reports every stream's counters in config order.
func (m *Manager) Statuses() []dto.CameraStatus {
	statuses := make([]dto.CameraStatus, 0, len(m.streams))
	for _, s := range m.streams {
		statuses = append(statuses, s.Status())
	}
	return statuses
}

// Len returns the number of owned streams.
func (m *Manager) Len() int {
	return len(m.streams)
}
