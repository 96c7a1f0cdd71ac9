package camera

import "github.com/medYousseffathallah/Datacollector/internal/model"

// FrameSource is the device side of a stream: a real capture device or a generator.
// Implementations are driven from a single goroutine and need not be thread-safe.
type FrameSource interface {
	// Open connects to the source. It is called again after Close or a failed Open.
	Open() error
	// Read blocks until the next frame is decoded.
	Read() (*model.Frame, error)
	// Close releases the handle. Closing a closed source is a no-op.
	Close() error
}
