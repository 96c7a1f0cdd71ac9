package camera

import (
	"sync"

	"github.com/medYousseffathallah/Datacollector/internal/model"
)

// frameCell holds the latest frame of one stream. It is an overwrite slot,
// not a queue: storing replaces whatever was there.
type frameCell struct {
	mu       sync.Mutex
	frame    *model.Frame
	consumed bool
	dropped  uint64
}

// store replaces the held frame. Frames replaced before anyone read them count as dropped.
func (c *frameCell) store(f *model.Frame) {
	c.mu.Lock()
	if c.frame != nil && !c.consumed {
		c.dropped++
	}
	c.frame = f
	c.consumed = false
	c.mu.Unlock()
}

// load returns a copy of the held frame.
func (c *frameCell) load() (*model.Frame, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.frame == nil {
		return nil, false
	}
	c.consumed = true
	return c.frame.Clone(), true
}

func (c *frameCell) droppedCount() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropped
}
