package model

import "time"

// Frame is one decoded camera image, stored JPEG-encoded.
type Frame struct {
	CameraID   string
	Seq        uint64 // per-stream decode counter, strictly increasing
	CapturedAt time.Time
	Width      int
	Height     int
	Data       []byte
}

// Clone returns a deep copy of the frame.
func (f *Frame) Clone() *Frame {
	if f == nil {
		return nil
	}
	c := *f
	c.Data = append([]byte(nil), f.Data...)
	return &c
}
