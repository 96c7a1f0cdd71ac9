package dto

import "time"

// CameraStatus is a point-in-time view of one acquisition loop.
type CameraStatus struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Running        bool      `json:"running"`
	Connected      bool      `json:"connected"`
	FramesRead     uint64    `json:"frames_read"`
	FramesDropped  uint64    `json:"frames_dropped"`
	ReadFailures   uint64    `json:"read_failures"`
	OpenAttempts   uint64    `json:"open_attempts"`
	OpenFailures   uint64    `json:"open_failures"`
	LastFrameAt    time.Time `json:"last_frame_at"`
	LastOpenFailAt time.Time `json:"last_open_fail_at"`
}
