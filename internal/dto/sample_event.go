package dto

import "time"

// SampleEvent is pushed to preview clients after a sample is committed.
type SampleEvent struct {
	ID        string    `json:"id"`
	Camera    string    `json:"camera"`
	Split     string    `json:"split"`
	Objects   int       `json:"objects"`
	Classes   []string  `json:"classes"`
	Timestamp time.Time `json:"timestamp"`
	Image     string    `json:"image,omitempty"` // base64 JPEG
}
