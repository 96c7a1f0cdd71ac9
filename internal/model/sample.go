package model

import "time"

// Dataset partitions.
const (
	SplitTrain = "train"
	SplitVal   = "val"
)

// Sample is the metadata row of one committed dataset sample.
type Sample struct {
	ID           string    `json:"id"`
	CameraID     string    `json:"camera_id"`
	Timestamp    time.Time `json:"timestamp"`
	Split        string    `json:"split"`
	ImagePath    string    `json:"image_path"`
	LabelPath    string    `json:"label_path"`
	ObjectsCount int       `json:"objects_count"`
	Classes      []string  `json:"classes"`
	SessionID    string    `json:"session_id"`
}
