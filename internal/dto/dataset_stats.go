package dto

// DatasetStats contains statistics about the committed dataset.
type DatasetStats struct {
	TotalSamples int            `json:"total_samples"`
	TotalObjects int            `json:"total_objects"`
	PerCamera    map[string]int `json:"per_camera"`
	PerSplit     map[string]int `json:"per_split"`
}
