package repository

import (
	"errors"

	"github.com/medYousseffathallah/Datacollector/internal/dto"
	"github.com/medYousseffathallah/Datacollector/internal/model"
)

// ErrNotFound is returned when a sample id has no row.
var ErrNotFound = errors.New("sample not found")

// SampleRepository defines the interface for sample metadata operations.
type SampleRepository interface {
	// Create operations
	Insert(s *model.Sample) error
	InsertIfMissing(s *model.Sample) (bool, error)

	// Read operations
	GetByID(id string) (*model.Sample, error)
	GetAll(filter *dto.SampleFilter) ([]model.Sample, error)
	GetTotalCount(filter *dto.SampleFilter) (int, error)
	GetCameras() ([]string, error)
	GetStats() (*dto.DatasetStats, error)
	Exists(id string) (bool, error)
}
