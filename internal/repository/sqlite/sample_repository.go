package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/medYousseffathallah/Datacollector/internal/dto"
	"github.com/medYousseffathallah/Datacollector/internal/model"
	"github.com/medYousseffathallah/Datacollector/internal/repository"
)

const sampleColumns = `id, COALESCE(camera_id, ''), COALESCE(timestamp, 0), COALESCE(split, ''),
	COALESCE(image_path, ''), COALESCE(label_path, ''), COALESCE(objects_count, 0),
	COALESCE(classes, ''), COALESCE(session_id, '')`

// SampleRepository implements repository.SampleRepository for SQLite.
type SampleRepository struct {
	db *DB
}

var _ repository.SampleRepository = (*SampleRepository)(nil)

// NewSampleRepository creates a new SQLite sample repository.
func NewSampleRepository(db *DB) *SampleRepository {
	return &SampleRepository{db: db}
}

// Insert adds a new sample row. A duplicate id is an error.
func (r *SampleRepository) Insert(s *model.Sample) error {
	r.db.Lock()
	defer r.db.Unlock()

	_, err := r.db.Conn().Exec(`
		INSERT INTO frames (id, camera_id, timestamp, split, image_path, label_path, objects_count, classes, session_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, sampleArgs(s)...)
	if err != nil {
		return fmt.Errorf("failed to insert sample %s: %w", s.ID, err)
	}
	return nil
}

// InsertIfMissing adds the row unless the id already exists. It reports whether a row was added.
func (r *SampleRepository) InsertIfMissing(s *model.Sample) (bool, error) {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().Exec(`
		INSERT OR IGNORE INTO frames (id, camera_id, timestamp, split, image_path, label_path, objects_count, classes, session_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, sampleArgs(s)...)
	if err != nil {
		return false, fmt.Errorf("failed to insert sample %s: %w", s.ID, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n > 0, nil
}

// GetByID retrieves a sample by its id.
func (r *SampleRepository) GetByID(id string) (*model.Sample, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	row := r.db.Conn().QueryRow(`SELECT `+sampleColumns+` FROM frames WHERE id = ?`, id)
	s, err := scanSample(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sample: %w", err)
	}
	return s, nil
}

// GetAll retrieves samples based on filter criteria, newest first.
func (r *SampleRepository) GetAll(filter *dto.SampleFilter) ([]model.Sample, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	where, args := buildWhere(filter)
	query := `SELECT ` + sampleColumns + ` FROM frames` + where + ` ORDER BY timestamp DESC, id DESC`

	if filter != nil && filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := r.db.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query samples: %w", err)
	}
	defer rows.Close()

	var samples []model.Sample
	for rows.Next() {
		s, err := scanSample(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sample: %w", err)
		}
		samples = append(samples, *s)
	}
	return samples, rows.Err()
}

// GetTotalCount returns the number of samples matching the filter (without limit/offset).
func (r *SampleRepository) GetTotalCount(filter *dto.SampleFilter) (int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	where, args := buildWhere(filter)

	var count int
	if err := r.db.Conn().QueryRow(`SELECT COUNT(*) FROM frames`+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count samples: %w", err)
	}
	return count, nil
}

// GetCameras returns every camera id that has at least one sample.
func (r *SampleRepository) GetCameras() ([]string, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`SELECT DISTINCT camera_id FROM frames ORDER BY camera_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query cameras: %w", err)
	}
	defer rows.Close()

	var cameras []string
	for rows.Next() {
		var camera string
		if err := rows.Scan(&camera); err != nil {
			return nil, fmt.Errorf("failed to scan camera: %w", err)
		}
		cameras = append(cameras, camera)
	}
	return cameras, rows.Err()
}

// GetStats returns aggregate counts over the whole dataset.
func (r *SampleRepository) GetStats() (*dto.DatasetStats, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	stats := &dto.DatasetStats{
		PerCamera: make(map[string]int),
		PerSplit:  make(map[string]int),
	}

	err := r.db.Conn().QueryRow(`SELECT COUNT(*), COALESCE(SUM(objects_count), 0) FROM frames`).
		Scan(&stats.TotalSamples, &stats.TotalObjects)
	if err != nil {
		return nil, fmt.Errorf("failed to count samples: %w", err)
	}

	if err := r.groupCount(`SELECT camera_id, COUNT(*) FROM frames GROUP BY camera_id`, stats.PerCamera); err != nil {
		return nil, err
	}
	if err := r.groupCount(`SELECT split, COUNT(*) FROM frames GROUP BY split`, stats.PerSplit); err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *SampleRepository) groupCount(query string, into map[string]int) error {
	rows, err := r.db.Conn().Query(query)
	if err != nil {
		return fmt.Errorf("failed to group samples: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key sql.NullString
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return fmt.Errorf("failed to scan group: %w", err)
		}
		into[key.String] = count
	}
	return rows.Err()
}

// Exists checks if a sample with the given id already exists.
func (r *SampleRepository) Exists(id string) (bool, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var count int
	if err := r.db.Conn().QueryRow(`SELECT COUNT(*) FROM frames WHERE id = ?`, id).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check sample: %w", err)
	}
	return count > 0, nil
}

func buildWhere(filter *dto.SampleFilter) (string, []interface{}) {
	if filter == nil {
		return "", nil
	}

	where := " WHERE 1=1"
	args := []interface{}{}

	if filter.Camera != "" {
		where += " AND camera_id = ?"
		args = append(args, filter.Camera)
	}
	if filter.Split != "" {
		where += " AND split = ?"
		args = append(args, filter.Split)
	}
	if !filter.After.IsZero() {
		where += " AND timestamp >= ?"
		args = append(args, toUnixSeconds(filter.After))
	}
	if !filter.Before.IsZero() {
		where += " AND timestamp <= ?"
		args = append(args, toUnixSeconds(filter.Before))
	}
	return where, args
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSample(row rowScanner) (*model.Sample, error) {
	var s model.Sample
	var ts float64
	var classes string
	err := row.Scan(&s.ID, &s.CameraID, &ts, &s.Split, &s.ImagePath, &s.LabelPath, &s.ObjectsCount, &classes, &s.SessionID)
	if err != nil {
		return nil, err
	}
	s.Timestamp = fromUnixSeconds(ts)
	s.Classes = splitClasses(classes)
	return &s, nil
}

func sampleArgs(s *model.Sample) []interface{} {
	return []interface{}{
		s.ID, s.CameraID, toUnixSeconds(s.Timestamp), s.Split, s.ImagePath,
		s.LabelPath, s.ObjectsCount, strings.Join(s.Classes, ","), s.SessionID,
	}
}

// toUnixSeconds matches the REAL unix-seconds timestamp column.
func toUnixSeconds(t time.Time) float64 {
	return float64(t.UnixMicro()) / 1e6
}

func fromUnixSeconds(ts float64) time.Time {
	sec, frac := math.Modf(ts)
	return time.Unix(int64(sec), int64(math.Round(frac*1e6))*int64(time.Microsecond))
}

func splitClasses(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
