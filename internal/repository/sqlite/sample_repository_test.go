package sqlite

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/medYousseffathallah/Datacollector/internal/dto"
	"github.com/medYousseffathallah/Datacollector/internal/model"
	"github.com/medYousseffathallah/Datacollector/internal/repository"
)

func newTestDB(t *testing.T) (*DB, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "nested", "test.db")
	db, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, dbPath
}

func testSample(id, camera, split string, ts time.Time) *model.Sample {
	return &model.Sample{
		ID:           id,
		CameraID:     camera,
		Timestamp:    ts,
		Split:        split,
		ImagePath:    filepath.Join("images", split, id+".jpg"),
		LabelPath:    filepath.Join("labels", split, id+".txt"),
		ObjectsCount: 2,
		Classes:      []string{"person", "helmet"},
		SessionID:    "session-1",
	}
}

func TestNew_WALMode(t *testing.T) {
	db, _ := newTestDB(t)

	mode, err := db.JournalMode()
	if err != nil {
		t.Fatalf("JournalMode failed: %v", err)
	}
	if mode != "wal" {
		t.Errorf("Expected wal journal mode, got %s", mode)
	}
}

func TestNew_ReopenKeepsRows(t *testing.T) {
	db, dbPath := newTestDB(t)
	repo := NewSampleRepository(db)

	if err := repo.Insert(testSample("cam1_1", "cam1", model.SplitTrain, time.Now())); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	db.Close()

	reopened, err := New(dbPath)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer reopened.Close()

	count, err := NewSampleRepository(reopened).GetTotalCount(nil)
	if err != nil {
		t.Fatalf("GetTotalCount failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 sample after reopen, got %d", count)
	}
}

func TestSampleRepository_InsertAndGet(t *testing.T) {
	db, _ := newTestDB(t)
	repo := NewSampleRepository(db)

	ts := time.Date(2026, 3, 14, 10, 30, 15, 250_000_000, time.UTC)
	in := testSample("cam1_1773484215250", "cam1", model.SplitVal, ts)
	if err := repo.Insert(in); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := repo.GetByID(in.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.CameraID != "cam1" || got.Split != model.SplitVal {
		t.Errorf("Unexpected sample: %+v", got)
	}
	if !got.Timestamp.Equal(ts) {
		t.Errorf("Expected timestamp %v, got %v", ts, got.Timestamp)
	}
	if got.ImagePath != in.ImagePath || got.LabelPath != in.LabelPath {
		t.Errorf("Paths mismatch: %+v", got)
	}
	if len(got.Classes) != 2 || got.Classes[0] != "person" {
		t.Errorf("Unexpected classes %v", got.Classes)
	}
}

func TestSampleRepository_DuplicateID(t *testing.T) {
	db, _ := newTestDB(t)
	repo := NewSampleRepository(db)

	s := testSample("dup", "cam1", model.SplitTrain, time.Now())
	if err := repo.Insert(s); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := repo.Insert(s); err == nil {
		t.Error("Expected primary key violation on duplicate id")
	}

	added, err := repo.InsertIfMissing(s)
	if err != nil {
		t.Fatalf("InsertIfMissing failed: %v", err)
	}
	if added {
		t.Error("InsertIfMissing should not add an existing id")
	}
}

func TestSampleRepository_GetByID_NotFound(t *testing.T) {
	db, _ := newTestDB(t)
	repo := NewSampleRepository(db)

	if _, err := repo.GetByID("missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestSampleRepository_Filters(t *testing.T) {
	db, _ := newTestDB(t)
	repo := NewSampleRepository(db)

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	samples := []*model.Sample{
		testSample("a_1", "a", model.SplitTrain, base),
		testSample("a_2", "a", model.SplitVal, base.Add(time.Minute)),
		testSample("b_1", "b", model.SplitTrain, base.Add(2*time.Minute)),
		testSample("b_2", "b", model.SplitTrain, base.Add(3*time.Minute)),
	}
	for _, s := range samples {
		if err := repo.Insert(s); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	tests := []struct {
		name     string
		filter   *dto.SampleFilter
		expected int
	}{
		{"no filter", &dto.SampleFilter{}, 4},
		{"camera", &dto.SampleFilter{Camera: "a"}, 2},
		{"split", &dto.SampleFilter{Split: model.SplitTrain}, 3},
		{"camera and split", &dto.SampleFilter{Camera: "b", Split: model.SplitVal}, 0},
		{"after", &dto.SampleFilter{After: base.Add(90 * time.Second)}, 2},
		{"before", &dto.SampleFilter{Before: base.Add(time.Minute)}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			count, err := repo.GetTotalCount(tt.filter)
			if err != nil {
				t.Fatalf("GetTotalCount failed: %v", err)
			}
			if count != tt.expected {
				t.Errorf("Expected %d, got %d", tt.expected, count)
			}
		})
	}

	page, err := repo.GetAll(&dto.SampleFilter{Limit: 2, Offset: 1})
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("Expected page of 2, got %d", len(page))
	}
	if page[0].ID != "b_1" || page[1].ID != "a_2" {
		t.Errorf("Expected newest-first page [b_1 a_2], got [%s %s]", page[0].ID, page[1].ID)
	}
}

func TestSampleRepository_Stats(t *testing.T) {
	db, _ := newTestDB(t)
	repo := NewSampleRepository(db)

	now := time.Now()
	for i, cam := range []string{"a", "a", "b"} {
		split := model.SplitTrain
		if i == 2 {
			split = model.SplitVal
		}
		if err := repo.Insert(testSample(fmt.Sprintf("%s_%d", cam, i), cam, split, now)); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	stats, err := repo.GetStats()
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	if stats.TotalSamples != 3 || stats.TotalObjects != 6 {
		t.Errorf("Unexpected totals: %+v", stats)
	}
	if stats.PerCamera["a"] != 2 || stats.PerCamera["b"] != 1 {
		t.Errorf("Unexpected per-camera counts: %v", stats.PerCamera)
	}
	if stats.PerSplit[model.SplitTrain] != 2 || stats.PerSplit[model.SplitVal] != 1 {
		t.Errorf("Unexpected per-split counts: %v", stats.PerSplit)
	}

	cameras, err := repo.GetCameras()
	if err != nil {
		t.Fatalf("GetCameras failed: %v", err)
	}
	if len(cameras) != 2 || cameras[0] != "a" || cameras[1] != "b" {
		t.Errorf("Unexpected cameras %v", cameras)
	}
}

func TestSampleRepository_ConcurrentAccess(t *testing.T) {
	db, _ := newTestDB(t)
	repo := NewSampleRepository(db)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			if err := repo.Insert(testSample(fmt.Sprintf("c_%d", idx), "c", model.SplitTrain, time.Now())); err != nil {
				t.Errorf("Concurrent insert %d failed: %v", idx, err)
			}
			if _, err := repo.GetTotalCount(nil); err != nil {
				t.Errorf("Concurrent count %d failed: %v", idx, err)
			}
		}(i)
	}
	wg.Wait()

	count, _ := repo.GetTotalCount(&dto.SampleFilter{})
	if count != 10 {
		t.Errorf("Expected 10 samples, got %d", count)
	}
}
