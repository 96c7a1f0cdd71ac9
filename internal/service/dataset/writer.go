package dataset

import (
	"errors"
	"fmt"
	"io/fs"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/medYousseffathallah/Datacollector/internal/config"
	"github.com/medYousseffathallah/Datacollector/internal/dto"
	"github.com/medYousseffathallah/Datacollector/internal/logger"
	"github.com/medYousseffathallah/Datacollector/internal/model"
	"github.com/medYousseffathallah/Datacollector/internal/repository"
	"github.com/medYousseffathallah/Datacollector/internal/repository/sqlite"
)

const (
	imageExt = ".jpg"
	labelExt = ".txt"

	// maxIDAttempts bounds the search for a free id when files from an
	// earlier run already occupy the current millisecond.
	maxIDAttempts = 1000
)

// errFileExists is returned by writeFileExclusive when the target is taken.
var errFileExists = errors.New("file already exists")

var splits = []string{model.SplitTrain, model.SplitVal}

// Writer persists samples as image + label file + metadata row.
//
// A metadata row is inserted only after both files are in place, so every
// row points at an existing image. A failure after the files were written
// leaves them as orphans. Files are never overwritten: an id whose files
// already exist, from this run or an earlier one, is skipped.
type Writer struct {
	basePath   string
	imagesDir  string
	labelsDir  string
	trainSplit float64
	sessionID  string

	repo   repository.SampleRepository
	db     *sqlite.DB // owned when opened through Open
	logger *logger.Logger

	mu  sync.Mutex
	ids *idGenerator
	rng *rand.Rand
	now func() time.Time
}

// Option customizes a Writer.
type Option func(*Writer)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(w *Writer) { w.now = now }
}

// WithSeed makes the train/val draw reproducible.
func WithSeed(seed uint64) Option {
	return func(w *Writer) { w.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) }
}

// Open creates the directory tree, opens the SQLite store under the storage
// config and returns a writer that closes it on Close.
func Open(cfg config.Storage, logger *logger.Logger, opts ...Option) (*Writer, error) {
	db, err := sqlite.New(cfg.DatabaseFile())
	if err != nil {
		return nil, err
	}

	w, err := NewWriter(cfg, sqlite.NewSampleRepository(db), logger, opts...)
	if err != nil {
		db.Close()
		return nil, err
	}
	w.db = db
	return w, nil
}

// NewWriter creates a writer around an existing repository. Directory
// creation is idempotent.
func NewWriter(cfg config.Storage, repo repository.SampleRepository, logger *logger.Logger, opts ...Option) (*Writer, error) {
	if err := ensureDirs(cfg); err != nil {
		return nil, err
	}

	w := &Writer{
		basePath:   cfg.BasePath,
		imagesDir:  cfg.ImagesDir,
		labelsDir:  cfg.LabelsDir,
		trainSplit: cfg.TrainSplit,
		sessionID:  uuid.NewString(),
		repo:       repo,
		logger:     logger,
		ids:        newIDGenerator(),
		rng:        rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}

	logger.Info("💾 Dataset writer ready at %s (session %s)", cfg.BasePath, w.sessionID)
	return w, nil
}

func ensureDirs(cfg config.Storage) error {
	for _, sub := range []string{cfg.ImagesDir, cfg.LabelsDir} {
		for _, split := range splits {
			dir := filepath.Join(cfg.BasePath, sub, split)
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", dir, err)
			}
		}
	}
	return nil
}

// SessionID identifies this writer instance in the rows it commits.
func (w *Writer) SessionID() string {
	return w.sessionID
}

// Repository exposes the metadata store.
func (w *Writer) Repository() repository.SampleRepository {
	return w.repo
}

// SaveSample commits one sample. frame.Data must be JPEG bytes.
func (w *Writer) SaveSample(frame *model.Frame, cameraID string, objects []dto.LabeledObject, classes []string) (*model.Sample, error) {
	if frame == nil || len(frame.Data) == 0 {
		return nil, errors.New("empty frame")
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	split := w.chooseSplit()

	var id, imageRel, labelRel string
	for attempt := 0; ; attempt++ {
		if attempt == maxIDAttempts {
			return nil, fmt.Errorf("no free sample id for camera %s at %d", cameraID, now.UnixMilli())
		}

		id = w.ids.next(cameraID, now)
		taken, err := w.taken(id)
		if err != nil {
			return nil, err
		}
		if taken {
			continue
		}

		imageRel = w.relPath(w.imagesDir, split, id+imageExt)
		labelRel = w.relPath(w.labelsDir, split, id+labelExt)

		err = writeFileExclusive(w.abs(imageRel), frame.Data)
		if errors.Is(err, errFileExists) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to write image %s: %w", id, err)
		}

		err = writeFileExclusive(w.abs(labelRel), FormatLabel(objects))
		if errors.Is(err, errFileExists) {
			// the image was published by us a moment ago and is not committed
			os.Remove(w.abs(imageRel))
			continue
		}
		if err != nil {
			w.logger.Warning("Orphan image left behind: %s", imageRel)
			return nil, fmt.Errorf("failed to write label %s: %w", id, err)
		}
		break
	}

	sample := &model.Sample{
		ID:           id,
		CameraID:     cameraID,
		Timestamp:    now,
		Split:        split,
		ImagePath:    imageRel,
		LabelPath:    labelRel,
		ObjectsCount: len(objects),
		Classes:      classes,
		SessionID:    w.sessionID,
	}
	if err := w.repo.Insert(sample); err != nil {
		w.logger.Warning("Orphan files left behind for %s", id)
		return nil, fmt.Errorf("failed to record sample %s: %w", id, err)
	}

	return sample, nil
}

// Close releases the store when the writer opened it.
func (w *Writer) Close() error {
	if w.db == nil {
		return nil
	}
	return w.db.Close()
}

func (w *Writer) chooseSplit() string {
	if w.rng.Float64() < w.trainSplit {
		return model.SplitTrain
	}
	return model.SplitVal
}

// relPath builds a base-relative, slash-separated path.
func (w *Writer) relPath(dir, split, name string) string {
	return filepath.ToSlash(filepath.Join(dir, split, name))
}

func (w *Writer) abs(rel string) string {
	return filepath.Join(w.basePath, filepath.FromSlash(rel))
}

// taken reports whether id already has a metadata row or a file in any split.
func (w *Writer) taken(id string) (bool, error) {
	exists, err := w.repo.Exists(id)
	if err != nil {
		return false, fmt.Errorf("failed to check sample %s: %w", id, err)
	}
	if exists {
		return true, nil
	}

	for _, split := range splits {
		for _, p := range []string{
			w.relPath(w.imagesDir, split, id+imageExt),
			w.relPath(w.labelsDir, split, id+labelExt),
		} {
			if _, err := os.Lstat(w.abs(p)); err == nil {
				return true, nil
			}
		}
	}
	return false, nil
}

// writeFileExclusive writes to a temp file in the target directory and links
// it into place, so readers never see a partial file and an existing file is
// never replaced. It returns errFileExists when path is taken.
func writeFileExclusive(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return err
	}
	defer os.Remove(tmpName)

	err = os.Link(tmpName, path)
	if err == nil {
		return nil
	}
	if errors.Is(err, fs.ErrExist) {
		return errFileExists
	}

	// no hard links on this filesystem (FAT formatted cards)
	if _, statErr := os.Lstat(path); statErr == nil {
		return errFileExists
	}
	return os.Rename(tmpName, path)
}
