package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/medYousseffathallah/Datacollector/internal/model"
)

// ReindexReport summarizes one Reindex run.
type ReindexReport struct {
	Scanned  int
	Inserted int
	Skipped  int
}

// Reindex scans images/{train,val} and records every image that has a label
// file but no metadata row. Images without a label are orphans and skipped.
// className maps label class ids to names; nil uses the numeric id.
func (w *Writer) Reindex(className func(int) string) (ReindexReport, error) {
	if className == nil {
		className = strconv.Itoa
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	var report ReindexReport
	for _, split := range splits {
		dir := filepath.Join(w.basePath, w.imagesDir, split)
		files, err := os.ReadDir(dir)
		if err != nil {
			return report, fmt.Errorf("failed to read images directory %s: %w", dir, err)
		}

		for _, file := range files {
			if file.IsDir() || filepath.Ext(file.Name()) != imageExt {
				continue
			}
			report.Scanned++

			id := strings.TrimSuffix(file.Name(), imageExt)
			sample, err := w.sampleFromFiles(id, split, className)
			if err != nil {
				w.logger.Warning("⚠️  Skipping %s: %v", file.Name(), err)
				report.Skipped++
				continue
			}

			added, err := w.repo.InsertIfMissing(sample)
			if err != nil {
				return report, err
			}
			if added {
				report.Inserted++
			}
		}
	}

	w.logger.Info("✅ Reindex scanned %d images, inserted %d, skipped %d", report.Scanned, report.Inserted, report.Skipped)
	return report, nil
}

func (w *Writer) sampleFromFiles(id, split string, className func(int) string) (*model.Sample, error) {
	cameraID, at, err := ParseID(id)
	if err != nil {
		return nil, err
	}

	labelRel := w.relPath(w.labelsDir, split, id+labelExt)
	data, err := os.ReadFile(w.abs(labelRel))
	if err != nil {
		return nil, fmt.Errorf("no label: %w", err)
	}
	lines, err := ParseLabel(data)
	if err != nil {
		return nil, err
	}

	seen := make(map[int]bool)
	var ids []int
	for _, l := range lines {
		if !seen[l.ClassID] {
			seen[l.ClassID] = true
			ids = append(ids, l.ClassID)
		}
	}
	sort.Ints(ids)
	classes := make([]string, len(ids))
	for i, c := range ids {
		classes[i] = className(c)
	}

	return &model.Sample{
		ID:           id,
		CameraID:     cameraID,
		Timestamp:    at,
		Split:        split,
		ImagePath:    w.relPath(w.imagesDir, split, id+imageExt),
		LabelPath:    labelRel,
		ObjectsCount: len(lines),
		Classes:      classes,
		SessionID:    w.sessionID,
	}, nil
}
