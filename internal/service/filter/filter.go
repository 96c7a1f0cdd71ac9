package filter

import (
	"math"
	"strconv"

	"github.com/medYousseffathallah/Datacollector/internal/dto"
	"github.com/medYousseffathallah/Datacollector/internal/model"
)

// MinPolygonArea is the smallest polygon, in pixels, kept as a label.
const MinPolygonArea = 10.0

// Polygonizer turns a binary mask into a normalized polygon.
// An empty result means the mask had no usable region.
type Polygonizer interface {
	Polygonize(mask *model.Mask) []model.Point
}

// Filter keeps confident, targeted detections and resolves each to a polygon.
type Filter struct {
	minConfidence float64
	targets       map[string]bool
	classNames    []string
	polygonizer   Polygonizer
}

// New creates a filter. An empty targetClasses keeps every class.
// polygonizer may be nil when every engine reports polygons directly.
func New(minConfidence float64, targetClasses, classNames []string, polygonizer Polygonizer) *Filter {
	targets := make(map[string]bool, len(targetClasses))
	for _, c := range targetClasses {
		targets[c] = true
	}
	return &Filter{
		minConfidence: minConfidence,
		targets:       targets,
		classNames:    classNames,
		polygonizer:   polygonizer,
	}
}

// ClassName returns the configured name for classID, or its decimal form.
func (f *Filter) ClassName(classID int) string {
	if classID >= 0 && classID < len(f.classNames) && f.classNames[classID] != "" {
		return f.classNames[classID]
	}
	return strconv.Itoa(classID)
}

func (f *Filter) targeted(classID int, name string) bool {
	if len(f.targets) == 0 {
		return true
	}
	return f.targets[name] || f.targets[strconv.Itoa(classID)]
}

// Apply filters one frame's result. frameW and frameH scale the area check of
// normalized polygons back to pixels.
func (f *Filter) Apply(result *model.InferenceResult, frameW, frameH int) dto.FilterResult {
	var out dto.FilterResult
	if result.Empty() {
		return out
	}

	seen := make(map[string]bool)
	for _, det := range result.Detections {
		if det.Score < f.minConfidence {
			continue
		}

		name := f.ClassName(det.ClassID)
		if !f.targeted(det.ClassID, name) {
			continue
		}

		polygon := det.Polygon
		w, h := frameW, frameH
		if len(polygon) == 0 {
			if det.Mask == nil || f.polygonizer == nil {
				continue
			}
			polygon = f.polygonizer.Polygonize(det.Mask)
			w, h = det.Mask.Width, det.Mask.Height
		}

		polygon = clamp(polygon)
		if len(polygon) < 3 || PixelArea(polygon, w, h) < MinPolygonArea {
			continue
		}

		out.Objects = append(out.Objects, dto.LabeledObject{
			ClassID:   det.ClassID,
			ClassName: name,
			Score:     det.Score,
			Polygon:   polygon,
		})
		if !seen[name] {
			seen[name] = true
			out.Classes = append(out.Classes, name)
		}
	}
	return out
}

func clamp(polygon []model.Point) []model.Point {
	out := make([]model.Point, len(polygon))
	for i, p := range polygon {
		out[i] = model.Point{X: clamp01(p.X), Y: clamp01(p.Y)}
	}
	return out
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Min(1, math.Max(0, v))
}

// PixelArea is the shoelace area of a normalized polygon scaled to a w×h frame.
// Non-positive frame sizes treat the polygon as already large enough.
func PixelArea(polygon []model.Point, w, h int) float64 {
	if w <= 0 || h <= 0 {
		if len(polygon) >= 3 && normalizedArea(polygon) > 0 {
			return math.Inf(1)
		}
		return 0
	}
	return normalizedArea(polygon) * float64(w) * float64(h)
}

func normalizedArea(polygon []model.Point) float64 {
	var sum float64
	n := len(polygon)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += polygon[i].X*polygon[j].Y - polygon[j].X*polygon[i].Y
	}
	return math.Abs(sum) / 2
}
