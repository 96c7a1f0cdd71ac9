package filter

import (
	"math"
	"testing"

	"github.com/medYousseffathallah/Datacollector/internal/model"
	"github.com/smartystreets/goconvey/convey"
)

var square = []model.Point{{X: 0.1, Y: 0.1}, {X: 0.5, Y: 0.1}, {X: 0.5, Y: 0.5}, {X: 0.1, Y: 0.5}}

// rectPolygonizer returns the bounding box of the mask foreground.
type rectPolygonizer struct{ calls int }

func (r *rectPolygonizer) Polygonize(m *model.Mask) []model.Point {
	r.calls++
	minX, minY, maxX, maxY := m.Width, m.Height, -1, -1
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			if m.Pix[y*m.Width+x] == 0 {
				continue
			}
			minX, minY = min(minX, x), min(minY, y)
			maxX, maxY = max(maxX, x), max(maxY, y)
		}
	}
	if maxX < 0 {
		return nil
	}
	w, h := float64(m.Width), float64(m.Height)
	x0, y0, x1, y1 := float64(minX)/w, float64(minY)/h, float64(maxX+1)/w, float64(maxY+1)/h
	return []model.Point{{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}}
}

func TestFilter_Apply(t *testing.T) {
	names := []string{"person", "car"}

	tests := []struct {
		name      string
		minConf   float64
		targets   []string
		dets      []model.Detection
		wantCount int
		wantClass []string
	}{
		{
			name:      "score below threshold dropped",
			minConf:   0.6,
			dets:      []model.Detection{{ClassID: 0, Score: 0.59, Polygon: square}},
			wantCount: 0,
		},
		{
			name:      "score at threshold kept",
			minConf:   0.6,
			dets:      []model.Detection{{ClassID: 0, Score: 0.6, Polygon: square}},
			wantCount: 1,
			wantClass: []string{"person"},
		},
		{
			name:      "non-target class dropped",
			minConf:   0.5,
			targets:   []string{"car"},
			dets:      []model.Detection{{ClassID: 0, Score: 0.9, Polygon: square}, {ClassID: 1, Score: 0.9, Polygon: square}},
			wantCount: 1,
			wantClass: []string{"car"},
		},
		{
			name:      "numeric target matches unnamed class",
			minConf:   0.5,
			targets:   []string{"7"},
			dets:      []model.Detection{{ClassID: 7, Score: 0.9, Polygon: square}},
			wantCount: 1,
			wantClass: []string{"7"},
		},
		{
			name:      "classes deduplicated in first-seen order",
			minConf:   0.5,
			dets:      []model.Detection{{ClassID: 1, Score: 0.9, Polygon: square}, {ClassID: 0, Score: 0.9, Polygon: square}, {ClassID: 1, Score: 0.8, Polygon: square}},
			wantCount: 3,
			wantClass: []string{"car", "person"},
		},
		{
			name:      "degenerate polygon dropped",
			minConf:   0.5,
			dets:      []model.Detection{{ClassID: 0, Score: 0.9, Polygon: []model.Point{{X: 0.1, Y: 0.1}, {X: 0.2, Y: 0.2}}}},
			wantCount: 0,
		},
		{
			name:      "collinear polygon dropped",
			minConf:   0.5,
			dets:      []model.Detection{{ClassID: 0, Score: 0.9, Polygon: []model.Point{{X: 0.1, Y: 0.1}, {X: 0.2, Y: 0.2}, {X: 0.3, Y: 0.3}}}},
			wantCount: 0,
		},
		{
			name:      "detection without mask or polygon dropped",
			minConf:   0.5,
			dets:      []model.Detection{{ClassID: 0, Score: 0.9}},
			wantCount: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := New(tt.minConf, tt.targets, names, nil)
			got := f.Apply(&model.InferenceResult{Detections: tt.dets}, 640, 480)

			if len(got.Objects) != tt.wantCount {
				t.Fatalf("Expected %d objects, got %d", tt.wantCount, len(got.Objects))
			}
			if len(got.Classes) != len(tt.wantClass) {
				t.Fatalf("Expected classes %v, got %v", tt.wantClass, got.Classes)
			}
			for i := range tt.wantClass {
				if got.Classes[i] != tt.wantClass[i] {
					t.Errorf("Expected classes %v, got %v", tt.wantClass, got.Classes)
				}
			}
		})
	}
}

func TestFilter_MaskPath(t *testing.T) {
	convey.Convey("Given a filter with a polygonizer", t, func() {
		poly := &rectPolygonizer{}
		f := New(0.5, nil, nil, poly)

		convey.Convey("a mask detection is polygonized and normalized", func() {
			m := model.NewMask(100, 50)
			m.FillRect(10, 10, 60, 40)
			got := f.Apply(&model.InferenceResult{Detections: []model.Detection{{ClassID: 2, Score: 0.8, Mask: m}}}, 100, 50)

			convey.So(poly.calls, convey.ShouldEqual, 1)
			convey.So(got.Objects, convey.ShouldHaveLength, 1)
			convey.So(got.Classes, convey.ShouldResemble, []string{"2"})
			for _, p := range got.Objects[0].Polygon {
				convey.So(p.X, convey.ShouldBeBetweenOrEqual, 0.0, 1.0)
				convey.So(p.Y, convey.ShouldBeBetweenOrEqual, 0.0, 1.0)
			}
		})

		convey.Convey("an empty mask yields no object", func() {
			m := model.NewMask(100, 50)
			got := f.Apply(&model.InferenceResult{Detections: []model.Detection{{ClassID: 0, Score: 0.9, Mask: m}}}, 100, 50)
			convey.So(got.Empty(), convey.ShouldBeTrue)
		})

		convey.Convey("a mask smaller than 10 pixels is dropped", func() {
			m := model.NewMask(100, 50)
			m.FillRect(0, 0, 3, 3)
			got := f.Apply(&model.InferenceResult{Detections: []model.Detection{{ClassID: 0, Score: 0.9, Mask: m}}}, 100, 50)
			convey.So(got.Empty(), convey.ShouldBeTrue)
		})

		convey.Convey("a supplied polygon bypasses the polygonizer", func() {
			f.Apply(&model.InferenceResult{Detections: []model.Detection{{ClassID: 0, Score: 0.9, Polygon: square}}}, 100, 50)
			convey.So(poly.calls, convey.ShouldEqual, 0)
		})

		convey.Convey("out-of-range coordinates are clamped", func() {
			wide := []model.Point{{X: -0.2, Y: 0.1}, {X: 1.3, Y: 0.1}, {X: 1.3, Y: 0.9}, {X: -0.2, Y: 0.9}}
			got := f.Apply(&model.InferenceResult{Detections: []model.Detection{{ClassID: 0, Score: 0.9, Polygon: wide}}}, 100, 50)
			convey.So(got.Objects, convey.ShouldHaveLength, 1)
			convey.So(got.Objects[0].Polygon[0].X, convey.ShouldEqual, 0.0)
			convey.So(got.Objects[0].Polygon[1].X, convey.ShouldEqual, 1.0)
		})
	})
}

func TestFilter_NilResult(t *testing.T) {
	f := New(0.5, nil, nil, nil)
	if got := f.Apply(nil, 640, 480); !got.Empty() {
		t.Errorf("Expected empty result, got %+v", got)
	}
}

func TestPixelArea(t *testing.T) {
	got := PixelArea(square, 100, 100)
	if math.Abs(got-1600) > 1e-9 {
		t.Errorf("Expected area 1600, got %f", got)
	}
	if PixelArea(square[:2], 100, 100) != 0 {
		t.Error("Two-point polygon should have zero area")
	}
}
