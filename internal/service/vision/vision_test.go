package vision

import (
	"testing"

	"github.com/medYousseffathallah/Datacollector/internal/config"
	"github.com/medYousseffathallah/Datacollector/internal/logger"
	"github.com/medYousseffathallah/Datacollector/internal/model"
	"github.com/medYousseffathallah/Datacollector/internal/service/camera"

	"gocv.io/x/gocv"
)

func TestContourPolygonizer(t *testing.T) {
	tests := []struct {
		name     string
		rects    [][4]int
		wantNil  bool
		minVerts int
	}{
		{name: "empty mask", wantNil: true},
		{name: "speck below minimum area", rects: [][4]int{{5, 5, 7, 7}}, wantNil: true},
		{name: "rectangle", rects: [][4]int{{10, 20, 60, 70}}, minVerts: 4},
		{name: "largest region wins", rects: [][4]int{{0, 0, 10, 10}, {40, 40, 90, 90}}, minVerts: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mask := model.NewMask(100, 100)
			for _, r := range tt.rects {
				mask.FillRect(r[0], r[1], r[2], r[3])
			}

			polygon := ContourPolygonizer{}.Polygonize(mask)
			if tt.wantNil {
				if polygon != nil {
					t.Errorf("Expected no polygon, got %v", polygon)
				}
				return
			}
			if len(polygon) < tt.minVerts {
				t.Fatalf("Expected at least %d vertices, got %d", tt.minVerts, len(polygon))
			}
			for _, p := range polygon {
				if p.X < 0 || p.X > 1 || p.Y < 0 || p.Y > 1 {
					t.Errorf("Vertex %+v not normalized", p)
				}
			}
		})
	}
}

func TestContourPolygonizer_PicksLargest(t *testing.T) {
	mask := model.NewMask(100, 100)
	mask.FillRect(0, 0, 10, 10)
	mask.FillRect(40, 40, 90, 90)

	for _, p := range (ContourPolygonizer{}).Polygonize(mask) {
		if p.X < 0.39 || p.Y < 0.39 {
			t.Errorf("Vertex %+v belongs to the smaller region", p)
		}
	}
}

func TestMotionDetector(t *testing.T) {
	d := NewMotionDetector(config.Motion{Enabled: true, Threshold: 25, MinArea: 500}, logger.Nop())
	defer d.Close()

	black := encode(t, gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 240, 320, gocv.MatTypeCV8UC3))

	var moving bool
	var err error
	for i := 0; i < 30; i++ {
		moving, err = d.Detect(&model.Frame{CameraID: "cam", Data: black})
		if err != nil {
			t.Fatalf("Detect failed: %v", err)
		}
	}
	if moving {
		t.Error("Static scene reported as motion")
	}

	white := encode(t, gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 255, 255, 0), 240, 320, gocv.MatTypeCV8UC3))
	if moving, err = d.Detect(&model.Frame{CameraID: "cam", Data: white}); err != nil || !moving {
		t.Errorf("Expected motion on a full-frame change, got %v (%v)", moving, err)
	}

	if _, err := d.Detect(&model.Frame{CameraID: "cam", Data: []byte("not a jpeg")}); err == nil {
		t.Error("Expected decode error")
	}
}

func TestDeviceSource_ReadBeforeOpen(t *testing.T) {
	var src camera.FrameSource = NewDeviceSource(config.Camera{ID: "cam", URL: "0"})
	if _, err := src.Read(); err == nil {
		t.Error("Expected error reading a closed device")
	}
	if err := src.Close(); err != nil {
		t.Errorf("Closing an unopened device should be a no-op: %v", err)
	}
}

func TestDetectorEngine_MissingModel(t *testing.T) {
	e := NewDetectorEngine(config.Inference{ModelPath: "does-not-exist.pb", ConfigPath: "nope.pbtxt"}, logger.Nop())
	if err := e.Start(); err == nil {
		t.Error("Expected Start to fail without a model file")
	}
	if err := e.Stop(); err != nil {
		t.Errorf("Stop on a never-started engine should be a no-op: %v", err)
	}
}

func encode(t *testing.T, mat gocv.Mat) []byte {
	t.Helper()
	defer mat.Close()
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, mat)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	defer buf.Close()
	return append([]byte(nil), buf.GetBytes()...)
}
