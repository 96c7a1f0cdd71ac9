package vision

import (
	"fmt"
	"image"
	"sync"

	"github.com/medYousseffathallah/Datacollector/internal/config"
	"github.com/medYousseffathallah/Datacollector/internal/logger"
	"github.com/medYousseffathallah/Datacollector/internal/model"

	"gocv.io/x/gocv"
)

const (
	mog2History      = 500
	mog2VarThreshold = 16
)

// cameraState holds the background model of one camera.
type cameraState struct {
	subtractor gocv.BackgroundSubtractorMOG2
	mutex      sync.Mutex
}

// MotionDetector reports whether any foreground blob is larger than a minimum area.
// Each camera gets its own MOG2 background model.
type MotionDetector struct {
	threshold float32
	minArea   float64
	kernel    gocv.Mat

	cameraStates map[string]*cameraState
	statesMutex  sync.RWMutex
	logger       *logger.Logger
}

func NewMotionDetector(cfg config.Motion, logger *logger.Logger) *MotionDetector {
	return &MotionDetector{
		threshold:    float32(cfg.Threshold),
		minArea:      cfg.MinArea,
		kernel:       gocv.GetStructuringElement(gocv.MorphEllipse, image.Pt(3, 3)),
		cameraStates: make(map[string]*cameraState),
		logger:       logger,
	}
}

// Detect feeds frame into its camera's background model.
func (d *MotionDetector) Detect(frame *model.Frame) (bool, error) {
	state := d.getCameraState(frame.CameraID)
	state.mutex.Lock()
	defer state.mutex.Unlock()

	mat, err := gocv.IMDecode(frame.Data, gocv.IMReadColor)
	if err != nil {
		return false, fmt.Errorf("failed to decode image: %w", err)
	}
	defer mat.Close()

	if mat.Empty() {
		return false, fmt.Errorf("decoded image is empty")
	}

	fg := gocv.NewMat()
	defer fg.Close()
	state.subtractor.Apply(mat, &fg)

	thresh := gocv.NewMat()
	defer thresh.Close()
	gocv.Threshold(fg, &thresh, d.threshold, 255, gocv.ThresholdBinary)

	opened := gocv.NewMat()
	defer opened.Close()
	gocv.MorphologyEx(thresh, &opened, gocv.MorphOpen, d.kernel)

	contours := gocv.FindContours(opened, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	for i := 0; i < contours.Size(); i++ {
		if area := gocv.ContourArea(contours.At(i)); area > d.minArea {
			return true, nil
		}
	}
	return false, nil
}

// Close releases every background model.
func (d *MotionDetector) Close() {
	d.statesMutex.Lock()
	defer d.statesMutex.Unlock()

	for id, state := range d.cameraStates {
		state.subtractor.Close()
		delete(d.cameraStates, id)
	}
	d.kernel.Close()
}

// getCameraState returns the per-camera state, creating it when absent.
func (d *MotionDetector) getCameraState(cameraID string) *cameraState {
	d.statesMutex.RLock()
	state, exists := d.cameraStates[cameraID]
	d.statesMutex.RUnlock()

	if exists {
		return state
	}

	d.statesMutex.Lock()
	defer d.statesMutex.Unlock()
	if state, exists := d.cameraStates[cameraID]; exists {
		return state
	}

	state = &cameraState{
		subtractor: gocv.NewBackgroundSubtractorMOG2WithParams(mog2History, mog2VarThreshold, false),
	}
	d.cameraStates[cameraID] = state
	d.logger.Info("Created motion detection state for camera: %s", cameraID)

	return state
}
