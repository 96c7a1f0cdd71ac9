package vision

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/medYousseffathallah/Datacollector/internal/config"
	"github.com/medYousseffathallah/Datacollector/internal/model"
	"github.com/medYousseffathallah/Datacollector/internal/service/camera"

	"gocv.io/x/gocv"
)

// DeviceSource reads frames from a local device index or a stream url through OpenCV.
type DeviceSource struct {
	cam     config.Camera
	capture *gocv.VideoCapture
	img     gocv.Mat
}

// NewDeviceSource creates a closed source for cam.
func NewDeviceSource(cam config.Camera) *DeviceSource {
	return &DeviceSource{cam: cam}
}

// DeviceFactory is the camera.SourceFactory for real cameras.
func DeviceFactory(cam config.Camera) (camera.FrameSource, error) {
	return NewDeviceSource(cam), nil
}

func (s *DeviceSource) Open() error {
	var target interface{} = s.cam.URL
	if index, err := strconv.Atoi(s.cam.URL); err == nil {
		target = index
	}

	capture, err := gocv.OpenVideoCapture(target)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", s.cam.URL, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return fmt.Errorf("video capture is not opened for %s", s.cam.URL)
	}

	// keep only the newest frame in the driver queue
	capture.Set(gocv.VideoCaptureBufferSize, 1)

	s.capture = capture
	s.img = gocv.NewMat()
	return nil
}

func (s *DeviceSource) Read() (*model.Frame, error) {
	if s.capture == nil {
		return nil, errors.New("device source is not open")
	}

	if ok := s.capture.Read(&s.img); !ok || s.img.Empty() {
		return nil, fmt.Errorf("no frame from %s", s.cam.URL)
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, s.img)
	if err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}
	defer buf.Close()

	data := make([]byte, len(buf.GetBytes()))
	copy(data, buf.GetBytes())

	return &model.Frame{
		Width:  s.img.Cols(),
		Height: s.img.Rows(),
		Data:   data,
	}, nil
}

func (s *DeviceSource) Close() error {
	if s.capture == nil {
		return nil
	}
	err := s.capture.Close()
	s.img.Close()
	s.capture = nil
	return err
}
