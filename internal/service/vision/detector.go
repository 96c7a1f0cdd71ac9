package vision

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/medYousseffathallah/Datacollector/internal/config"
	"github.com/medYousseffathallah/Datacollector/internal/logger"
	"github.com/medYousseffathallah/Datacollector/internal/model"
	"github.com/medYousseffathallah/Datacollector/internal/service/inference"

	"gocv.io/x/gocv"
)

// DetectorEngine runs an SSD-style OpenCV DNN detector. Detection-only models
// have no masks, so each box is reported as a filled rectangular mask.
type DetectorEngine struct {
	modelPath  string
	configPath string
	inputSize  image.Point
	threshold  float32
	logger     *logger.Logger

	mu      sync.Mutex
	net     gocv.Net
	running bool
}

func NewDetectorEngine(cfg config.Inference, logger *logger.Logger) *DetectorEngine {
	size := image.Pt(300, 300)
	if len(cfg.InputShape) == 2 && cfg.InputShape[0] > 0 && cfg.InputShape[1] > 0 {
		size = image.Pt(cfg.InputShape[1], cfg.InputShape[0])
	}
	return &DetectorEngine{
		modelPath:  cfg.ModelPath,
		configPath: cfg.ConfigPath,
		inputSize:  size,
		threshold:  float32(cfg.ScoreThreshold),
		logger:     logger,
	}
}

// Start loads the network and sets backend/target preferences.
func (e *DetectorEngine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		return nil
	}
	if _, err := os.Stat(e.modelPath); err != nil {
		return fmt.Errorf("model file not found: %s", e.modelPath)
	}

	var net gocv.Net
	if strings.EqualFold(filepath.Ext(e.modelPath), ".onnx") {
		net = gocv.ReadNetFromONNX(e.modelPath)
	} else {
		if _, err := os.Stat(e.configPath); err != nil {
			return fmt.Errorf("config file not found: %s", e.configPath)
		}
		net = gocv.ReadNet(e.modelPath, e.configPath)
	}
	if net.Empty() {
		return fmt.Errorf("failed to load network %s", e.modelPath)
	}

	errBackend := net.SetPreferableBackend(gocv.NetBackendDefault)
	errTarget := net.SetPreferableTarget(gocv.NetTargetCPU)
	if errBackend != nil || errTarget != nil {
		net.Close()
		return fmt.Errorf("failed to set preferable backend or target")
	}

	e.net = net
	e.running = true
	e.logger.Info("Detection network initialized successfully")
	return nil
}

func (e *DetectorEngine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return nil
	}
	e.running = false
	return e.net.Close()
}

// Infer decodes the frame and runs one forward pass. Output rows are
// [batch_id, class_id, confidence, x1, y1, x2, y2] with normalized corners.
func (e *DetectorEngine) Infer(ctx context.Context, frame *model.Frame) (*model.InferenceResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return nil, inference.ErrEngineStopped
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mat, err := gocv.IMDecode(frame.Data, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	defer mat.Close()

	if mat.Empty() {
		return nil, fmt.Errorf("decoded image is empty")
	}

	blob := gocv.BlobFromImage(mat, 1.0/127.5, e.inputSize, gocv.NewScalar(127.5, 127.5, 127.5, 0), true, false)
	defer blob.Close()

	e.net.SetInput(blob, "")
	output := e.net.Forward("")
	defer output.Close()

	cols, rows := mat.Cols(), mat.Rows()
	reshaped := output.Reshape(1, output.Total()/7)
	defer reshaped.Close()

	result := &model.InferenceResult{}
	for i := 0; i < reshaped.Rows(); i++ {
		confidence := reshaped.GetFloatAt(i, 2)
		if confidence < e.threshold {
			continue
		}

		x1 := int(reshaped.GetFloatAt(i, 3) * float32(cols))
		y1 := int(reshaped.GetFloatAt(i, 4) * float32(rows))
		x2 := int(reshaped.GetFloatAt(i, 5) * float32(cols))
		y2 := int(reshaped.GetFloatAt(i, 6) * float32(rows))

		mask := model.NewMask(cols, rows)
		mask.FillRect(x1, y1, x2, y2)
		if mask.Area() == 0 {
			continue
		}

		result.Detections = append(result.Detections, model.Detection{
			ClassID: int(reshaped.GetFloatAt(i, 1)),
			Score:   float64(confidence),
			Mask:    mask,
		})
	}

	return result, nil
}
