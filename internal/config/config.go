package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"sigs.k8s.io/yaml"
)

// SyntheticURL selects the built-in frame generator instead of a real device.
const SyntheticURL = "test"

var (
	// ErrNoCameras is returned when the config enables no camera at all.
	ErrNoCameras = errors.New("no enabled cameras configured")
)

// Camera describes one configured camera source.
type Camera struct {
	ID      string `json:"id"`
	URL     string `json:"url"`
	Name    string `json:"name"`
	Enabled *bool  `json:"enabled,omitempty"`
}

// IsEnabled reports whether the camera should be started. Missing means enabled.
func (c Camera) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// IsSynthetic reports whether the camera uses the synthetic frame generator.
func (c Camera) IsSynthetic() bool {
	return strings.EqualFold(c.URL, SyntheticURL)
}

type Inference struct {
	Backend        string   `json:"backend"` // "mock" or "opencv"
	ModelPath      string   `json:"model_path"`
	ConfigPath     string   `json:"config_path"`
	InputShape     []int    `json:"input_shape"`
	ScoreThreshold float64  `json:"score_threshold"`
	ClassNames     []string `json:"class_names"`
	TimeoutMs      int      `json:"timeout_ms"`
}

type Collection struct {
	IntervalSeconds  float64  `json:"interval_seconds"`
	TargetClasses    []string `json:"target_classes"`
	MinConfidence    float64  `json:"min_confidence"`
	LoopIntervalMs   int      `json:"loop_interval_ms"`
	ReconnectSeconds float64  `json:"reconnect_seconds"`
	IdleDelayMs      int      `json:"idle_delay_ms"`
}

type Motion struct {
	Enabled   bool    `json:"enabled"`
	Threshold float64 `json:"threshold"`
	MinArea   float64 `json:"min_area"`
}

type Storage struct {
	BasePath     string  `json:"base_path"`
	ImagesDir    string  `json:"images_dir"`
	LabelsDir    string  `json:"labels_dir"`
	DatabasePath string  `json:"database_path"`
	TrainSplit   float64 `json:"train_split"`
}

type Status struct {
	Enabled  bool   `json:"enabled"`
	Port     int    `json:"port"`
	Password string `json:"password"`
}

// Config is the full collector configuration.
type Config struct {
	Cameras    []Camera   `json:"cameras"`
	Inference  Inference  `json:"inference"`
	Collection Collection `json:"collection"`
	Motion     Motion     `json:"motion_detection"`
	Storage    Storage    `json:"storage"`
	Status     Status     `json:"status"`
	LogDir     string     `json:"log_dir"`
	LogLevel   string     `json:"log_level"`
}

// Default returns a config populated with the collector defaults.
func Default() *Config {
	return &Config{
		Inference: Inference{
			Backend:        "mock",
			InputShape:     []int{640, 640},
			ScoreThreshold: 0.5,
			TimeoutMs:      2000,
		},
		Collection: Collection{
			IntervalSeconds:  5.0,
			MinConfidence:    0.6,
			LoopIntervalMs:   100,
			ReconnectSeconds: 5.0,
			IdleDelayMs:      20,
		},
		Motion: Motion{
			Threshold: 25,
			MinArea:   500,
		},
		Storage: Storage{
			BasePath:     "dataset",
			ImagesDir:    "images",
			LabelsDir:    "labels",
			DatabasePath: "datacollector.db",
			TrainSplit:   0.8,
		},
		Status: Status{
			Port: 8080,
		},
		LogDir:   filepath.Join(".", "logs"),
		LogLevel: "info",
	}
}

// Load reads the YAML file at path on top of the defaults, applies environment
// overrides (a .env file next to the working directory is honoured) and validates
// the result.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML bytes on top of Default().
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Storage.BasePath = getEnv("DC_BASE_PATH", c.Storage.BasePath)
	c.Storage.DatabasePath = getEnv("DC_DB_PATH", c.Storage.DatabasePath)
	c.Storage.TrainSplit = getEnvAsFloat("DC_TRAIN_SPLIT", c.Storage.TrainSplit)
	c.Collection.IntervalSeconds = getEnvAsFloat("DC_INTERVAL_SECONDS", c.Collection.IntervalSeconds)
	c.Collection.MinConfidence = getEnvAsFloat("DC_MIN_CONFIDENCE", c.Collection.MinConfidence)
	c.Inference.Backend = getEnv("DC_INFERENCE_BACKEND", c.Inference.Backend)
	c.Inference.ModelPath = getEnv("DC_MODEL_PATH", c.Inference.ModelPath)
	c.Status.Port = getEnvAsInt("DC_STATUS_PORT", c.Status.Port)
	c.Status.Password = getEnv("DC_STATUS_PASSWORD", c.Status.Password)
	c.LogDir = getEnv("DC_LOG_DIR", c.LogDir)
	c.LogLevel = getEnv("DC_LOG_LEVEL", c.LogLevel)
}

// Validate checks that the config describes a runnable collector.
func (c *Config) Validate() error {
	if len(c.EnabledCameras()) == 0 {
		return ErrNoCameras
	}

	seen := make(map[string]bool, len(c.Cameras))
	for i, cam := range c.Cameras {
		if cam.ID == "" {
			return fmt.Errorf("camera #%d: missing id", i)
		}
		if cam.URL == "" {
			return fmt.Errorf("camera %s: missing url", cam.ID)
		}
		if strings.ContainsAny(cam.ID, `/\`) {
			return fmt.Errorf("camera %s: id must not contain path separators", cam.ID)
		}
		if seen[cam.ID] {
			return fmt.Errorf("camera %s: duplicate id", cam.ID)
		}
		seen[cam.ID] = true
	}

	switch c.Inference.Backend {
	case "mock":
	case "opencv":
		if c.Inference.ModelPath == "" {
			return errors.New("inference: model_path is required for the opencv backend")
		}
	default:
		return fmt.Errorf("inference: unknown backend %q", c.Inference.Backend)
	}

	if c.Collection.IntervalSeconds < 0 {
		return errors.New("collection: interval_seconds must be >= 0")
	}
	if c.Collection.MinConfidence < 0 || c.Collection.MinConfidence > 1 {
		return errors.New("collection: min_confidence must be within [0,1]")
	}
	if c.Storage.TrainSplit < 0 || c.Storage.TrainSplit > 1 {
		return errors.New("storage: train_split must be within [0,1]")
	}
	if c.Storage.BasePath == "" {
		return errors.New("storage: base_path is required")
	}
	if c.Storage.DatabasePath == "" {
		return errors.New("storage: database_path is required")
	}
	return nil
}

// EnabledCameras returns the cameras with enabled != false, in config order.
func (c *Config) EnabledCameras() []Camera {
	cams := make([]Camera, 0, len(c.Cameras))
	for _, cam := range c.Cameras {
		if cam.IsEnabled() {
			cams = append(cams, cam)
		}
	}
	return cams
}

// DatabaseFile returns the database location; relative paths live under base_path.
func (s Storage) DatabaseFile() string {
	if filepath.IsAbs(s.DatabasePath) {
		return s.DatabasePath
	}
	return filepath.Join(s.BasePath, s.DatabasePath)
}

func (c Collection) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds * float64(time.Second))
}

func (c Collection) LoopInterval() time.Duration {
	return time.Duration(c.LoopIntervalMs) * time.Millisecond
}

func (c Collection) ReconnectBackoff() time.Duration {
	return time.Duration(c.ReconnectSeconds * float64(time.Second))
}

func (c Collection) IdleDelay() time.Duration {
	return time.Duration(c.IdleDelayMs) * time.Millisecond
}

func (i Inference) Timeout() time.Duration {
	return time.Duration(i.TimeoutMs) * time.Millisecond
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
