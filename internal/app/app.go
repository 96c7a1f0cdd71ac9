package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/medYousseffathallah/Datacollector/internal/config"
	"github.com/medYousseffathallah/Datacollector/internal/logger"
	"github.com/medYousseffathallah/Datacollector/internal/route"
	"github.com/medYousseffathallah/Datacollector/internal/service"
	"github.com/medYousseffathallah/Datacollector/internal/service/camera"
	"github.com/medYousseffathallah/Datacollector/internal/service/dataset"
	"github.com/medYousseffathallah/Datacollector/internal/service/filter"
	"github.com/medYousseffathallah/Datacollector/internal/service/inference"
	"github.com/medYousseffathallah/Datacollector/internal/service/sampling"
	"github.com/medYousseffathallah/Datacollector/internal/service/vision"
	"github.com/medYousseffathallah/Datacollector/internal/service/websocket"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config    *config.Config
	logger    *logger.Logger
	writer    *dataset.Writer
	cameras   *camera.Manager
	motion    *vision.MotionDetector
	hub       *websocket.HubService
	collector *service.Collector
}

// New wires every component from cfg. Nothing is started yet.
func New(cfg *config.Config, logger *logger.Logger) (*App, error) {
	writer, err := dataset.Open(cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}

	cameras, err := camera.NewManager(cfg.Cameras, camera.NewSourceFactory(vision.DeviceFactory), camera.StreamOptions{
		ReconnectBackoff: cfg.Collection.ReconnectBackoff(),
		IdleDelay:        cfg.Collection.IdleDelay(),
	}, logger)
	if err != nil {
		writer.Close()
		return nil, err
	}

	a := &App{
		config:  cfg,
		logger:  logger,
		writer:  writer,
		cameras: cameras,
		hub:     websocket.NewHubService(logger),
	}

	var motion sampling.MotionDetector
	if cfg.Motion.Enabled {
		a.motion = vision.NewMotionDetector(cfg.Motion, logger)
		motion = a.motion
	}
	gate := sampling.NewGate(cfg.Collection.Interval(), motion, logger)

	resultFilter := filter.New(cfg.Collection.MinConfidence, cfg.Collection.TargetClasses, cfg.Inference.ClassNames, vision.ContourPolygonizer{})

	a.collector = service.NewCollector(cameras, gate, newEngine(cfg.Inference, logger), resultFilter, writer, service.CollectorOptions{
		LoopInterval:  cfg.Collection.LoopInterval(),
		Publisher:     a.hub,
		PreviewImages: cfg.Status.Enabled,
	}, logger)

	return a, nil
}

func newEngine(cfg config.Inference, logger *logger.Logger) inference.Engine {
	var engine inference.Engine
	switch cfg.Backend {
	case "opencv":
		engine = vision.NewDetectorEngine(cfg, logger)
	default:
		engine = inference.NewMockEngine(inference.DefaultMockOptions(), logger)
	}
	return inference.WithTimeout(engine, cfg.Timeout())
}

// Run blocks until ctx is done and the collector has shut down.
func (a *App) Run(ctx context.Context) error {
	defer a.close()

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go a.hub.Run(hubCtx)

	var server *http.Server
	if a.config.Status.Enabled {
		server = a.startStatusServer()
	}

	a.logger.Info("🚀 Data collector")
	a.logger.Info("📁 Dataset: %s", a.config.Storage.BasePath)
	a.logger.Info("🤖 Inference backend: %s", a.config.Inference.Backend)

	err := a.collector.Run(ctx)

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if serr := server.Shutdown(shutdownCtx); serr != nil {
			a.logger.Error("Status server shutdown failed: %v", serr)
		}
	}
	return err
}

func (a *App) startStatusServer() *http.Server {
	router := route.SetupRoutes(route.Deps{
		Config:    a.config,
		Logger:    a.logger,
		Samples:   a.writer.Repository(),
		Cameras:   a.cameras,
		Collector: a.collector,
		Hub:       a.hub,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.config.Status.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		a.logger.Info("📍 Status API: http://localhost:%d", a.config.Status.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("Status server failed: %v", err)
		}
	}()
	return server
}

func (a *App) close() {
	if a.motion != nil {
		a.motion.Close()
	}
	if err := a.writer.Close(); err != nil {
		a.logger.Error("Failed to close dataset: %v", err)
	}
}
