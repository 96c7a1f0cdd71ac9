package route

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/medYousseffathallah/Datacollector/internal/config"
	"github.com/medYousseffathallah/Datacollector/internal/handler"
	"github.com/medYousseffathallah/Datacollector/internal/logger"
	"github.com/medYousseffathallah/Datacollector/internal/middleware"
	"github.com/medYousseffathallah/Datacollector/internal/repository"
	"github.com/medYousseffathallah/Datacollector/internal/service/websocket"
)

// Deps holds what the status API reads from.
type Deps struct {
	Config    *config.Config
	Logger    *logger.Logger
	Samples   repository.SampleRepository
	Cameras   handler.CameraStatuses
	Collector handler.CollectorStats
	Hub       *websocket.HubService
}

// SetupRoutes registers the read-only status API and wraps it with the
// password middleware.
func SetupRoutes(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.AuthMiddleware(d.Config.Status.Password))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", handler.HealthHandler(d.Cameras, d.Collector))
		r.Get("/cameras", handler.CamerasHandler(d.Cameras))
		r.Get("/samples", handler.GetSamplesHandler(d.Samples, d.Logger))
		r.Get("/samples/{id}", handler.GetSampleHandler(d.Samples, d.Logger))
		r.Get("/samples/{id}/image", handler.ViewSampleImageHandler(d.Samples, d.Config.Storage.BasePath, d.Logger))
		r.Get("/stats", handler.StatsHandler(d.Samples, d.Collector, d.Logger))
		if d.Hub != nil {
			r.Get("/preview", handler.PreviewWebsocketHandler(d.Hub, d.Logger))
		}
	})

	// Log endpoints
	r.Get("/logs/{level}", handler.ShowLogsHandler(d.Logger))
	r.Post("/logs/{level}/clear", handler.ClearLogsHandler(d.Logger))

	return r
}
