package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/medYousseffathallah/Datacollector/internal/dto"
	"github.com/medYousseffathallah/Datacollector/internal/service"
)

// CameraStatuses reports the state of every camera stream.
type CameraStatuses interface {
	Statuses() []dto.CameraStatus
}

// CollectorStats reports the orchestration loop counters.
type CollectorStats interface {
	Stats() service.CollectorStats
}

type healthResponse struct {
	Status    string    `json:"status"`
	State     string    `json:"state"`
	Cameras   int       `json:"cameras"`
	Connected int       `json:"connected"`
	Time      time.Time `json:"time"`
}

// HealthHandler reports "ok" while the collector loop is running.
func HealthHandler(cameras CameraStatuses, collector CollectorStats) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		statuses := cameras.Statuses()
		resp := healthResponse{
			Status:  "ok",
			State:   collector.Stats().State,
			Cameras: len(statuses),
			Time:    time.Now(),
		}
		for _, st := range statuses {
			if st.Connected {
				resp.Connected++
			}
		}

		code := http.StatusOK
		if resp.State != service.StateRunning {
			resp.Status = "unavailable"
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, resp)
	}
}

// CamerasHandler lists per-camera acquisition counters.
func CamerasHandler(cameras CameraStatuses) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, cameras.Statuses())
	}
}

// writeJSON encodes v with the given status code.
func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	// the status code is already sent; an encode error means the client went away
	_ = json.NewEncoder(w).Encode(v)
}
