package handler

import (
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/medYousseffathallah/Datacollector/internal/dto"
	"github.com/medYousseffathallah/Datacollector/internal/logger"
	"github.com/medYousseffathallah/Datacollector/internal/model"
	"github.com/medYousseffathallah/Datacollector/internal/repository"
	"github.com/medYousseffathallah/Datacollector/internal/service"
)

const (
	defaultLimit = 24
	maxLimit     = 500
)

type samplesResponse struct {
	Samples     []model.Sample `json:"samples"`
	Length      int            `json:"length"`
	TotalPages  int            `json:"total_pages"`
	CurrentPage int            `json:"current_page"`
	Limit       int            `json:"limit"`
}

type statsResponse struct {
	Dataset   *dto.DatasetStats      `json:"dataset"`
	Collector service.CollectorStats `json:"collector"`
}

// GetSamplesHandler returns a filtered, paginated page of sample rows.
func GetSamplesHandler(repo repository.SampleRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		page := atoiDefault(q.Get("page"), 1)
		limit := min(atoiDefault(q.Get("limit"), defaultLimit), maxLimit)

		filter := &dto.SampleFilter{
			Camera: q.Get("camera"),
			Split:  q.Get("split"),
			After:  parseDate(q.Get("after")),
			Before: parseDate(q.Get("before")),
			Limit:  limit,
			Offset: (page - 1) * limit,
		}
		if offset := atoiDefault(q.Get("offset"), 0); offset > 0 {
			filter.Offset = offset
		}
		if filter.Split != "" && filter.Split != model.SplitTrain && filter.Split != model.SplitVal {
			http.Error(w, "split must be train or val", http.StatusBadRequest)
			return
		}

		samples, err := repo.GetAll(filter)
		if err != nil {
			logger.Error("Error querying samples from database: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		totalCount, err := repo.GetTotalCount(filter)
		if err != nil {
			logger.Error("Error counting samples: %v", err)
			totalCount = len(samples)
		}

		if samples == nil {
			samples = []model.Sample{}
		}
		writeJSON(w, http.StatusOK, samplesResponse{
			Samples:     samples,
			Length:      totalCount,
			TotalPages:  (totalCount + limit - 1) / limit,
			CurrentPage: page,
			Limit:       limit,
		})
	}
}

// GetSampleHandler returns one sample row by {id}.
func GetSampleHandler(repo repository.SampleRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sample, ok := lookupSample(w, r, repo, logger)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, sample)
	}
}

// ViewSampleImageHandler serves the JPEG of sample {id}.
func ViewSampleImageHandler(repo repository.SampleRepository, basePath string, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sample, ok := lookupSample(w, r, repo, logger)
		if !ok {
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		http.ServeFile(w, r, filepath.Join(basePath, filepath.FromSlash(sample.ImagePath)))
	}
}

// StatsHandler combines dataset totals with the live loop counters.
func StatsHandler(repo repository.SampleRepository, collector CollectorStats, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := repo.GetStats()
		if err != nil {
			logger.Error("Error computing dataset stats: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, statsResponse{Dataset: stats, Collector: collector.Stats()})
	}
}

func lookupSample(w http.ResponseWriter, r *http.Request, repo repository.SampleRepository, logger *logger.Logger) (*model.Sample, bool) {
	id := chi.URLParam(r, "id")
	sample, err := repo.GetByID(id)
	if errors.Is(err, repository.ErrNotFound) {
		http.NotFound(w, r)
		return nil, false
	}
	if err != nil {
		logger.Error("Error loading sample %s: %v", id, err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return nil, false
	}
	return sample, true
}

// atoiDefault parses a positive integer, falling back to def.
func atoiDefault(s string, def int) int {
	if v, err := strconv.Atoi(s); err == nil && v > 0 {
		return v
	}
	return def
}

// parseDate accepts RFC3339 or YYYY-MM-DD; anything else is the zero time.
func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	if t, err := time.ParseInLocation("2006-01-02", s, time.Local); err == nil {
		return t
	}
	return time.Time{}
}
