package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/kartoza/plasma-dashboard/internal/config"
	"github.com/kartoza/plasma-dashboard/internal/engine"
	"github.com/kartoza/plasma-dashboard/internal/httputil"
	"github.com/kartoza/plasma-dashboard/internal/models"
	"github.com/kartoza/plasma-dashboard/internal/store"
)

// maxBodyBytes bounds request bodies
const maxBodyBytes = 1 << 20

// Handler provides HTTP API endpoints
type Handler struct {
	engine *engine.Engine
	repo   store.Repository
	cfg    config.Config
}

// NewHandler creates a new API handler
func NewHandler(eng *engine.Engine, repo store.Repository, cfg config.Config) *Handler {
	return &Handler{
		engine: eng,
		repo:   repo,
		cfg:    cfg,
	}
}

// RegisterRoutes sets up all API routes
func (h *Handler) RegisterRoutes(r *mux.Router) {
	// Health and info
	r.HandleFunc("/health", h.handleHealth).Methods("GET")
	r.HandleFunc("/info", h.handleInfo).Methods("GET")
	r.HandleFunc("/parameters", h.handleParameters).Methods("GET")

	// Prediction
	r.HandleFunc("/predict", h.handlePredict).Methods("POST")

	// History
	r.HandleFunc("/predictions", h.handleListPredictions).Methods("GET")
	r.HandleFunc("/predictions", h.handleClearPredictions).Methods("DELETE")
	r.HandleFunc("/predictions/{id}", h.handleGetPrediction).Methods("GET")
	r.HandleFunc("/predictions/{id}", h.handleDeletePrediction).Methods("DELETE")
	r.HandleFunc("/predictions/{id}/stability.csv", h.handleStabilityCSV).Methods("GET")
}

// handleHealth returns server health status
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleInfo returns server information
func (h *Handler) handleInfo(w http.ResponseWriter, r *http.Request) {
	info := map[string]interface{}{
		"version":       h.cfg.Version,
		"store_backend": h.cfg.StoreBackend,
		"store_ready":   h.repo != nil,
	}
	if h.cfg.StoreBackend == config.BackendSQLite {
		info["db_driver"] = h.cfg.DBDriver
	}
	httputil.RespondJSON(w, http.StatusOK, info)
}

// handleParameters returns the default recipe and the accepted range of every field
func (h *Handler) handleParameters(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"defaults": models.DefaultParameters(),
		"bounds":   models.ParameterBounds,
	})
}
