package api

import (
	"encoding/csv"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/kartoza/plasma-dashboard/internal/httputil"
	"github.com/kartoza/plasma-dashboard/internal/models"
	"github.com/kartoza/plasma-dashboard/internal/store"
)

// predictionSummary is the history row returned by the list endpoint
type predictionSummary struct {
	ID              string                   `json:"id"`
	CreatedAt       time.Time                `json:"createdAt"`
	Status          models.Status            `json:"status"`
	Parameters      models.ProcessParameters `json:"parameters"`
	QualityMetrics  models.QualityMetrics    `json:"qualityMetrics"`
	RoiMetrics      *models.RoiMetrics       `json:"roiMetrics,omitempty"`
	Recommendations int                      `json:"recommendations"`
}

func summarize(r *models.PredictionResult) predictionSummary {
	return predictionSummary{
		ID:              r.ID,
		CreatedAt:       r.CreatedAt,
		Status:          r.Status,
		Parameters:      r.Parameters,
		QualityMetrics:  r.QualityMetrics,
		RoiMetrics:      r.RoiMetrics,
		Recommendations: len(r.Recommendations),
	}
}

// handlePredict runs the engine on the submitted recipe and stores the result.
// Fields missing from the body take their default values.
func (h *Handler) handlePredict(w http.ResponseWriter, r *http.Request) {
	params := models.DefaultParameters()
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := httputil.DecodeJSON(r, &params); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	result, err := h.engine.Predict(params)
	if err != nil {
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			httputil.RespondJSON(w, http.StatusBadRequest, map[string]interface{}{
				"error":  err.Error(),
				"fields": verr.Fields,
			})
			return
		}
		httputil.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if h.repo != nil {
		if err := h.repo.Put(r.Context(), result); err != nil {
			log.Printf("Error storing prediction %s: %v", result.ID, err)
			httputil.RespondError(w, http.StatusInternalServerError, "failed to store prediction")
			return
		}
	}

	httputil.RespondJSON(w, http.StatusCreated, result)
}

// handleListPredictions returns stored predictions, newest first
func (h *Handler) handleListPredictions(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		httputil.RespondJSON(w, http.StatusOK, []predictionSummary{})
		return
	}

	opts, err := parseListOptions(r)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	results, err := h.repo.List(r.Context(), opts)
	if err != nil {
		httputil.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	summaries := make([]predictionSummary, 0, len(results))
	for _, res := range results {
		summaries = append(summaries, summarize(res))
	}
	httputil.RespondJSON(w, http.StatusOK, summaries)
}

func parseListOptions(r *http.Request) (store.ListOptions, error) {
	var opts store.ListOptions
	q := r.URL.Query()

	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			return opts, fmt.Errorf("limit must be a non-negative integer")
		}
		opts.Limit = limit
	}
	if v := q.Get("status"); v != "" {
		status, ok := models.ParseStatus(v)
		if !ok {
			return opts, fmt.Errorf("status must be one of safe, warning, danger")
		}
		opts.Status = status
	}
	return opts, nil
}

// handleGetPrediction returns one stored prediction in full
func (h *Handler) handleGetPrediction(w http.ResponseWriter, r *http.Request) {
	result, ok := h.lookup(w, r)
	if !ok {
		return
	}
	httputil.RespondJSON(w, http.StatusOK, result)
}

// handleStabilityCSV exports the stability series of a stored prediction
func (h *Handler) handleStabilityCSV(w http.ResponseWriter, r *http.Request) {
	result, ok := h.lookup(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.ID+"-stability.csv"))

	cw := csv.NewWriter(w)
	cw.Write([]string{"time", "radicalDensity", "uniformity", "temperature"})
	for _, p := range result.StabilityData {
		cw.Write([]string{
			formatFloat(p.Time),
			formatFloat(p.RadicalDensity),
			formatFloat(p.Uniformity),
			formatFloat(p.Temperature),
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		log.Printf("Error writing stability CSV: %v", err)
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// handleDeletePrediction removes one stored prediction
func (h *Handler) handleDeletePrediction(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		httputil.RespondError(w, http.StatusNotFound, store.ErrNotFound.Error())
		return
	}

	id := mux.Vars(r)["id"]
	if err := h.repo.Delete(r.Context(), id); err != nil {
		respondStoreError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id})
}

// handleClearPredictions removes the whole history
func (h *Handler) handleClearPredictions(w http.ResponseWriter, r *http.Request) {
	if h.repo != nil {
		if err := h.repo.Clear(r.Context()); err != nil {
			httputil.RespondError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// lookup fetches the prediction named in the route, writing the error response itself
func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (*models.PredictionResult, bool) {
	if h.repo == nil {
		httputil.RespondError(w, http.StatusNotFound, store.ErrNotFound.Error())
		return nil, false
	}

	result, err := h.repo.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondStoreError(w, err)
		return nil, false
	}
	return result, true
}

func respondStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		httputil.RespondError(w, http.StatusNotFound, err.Error())
		return
	}
	httputil.RespondError(w, http.StatusInternalServerError, err.Error())
}
