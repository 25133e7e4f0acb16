package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/ysoda/indexpulse/internal/history"
	"github.com/ysoda/indexpulse/internal/instrument"
	"github.com/ysoda/indexpulse/internal/snapshot"
	"github.com/ysoda/indexpulse/pkg/logger"
)

// historyYears is the default lookback of the price-history endpoint.
const historyYears = 5

// IndexHandler handles index data and evaluation endpoints.
type IndexHandler struct {
	registry *instrument.Registry
	history  *history.Service
	builder  *snapshot.Builder
	logger   *logger.Logger
}

// NewIndexHandler creates a new index handler.
func NewIndexHandler(
	registry *instrument.Registry,
	hist *history.Service,
	builder *snapshot.Builder,
	log *logger.Logger,
) *IndexHandler {
	return &IndexHandler{
		registry: registry,
		history:  hist,
		builder:  builder,
		logger:   log,
	}
}

// ListIndices returns the registered instrument keys.
// GET /api/indices
func (h *IndexHandler) ListIndices(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"indices": h.registry.Keys(),
	})
}

// GetPriceHistory returns the MA-decorated close series for one index.
// GET /api/{key}/price-history
func (h *IndexHandler) GetPriceHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key := mux.Vars(r)["key"]

	if _, err := h.registry.Lookup(key); err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	end := time.Now().UTC()
	start := end.AddDate(-historyYears, 0, 0)

	series, err := h.history.GetHistory(ctx, key, start, end)
	if err != nil {
		h.logger.WithError(err).WithField("index", key).Error("Failed to get price history")
		if errors.Is(err, history.ErrHistoryUnavailable) {
			respondError(w, http.StatusServiceUnavailable, "price history unavailable")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to retrieve price history")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"index_key": key,
		"series":    snapshot.DecorateSeries(series),
	})
}

// EvaluateRequest selects the instrument to evaluate.
type EvaluateRequest struct {
	IndexKey string `json:"index_key"`
}

// Evaluate builds the full snapshot for an instrument: live price,
// composite scores and detail records.
// POST /api/evaluate
func (h *IndexHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req EvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.IndexKey == "" {
		req.IndexKey = "SP500"
	}
	if _, err := h.registry.Lookup(req.IndexKey); err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	snap, err := h.builder.Build(ctx, req.IndexKey)
	if err != nil {
		h.logger.WithError(err).WithField("index", req.IndexKey).Error("Failed to build snapshot")
		if errors.Is(err, history.ErrHistoryUnavailable) {
			respondError(w, http.StatusServiceUnavailable, "price history unavailable")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to evaluate index")
		return
	}

	respondJSON(w, http.StatusOK, snap)
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
