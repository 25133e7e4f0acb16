package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ysoda/indexpulse/internal/backtest"
	"github.com/ysoda/indexpulse/internal/history"
	"github.com/ysoda/indexpulse/pkg/config"
	"github.com/ysoda/indexpulse/pkg/logger"
)

// BacktestHandler handles backtest execution requests.
type BacktestHandler struct {
	engine   *backtest.Engine
	defaults config.BacktestConfig
	logger   *logger.Logger
}

// NewBacktestHandler creates a new backtest handler.
func NewBacktestHandler(engine *backtest.Engine, defaults config.BacktestConfig, log *logger.Logger) *BacktestHandler {
	return &BacktestHandler{
		engine:   engine,
		defaults: defaults,
		logger:   log,
	}
}

// BacktestRequest describes one simulation run. Thresholds default to
// the configured values when omitted.
type BacktestRequest struct {
	IndexKey      string   `json:"index_key"`
	StartDate     string   `json:"start_date"` // YYYY-MM-DD
	EndDate       string   `json:"end_date"`   // YYYY-MM-DD
	InitialCash   float64  `json:"initial_cash"`
	BuyThreshold  *float64 `json:"buy_threshold,omitempty"`
	SellThreshold *float64 `json:"sell_threshold,omitempty"`
	ScoreWindow   int      `json:"score_window,omitempty"`
}

// Run executes a backtest over the requested range.
// POST /api/backtest
func (h *BacktestHandler) Run(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req BacktestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cfg, err := h.toConfig(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.engine.Run(ctx, cfg)
	if err != nil {
		var ierr *backtest.InsufficientHistoryError
		if errors.As(err, &ierr) {
			respondError(w, http.StatusUnprocessableEntity, ierr.Error())
			return
		}
		if errors.Is(err, history.ErrHistoryUnavailable) {
			respondError(w, http.StatusServiceUnavailable, "price history unavailable")
			return
		}
		h.logger.WithError(err).Error("Backtest failed")
		respondError(w, http.StatusInternalServerError, "backtest failed")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (h *BacktestHandler) toConfig(req BacktestRequest) (backtest.Config, error) {
	if req.IndexKey == "" {
		req.IndexKey = "SP500"
	}

	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return backtest.Config{}, errors.New("invalid start_date, expected YYYY-MM-DD")
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		return backtest.Config{}, errors.New("invalid end_date, expected YYYY-MM-DD")
	}
	if !end.After(start) {
		return backtest.Config{}, errors.New("end_date must be after start_date")
	}
	if req.InitialCash <= 0 {
		return backtest.Config{}, errors.New("initial_cash must be positive")
	}

	cfg := backtest.Config{
		IndexKey:               req.IndexKey,
		Start:                  start,
		End:                    end,
		InitialCash:            req.InitialCash,
		BuyThreshold:           h.defaults.BuyThreshold,
		SellThreshold:          h.defaults.SellThreshold,
		ScoreWindow:            req.ScoreWindow,
		AllowSyntheticFallback: h.defaults.AllowFallback,
	}
	if req.BuyThreshold != nil {
		cfg.BuyThreshold = *req.BuyThreshold
	}
	if req.SellThreshold != nil {
		cfg.SellThreshold = *req.SellThreshold
	}
	if cfg.BuyThreshold >= cfg.SellThreshold {
		return backtest.Config{}, errors.New("buy_threshold must be below sell_threshold")
	}

	return cfg, nil
}
