package marketdata

import (
	"context"
	"errors"
	"time"

	"github.com/ysoda/indexpulse/internal/contracts"
)

// Quote is a single live price with its origin tag.
type Quote struct {
	Price  float64 `json:"price"`
	Source string  `json:"source"`
}

// Provider supplies daily close history and live quotes for a symbol.
// Implementations must tolerate unavailability; the acquisition layer
// treats any error as a fetch failure subject to retry and fallback.
type Provider interface {
	GetHistory(ctx context.Context, symbol string, start, end time.Time) (contracts.Series, error)
	GetCurrentPrice(ctx context.Context, symbol string) (Quote, error)
}

// ErrEmptyHistory is returned when a provider answers with no usable points.
var ErrEmptyHistory = errors.New("empty history")
