package instrument

import (
	"fmt"
	"sort"

	"github.com/ysoda/indexpulse/pkg/config"
)

// Spec describes one tracked index and its acquisition parameters.
type Spec struct {
	Key            string
	Symbol         string
	FXSymbol       string // non-empty for JPY-converted variants
	NAVBase        string // optional secondary "official" source base URL
	FundPageURL    string // optional fund NAV page for HTML scraping
	AllowSynthetic bool

	// Validation bounds
	StartPrice float64 // reference level; last close must stay within 0.4x..5x
	MinPoints  int     // minimum points for a series spanning >= 3 years

	// Synthetic fallback drift
	AnnualDrift float64
}

// JPYConverted reports whether the instrument is quoted through an FX
// multiplication.
func (s Spec) JPYConverted() bool {
	return s.FXSymbol != ""
}

// Registry resolves instrument keys to their specs.
type Registry struct {
	specs map[string]Spec
}

// baseline holds the fixed per-index parameters; symbols, NAV endpoints
// and fallback switches come from config.
var baseline = map[string]struct {
	startPrice  float64
	minPoints   int
	annualDrift float64
	jpy         bool
}{
	"SP500":      {4000.0, 450, 0.07, false},
	"TOPIX":      {1500.0, 400, 0.04, false},
	"NIKKEI":     {15000.0, 400, 0.05, false},
	"NIFTY50":    {4000.0, 350, 0.08, false},
	"ORUKAN":     {15000.0, 300, 0.06, false},
	"orukan_jpy": {15000.0, 300, 0.06, true},
	"sp500_jpy":  {4000.0, 450, 0.07, true},
}

// NewRegistry builds the instrument table from config.
func NewRegistry(market config.MarketConfig) *Registry {
	specs := make(map[string]Spec, len(baseline))

	for key, b := range baseline {
		spec := Spec{
			Key:            key,
			Symbol:         market.Symbols[key],
			NAVBase:        market.NAVBases[key],
			FundPageURL:    market.FundPages[key],
			AllowSynthetic: true,
			StartPrice:     b.startPrice,
			MinPoints:      b.minPoints,
			AnnualDrift:    b.annualDrift,
		}
		if b.jpy {
			spec.FXSymbol = market.FXSymbol
		}
		if allow, ok := market.AllowSynthetic[key]; ok {
			spec.AllowSynthetic = allow
		}
		specs[key] = spec
	}

	return &Registry{specs: specs}
}

// Lookup returns the spec for a key.
func (r *Registry) Lookup(key string) (Spec, error) {
	spec, ok := r.specs[key]
	if !ok {
		return Spec{}, fmt.Errorf("unknown instrument key: %s", key)
	}
	return spec, nil
}

// Keys returns all registered instrument keys in stable order.
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.specs))
	for k := range r.specs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
