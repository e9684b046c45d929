package marketmetrics

import (
	"fmt"
	"strings"
	"time"
)

const (
	// TradingDaysPerYear is the annualization factor used for returns and volatility
	TradingDaysPerYear = 252

	// CapUnit converts a raw market capitalization into trillions
	CapUnit = 1e12

	// DefaultFallbackShares is used when an entity has no usable shares outstanding
	DefaultFallbackShares = 1.0
)

// Window represents a trailing return lookback
type Window int

const (
	// Window1Y is the trailing one-year window (252 observations)
	Window1Y Window = 1
	// Window3Y is the trailing three-year window (756 observations)
	Window3Y Window = 3
)

// String returns the string representation of the window
func (w Window) String() string {
	switch w {
	case Window1Y:
		return "1y"
	case Window3Y:
		return "3y"
	default:
		return "unknown"
	}
}

// MinObservations returns the number of observations a series needs
// before a return over this window is computable.
func (w Window) MinObservations() int {
	return int(w) * TradingDaysPerYear
}

// IsValid reports whether w is a supported window
func (w Window) IsValid() bool {
	return w == Window1Y || w == Window3Y
}

// ParseWindow converts "1y" or "3y" into a Window
func ParseWindow(s string) (Window, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1y":
		return Window1Y, nil
	case "3y":
		return Window3Y, nil
	default:
		return 0, fmt.Errorf("unsupported return window %q", s)
	}
}

// Observation is one closing price on one date
type Observation struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// PriceSeries is an ordered sequence of observations for one entity.
// Dates are strictly increasing; gaps for non-trading days are allowed.
type PriceSeries []Observation

// Last returns the most recent observation
func (s PriceSeries) Last() (Observation, bool) {
	if len(s) == 0 {
		return Observation{}, false
	}
	return s[len(s)-1], true
}

// Closes returns the closing prices in order
func (s PriceSeries) Closes() []float64 {
	out := make([]float64, len(s))
	for i, o := range s {
		out[i] = o.Close
	}
	return out
}

// EntityMeta describes one entity of the analysed universe
type EntityMeta struct {
	Name              string  `json:"name" yaml:"name"`
	Ticker            string  `json:"ticker" yaml:"ticker"`
	SharesOutstanding float64 `json:"shares_outstanding" yaml:"shares_outstanding"`
}

// EntityData is the per-entity input to the computations
type EntityData struct {
	Ticker            string
	Series            PriceSeries
	SharesOutstanding float64
}

// MarketCapSnapshot is the latest market capitalization of one entity
type MarketCapSnapshot struct {
	Entity      string    `json:"entity"`
	Ticker      string    `json:"ticker,omitempty"`
	LatestPrice float64   `json:"latest_price"`
	MarketCap   float64   `json:"market_cap"` // trillions
	AsOf        time.Time `json:"as_of"`
}

// ReturnRecord is a trailing percentage return over a window
type ReturnRecord struct {
	Entity    string  `json:"entity"`
	Window    Window  `json:"-"`
	ReturnPct float64 `json:"return_pct"`
}

// VolatilityRecord is an annualized volatility percentage
type VolatilityRecord struct {
	Entity        string  `json:"entity"`
	VolatilityPct float64 `json:"volatility_pct"`
}

// CapPoint is the market capitalization at one observation date
type CapPoint struct {
	Date      time.Time `json:"date"`
	MarketCap float64   `json:"market_cap"`
}

// EntityFailure records why an entity was left out of one computation
type EntityFailure struct {
	Entity string    `json:"entity"`
	Op     string    `json:"op"`
	Kind   ErrorKind `json:"kind"`
	Detail string    `json:"detail"`
}

// Report bundles every derived table for one input mapping
type Report struct {
	MarketCaps []MarketCapSnapshot `json:"market_caps"`
	Returns1Y  []ReturnRecord      `json:"returns_1y"`
	Returns3Y  []ReturnRecord      `json:"returns_3y"`
	Volatility []VolatilityRecord  `json:"volatility"`
	Failures   []EntityFailure     `json:"failures,omitempty"`
}
