package exporter

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Fixed is a number shown with a fixed count of decimals.
// Invalid marks a NaN or infinite input, which renders as an empty cell.
type Fixed struct {
	Value   decimal.Decimal
	Places  int32
	Invalid bool
}

// fixed rounds f half away from zero to places decimals
func fixed(f float64, places int32) Fixed {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Fixed{Places: places, Invalid: true}
	}
	return Fixed{Value: decimal.NewFromFloat(f).Round(places), Places: places}
}

// String renders the value with exactly Places decimals, so 13.4 becomes 13.40
func (f Fixed) String() string {
	if f.Invalid {
		return ""
	}
	return f.Value.StringFixed(f.Places)
}

// Float64 returns the rounded value
func (f Fixed) Float64() float64 {
	return f.Value.InexactFloat64()
}

// formatCap formats a market cap in trillions with 2 decimals
func formatCap(v float64) Fixed {
	return fixed(v, 2)
}

// formatPrice formats a closing price with 2 decimals
func formatPrice(v float64) Fixed {
	return fixed(v, 2)
}

// formatPercent formats a percentage with 1 decimal
func formatPercent(v float64) Fixed {
	return fixed(v, 1)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
