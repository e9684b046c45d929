package services

import (
	"sort"
	"time"

	"capboard/internal/datasource"
	"capboard/internal/marketmetrics"
)

const (
	opMarketCap  = "market_cap"
	opVolatility = "volatility"
)

type tableHeader struct {
	ID          string                `json:"id"`
	GeneratedAt time.Time             `json:"generated_at"`
	Provenance  datasource.Provenance `json:"provenance"`
	Source      string                `json:"source"`
	Period      marketmetrics.Period  `json:"period"`
}

// CapRanking is the market capitalization table
type CapRanking struct {
	tableHeader
	MarketCaps []marketmetrics.MarketCapSnapshot `json:"market_caps"`
	Failures   []marketmetrics.EntityFailure     `json:"failures"`
}

// ReturnRanking is the trailing return table for one window
type ReturnRanking struct {
	tableHeader
	Window   string                        `json:"window"`
	Returns  []marketmetrics.ReturnRecord  `json:"returns"`
	Failures []marketmetrics.EntityFailure `json:"failures"`
}

// VolatilityRanking is the annualized volatility table
type VolatilityRanking struct {
	tableHeader
	Volatility []marketmetrics.VolatilityRecord `json:"volatility"`
	Failures   []marketmetrics.EntityFailure    `json:"failures"`
}

func headerOf(d *Dashboard) tableHeader {
	return tableHeader{
		ID:          d.ID.String(),
		GeneratedAt: d.GeneratedAt,
		Provenance:  d.Provenance,
		Source:      d.Source,
		Period:      d.Period,
	}
}

// failuresFor keeps the failures of op plus series validation failures,
// which exclude an entity from every table.
func failuresFor(all []marketmetrics.EntityFailure, op string) []marketmetrics.EntityFailure {
	out := []marketmetrics.EntityFailure{}
	for _, f := range all {
		if f.Op == op || f.Kind == marketmetrics.KindInvalidSeries {
			out = append(out, f)
		}
	}
	return out
}

func sortFailures(f []marketmetrics.EntityFailure) []marketmetrics.EntityFailure {
	sort.SliceStable(f, func(i, j int) bool {
		if f[i].Entity != f[j].Entity {
			return f[i].Entity < f[j].Entity
		}
		return f[i].Op < f[j].Op
	})
	return f
}

func nonNilFailures(f []marketmetrics.EntityFailure) []marketmetrics.EntityFailure {
	if f == nil {
		return []marketmetrics.EntityFailure{}
	}
	return f
}

func nonNilSkipped(s []datasource.SkippedEntity) []datasource.SkippedEntity {
	if s == nil {
		return []datasource.SkippedEntity{}
	}
	return s
}
