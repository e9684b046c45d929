package marketmetrics

import (
	"fmt"
	"strings"
	"time"
)

// Period selects how much history is kept before computing
type Period string

const (
	Period1Y  Period = "1y"
	Period2Y  Period = "2y"
	Period3Y  Period = "3y"
	PeriodAll Period = "all"
)

// ParsePeriod converts a period string. An empty string means PeriodAll.
func ParsePeriod(s string) (Period, error) {
	switch p := Period(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PeriodAll, nil
	case Period1Y, Period2Y, Period3Y, PeriodAll:
		return p, nil
	default:
		return "", fmt.Errorf("unsupported period %q", s)
	}
}

// Days returns the calendar days covered by the period, 0 for PeriodAll
func (p Period) Days() int {
	switch p {
	case Period1Y:
		return 365
	case Period2Y:
		return 2 * 365
	case Period3Y:
		return 3 * 365
	default:
		return 0
	}
}

// TrimToPeriod keeps the observations dated from asOf minus the period up to
// asOf. A zero asOf means the date of the last observation. The input is not
// modified.
func TrimToPeriod(series PriceSeries, asOf time.Time, p Period) PriceSeries {
	days := p.Days()
	if days == 0 || len(series) == 0 {
		out := make(PriceSeries, len(series))
		copy(out, series)
		return out
	}
	if asOf.IsZero() {
		asOf = series[len(series)-1].Date
	}
	start := asOf.AddDate(0, 0, -days)

	out := make(PriceSeries, 0, len(series))
	for _, o := range series {
		if !o.Date.Before(start) && !o.Date.After(asOf) {
			out = append(out, o)
		}
	}
	return out
}

// TrimEntities applies TrimToPeriod to every entity with a common asOf date.
// A zero asOf uses the latest observation date across all entities.
func TrimEntities(entities map[string]EntityData, asOf time.Time, p Period) map[string]EntityData {
	if asOf.IsZero() {
		asOf = LatestDate(entities)
	}
	out := make(map[string]EntityData, len(entities))
	for name, data := range entities {
		data.Series = TrimToPeriod(data.Series, asOf, p)
		out[name] = data
	}
	return out
}

// LatestDate returns the most recent observation date across all entities
func LatestDate(entities map[string]EntityData) time.Time {
	var latest time.Time
	for _, data := range entities {
		if last, ok := data.Series.Last(); ok && last.Date.After(latest) {
			latest = last.Date
		}
	}
	return latest
}
