package marketmetrics

import (
	"fmt"
	"sort"
)

// ComputeReturn computes the trailing percentage return of a series.
//
// The 1y return compares the last close with the close 252 observations back
// (price[-252]); the 3y return compares it with the first close of the series.
// ok is false when the series is shorter than the window requires. A
// non-positive base price, or a ratio too large to represent, yields an
// InvalidPrice error.
func ComputeReturn(series PriceSeries, window Window) (pct float64, ok bool, err error) {
	if !window.IsValid() {
		return 0, false, fmt.Errorf("unsupported return window %d", int(window))
	}
	n := len(series)
	if n < window.MinObservations() {
		return 0, false, nil
	}

	var base Observation
	switch window {
	case Window1Y:
		base = series[n-TradingDaysPerYear]
	case Window3Y:
		base = series[0]
	}
	last := series[n-1]

	op := "return_" + window.String()
	if !isPositive(base.Close) {
		return 0, false, newMetricError(KindInvalidPrice, op,
			fmt.Sprintf("base close %v on %s", base.Close, base.Date.Format("2006-01-02")))
	}
	if !isFinite(last.Close) || last.Close < 0 {
		return 0, false, newMetricError(KindInvalidPrice, op,
			fmt.Sprintf("latest close %v on %s", last.Close, last.Date.Format("2006-01-02")))
	}

	pct = (last.Close/base.Close - 1) * 100
	if !isFinite(pct) {
		return 0, false, newMetricError(KindInvalidPrice, op,
			fmt.Sprintf("result overflow: close %v over base %v", last.Close, base.Close))
	}
	return pct, true, nil
}

// ComputeReturns computes the window return of every entity. Entities with too
// little history are omitted; entities with invalid prices are omitted and
// reported. Records are ordered by return descending and then by name.
func ComputeReturns(entities map[string]EntityData, window Window) ([]ReturnRecord, []error) {
	records := make([]ReturnRecord, 0, len(entities))
	var errs []error

	for _, name := range sortedNames(entities) {
		pct, ok, err := ComputeReturn(entities[name].Series, window)
		if err != nil {
			errs = append(errs, withEntity(err, name))
			continue
		}
		if !ok {
			continue
		}
		records = append(records, ReturnRecord{Entity: name, Window: window, ReturnPct: pct})
	}

	sortReturns(records)
	return records, errs
}

// RankReturns returns the n highest returns. The input is not modified.
func RankReturns(records []ReturnRecord, n int) []ReturnRecord {
	if n <= 0 {
		return []ReturnRecord{}
	}
	ranked := make([]ReturnRecord, len(records))
	copy(ranked, records)
	sortReturns(ranked)
	if n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}

func sortReturns(r []ReturnRecord) {
	sort.SliceStable(r, func(i, j int) bool {
		if r[i].ReturnPct != r[j].ReturnPct {
			return r[i].ReturnPct > r[j].ReturnPct
		}
		return r[i].Entity < r[j].Entity
	})
}
