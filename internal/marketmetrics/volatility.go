package marketmetrics

import (
	"fmt"
	"math"
	"sort"

	"github.com/montanaflynn/stats"
)

// DailyReturns returns price[i]/price[i-1] - 1 for each consecutive pair.
func DailyReturns(series PriceSeries) ([]float64, error) {
	if len(series) < 2 {
		return nil, nil
	}
	returns := make([]float64, 0, len(series)-1)
	for i := 1; i < len(series); i++ {
		prev, cur := series[i-1], series[i]
		if !isPositive(prev.Close) {
			return nil, newMetricError(KindInvalidPrice, "volatility",
				fmt.Sprintf("close %v on %s", prev.Close, prev.Date.Format("2006-01-02")))
		}
		if !isFinite(cur.Close) || cur.Close < 0 {
			return nil, newMetricError(KindInvalidPrice, "volatility",
				fmt.Sprintf("close %v on %s", cur.Close, cur.Date.Format("2006-01-02")))
		}
		r := cur.Close/prev.Close - 1
		if !isFinite(r) {
			return nil, newMetricError(KindInvalidPrice, "volatility",
				fmt.Sprintf("result overflow: close %v after %v on %s", cur.Close, prev.Close, cur.Date.Format("2006-01-02")))
		}
		returns = append(returns, r)
	}
	return returns, nil
}

// ComputeVolatility computes the annualized volatility of a series as the
// sample standard deviation of daily returns scaled by sqrt(252), in percent.
//
// Volatility is defined for series of two or more observations, but the
// sample standard deviation needs at least two daily returns: a series of
// exactly two observations has one return and reports ok == false, as does
// anything shorter. Three observations is the effective minimum.
func ComputeVolatility(series PriceSeries) (pct float64, ok bool, err error) {
	returns, err := DailyReturns(series)
	if err != nil {
		return 0, false, err
	}
	if len(returns) < 2 {
		return 0, false, nil
	}
	sd, err := stats.StandardDeviationSample(stats.Float64Data(returns))
	if err != nil {
		return 0, false, newMetricError(KindInsufficientData, "volatility", err.Error())
	}
	pct = sd * math.Sqrt(TradingDaysPerYear) * 100
	if !isFinite(pct) {
		return 0, false, newMetricError(KindInvalidPrice, "volatility", "result overflow")
	}
	return pct, true, nil
}

// ComputeVolatilities computes the volatility of every entity, ordered from the
// least to the most volatile and then by name. Failures are isolated per entity.
func ComputeVolatilities(entities map[string]EntityData) ([]VolatilityRecord, []error) {
	records := make([]VolatilityRecord, 0, len(entities))
	var errs []error

	for _, name := range sortedNames(entities) {
		pct, ok, err := ComputeVolatility(entities[name].Series)
		if err != nil {
			errs = append(errs, withEntity(err, name))
			continue
		}
		if !ok {
			continue
		}
		records = append(records, VolatilityRecord{Entity: name, VolatilityPct: pct})
	}

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].VolatilityPct != records[j].VolatilityPct {
			return records[i].VolatilityPct < records[j].VolatilityPct
		}
		return records[i].Entity < records[j].Entity
	})
	return records, errs
}
