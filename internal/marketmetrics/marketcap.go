package marketmetrics

import (
	"fmt"
	"math"
	"sort"
)

// EffectiveShares returns the shares outstanding to use for an entity.
// A missing (non-positive or non-finite) value is replaced by fallback; when
// the fallback is unusable too, a MissingSharesOutstanding error is returned.
func EffectiveShares(shares, fallback float64) (float64, error) {
	if isPositive(shares) {
		return shares, nil
	}
	if isPositive(fallback) {
		return fallback, nil
	}
	return 0, newMetricError(KindMissingSharesOutstanding, "market_cap",
		fmt.Sprintf("shares=%v fallback=%v", shares, fallback))
}

// ComputeMarketCap returns the latest market capitalization of a single series.
// ok is false when the series is empty.
func ComputeMarketCap(series PriceSeries, shares, fallback float64) (snap MarketCapSnapshot, ok bool, err error) {
	last, ok := series.Last()
	if !ok {
		return MarketCapSnapshot{}, false, nil
	}
	if !isPositive(last.Close) {
		return MarketCapSnapshot{}, false, newMetricError(KindInvalidPrice, "market_cap",
			fmt.Sprintf("latest close %v on %s", last.Close, last.Date.Format("2006-01-02")))
	}
	effective, err := EffectiveShares(shares, fallback)
	if err != nil {
		return MarketCapSnapshot{}, false, err
	}
	marketCap := last.Close * effective / CapUnit
	if !isFinite(marketCap) {
		return MarketCapSnapshot{}, false, newMetricError(KindInvalidPrice, "market_cap",
			fmt.Sprintf("result overflow: close %v x shares %v", last.Close, effective))
	}
	return MarketCapSnapshot{
		LatestPrice: last.Close,
		MarketCap:   marketCap,
		AsOf:        last.Date,
	}, true, nil
}

// ComputeMarketCaps computes the latest market capitalization of every entity
// with a non-empty series, ordered by cap descending and then by name.
// Entities that cannot be valued are left out and reported in the error slice;
// they never stop the others from being computed.
func ComputeMarketCaps(entities map[string]EntityData, fallbackShares float64) ([]MarketCapSnapshot, []error) {
	snapshots := make([]MarketCapSnapshot, 0, len(entities))
	var errs []error

	for _, name := range sortedNames(entities) {
		data := entities[name]
		snap, ok, err := ComputeMarketCap(data.Series, data.SharesOutstanding, fallbackShares)
		if err != nil {
			errs = append(errs, withEntity(err, name))
			continue
		}
		if !ok {
			continue
		}
		snap.Entity = name
		snap.Ticker = data.Ticker
		snapshots = append(snapshots, snap)
	}

	sortSnapshots(snapshots)
	return snapshots, errs
}

// RankTopN returns the n largest snapshots by market cap. The input is not modified.
func RankTopN(snapshots []MarketCapSnapshot, n int) []MarketCapSnapshot {
	if n <= 0 {
		return []MarketCapSnapshot{}
	}
	ranked := make([]MarketCapSnapshot, len(snapshots))
	copy(ranked, snapshots)
	sortSnapshots(ranked)
	if n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}

// MarketCapSeries converts a price series into a market cap series in trillions.
// Observations with an unusable price, or whose cap overflows, are skipped.
func MarketCapSeries(series PriceSeries, shares, fallback float64) ([]CapPoint, error) {
	effective, err := EffectiveShares(shares, fallback)
	if err != nil {
		return nil, err
	}
	points := make([]CapPoint, 0, len(series))
	for _, o := range series {
		if !isPositive(o.Close) {
			continue
		}
		marketCap := o.Close * effective / CapUnit
		if !isFinite(marketCap) {
			continue
		}
		points = append(points, CapPoint{Date: o.Date, MarketCap: marketCap})
	}
	return points, nil
}

func sortSnapshots(s []MarketCapSnapshot) {
	sort.SliceStable(s, func(i, j int) bool {
		if s[i].MarketCap != s[j].MarketCap {
			return s[i].MarketCap > s[j].MarketCap
		}
		return s[i].Entity < s[j].Entity
	})
}

func sortedNames(entities map[string]EntityData) []string {
	names := make([]string, 0, len(entities))
	for name := range entities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func isPositive(v float64) bool {
	return isFinite(v) && v > 0
}
