// Package marketmetrics computes market capitalization rankings, trailing
// returns and annualized volatility from closing price series.
//
// Every function is a pure computation over caller-supplied data: nothing is
// fetched, cached or retained between calls, so concurrent use on independent
// inputs needs no coordination.
//
// # Computations
//
//   - Market cap: latest close × shares outstanding / 1e12, reported in trillions.
//     Entities with an empty series are left out. Results are ordered by cap
//     descending with ties broken by entity name.
//   - 1y return: (price[-1] / price[-252] - 1) × 100, needs 252 observations.
//   - 3y return: (price[-1] / price[0] - 1) × 100, needs 756 observations.
//     The 3y figure is measured from the first observation of the series
//     rather than from a fixed offset.
//   - Volatility: sample standard deviation of daily returns × sqrt(252) × 100.
//
// # Unavailable results
//
// A series that is too short for a computation yields ok == false, not an
// error and not zero. Callers omit such entities from their tables.
//
// # Errors
//
// Per-entity problems are returned as *MetricError values carrying an
// ErrorKind. They match the package sentinels with errors.Is:
//
//	_, _, err := marketmetrics.ComputeReturn(series, marketmetrics.Window1Y)
//	if errors.Is(err, marketmetrics.ErrInvalidPrice) {
//	    // exclude this entity from the return ranking
//	}
//
// The batch functions (ComputeMarketCaps, ComputeReturns, ComputeVolatilities)
// keep going when one entity fails and return the failures alongside the
// results.
//
// # Usage
//
//	analyzer := marketmetrics.NewAnalyzer(1, slog.Default())
//	report, err := analyzer.Analyze(ctx, entities)
//	if err != nil {
//	    return err
//	}
//	top := marketmetrics.RankTopN(report.MarketCaps, 10)
package marketmetrics
