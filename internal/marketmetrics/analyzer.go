package marketmetrics

import (
	"context"
	"log/slog"
	"sort"
	"time"
)

// Analyzer runs every computation over one input mapping and logs the
// entities it had to leave out. It holds configuration only, no results.
type Analyzer struct {
	fallbackShares float64
	logger         *slog.Logger
}

// NewAnalyzer creates an analyzer. A non-positive fallback uses DefaultFallbackShares.
func NewAnalyzer(fallbackShares float64, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	if !isPositive(fallbackShares) {
		fallbackShares = DefaultFallbackShares
	}
	return &Analyzer{
		fallbackShares: fallbackShares,
		logger:         logger,
	}
}

// Analyze computes market caps, 1y and 3y returns and volatility.
// Series with invalid dates are excluded from every table.
func (a *Analyzer) Analyze(ctx context.Context, entities map[string]EntityData) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	report := &Report{}
	valid := make(map[string]EntityData, len(entities))
	for _, name := range sortedNames(entities) {
		if err := ValidateSeries(entities[name].Series); err != nil {
			report.Failures = append(report.Failures, FailureFromError(withEntity(err, name)))
			continue
		}
		valid[name] = entities[name]
	}

	var errs []error
	var e []error

	report.MarketCaps, e = ComputeMarketCaps(valid, a.fallbackShares)
	errs = append(errs, e...)
	report.Returns1Y, e = ComputeReturns(valid, Window1Y)
	errs = append(errs, e...)
	report.Returns3Y, e = ComputeReturns(valid, Window3Y)
	errs = append(errs, e...)
	report.Volatility, e = ComputeVolatilities(valid)
	errs = append(errs, e...)

	for _, err := range errs {
		report.Failures = append(report.Failures, FailureFromError(err))
	}
	sort.SliceStable(report.Failures, func(i, j int) bool {
		if report.Failures[i].Entity != report.Failures[j].Entity {
			return report.Failures[i].Entity < report.Failures[j].Entity
		}
		return report.Failures[i].Op < report.Failures[j].Op
	})

	for _, f := range report.Failures {
		a.logger.WarnContext(ctx, "entity excluded from computation",
			slog.String("entity", f.Entity),
			slog.String("op", f.Op),
			slog.String("kind", string(f.Kind)),
			slog.String("detail", f.Detail),
		)
	}

	a.logger.DebugContext(ctx, "market metrics computed",
		slog.Int("entities", len(entities)),
		slog.Int("market_caps", len(report.MarketCaps)),
		slog.Int("returns_1y", len(report.Returns1Y)),
		slog.Int("returns_3y", len(report.Returns3Y)),
		slog.Int("volatility", len(report.Volatility)),
		slog.Int("failures", len(report.Failures)),
		slog.Duration("duration", time.Since(start)),
	)
	return report, nil
}
