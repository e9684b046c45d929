package datasource

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"capboard/internal/marketmetrics"
)

const (
	defaultSyntheticPeriods = 13

	// quarterly change factor bounds
	minChangeFactor = 0.90
	maxChangeFactor = 1.15

	defaultBaseCap = 1.0
)

var defaultSyntheticStart = time.Date(2022, 3, 31, 0, 0, 0, 0, time.UTC)

// DefaultBaseCaps are the starting market caps, in trillions, of the demo dataset
func DefaultBaseCaps() map[string]float64 {
	return map[string]float64{
		"Microsoft":          2.0,
		"Nvidia":             0.7,
		"Apple":              2.5,
		"Amazon":             1.5,
		"Alphabet":           1.8,
		"Saudi Aramco":       2.2,
		"Meta Platforms":     0.6,
		"Tesla":              0.8,
		"Berkshire Hathaway": 0.7,
		"Broadcom":           0.5,
	}
}

// SyntheticSource generates a quarterly random-walk market cap history.
// The output is labeled synthetic and is reproducible for a given seed.
type SyntheticSource struct {
	seed     int64
	start    time.Time
	periods  int
	baseCaps map[string]float64
	logger   *slog.Logger
	now      func() time.Time
}

// SyntheticOption configures a SyntheticSource
type SyntheticOption func(*SyntheticSource)

// WithStart sets the first quarter end. Only its year and month are used.
func WithStart(start time.Time) SyntheticOption {
	return func(s *SyntheticSource) {
		if !start.IsZero() {
			s.start = start
		}
	}
}

// WithPeriods sets the number of quarterly observations
func WithPeriods(n int) SyntheticOption {
	return func(s *SyntheticSource) {
		if n > 0 {
			s.periods = n
		}
	}
}

// WithBaseCaps replaces the starting caps
func WithBaseCaps(caps map[string]float64) SyntheticOption {
	return func(s *SyntheticSource) {
		s.baseCaps = caps
	}
}

// NewSyntheticSource creates a synthetic source
func NewSyntheticSource(seed int64, logger *slog.Logger, opts ...SyntheticOption) *SyntheticSource {
	if logger == nil {
		logger = slog.Default()
	}
	s := &SyntheticSource{
		seed:     seed,
		start:    defaultSyntheticStart,
		periods:  defaultSyntheticPeriods,
		baseCaps: DefaultBaseCaps(),
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the source name
func (s *SyntheticSource) Name() string {
	return "synthetic"
}

// Provenance returns ProvenanceSynthetic
func (s *SyntheticSource) Provenance() Provenance {
	return ProvenanceSynthetic
}

// Load generates one series per entity. Each quarter the running cap is
// multiplied by a factor drawn from [0.90, 1.15) and the reported cap is
// rounded to two decimals. Closes are expressed so that close × shares / 1e12
// equals the reported cap.
func (s *SyntheticSource) Load(ctx context.Context, universe []marketmetrics.EntityMeta) (*Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(s.seed))
	dates := QuarterEnds(s.start, s.periods)

	ds := &Dataset{
		Source:     s.Name(),
		Provenance: ProvenanceSynthetic,
		LoadedAt:   s.now(),
		Entities:   make([]Entity, 0, len(universe)),
	}
	for _, meta := range universe {
		base, ok := s.baseCaps[meta.Name]
		if !ok || base <= 0 {
			base = defaultBaseCap
		}
		shares := ResolveShares(meta, marketmetrics.DefaultFallbackShares)

		caps := randomWalk(rng, base, len(dates))
		series := make(marketmetrics.PriceSeries, len(dates))
		for i, d := range dates {
			series[i] = marketmetrics.Observation{Date: d, Close: capToPrice(caps[i], shares)}
		}
		ds.Entities = append(ds.Entities, Entity{Meta: meta, Series: series})
	}

	s.logger.InfoContext(ctx, "synthetic dataset generated",
		slog.Int64("seed", s.seed),
		slog.Int("entities", len(ds.Entities)),
		slog.Int("periods", len(dates)),
	)
	return ds, nil
}

// randomWalk returns n caps starting at base. The walk itself runs unrounded;
// only the reported values after the first are rounded to two decimals.
func randomWalk(rng *rand.Rand, base float64, n int) []decimal.Decimal {
	caps := make([]decimal.Decimal, 0, n)
	if n == 0 {
		return caps
	}
	current := base
	caps = append(caps, decimal.NewFromFloat(current))
	for i := 1; i < n; i++ {
		current *= minChangeFactor + rng.Float64()*(maxChangeFactor-minChangeFactor)
		caps = append(caps, decimal.NewFromFloat(current).Round(2))
	}
	return caps
}

func capToPrice(capTrillions decimal.Decimal, shares float64) float64 {
	price := capTrillions.Mul(decimal.NewFromFloat(marketmetrics.CapUnit)).Div(decimal.NewFromFloat(shares))
	f, _ := price.Float64()
	return f
}

// QuarterEnds returns n consecutive quarter-end dates starting at the month end of start
func QuarterEnds(start time.Time, n int) []time.Time {
	if n <= 0 {
		return nil
	}
	dates := make([]time.Time, n)
	for i := range dates {
		// day 0 of the following month is the last day of the target month
		dates[i] = time.Date(start.Year(), start.Month()+time.Month(3*i)+1, 0, 0, 0, 0, 0, time.UTC)
	}
	return dates
}
