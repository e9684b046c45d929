package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"capboard/internal/config"
	"capboard/internal/datasource"
	"capboard/internal/infrastructure"
	"capboard/internal/marketmetrics"
)

// BuildOptions selects table sizes, the period and optionally a subset of the
// universe for one dashboard build. Zero values fall back to the configured
// defaults; an empty Entities covers the whole universe.
type BuildOptions struct {
	Top        int
	ReturnsTop int
	Period     marketmetrics.Period
	AsOf       time.Time
	Entities   []string

	selection []marketmetrics.EntityMeta
}

// Dashboard is every table of one build, labeled with where its prices came from
type Dashboard struct {
	ID          uuid.UUID                         `json:"id"`
	GeneratedAt time.Time                         `json:"generated_at"`
	Provenance  datasource.Provenance             `json:"provenance"`
	Source      string                            `json:"source"`
	Period      marketmetrics.Period              `json:"period"`
	Entities    int                               `json:"entities"`
	Selected    []string                          `json:"selected,omitempty"`
	MarketCaps  []marketmetrics.MarketCapSnapshot `json:"market_caps"`
	Returns1Y   []marketmetrics.ReturnRecord      `json:"returns_1y"`
	Returns3Y   []marketmetrics.ReturnRecord      `json:"returns_3y"`
	Volatility  []marketmetrics.VolatilityRecord  `json:"volatility"`
	Failures    []marketmetrics.EntityFailure     `json:"failures"`
	Skipped     []datasource.SkippedEntity        `json:"skipped"`
}

// EntityDetail is the per-entity view used for charting one company
type EntityDetail struct {
	Entity            string                           `json:"entity"`
	Ticker            string                           `json:"ticker"`
	SharesOutstanding float64                          `json:"shares_outstanding"`
	Provenance        datasource.Provenance            `json:"provenance"`
	Source            string                           `json:"source"`
	Period            marketmetrics.Period             `json:"period"`
	Latest            *marketmetrics.MarketCapSnapshot `json:"latest,omitempty"`
	CapSeries         []marketmetrics.CapPoint         `json:"cap_series"`
	Return1Y          *float64                         `json:"return_1y_pct"`
	Return3Y          *float64                         `json:"return_3y_pct"`
	Volatility        *float64                         `json:"volatility_pct"`
	Failures          []marketmetrics.EntityFailure    `json:"failures"`
}

// DashboardService loads prices from one source and derives the dashboard tables
type DashboardService struct {
	source   datasource.Source
	universe []marketmetrics.EntityMeta
	cfg      config.MetricsConfig
	analyzer *marketmetrics.Analyzer
	tracer   trace.Tracer
	metrics  *infrastructure.AnalyticsMetrics
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a DashboardService
type Option func(*DashboardService)

// WithTracer sets the tracer used for build spans
func WithTracer(tracer trace.Tracer) Option {
	return func(s *DashboardService) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// WithMetrics sets the instruments updated after each build
func WithMetrics(metrics *infrastructure.AnalyticsMetrics) Option {
	return func(s *DashboardService) {
		s.metrics = metrics
	}
}

// WithClock overrides the clock used for GeneratedAt
func WithClock(now func() time.Time) Option {
	return func(s *DashboardService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewDashboardService creates a dashboard service over source and universe
func NewDashboardService(source datasource.Source, universe []marketmetrics.EntityMeta, cfg config.MetricsConfig, logger *slog.Logger, opts ...Option) (*DashboardService, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if source == nil {
		return nil, fmt.Errorf("dashboard service: %w", datasource.ErrUnknownSource)
	}
	if len(universe) == 0 {
		return nil, ErrEmptyUniverse
	}
	if cfg.TopN <= 0 {
		cfg.TopN = config.DefaultTopN
	}
	if cfg.ReturnsTopN <= 0 {
		cfg.ReturnsTopN = config.DefaultReturnsTopN
	}

	logger = logger.With(slog.String("component", "dashboard_service"))
	s := &DashboardService{
		source:   source,
		universe: append([]marketmetrics.EntityMeta(nil), universe...),
		cfg:      cfg,
		analyzer: marketmetrics.NewAnalyzer(cfg.FallbackShares, logger),
		tracer:   otel.Tracer("capboard/services"),
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	logger.Info("DashboardService initialized",
		slog.String("source", source.Name()),
		slog.String("provenance", string(source.Provenance())),
		slog.Int("universe", len(universe)),
	)
	return s, nil
}

// Universe returns the configured entities
func (s *DashboardService) Universe() []marketmetrics.EntityMeta {
	return append([]marketmetrics.EntityMeta(nil), s.universe...)
}

// SourceName returns the name of the underlying price source
func (s *DashboardService) SourceName() string {
	return s.source.Name()
}

// Provenance returns the provenance of every dataset this service builds from
func (s *DashboardService) Provenance() datasource.Provenance {
	return s.source.Provenance()
}

// Build loads the dataset and derives every dashboard table.
// Market caps and returns use the full history; the period bounds volatility.
func (s *DashboardService) Build(ctx context.Context, opts BuildOptions) (*Dashboard, error) {
	start := time.Now()
	opts, err := s.normalize(opts)
	if err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "dashboard.build",
		trace.WithAttributes(
			attribute.String("source", s.source.Name()),
			attribute.String("period", string(opts.Period)),
			attribute.Int("top", opts.Top),
			attribute.Int("selected", len(opts.selection)),
		),
	)
	defer span.End()

	dash, err := s.build(ctx, opts)
	s.metrics.RecordDashboardBuild(ctx, string(s.source.Provenance()), time.Since(start), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.ErrorContext(ctx, "dashboard build failed", slog.String("error", err.Error()))
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("entities", dash.Entities),
		attribute.Int("failures", len(dash.Failures)),
	)
	s.logger.InfoContext(ctx, "dashboard built",
		slog.String("id", dash.ID.String()),
		slog.String("provenance", string(dash.Provenance)),
		slog.Int("entities", dash.Entities),
		slog.Int("skipped", len(dash.Skipped)),
		slog.Int("failures", len(dash.Failures)),
		slog.Duration("duration", time.Since(start)),
	)
	return dash, nil
}

func (s *DashboardService) build(ctx context.Context, opts BuildOptions) (*Dashboard, error) {
	dataset, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	var selected []string
	if len(opts.selection) > 0 {
		dataset = dataset.Restrict(opts.selection)
		if len(dataset.Entities) == 0 {
			return nil, ErrNoEntities
		}
		for _, e := range opts.selection {
			selected = append(selected, e.Name)
		}
	}

	entities := dataset.EntityData(s.cfg.FallbackShares)
	report, err := s.analyzer.Analyze(ctx, entities)
	if err != nil {
		return nil, err
	}

	if opts.Period != marketmetrics.PeriodAll {
		s.applyPeriod(ctx, report, entities, opts)
	}

	for _, f := range report.Failures {
		s.metrics.RecordExclusion(ctx, f.Op, string(f.Kind))
	}

	return &Dashboard{
		ID:          uuid.New(),
		GeneratedAt: s.now().UTC(),
		Provenance:  dataset.Provenance,
		Source:      dataset.Source,
		Period:      opts.Period,
		Entities:    len(dataset.Entities),
		Selected:    selected,
		MarketCaps:  marketmetrics.RankTopN(report.MarketCaps, opts.Top),
		Returns1Y:   marketmetrics.RankReturns(report.Returns1Y, opts.ReturnsTop),
		Returns3Y:   marketmetrics.RankReturns(report.Returns3Y, opts.ReturnsTop),
		Volatility:  report.Volatility,
		Failures:    nonNilFailures(report.Failures),
		Skipped:     nonNilSkipped(dataset.Skipped),
	}, nil
}

// applyPeriod recomputes volatility over the trimmed series and swaps the
// matching failures. Entities already rejected by validation stay out.
func (s *DashboardService) applyPeriod(ctx context.Context, report *marketmetrics.Report, entities map[string]marketmetrics.EntityData, opts BuildOptions) {
	invalid := make(map[string]bool)
	failures := make([]marketmetrics.EntityFailure, 0, len(report.Failures))
	for _, f := range report.Failures {
		if f.Kind == marketmetrics.KindInvalidSeries {
			invalid[f.Entity] = true
		}
		if f.Op != opVolatility {
			failures = append(failures, f)
		}
	}

	valid := make(map[string]marketmetrics.EntityData, len(entities))
	for name, data := range entities {
		if !invalid[name] {
			valid[name] = data
		}
	}

	trimmed := marketmetrics.TrimEntities(valid, opts.AsOf, opts.Period)
	vols, errs := marketmetrics.ComputeVolatilities(trimmed)
	for _, err := range errs {
		f := marketmetrics.FailureFromError(err)
		s.logger.WarnContext(ctx, "entity excluded from period volatility",
			slog.String("entity", f.Entity),
			slog.String("kind", string(f.Kind)),
		)
		failures = append(failures, f)
	}

	report.Volatility = vols
	report.Failures = sortFailures(failures)
}

// MarketCaps returns the ranked market caps table of a fresh build
func (s *DashboardService) MarketCaps(ctx context.Context, opts BuildOptions) (*CapRanking, error) {
	dash, err := s.Build(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &CapRanking{
		tableHeader: headerOf(dash),
		MarketCaps:  dash.MarketCaps,
		Failures:    failuresFor(dash.Failures, opMarketCap),
	}, nil
}

// Returns returns the ranked return table for one window
func (s *DashboardService) Returns(ctx context.Context, window marketmetrics.Window, opts BuildOptions) (*ReturnRanking, error) {
	if !window.IsValid() {
		return nil, fmt.Errorf("unsupported return window %d", int(window))
	}
	dash, err := s.Build(ctx, opts)
	if err != nil {
		return nil, err
	}

	records := dash.Returns1Y
	if window == marketmetrics.Window3Y {
		records = dash.Returns3Y
	}
	return &ReturnRanking{
		tableHeader: headerOf(dash),
		Window:      window.String(),
		Returns:     records,
		Failures:    failuresFor(dash.Failures, "return_"+window.String()),
	}, nil
}

// Volatility returns the volatility table ordered from least to most volatile
func (s *DashboardService) Volatility(ctx context.Context, opts BuildOptions) (*VolatilityRanking, error) {
	dash, err := s.Build(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &VolatilityRanking{
		tableHeader: headerOf(dash),
		Volatility:  dash.Volatility,
		Failures:    failuresFor(dash.Failures, opVolatility),
	}, nil
}

// Entity returns the market-cap series and metrics of one entity, looked up
// by name or ticker.
func (s *DashboardService) Entity(ctx context.Context, key string, period marketmetrics.Period) (*EntityDetail, error) {
	if period == "" {
		period = marketmetrics.PeriodAll
	}
	ctx, span := s.tracer.Start(ctx, "dashboard.entity",
		trace.WithAttributes(attribute.String("entity", key), attribute.String("period", string(period))),
	)
	defer span.End()

	dataset, err := s.load(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	entity, ok := dataset.Find(key)
	if !ok {
		span.SetStatus(codes.Error, ErrEntityNotFound.Error())
		return nil, fmt.Errorf("%w: %s", ErrEntityNotFound, key)
	}
	name := entity.Meta.Name

	if err := marketmetrics.ValidateSeries(entity.Series); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("entity %s: %w", name, err)
	}

	shares := datasource.ResolveShares(entity.Meta, s.cfg.FallbackShares)
	detail := &EntityDetail{
		Entity:            name,
		Ticker:            entity.Meta.Ticker,
		SharesOutstanding: shares,
		Provenance:        dataset.Provenance,
		Source:            dataset.Source,
		Period:            period,
		Failures:          []marketmetrics.EntityFailure{},
	}
	fail := func(err error) {
		f := marketmetrics.FailureFromError(err)
		f.Entity = name
		detail.Failures = append(detail.Failures, f)
	}

	if snap, ok, err := marketmetrics.ComputeMarketCap(entity.Series, shares, s.cfg.FallbackShares); err != nil {
		fail(err)
	} else if ok {
		snap.Entity = name
		snap.Ticker = entity.Meta.Ticker
		detail.Latest = &snap
	}

	for _, w := range []marketmetrics.Window{marketmetrics.Window1Y, marketmetrics.Window3Y} {
		pct, ok, err := marketmetrics.ComputeReturn(entity.Series, w)
		switch {
		case err != nil:
			fail(err)
		case ok && w == marketmetrics.Window1Y:
			detail.Return1Y = &pct
		case ok:
			detail.Return3Y = &pct
		}
	}

	trimmed := marketmetrics.TrimToPeriod(entity.Series, time.Time{}, period)
	if detail.CapSeries, err = marketmetrics.MarketCapSeries(trimmed, shares, s.cfg.FallbackShares); err != nil {
		fail(err)
		detail.CapSeries = []marketmetrics.CapPoint{}
	}
	if pct, ok, err := marketmetrics.ComputeVolatility(trimmed); err != nil {
		fail(err)
	} else if ok {
		detail.Volatility = &pct
	}

	return detail, nil
}

func (s *DashboardService) load(ctx context.Context) (*datasource.Dataset, error) {
	dataset, err := s.source.Load(ctx, s.universe)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", s.source.Name(), err)
	}
	s.metrics.RecordEntities(ctx, string(dataset.Provenance), len(dataset.Entities), len(dataset.Skipped))
	if len(dataset.Entities) == 0 {
		return nil, ErrNoEntities
	}
	return dataset, nil
}

func (s *DashboardService) normalize(opts BuildOptions) (BuildOptions, error) {
	if opts.Top <= 0 {
		opts.Top = s.cfg.TopN
	}
	if opts.ReturnsTop <= 0 {
		opts.ReturnsTop = s.cfg.ReturnsTopN
	}
	if opts.Period == "" {
		opts.Period = marketmetrics.Period(s.cfg.DefaultPeriod)
	}
	period, err := marketmetrics.ParsePeriod(string(opts.Period))
	if err != nil {
		return opts, err
	}
	opts.Period = period

	if len(opts.Entities) > 0 {
		selection, unknown := datasource.SelectUniverse(s.universe, opts.Entities)
		if len(unknown) > 0 {
			return opts, &UnknownEntitiesError{Keys: unknown}
		}
		opts.selection = selection
	}
	return opts, nil
}

// CheckDataset loads the dataset once and reports how many entities are usable
func (s *DashboardService) CheckDataset(ctx context.Context) (loaded, skipped int, err error) {
	dataset, err := s.source.Load(ctx, s.universe)
	if err != nil {
		return 0, 0, err
	}
	return len(dataset.Entities), len(dataset.Skipped), nil
}
