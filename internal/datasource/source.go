package datasource

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"capboard/internal/config"
	"capboard/internal/marketmetrics"
)

// Provenance labels where the prices of a dataset came from
type Provenance string

const (
	ProvenanceFixture   Provenance = "fixture"
	ProvenanceSynthetic Provenance = "synthetic"
)

var (
	ErrUnknownSource = errors.New("unknown data source")
	ErrEmptySeries   = errors.New("no price observations")
	ErrFileNotFound  = errors.New("price file not found")
)

// Source loads price series for a universe of entities
type Source interface {
	Name() string
	Provenance() Provenance
	Load(ctx context.Context, universe []marketmetrics.EntityMeta) (*Dataset, error)
}

// Entity is one loaded entity
type Entity struct {
	Meta   marketmetrics.EntityMeta
	Series marketmetrics.PriceSeries
}

// SkippedEntity is an entity the source could not supply
type SkippedEntity struct {
	Name   string `json:"name"`
	Ticker string `json:"ticker"`
	Reason string `json:"reason"`
}

// Dataset is the output of a single Source. All entities share its provenance.
type Dataset struct {
	Source     string
	Provenance Provenance
	LoadedAt   time.Time
	Entities   []Entity
	Skipped    []SkippedEntity
}

// EntityData converts the dataset into the computation input, resolving
// missing shares outstanding with fallback.
func (d *Dataset) EntityData(fallback float64) map[string]marketmetrics.EntityData {
	out := make(map[string]marketmetrics.EntityData, len(d.Entities))
	for _, e := range d.Entities {
		out[e.Meta.Name] = marketmetrics.EntityData{
			Ticker:            e.Meta.Ticker,
			Series:            e.Series,
			SharesOutstanding: ResolveShares(e.Meta, fallback),
		}
	}
	return out
}

// Restrict returns a copy of the dataset holding only the entities of
// universe, loaded or skipped.
func (d *Dataset) Restrict(universe []marketmetrics.EntityMeta) *Dataset {
	keep := make(map[string]bool, len(universe))
	for _, e := range universe {
		keep[e.Name] = true
	}
	out := &Dataset{Source: d.Source, Provenance: d.Provenance, LoadedAt: d.LoadedAt}
	for _, e := range d.Entities {
		if keep[e.Meta.Name] {
			out.Entities = append(out.Entities, e)
		}
	}
	for _, s := range d.Skipped {
		if keep[s.Name] {
			out.Skipped = append(out.Skipped, s)
		}
	}
	return out
}

// Find looks an entity up by name or ticker, ignoring case
func (d *Dataset) Find(key string) (Entity, bool) {
	for _, e := range d.Entities {
		if strings.EqualFold(e.Meta.Name, key) || strings.EqualFold(e.Meta.Ticker, key) {
			return e, true
		}
	}
	return Entity{}, false
}

// ResolveShares returns the shares outstanding to use for meta. A missing value
// is replaced by fallback, and an unusable fallback by 1.
func ResolveShares(meta marketmetrics.EntityMeta, fallback float64) float64 {
	shares, err := marketmetrics.EffectiveShares(meta.SharesOutstanding, fallback)
	if err != nil {
		return marketmetrics.DefaultFallbackShares
	}
	return shares
}

// New creates the source selected by the data configuration
func New(cfg config.DataConfig, logger *slog.Logger) (Source, error) {
	switch strings.ToLower(cfg.Source) {
	case string(ProvenanceFixture):
		return NewFixtureSource(cfg.FixtureDir, logger, WithConcurrency(cfg.Concurrency)), nil
	case string(ProvenanceSynthetic):
		start, err := time.Parse("2006-01-02", cfg.SyntheticStart)
		if err != nil {
			return nil, fmt.Errorf("parse synthetic start date: %w", err)
		}
		return NewSyntheticSource(cfg.SyntheticSeed, logger,
			WithStart(start),
			WithPeriods(cfg.SyntheticPeriods),
		), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, cfg.Source)
	}
}
