package marketmetrics

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var seriesStart = time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)

// makeSeries builds a daily series starting at seriesStart
func makeSeries(prices ...float64) PriceSeries {
	s := make(PriceSeries, len(prices))
	for i, p := range prices {
		s[i] = Observation{Date: seriesStart.AddDate(0, 0, i), Close: p}
	}
	return s
}

// linearSeries builds n prices rising linearly from first to last
func linearSeries(n int, first, last float64) PriceSeries {
	prices := make([]float64, n)
	for i := range prices {
		if n == 1 {
			prices[i] = first
			continue
		}
		prices[i] = first + (last-first)*float64(i)/float64(n-1)
	}
	return makeSeries(prices...)
}

func TestComputeMarketCap(t *testing.T) {
	t.Run("documented example", func(t *testing.T) {
		snap, ok, err := ComputeMarketCap(makeSeries(48, 49, 50.0), 1_000_000_000, 1)
		require.NoError(t, err)
		require.True(t, ok)
		assert.InDelta(t, 0.05, snap.MarketCap, 1e-15)
		assert.Equal(t, 50.0, snap.LatestPrice)
		assert.Equal(t, seriesStart.AddDate(0, 0, 2), snap.AsOf)
	})

	t.Run("empty series is not computable", func(t *testing.T) {
		_, ok, err := ComputeMarketCap(nil, 1e9, 1)
		assert.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("missing shares uses fallback", func(t *testing.T) {
		snap, ok, err := ComputeMarketCap(makeSeries(2e12), 0, 1)
		require.NoError(t, err)
		require.True(t, ok)
		assert.InDelta(t, 2.0, snap.MarketCap, 1e-12)
	})

	t.Run("unusable fallback", func(t *testing.T) {
		_, ok, err := ComputeMarketCap(makeSeries(10), math.NaN(), 0)
		assert.False(t, ok)
		assert.True(t, errors.Is(err, ErrMissingSharesOutstanding))
	})

	t.Run("overflowing cap is an invalid price", func(t *testing.T) {
		snap, ok, err := ComputeMarketCap(makeSeries(1e300), 1e20, 1)
		assert.False(t, ok)
		assert.ErrorIs(t, err, ErrInvalidPrice)
		assert.Zero(t, snap.MarketCap)
	})

	t.Run("non-positive latest price", func(t *testing.T) {
		for _, p := range []float64{0, -1, math.NaN(), math.Inf(1)} {
			_, ok, err := ComputeMarketCap(makeSeries(10, p), 1e9, 1)
			assert.False(t, ok)
			assert.True(t, errors.Is(err, ErrInvalidPrice), "price %v", p)
		}
	})
}

func TestComputeMarketCaps(t *testing.T) {
	entities := map[string]EntityData{
		"Beta":  {Ticker: "BBB", Series: makeSeries(10, 20), SharesOutstanding: 1e11},
		"Alpha": {Ticker: "AAA", Series: makeSeries(40), SharesOutstanding: 5e10},
		"Gamma": {Ticker: "GGG", Series: makeSeries(30, 30), SharesOutstanding: 1e11},
		"Delta": {Ticker: "DDD", Series: PriceSeries{}, SharesOutstanding: 1e11},
		"Omega": {Ticker: "OOO", Series: makeSeries(5, -1), SharesOutstanding: 1e11},
		"Sigma": {Ticker: "SSS", Series: makeSeries(1e12), SharesOutstanding: 0},
	}

	snaps, errs := ComputeMarketCaps(entities, 1)

	names := make([]string, len(snaps))
	for i, s := range snaps {
		names[i] = s.Entity
	}
	assert.Equal(t, []string{"Gamma", "Alpha", "Beta", "Sigma"}, names)
	assert.Equal(t, "GGG", snaps[0].Ticker)
	assert.InDelta(t, 1.0, snaps[3].MarketCap, 1e-12)

	require.Len(t, errs, 1)
	var me *MetricError
	require.True(t, errors.As(errs[0], &me))
	assert.Equal(t, "Omega", me.Entity)
	assert.Equal(t, KindInvalidPrice, me.Kind)

	for _, s := range snaps {
		assert.NotEqual(t, "Delta", s.Entity, "empty series must never be reported")
	}
	for i := 1; i < len(snaps); i++ {
		prev, cur := snaps[i-1], snaps[i]
		assert.True(t, prev.MarketCap > cur.MarketCap ||
			(prev.MarketCap == cur.MarketCap && prev.Entity < cur.Entity))
	}
}

func TestComputeMarketCapsExcludesOverflow(t *testing.T) {
	caps, errs := ComputeMarketCaps(map[string]EntityData{
		"Huge":   {Series: makeSeries(1e300), SharesOutstanding: 1e20},
		"Normal": {Series: makeSeries(50), SharesOutstanding: 1e9},
	}, 1)

	require.Len(t, caps, 1)
	assert.Equal(t, "Normal", caps[0].Entity)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrInvalidPrice)

	f := FailureFromError(errs[0])
	assert.Equal(t, "Huge", f.Entity)
	assert.Equal(t, KindInvalidPrice, f.Kind)
	assert.Contains(t, f.Detail, "overflow")
	for _, c := range caps {
		assert.False(t, math.IsInf(c.MarketCap, 0))
	}
}

func TestMarketCapSeriesSkipsOverflow(t *testing.T) {
	points, err := MarketCapSeries(makeSeries(1e300, 100), 1e20, 1)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, seriesStart.AddDate(0, 0, 1), points[0].Date)
}

func TestComputeMarketCapsDeterministic(t *testing.T) {
	entities := map[string]EntityData{}
	for i, name := range []string{"E", "D", "C", "B", "A"} {
		entities[name] = EntityData{Series: linearSeries(30, 10, 10+float64(i%2)), SharesOutstanding: 1e10}
	}

	first, _ := ComputeMarketCaps(entities, 1)
	for i := 0; i < 5; i++ {
		again, _ := ComputeMarketCaps(entities, 1)
		assert.Equal(t, first, again)
	}
}

func TestRankTopN(t *testing.T) {
	snaps := []MarketCapSnapshot{
		{Entity: "C", MarketCap: 1},
		{Entity: "A", MarketCap: 3},
		{Entity: "B", MarketCap: 3},
		{Entity: "D", MarketCap: 2},
	}

	tests := []struct {
		name string
		n    int
		want []string
	}{
		{"top two", 2, []string{"A", "B"}},
		{"more than available", 10, []string{"A", "B", "D", "C"}},
		{"zero", 0, []string{}},
		{"negative", -3, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RankTopN(snaps, tt.n)
			names := make([]string, len(got))
			for i, s := range got {
				names[i] = s.Entity
			}
			assert.Equal(t, tt.want, names)
		})
	}

	assert.Equal(t, "C", snaps[0].Entity, "input must not be reordered")
}

func TestMarketCapSeries(t *testing.T) {
	points, err := MarketCapSeries(makeSeries(100, 0, 200), 1e10, 1)
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.InDelta(t, 1.0, points[0].MarketCap, 1e-12)
	assert.InDelta(t, 2.0, points[1].MarketCap, 1e-12)
	assert.Equal(t, seriesStart.AddDate(0, 0, 2), points[1].Date)

	_, err = MarketCapSeries(makeSeries(1), -5, -1)
	assert.ErrorIs(t, err, ErrMissingSharesOutstanding)
}

func TestEffectiveShares(t *testing.T) {
	tests := []struct {
		name     string
		shares   float64
		fallback float64
		want     float64
		wantErr  bool
	}{
		{"reported", 15e9, 1, 15e9, false},
		{"zero uses fallback", 0, 1, 1, false},
		{"negative uses fallback", -2, 3, 3, false},
		{"NaN uses fallback", math.NaN(), 2, 2, false},
		{"no usable value", 0, 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EffectiveShares(tt.shares, tt.fallback)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMissingSharesOutstanding)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
