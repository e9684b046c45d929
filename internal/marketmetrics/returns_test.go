package marketmetrics

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindow(t *testing.T) {
	tests := []struct {
		name    string
		window  Window
		minObs  int
		str     string
		isValid bool
	}{
		{"one year", Window1Y, 252, "1y", true},
		{"three years", Window3Y, 756, "3y", true},
		{"unknown", Window(2), 504, "unknown", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.minObs, tt.window.MinObservations())
			assert.Equal(t, tt.str, tt.window.String())
			assert.Equal(t, tt.isValid, tt.window.IsValid())
		})
	}
}

func TestParseWindow(t *testing.T) {
	w, err := ParseWindow(" 3Y ")
	require.NoError(t, err)
	assert.Equal(t, Window3Y, w)

	w, err = ParseWindow("1y")
	require.NoError(t, err)
	assert.Equal(t, Window1Y, w)

	_, err = ParseWindow("5y")
	assert.Error(t, err)
}

func TestComputeReturnUnavailableBelowMinimum(t *testing.T) {
	for n := 0; n < 252; n += 7 {
		pct, ok, err := ComputeReturn(linearSeries(n, 100, 150), Window1Y)
		require.NoError(t, err)
		assert.False(t, ok, "length %d", n)
		assert.Zero(t, pct)
	}

	_, ok, err := ComputeReturn(linearSeries(755, 100, 150), Window3Y)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestComputeReturnOneYear(t *testing.T) {
	t.Run("linear 253 prices", func(t *testing.T) {
		series := linearSeries(253, 100, 150)
		pct, ok, err := ComputeReturn(series, Window1Y)
		require.NoError(t, err)
		require.True(t, ok)

		want := (series[252].Close/series[253-252].Close - 1) * 100
		assert.Equal(t, want, pct)
	})

	t.Run("exact minimum uses first price", func(t *testing.T) {
		series := linearSeries(252, 80, 100)
		pct, ok, err := ComputeReturn(series, Window1Y)
		require.NoError(t, err)
		require.True(t, ok)
		assert.InDelta(t, 25.0, pct, 1e-9)
	})

	t.Run("long series uses fixed offset", func(t *testing.T) {
		series := linearSeries(600, 1, 600)
		pct, ok, err := ComputeReturn(series, Window1Y)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, (series[599].Close/series[600-252].Close-1)*100, pct)
	})
}

func TestComputeReturnThreeYear(t *testing.T) {
	series := linearSeries(900, 100, 200)
	pct, ok, err := ComputeReturn(series, Window3Y)
	require.NoError(t, err)
	require.True(t, ok)

	// measured from the first observation even though the series exceeds 756
	assert.InDelta(t, 100.0, pct, 1e-9)
}

func TestComputeReturnInvalidPrice(t *testing.T) {
	tests := []struct {
		name   string
		series PriceSeries
		window Window
	}{
		{"zero base 1y", func() PriceSeries {
			s := linearSeries(252, 1, 2)
			s[0].Close = 0
			return s
		}(), Window1Y},
		{"negative base 3y", func() PriceSeries {
			s := linearSeries(756, 1, 2)
			s[0].Close = -5
			return s
		}(), Window3Y},
		{"overflowing ratio 1y", func() PriceSeries {
			s := linearSeries(252, 1, 2)
			s[0].Close = 1e-300
			s[251].Close = 1e300
			return s
		}(), Window1Y},
		{"overflowing ratio 3y", func() PriceSeries {
			s := linearSeries(756, 1, 2)
			s[0].Close = 1e-300
			s[755].Close = 1e300
			return s
		}(), Window3Y},
		{"NaN latest", func() PriceSeries {
			s := linearSeries(300, 1, 2)
			s[299].Close = math.NaN()
			return s
		}(), Window1Y},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok, err := ComputeReturn(tt.series, tt.window)
			assert.False(t, ok)
			assert.ErrorIs(t, err, ErrInvalidPrice)
		})
	}
}

func TestComputeReturnUnsupportedWindow(t *testing.T) {
	_, ok, err := ComputeReturn(linearSeries(1000, 1, 2), Window(7))
	assert.False(t, ok)
	assert.Error(t, err)
}

func TestComputeReturns(t *testing.T) {
	bad := linearSeries(260, 1, 2)
	bad[260-252].Close = 0

	entities := map[string]EntityData{
		"Flat":  {Series: linearSeries(260, 50, 50)},
		"Up":    {Series: linearSeries(260, 50, 100)},
		"Down":  {Series: linearSeries(260, 100, 50)},
		"Short": {Series: linearSeries(100, 1, 100)},
		"Bad":   {Series: bad},
		"Twin":  {Series: linearSeries(260, 50, 50)},
	}

	records, errs := ComputeReturns(entities, Window1Y)

	names := make([]string, len(records))
	for i, r := range records {
		names[i] = r.Entity
		assert.Equal(t, Window1Y, r.Window)
	}
	assert.Equal(t, []string{"Up", "Flat", "Twin", "Down"}, names)

	require.Len(t, errs, 1)
	var me *MetricError
	require.True(t, errors.As(errs[0], &me))
	assert.Equal(t, "Bad", me.Entity)
	assert.Equal(t, "return_1y", me.Op)

	top := RankReturns(records, 2)
	require.Len(t, top, 2)
	assert.Equal(t, "Up", top[0].Entity)
	assert.Empty(t, RankReturns(records, 0))
}
