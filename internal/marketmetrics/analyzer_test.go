package marketmetrics

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func analyzerFixture() map[string]EntityData {
	broken := linearSeries(800, 10, 20)
	broken[400].Close = 0

	unordered := linearSeries(300, 1, 2)
	unordered[10].Date = unordered[9].Date

	return map[string]EntityData{
		"Long":      {Ticker: "LNG", Series: linearSeries(800, 100, 300), SharesOutstanding: 1e10},
		"Medium":    {Ticker: "MED", Series: linearSeries(300, 50, 60), SharesOutstanding: 2e10},
		"Short":     {Ticker: "SHT", Series: linearSeries(20, 5, 6), SharesOutstanding: 0},
		"Empty":     {Ticker: "EMP", Series: nil, SharesOutstanding: 1e9},
		"Broken":    {Ticker: "BRK", Series: broken, SharesOutstanding: 1e10},
		"Unordered": {Ticker: "UNO", Series: unordered, SharesOutstanding: 1e10},
	}
}

func TestAnalyzerAnalyze(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	analyzer := NewAnalyzer(1, logger)

	report, err := analyzer.Analyze(context.Background(), analyzerFixture())
	require.NoError(t, err)

	caps := make([]string, len(report.MarketCaps))
	for i, s := range report.MarketCaps {
		caps[i] = s.Entity
	}
	assert.Equal(t, []string{"Long", "Medium", "Broken", "Short"}, caps)

	// the zero price in Broken lies outside both return bases
	assert.Len(t, report.Returns1Y, 3)
	assert.Len(t, report.Returns3Y, 2)
	for _, r := range report.Returns3Y {
		assert.Contains(t, []string{"Long", "Broken"}, r.Entity)
	}

	vols := make([]string, len(report.Volatility))
	for i, v := range report.Volatility {
		vols[i] = v.Entity
	}
	assert.ElementsMatch(t, []string{"Long", "Medium", "Short"}, vols)

	require.Len(t, report.Failures, 2)
	assert.Equal(t, "Broken", report.Failures[0].Entity)
	assert.Equal(t, "volatility", report.Failures[0].Op)
	assert.Equal(t, KindInvalidPrice, report.Failures[0].Kind)
	assert.Equal(t, "Unordered", report.Failures[1].Entity)
	assert.Equal(t, KindInvalidSeries, report.Failures[1].Kind)

	assert.Contains(t, buf.String(), "entity excluded from computation")
	assert.Contains(t, buf.String(), "market metrics computed")
}

func TestAnalyzerDeterministic(t *testing.T) {
	analyzer := NewAnalyzer(1, nil)
	entities := analyzerFixture()

	first, err := analyzer.Analyze(context.Background(), entities)
	require.NoError(t, err)
	second, err := analyzer.Analyze(context.Background(), entities)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestAnalyzerCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := NewAnalyzer(1, nil).Analyze(ctx, analyzerFixture())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, report)
}

func TestNewAnalyzerFallback(t *testing.T) {
	a := NewAnalyzer(-3, nil)
	assert.Equal(t, DefaultFallbackShares, a.fallbackShares)
}
