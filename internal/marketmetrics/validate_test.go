package marketmetrics

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSeries(t *testing.T) {
	d := func(day int) time.Time { return seriesStart.AddDate(0, 0, day) }

	tests := []struct {
		name    string
		series  PriceSeries
		wantErr bool
	}{
		{"empty", nil, false},
		{"increasing with gaps", PriceSeries{{Date: d(0), Close: 1}, {Date: d(3), Close: 2}, {Date: d(4), Close: 3}}, false},
		{"duplicate date", PriceSeries{{Date: d(0), Close: 1}, {Date: d(0), Close: 2}}, true},
		{"decreasing date", PriceSeries{{Date: d(2), Close: 1}, {Date: d(1), Close: 2}}, true},
		{"missing date", PriceSeries{{Close: 1}}, true},
		{"invalid prices are not checked", PriceSeries{{Date: d(0), Close: -1}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSeries(tt.series)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidSeries))
		})
	}
}

func TestMetricError(t *testing.T) {
	err := withEntity(newMetricError(KindInvalidPrice, "return_1y", "base close 0"), "Acme")

	assert.Equal(t, "return_1y: INVALID_PRICE (entity Acme): base close 0", err.Error())
	assert.ErrorIs(t, err, ErrInvalidPrice)
	assert.NotErrorIs(t, err, ErrInsufficientData)

	f := FailureFromError(err)
	assert.Equal(t, EntityFailure{Entity: "Acme", Op: "return_1y", Kind: KindInvalidPrice, Detail: "base close 0"}, f)

	plain := withEntity(errors.New("boom"), "Acme")
	assert.Equal(t, "entity Acme: boom", plain.Error())

	unknown := &MetricError{Kind: "OTHER"}
	assert.Nil(t, unknown.Unwrap())
}
