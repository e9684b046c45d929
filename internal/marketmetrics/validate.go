package marketmetrics

import (
	"fmt"
)

// ValidateSeries checks that dates are set and strictly increasing.
// Price values are not checked here; each computation reports the prices it
// cannot use as InvalidPrice.
func ValidateSeries(series PriceSeries) error {
	for i, o := range series {
		if o.Date.IsZero() {
			return newMetricError(KindInvalidSeries, "validate", fmt.Sprintf("observation %d has no date", i))
		}
		if i > 0 && !o.Date.After(series[i-1].Date) {
			return newMetricError(KindInvalidSeries, "validate",
				fmt.Sprintf("date %s at %d does not follow %s",
					o.Date.Format("2006-01-02"), i, series[i-1].Date.Format("2006-01-02")))
		}
	}
	return nil
}
