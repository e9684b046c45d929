package marketmetrics

import (
	"fmt"
	"time"
)

// Example_marketCapRanking ranks two entities by their latest market cap
func Example_marketCapRanking() {
	day := func(d int) time.Time { return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC) }

	entities := map[string]EntityData{
		"A": {Ticker: "AAA", SharesOutstanding: 1_000_000_000, Series: PriceSeries{
			{Date: day(1), Close: 48}, {Date: day(4), Close: 50},
		}},
		"B": {Ticker: "BBB", SharesOutstanding: 2_000_000_000, Series: PriceSeries{
			{Date: day(1), Close: 41}, {Date: day(4), Close: 40},
		}},
		"C": {Ticker: "CCC"},
	}

	snapshots, errs := ComputeMarketCaps(entities, DefaultFallbackShares)
	for _, s := range RankTopN(snapshots, 10) {
		fmt.Printf("%s %.2fT as of %s\n", s.Entity, s.MarketCap, s.AsOf.Format("2006-01-02"))
	}
	fmt.Println("errors:", len(errs))

	// Output:
	// B 0.08T as of 2024-03-04
	// A 0.05T as of 2024-03-04
	// errors: 0
}

// ExampleComputeReturn shows that a short series is unavailable, not zero
func ExampleComputeReturn() {
	series := make(PriceSeries, 100)
	for i := range series {
		series[i] = Observation{Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i), Close: 10}
	}

	_, ok, err := ComputeReturn(series, Window1Y)
	fmt.Println(ok, err)

	// Output:
	// false <nil>
}

// ExampleComputeVolatility annualizes the sample deviation of daily returns
func ExampleComputeVolatility() {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	series := PriceSeries{
		{Date: start, Close: 100},
		{Date: start.AddDate(0, 0, 1), Close: 110},
		{Date: start.AddDate(0, 0, 2), Close: 99},
	}

	vol, ok, _ := ComputeVolatility(series)
	fmt.Printf("%v %.2f%%\n", ok, vol)

	// Output:
	// true 224.50%
}
