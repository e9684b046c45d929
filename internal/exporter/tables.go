package exporter

import (
	"fmt"
	"strconv"

	"capboard/internal/datasource"
	"capboard/internal/marketmetrics"
	"capboard/internal/services"
)

// Sheet and file base names of the dashboard tables
const (
	TableMarketCap  = "MarketCap"
	TableReturns1Y  = "Returns1Y"
	TableReturns3Y  = "Returns3Y"
	TableVolatility = "Volatility"
	TableFailures   = "Failures"
)

// Table is one exported table. Cells are string, int or Fixed.
type Table struct {
	Name    string
	Headers []string
	Rows    [][]interface{}
}

// Strings renders every cell for CSV output
func (t Table) Strings() [][]string {
	out := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		rec := make([]string, len(row))
		for j, cell := range row {
			rec[j] = cellString(cell)
		}
		out[i] = rec
	}
	return out
}

func cellString(cell interface{}) string {
	switch v := cell.(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case Fixed:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// MarketCapTable builds the ranked market capitalization table
func MarketCapTable(caps []marketmetrics.MarketCapSnapshot, provenance datasource.Provenance) Table {
	t := Table{
		Name:    TableMarketCap,
		Headers: []string{"Rank", "Company", "Ticker", "Latest Price", "Market Cap (T USD)", "As Of", "Provenance"},
		Rows:    make([][]interface{}, 0, len(caps)),
	}
	for i, c := range caps {
		t.Rows = append(t.Rows, []interface{}{
			i + 1, c.Entity, c.Ticker, formatPrice(c.LatestPrice), formatCap(c.MarketCap), formatDate(c.AsOf), string(provenance),
		})
	}
	return t
}

// ReturnsTable builds the ranked return table of one window
func ReturnsTable(name string, records []marketmetrics.ReturnRecord, provenance datasource.Provenance) Table {
	t := Table{
		Name:    name,
		Headers: []string{"Rank", "Company", "Return (%)", "Provenance"},
		Rows:    make([][]interface{}, 0, len(records)),
	}
	for i, r := range records {
		t.Rows = append(t.Rows, []interface{}{i + 1, r.Entity, formatPercent(r.ReturnPct), string(provenance)})
	}
	return t
}

// VolatilityTable builds the volatility table, least volatile first
func VolatilityTable(records []marketmetrics.VolatilityRecord, provenance datasource.Provenance) Table {
	t := Table{
		Name:    TableVolatility,
		Headers: []string{"Rank", "Company", "Volatility (%)", "Provenance"},
		Rows:    make([][]interface{}, 0, len(records)),
	}
	for i, v := range records {
		t.Rows = append(t.Rows, []interface{}{i + 1, v.Entity, formatPercent(v.VolatilityPct), string(provenance)})
	}
	return t
}

// FailuresTable lists entities the source skipped and entities left out of a computation
func FailuresTable(failures []marketmetrics.EntityFailure, skipped []datasource.SkippedEntity) Table {
	t := Table{
		Name:    TableFailures,
		Headers: []string{"Company", "Operation", "Kind", "Detail"},
		Rows:    make([][]interface{}, 0, len(failures)+len(skipped)),
	}
	for _, s := range skipped {
		t.Rows = append(t.Rows, []interface{}{s.Name, "load", "SKIPPED", s.Reason})
	}
	for _, f := range failures {
		t.Rows = append(t.Rows, []interface{}{f.Entity, f.Op, string(f.Kind), f.Detail})
	}
	return t
}

// DashboardTables returns every table of a dashboard in export order
func DashboardTables(dash *services.Dashboard) []Table {
	return []Table{
		MarketCapTable(dash.MarketCaps, dash.Provenance),
		ReturnsTable(TableReturns1Y, dash.Returns1Y, dash.Provenance),
		ReturnsTable(TableReturns3Y, dash.Returns3Y, dash.Provenance),
		VolatilityTable(dash.Volatility, dash.Provenance),
		FailuresTable(dash.Failures, dash.Skipped),
	}
}

// InfoFor returns the workbook info of a dashboard
func InfoFor(dash *services.Dashboard) WorkbookInfo {
	return WorkbookInfo{
		ID:          dash.ID.String(),
		GeneratedAt: dash.GeneratedAt.Format("2006-01-02 15:04:05 MST"),
		Provenance:  string(dash.Provenance),
		Source:      dash.Source,
		Period:      string(dash.Period),
	}
}
