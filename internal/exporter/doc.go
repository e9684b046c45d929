// Package exporter writes dashboard tables as CSV files and XLSX workbooks.
//
// Tables are built once from a services.Dashboard and rendered by either
// writer. Market caps and prices carry 2 decimals, percentages 1, and every
// table row is labeled with the provenance of its prices.
//
//	tables := exporter.DashboardTables(dash)
//	paths, err := exporter.WriteDashboardCSV(exporter.NewCSVWriter(outDir, logger), "", "capboard", tables)
//	err = exporter.SaveXLSX(filepath.Join(outDir, "capboard.xlsx"), exporter.InfoFor(dash), tables)
//
// CSV files start with a UTF-8 BOM so spreadsheet applications detect the encoding.
package exporter
