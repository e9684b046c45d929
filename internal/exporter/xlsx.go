package exporter

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const infoSheet = "Info"

// WorkbookInfo is written to the first sheet so a workbook always states
// where its prices came from.
type WorkbookInfo struct {
	ID          string
	GeneratedAt string
	Provenance  string
	Source      string
	Period      string
}

// BuildWorkbook creates a workbook with an Info sheet followed by one sheet per table
func BuildWorkbook(info WorkbookInfo, tables []Table) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", infoSheet); err != nil {
		f.Close()
		return nil, err
	}

	styles, err := newStyles(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	infoRows := [][]interface{}{
		{"Report ID", info.ID},
		{"Generated At", info.GeneratedAt},
		{"Provenance", info.Provenance},
		{"Source", info.Source},
		{"Period", info.Period},
	}
	for i, row := range infoRows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(infoSheet, cell, &row); err != nil {
			f.Close()
			return nil, err
		}
	}
	_ = f.SetCellStyle(infoSheet, "A1", fmt.Sprintf("A%d", len(infoRows)), styles.header)
	_ = f.SetColWidth(infoSheet, "A", "B", 24)

	for _, t := range tables {
		if err := writeSheet(f, t, styles); err != nil {
			f.Close()
			return nil, fmt.Errorf("sheet %s: %w", t.Name, err)
		}
	}
	return f, nil
}

// WriteXLSX writes the workbook to w
func WriteXLSX(w io.Writer, info WorkbookInfo, tables []Table) error {
	f, err := BuildWorkbook(info, tables)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.WriteTo(w)
	return err
}

// SaveXLSX writes the workbook to path
func SaveXLSX(path string, info WorkbookInfo, tables []Table) error {
	f, err := BuildWorkbook(info, tables)
	if err != nil {
		return err
	}
	defer f.Close()

	return f.SaveAs(path)
}

type sheetStyles struct {
	header int
	twoDec int
	oneDec int
}

func newStyles(f *excelize.File) (sheetStyles, error) {
	var s sheetStyles
	var err error

	if s.header, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err != nil {
		return s, err
	}
	if s.twoDec, err = f.NewStyle(&excelize.Style{NumFmt: 2}); err != nil {
		return s, err
	}
	oneDec := "0.0"
	if s.oneDec, err = f.NewStyle(&excelize.Style{CustomNumFmt: &oneDec}); err != nil {
		return s, err
	}
	return s, nil
}

func writeSheet(f *excelize.File, t Table, styles sheetStyles) error {
	if _, err := f.NewSheet(t.Name); err != nil {
		return err
	}

	header := make([]interface{}, len(t.Headers))
	for i, h := range t.Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(t.Name, "A1", &header); err != nil {
		return err
	}
	if len(t.Headers) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(t.Headers), 1)
		if err := f.SetCellStyle(t.Name, "A1", last, styles.header); err != nil {
			return err
		}
	}

	for r, row := range t.Rows {
		values := make([]interface{}, len(row))
		for c, cell := range row {
			values[c] = cell
			fx, ok := cell.(Fixed)
			if !ok {
				continue
			}
			if fx.Invalid {
				values[c] = ""
				continue
			}
			values[c] = fx.Float64()

			name, _ := excelize.CoordinatesToCellName(c+1, r+2)
			style := styles.twoDec
			if fx.Places == 1 {
				style = styles.oneDec
			}
			if err := f.SetCellStyle(t.Name, name, name, style); err != nil {
				return err
			}
		}

		start, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := f.SetSheetRow(t.Name, start, &values); err != nil {
			return err
		}
	}

	if len(t.Headers) > 1 {
		lastCol, _ := excelize.ColumnNumberToName(len(t.Headers))
		_ = f.SetColWidth(t.Name, "B", lastCol, 18)
	}
	return nil
}
