package datasource

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"

	"capboard/internal/marketmetrics"
)

const defaultFixtureConcurrency = 4

// FixtureSource reads one price file per ticker from a directory.
// <TICKER>.csv is preferred over <TICKER>.xlsx when both exist.
type FixtureSource struct {
	dir         string
	concurrency int
	logger      *slog.Logger
	now         func() time.Time
}

// FixtureOption configures a FixtureSource
type FixtureOption func(*FixtureSource)

// WithConcurrency bounds the number of files read in parallel
func WithConcurrency(n int) FixtureOption {
	return func(s *FixtureSource) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// NewFixtureSource creates a source reading from dir
func NewFixtureSource(dir string, logger *slog.Logger, opts ...FixtureOption) *FixtureSource {
	if logger == nil {
		logger = slog.Default()
	}
	s := &FixtureSource{
		dir:         dir,
		concurrency: defaultFixtureConcurrency,
		logger:      logger,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the source name
func (s *FixtureSource) Name() string {
	return "fixture:" + s.dir
}

// Provenance returns ProvenanceFixture
func (s *FixtureSource) Provenance() Provenance {
	return ProvenanceFixture
}

// Load reads the price file of every entity concurrently. A missing or
// unreadable file drops that entity with a warning; only context
// cancellation or an unusable directory fails the whole load.
func (s *FixtureSource) Load(ctx context.Context, universe []marketmetrics.EntityMeta) (*Dataset, error) {
	info, err := os.Stat(s.dir)
	if err != nil {
		return nil, fmt.Errorf("open fixture directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("fixture path %s is not a directory", s.dir)
	}

	series := make([]marketmetrics.PriceSeries, len(universe))
	failures := make([]error, len(universe))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, meta := range universe {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ps, err := s.loadEntity(meta)
			if err != nil {
				failures[i] = err
				return nil
			}
			series[i] = ps
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load fixtures: %w", err)
	}

	ds := &Dataset{
		Source:     s.Name(),
		Provenance: ProvenanceFixture,
		LoadedAt:   s.now(),
	}
	for i, meta := range universe {
		if failures[i] != nil {
			s.logger.WarnContext(ctx, "skipping entity without usable price file",
				slog.String("entity", meta.Name),
				slog.String("ticker", meta.Ticker),
				slog.String("error", failures[i].Error()),
			)
			ds.Skipped = append(ds.Skipped, SkippedEntity{Name: meta.Name, Ticker: meta.Ticker, Reason: failures[i].Error()})
			continue
		}
		ds.Entities = append(ds.Entities, Entity{Meta: meta, Series: series[i]})
	}

	s.logger.InfoContext(ctx, "fixture dataset loaded",
		slog.String("dir", s.dir),
		slog.Int("entities", len(ds.Entities)),
		slog.Int("skipped", len(ds.Skipped)),
	)
	return ds, nil
}

func (s *FixtureSource) loadEntity(meta marketmetrics.EntityMeta) (marketmetrics.PriceSeries, error) {
	if meta.Ticker == "" {
		return nil, fmt.Errorf("%w: entity %s has no ticker", ErrFileNotFound, meta.Name)
	}
	base := filepath.Join(s.dir, meta.Ticker)

	if _, err := os.Stat(base + ".csv"); err == nil {
		return LoadSeriesCSV(base + ".csv")
	}
	if _, err := os.Stat(base + ".xlsx"); err == nil {
		return LoadSeriesXLSX(base + ".xlsx")
	}
	return nil, fmt.Errorf("%w: %s.csv or %s.xlsx", ErrFileNotFound, meta.Ticker, meta.Ticker)
}

// LoadSeriesCSV reads a Date,Close price file
func LoadSeriesCSV(path string) (marketmetrics.PriceSeries, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open CSV file: %w", err)
	}
	defer file.Close()

	ps, err := ReadSeriesCSV(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return ps, nil
}

// ReadSeriesCSV parses CSV price rows. A header row naming "date" and "close"
// columns is honoured; without one the first two columns are used.
func ReadSeriesCSV(r io.Reader) (marketmetrics.PriceSeries, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read CSV records: %w", err)
	}
	return parseRows(records)
}

// LoadSeriesXLSX reads the first sheet of a workbook laid out like the CSV files
func LoadSeriesXLSX(path string) (marketmetrics.PriceSeries, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%s: workbook has no sheets", filepath.Base(path))
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	ps, err := parseRows(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return ps, nil
}

// parseRows turns raw rows into a sorted series. Rows with an unparseable
// date or close are skipped; duplicate dates are an error.
func parseRows(rows [][]string) (marketmetrics.PriceSeries, error) {
	if len(rows) == 0 {
		return nil, ErrEmptySeries
	}

	dateCol, closeCol, dataStart := 0, 1, 0
	if isHeaderRow(rows[0]) {
		dataStart = 1
		dateCol, closeCol = -1, -1
		for i, h := range rows[0] {
			switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))) {
			case "date":
				dateCol = i
			case "close":
				closeCol = i
			case "adj close", "adj_close":
				if closeCol < 0 {
					closeCol = i
				}
			}
		}
		if dateCol < 0 || closeCol < 0 {
			return nil, fmt.Errorf("header %v lacks date/close columns", rows[0])
		}
	}

	series := make(marketmetrics.PriceSeries, 0, len(rows)-dataStart)
	for _, row := range rows[dataStart:] {
		if dateCol >= len(row) || closeCol >= len(row) {
			continue
		}
		date, err := parseDate(row[dateCol])
		if err != nil {
			continue
		}
		closePrice, err := parseFloat(row[closeCol])
		if err != nil {
			continue
		}
		series = append(series, marketmetrics.Observation{Date: date, Close: closePrice})
	}
	if len(series) == 0 {
		return nil, ErrEmptySeries
	}

	sort.SliceStable(series, func(i, j int) bool { return series[i].Date.Before(series[j].Date) })
	if err := marketmetrics.ValidateSeries(series); err != nil {
		return nil, err
	}
	return series, nil
}

func isHeaderRow(record []string) bool {
	if len(record) == 0 {
		return false
	}
	first := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(record[0], "\ufeff")))
	if strings.Contains(first, "date") {
		return true
	}
	_, err := parseDate(first)
	return err != nil
}

var dateFormats = []string{
	"2006-01-02",
	"2006/01/02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"01/02/2006",
	"1/2/06",
	"01-02-06",
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(strings.TrimPrefix(s, "\ufeff"))
	for _, layout := range dateFormats {
		if d, err := time.Parse(layout, s); err == nil {
			return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	// spreadsheet serial date
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 {
		d, err := excelize.ExcelDateToTime(serial, false)
		if err == nil {
			return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse date: %s", s)
}

func parseFloat(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, errors.New("empty value")
	}
	return strconv.ParseFloat(s, 64)
}
