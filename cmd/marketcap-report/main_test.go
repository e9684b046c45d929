package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"capboard/internal/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunWritesReports(t *testing.T) {
	tests := []struct {
		name     string
		format   string
		wantCSV  int
		wantXLSX int
	}{
		{"csv", "csv", 5, 0},
		{"xlsx", "XLSX", 0, 1},
		{"both", "both", 5, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outDir := t.TempDir()
			var summary bytes.Buffer

			err := run(context.Background(), config.Default(), options{
				outDir: outDir,
				top:    3,
				period: "1y",
				format: tt.format,
			}, discardLogger(), &summary)
			require.NoError(t, err)

			csvFiles, _ := filepath.Glob(filepath.Join(outDir, "*.csv"))
			xlsxFiles, _ := filepath.Glob(filepath.Join(outDir, "*.xlsx"))
			assert.Len(t, csvFiles, tt.wantCSV)
			assert.Len(t, xlsxFiles, tt.wantXLSX)

			out := summary.String()
			assert.Contains(t, out, "synthetic prices, not market data")
			assert.Contains(t, out, "period:     1y")
			assert.Equal(t, tt.wantCSV+tt.wantXLSX, strings.Count(out, "wrote:"))
		})
	}
}

func TestRunMarketCapCSVHonoursTop(t *testing.T) {
	outDir := t.TempDir()
	require.NoError(t, run(context.Background(), config.Default(), options{
		outDir: outDir,
		top:    2,
		format: "csv",
	}, discardLogger(), io.Discard))

	files, _ := filepath.Glob(filepath.Join(outDir, "*_marketcap.csv"))
	require.Len(t, files, 1)
	data, err := os.ReadFile(files[0])
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(strings.TrimPrefix(string(data), "\ufeff")), "\n")
	assert.Len(t, lines, 3, "header plus two ranked rows")
}

func TestRunFixtureDirSelectsFixtureSource(t *testing.T) {
	dataDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "AAPL.csv"),
		[]byte("Date,Close\n2024-12-30,250.42\n2024-12-31,250.42\n"), 0o644))

	var summary bytes.Buffer
	err := run(context.Background(), config.Default(), options{
		dataDir: dataDir,
		outDir:  t.TempDir(),
		format:  "csv",
	}, discardLogger(), &summary)
	require.NoError(t, err)

	assert.Contains(t, summary.String(), "(fixture)")
	assert.Contains(t, summary.String(), "largest:    Apple")
	assert.NotContains(t, summary.String(), "synthetic prices")
}

func TestRunEntitySelection(t *testing.T) {
	var summary bytes.Buffer
	outDir := t.TempDir()
	err := run(context.Background(), config.Default(), options{
		outDir:   outDir,
		format:   "csv",
		entities: "msft, AAPL",
	}, discardLogger(), &summary)
	require.NoError(t, err)

	assert.Contains(t, summary.String(), "selected:   Apple, Microsoft")
	assert.Contains(t, summary.String(), "entities:   2 analyzed")

	files, _ := filepath.Glob(filepath.Join(outDir, "*_marketcap.csv"))
	require.Len(t, files, 1)
	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 3, "header plus the two selected entities")
}

func TestRunRejectsBadOptions(t *testing.T) {
	tests := []struct {
		name string
		opts options
	}{
		{"format", options{format: "pdf"}},
		{"period", options{format: "csv", period: "5y"}},
		{"top", options{format: "csv", top: -1}},
		{"source", options{format: "csv", source: "bloomberg"}},
		{"entities", options{format: "csv", entities: "AAPL,ACME"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.outDir = t.TempDir()
			assert.Error(t, run(context.Background(), config.Default(), tt.opts, discardLogger(), io.Discard))
		})
	}
}
