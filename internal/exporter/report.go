package exporter

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
)

// WriteDashboardCSV writes one CSV file per dashboard table into dir, named
// <prefix>_<table>.csv, and returns the written paths.
func WriteDashboardCSV(w *CSVWriter, dir, prefix string, tables []Table) ([]string, error) {
	paths := make([]string, 0, len(tables))
	for _, t := range tables {
		name := strings.ToLower(t.Name) + ".csv"
		if prefix != "" {
			name = prefix + "_" + name
		}

		stream, err := w.CreateStreamWriter(filepath.Join(dir, name), t.Headers)
		if err != nil {
			return paths, fmt.Errorf("export %s: %w", t.Name, err)
		}
		for _, rec := range t.Strings() {
			if err := stream.WriteRecord(rec); err != nil {
				stream.Close()
				return paths, fmt.Errorf("export %s: %w", t.Name, err)
			}
		}
		if err := stream.Close(); err != nil {
			return paths, fmt.Errorf("export %s: %w", t.Name, err)
		}
		paths = append(paths, stream.Path())
	}

	w.logger.Info("dashboard CSV export complete",
		slog.String("dir", dir),
		slog.Int("files", len(paths)))
	return paths, nil
}

