package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths is the on-disk layout of a capboard installation:
//
//	<base>/
//	  data/prices/   fixture price files, one per ticker
//	  data/reports/  generated CSV and XLSX reports
//	  logs/          log files
type Paths struct {
	BaseDir    string
	DataDir    string
	PricesDir  string
	ReportsDir string
	LogsDir    string
}

// GetPaths returns the layout relative to the executable's directory, so the
// binaries find their data whatever the working directory is
func GetPaths() (*Paths, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %w", err)
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve executable symlinks: %w", err)
	}
	return ResolvePaths(filepath.Dir(exe)), nil
}

// ResolvePaths returns the layout rooted at base
func ResolvePaths(base string) *Paths {
	dataDir := filepath.Join(base, "data")
	return &Paths{
		BaseDir:    base,
		DataDir:    dataDir,
		PricesDir:  filepath.Join(dataDir, "prices"),
		ReportsDir: filepath.Join(dataDir, "reports"),
		LogsDir:    filepath.Join(base, "logs"),
	}
}

// EnsureDirectories creates every directory of the layout
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.DataDir, p.PricesDir, p.ReportsDir, p.LogsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// ReportPath returns the path of a report file inside ReportsDir
func (p *Paths) ReportPath(name string) string {
	return filepath.Join(p.ReportsDir, name)
}

// FileExists reports whether path exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
