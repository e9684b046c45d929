package datasource

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v2"

	"capboard/internal/config"
	"capboard/internal/marketmetrics"
)

// UniverseFor returns the universe selected by the data configuration: the
// YAML file at UniverseFile when set, DefaultUniverse otherwise.
func UniverseFor(cfg config.DataConfig) ([]marketmetrics.EntityMeta, error) {
	if cfg.UniverseFile == "" {
		return DefaultUniverse(), nil
	}
	universe, err := LoadUniverse(cfg.UniverseFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load universe: %w", err)
	}
	return universe, nil
}

// DefaultUniverse returns the tracked mega-cap companies with approximate
// shares outstanding.
func DefaultUniverse() []marketmetrics.EntityMeta {
	return []marketmetrics.EntityMeta{
		{Name: "Apple", Ticker: "AAPL", SharesOutstanding: 14.94e9},
		{Name: "Nvidia", Ticker: "NVDA", SharesOutstanding: 24.40e9},
		{Name: "Microsoft", Ticker: "MSFT", SharesOutstanding: 7.43e9},
		{Name: "Alphabet", Ticker: "GOOGL", SharesOutstanding: 12.10e9},
		{Name: "Amazon", Ticker: "AMZN", SharesOutstanding: 10.60e9},
		{Name: "Saudi Aramco", Ticker: "2222.SR", SharesOutstanding: 242.0e9},
		{Name: "Meta Platforms", Ticker: "META", SharesOutstanding: 2.51e9},
		{Name: "Tesla", Ticker: "TSLA", SharesOutstanding: 3.22e9},
		{Name: "Berkshire Hathaway", Ticker: "BRK-A", SharesOutstanding: 1.44e6},
		{Name: "Taiwan Semiconductor", Ticker: "TSM", SharesOutstanding: 5.19e9},
		{Name: "Broadcom", Ticker: "AVGO", SharesOutstanding: 4.70e9},
	}
}

type universeFile struct {
	Entities []marketmetrics.EntityMeta `yaml:"entities"`
}

// LoadUniverse reads a YAML universe file:
//
//	entities:
//	  - name: Apple
//	    ticker: AAPL
//	    shares_outstanding: 14940000000
func LoadUniverse(path string) ([]marketmetrics.EntityMeta, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read universe file: %w", err)
	}

	var f universeFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse universe file: %w", err)
	}
	if err := ValidateUniverse(f.Entities); err != nil {
		return nil, err
	}
	return f.Entities, nil
}

// ValidateUniverse checks that the universe is non-empty and names are unique
func ValidateUniverse(universe []marketmetrics.EntityMeta) error {
	if len(universe) == 0 {
		return fmt.Errorf("universe has no entities")
	}
	seen := make(map[string]bool, len(universe))
	for i, e := range universe {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			return fmt.Errorf("universe entry %d has no name", i)
		}
		if seen[name] {
			return fmt.Errorf("duplicate entity name %q in universe", name)
		}
		seen[name] = true
	}
	return nil
}

// SelectUniverse returns the universe entries matching keys by name or ticker,
// ignoring case, in universe order. Keys that match nothing are returned in
// unknown, in the order given.
func SelectUniverse(universe []marketmetrics.EntityMeta, keys []string) (selected []marketmetrics.EntityMeta, unknown []string) {
	picked := make(map[int]bool, len(keys))
	for _, key := range keys {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		found := false
		for i, e := range universe {
			if strings.EqualFold(e.Name, key) || strings.EqualFold(e.Ticker, key) {
				picked[i] = true
				found = true
				break
			}
		}
		if !found {
			unknown = append(unknown, key)
		}
	}
	for i, e := range universe {
		if picked[i] {
			selected = append(selected, e)
		}
	}
	return selected, unknown
}
