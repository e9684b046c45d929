package datasource

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"capboard/internal/config"
	"capboard/internal/marketmetrics"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name           string
		cfg            config.DataConfig
		wantProvenance Provenance
		wantErr        error
	}{
		{
			name:           "fixture",
			cfg:            config.DataConfig{Source: "fixture", FixtureDir: "data/prices"},
			wantProvenance: ProvenanceFixture,
		},
		{
			name:           "synthetic, mixed case",
			cfg:            config.DataConfig{Source: "Synthetic", SyntheticStart: "2022-03-31", SyntheticPeriods: 13},
			wantProvenance: ProvenanceSynthetic,
		},
		{
			name:    "unknown",
			cfg:     config.DataConfig{Source: "yahoo"},
			wantErr: ErrUnknownSource,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := New(tt.cfg, discardLogger())
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantProvenance, src.Provenance())
		})
	}
}

func TestNewRejectsBadSyntheticStart(t *testing.T) {
	_, err := New(config.DataConfig{Source: "synthetic", SyntheticStart: "31/03/2022"}, discardLogger())
	assert.Error(t, err)
}

func TestDatasetFindAndEntityData(t *testing.T) {
	ds := &Dataset{
		Provenance: ProvenanceFixture,
		Entities: []Entity{
			{Meta: marketmetrics.EntityMeta{Name: "Alpha", Ticker: "ALP", SharesOutstanding: 5e9}},
			{Meta: marketmetrics.EntityMeta{Name: "Beta", Ticker: "BET"}},
		},
	}

	e, ok := ds.Find("alp")
	require.True(t, ok)
	assert.Equal(t, "Alpha", e.Meta.Name)

	e, ok = ds.Find("BETA")
	require.True(t, ok)
	assert.Equal(t, "BET", e.Meta.Ticker)

	_, ok = ds.Find("Gamma")
	assert.False(t, ok)

	data := ds.EntityData(2e9)
	require.Len(t, data, 2)
	assert.Equal(t, 5e9, data["Alpha"].SharesOutstanding)
	assert.Equal(t, 2e9, data["Beta"].SharesOutstanding, "missing shares use the fallback")
	assert.Equal(t, "BET", data["Beta"].Ticker)
}

func TestResolveShares(t *testing.T) {
	tests := []struct {
		name     string
		shares   float64
		fallback float64
		want     float64
	}{
		{"own value", 7e9, 1e9, 7e9},
		{"zero uses fallback", 0, 1e9, 1e9},
		{"negative uses fallback", -3, 1e9, 1e9},
		{"unusable fallback uses one", 0, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveShares(marketmetrics.EntityMeta{Name: "X", SharesOutstanding: tt.shares}, tt.fallback)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDefaultUniverse(t *testing.T) {
	universe := DefaultUniverse()
	require.NoError(t, ValidateUniverse(universe))
	assert.Len(t, universe, 11)
	for _, e := range universe {
		assert.NotEmpty(t, e.Ticker, e.Name)
		assert.Positive(t, e.SharesOutstanding, e.Name)
	}
}

func TestLoadUniverse(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantLen int
		wantErr string
	}{
		{
			name:    "valid",
			content: "entities:\n  - name: Apple\n    ticker: AAPL\n    shares_outstanding: 14940000000\n  - name: Private Co\n",
			wantLen: 2,
		},
		{name: "empty", content: "entities: []\n", wantErr: "no entities"},
		{name: "missing name", content: "entities:\n  - ticker: AAPL\n", wantErr: "has no name"},
		{name: "duplicate", content: "entities:\n  - name: A\n  - name: A\n", wantErr: "duplicate"},
		{name: "malformed", content: "entities: [\n", wantErr: "parse universe file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "universe.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			universe, err := LoadUniverse(path)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, universe, tt.wantLen)
			assert.Equal(t, 14940000000.0, universe[0].SharesOutstanding)
			assert.Zero(t, universe[1].SharesOutstanding)
		})
	}

	_, err := LoadUniverse(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestUniverseFor(t *testing.T) {
	universe, err := UniverseFor(config.DataConfig{})
	require.NoError(t, err)
	assert.Equal(t, DefaultUniverse(), universe)

	path := filepath.Join(t.TempDir(), "universe.yaml")
	require.NoError(t, os.WriteFile(path, []byte("entities:\n  - name: Alpha\n    ticker: AAA\n"), 0o644))
	universe, err = UniverseFor(config.DataConfig{UniverseFile: path})
	require.NoError(t, err)
	require.Len(t, universe, 1)
	assert.Equal(t, "Alpha", universe[0].Name)

	_, err = UniverseFor(config.DataConfig{UniverseFile: filepath.Join(t.TempDir(), "missing.yaml")})
	assert.ErrorContains(t, err, "failed to load universe")
}

func TestSelectUniverse(t *testing.T) {
	universe := DefaultUniverse()

	tests := []struct {
		name        string
		keys        []string
		wantNames   []string
		wantUnknown []string
	}{
		{
			name:      "tickers and names keep universe order",
			keys:      []string{"tsla", "Apple", " NVDA "},
			wantNames: []string{"Apple", "Nvidia", "Tesla"},
		},
		{
			name:      "duplicates collapse",
			keys:      []string{"AAPL", "apple"},
			wantNames: []string{"Apple"},
		},
		{
			name:        "unknown keys reported",
			keys:        []string{"MSFT", "ACME", ""},
			wantNames:   []string{"Microsoft"},
			wantUnknown: []string{"ACME"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			selected, unknown := SelectUniverse(universe, tt.keys)
			names := make([]string, 0, len(selected))
			for _, e := range selected {
				names = append(names, e.Name)
			}
			assert.Equal(t, tt.wantNames, names)
			assert.Equal(t, tt.wantUnknown, unknown)
		})
	}
}

func TestDatasetRestrict(t *testing.T) {
	ds := &Dataset{
		Source:     "fixture:test",
		Provenance: ProvenanceFixture,
		Entities: []Entity{
			{Meta: marketmetrics.EntityMeta{Name: "Alpha", Ticker: "AAA"}},
			{Meta: marketmetrics.EntityMeta{Name: "Beta", Ticker: "BBB"}},
		},
		Skipped: []SkippedEntity{{Name: "Gamma", Ticker: "GGG", Reason: "price file not found"}},
	}

	got := ds.Restrict([]marketmetrics.EntityMeta{{Name: "Beta"}, {Name: "Gamma"}})
	assert.Equal(t, ProvenanceFixture, got.Provenance)
	assert.Equal(t, "fixture:test", got.Source)
	require.Len(t, got.Entities, 1)
	assert.Equal(t, "Beta", got.Entities[0].Meta.Name)
	require.Len(t, got.Skipped, 1)
	assert.Equal(t, "Gamma", got.Skipped[0].Name)
	assert.Len(t, ds.Entities, 2, "original dataset is left untouched")
}
