package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Data      DataConfig      `yaml:"data" envconfig:"DATA"`
	Metrics   MetricsConfig   `yaml:"metrics" envconfig:"METRICS"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	RateLimit RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS"`
	Burst   int     `yaml:"burst" envconfig:"BURST"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL"`
	Format      string `yaml:"format" envconfig:"FORMAT"`
	Output      string `yaml:"output" envconfig:"OUTPUT"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
}

// DataConfig selects and configures the price source
type DataConfig struct {
	Source           string `yaml:"source" envconfig:"SOURCE"` // fixture | synthetic
	FixtureDir       string `yaml:"fixture_dir" envconfig:"FIXTURE_DIR"`
	UniverseFile     string `yaml:"universe_file" envconfig:"UNIVERSE_FILE"`
	Concurrency      int    `yaml:"concurrency" envconfig:"CONCURRENCY"`
	SyntheticSeed    int64  `yaml:"synthetic_seed" envconfig:"SYNTHETIC_SEED"`
	SyntheticStart   string `yaml:"synthetic_start" envconfig:"SYNTHETIC_START"`
	SyntheticPeriods int    `yaml:"synthetic_periods" envconfig:"SYNTHETIC_PERIODS"`
}

// MetricsConfig contains defaults for the market metric tables
type MetricsConfig struct {
	TopN           int     `yaml:"top_n" envconfig:"TOP_N"`
	ReturnsTopN    int     `yaml:"returns_top_n" envconfig:"RETURNS_TOP_N"`
	FallbackShares float64 `yaml:"fallback_shares" envconfig:"FALLBACK_SHARES"`
	DefaultPeriod  string  `yaml:"default_period" envconfig:"DEFAULT_PERIOD"`
}

// TelemetryConfig controls tracing and metrics export
type TelemetryConfig struct {
	ServiceName    string  `yaml:"service_name" envconfig:"SERVICE_NAME"`
	TracingEnabled bool    `yaml:"tracing_enabled" envconfig:"TRACING_ENABLED"`
	TraceExporter  string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER"` // stdout | none
	SampleRatio    float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO"`
	MetricsEnabled bool    `yaml:"metrics_enabled" envconfig:"METRICS_ENABLED"`
}

// Load builds the configuration from defaults, then the YAML file at path
// (skipped when path is empty), then CAPBOARD_* environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// FindConfigFile returns the first existing config file in the common locations
func FindConfigFile() string {
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// loadFromFile overlays the YAML file on cfg; keys absent from the file keep their value
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.Security.RateLimit.Enabled && (c.Security.RateLimit.RPS <= 0 || c.Security.RateLimit.Burst <= 0) {
		return fmt.Errorf("rate limit requires positive rps and burst")
	}

	c.Logging.Level = strings.ToLower(c.Logging.Level)
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging level: %q", c.Logging.Level)
	}

	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		c.Logging.Format = "json"
	}

	switch c.Logging.Output {
	case "console", "file", "both":
	default:
		c.Logging.Output = "console"
	}

	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		c.Logging.FilePath = DefaultLogFile
	}

	c.Data.Source = strings.ToLower(c.Data.Source)
	switch c.Data.Source {
	case SourceFixture:
		if c.Data.FixtureDir == "" {
			return fmt.Errorf("fixture source requires data.fixture_dir")
		}
	case SourceSynthetic:
		if _, err := time.Parse("2006-01-02", c.Data.SyntheticStart); err != nil {
			return fmt.Errorf("invalid synthetic start date %q: %w", c.Data.SyntheticStart, err)
		}
		if c.Data.SyntheticPeriods <= 0 {
			return fmt.Errorf("synthetic periods must be positive")
		}
	default:
		return fmt.Errorf("unknown data source: %q", c.Data.Source)
	}

	if c.Metrics.TopN <= 0 {
		return fmt.Errorf("metrics top_n must be positive")
	}
	if c.Metrics.ReturnsTopN <= 0 {
		return fmt.Errorf("metrics returns_top_n must be positive")
	}
	if c.Metrics.FallbackShares <= 0 {
		c.Metrics.FallbackShares = DefaultFallbackShares
	}
	switch c.Metrics.DefaultPeriod {
	case "", "1y", "2y", "3y", "all":
	default:
		return fmt.Errorf("invalid metrics default_period: %q", c.Metrics.DefaultPeriod)
	}

	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("telemetry sample_ratio must be within [0, 1]")
	}

	return nil
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20, // 1MB
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  DefaultRequestTimeout,
		},
		Security: SecurityConfig{
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     DefaultRateLimit,
				Burst:   DefaultBurstSize,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: DefaultLogFile,
		},
		Data: DataConfig{
			Source:           SourceSynthetic,
			FixtureDir:       "data/prices",
			Concurrency:      4,
			SyntheticSeed:    42,
			SyntheticStart:   "2022-03-31",
			SyntheticPeriods: 13,
		},
		Metrics: MetricsConfig{
			TopN:           DefaultTopN,
			ReturnsTopN:    DefaultReturnsTopN,
			FallbackShares: DefaultFallbackShares,
			DefaultPeriod:  "all",
		},
		Telemetry: TelemetryConfig{
			ServiceName:    AppName,
			TracingEnabled: false,
			TraceExporter:  "none",
			SampleRatio:    1.0,
			MetricsEnabled: true,
		},
	}
}
