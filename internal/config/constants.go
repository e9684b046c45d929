package config

import "time"

// Application constants
const (
	AppName    = "capboard"
	AppVersion = "1.0.0"

	// EnvPrefix namespaces environment overrides, e.g. CAPBOARD_SERVER_PORT
	EnvPrefix = "CAPBOARD"

	// Data sources
	SourceFixture   = "fixture"
	SourceSynthetic = "synthetic"

	// Table sizes
	DefaultTopN        = 10
	DefaultReturnsTopN = 5
	MaxTopN            = 100

	DefaultFallbackShares = 1.0

	// Rate limiting
	DefaultRateLimit = 100 // requests per second
	DefaultBurstSize = 50

	DefaultRequestTimeout = 30 * time.Second
	DefaultLogFile        = "logs/capboard.log"
)
