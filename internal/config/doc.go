// Package config loads the capboard configuration.
//
// # Configuration Sources
//
// Values are applied in this order, later sources overriding earlier ones:
//
//	1. Default() values
//	2. A YAML file passed to Load (optional)
//	3. Environment variables prefixed with CAPBOARD_
//
// Environment variables follow the struct nesting:
//
//	CAPBOARD_SERVER_PORT=9090
//	CAPBOARD_LOGGING_LEVEL=debug
//	CAPBOARD_DATA_SOURCE=fixture
//	CAPBOARD_DATA_FIXTURE_DIR=/srv/prices
//	CAPBOARD_METRICS_TOP_N=5
//
// # Example File
//
//	server:
//	  port: 8080
//	  read_timeout: 15s
//	data:
//	  source: synthetic
//	  synthetic_seed: 7
//	metrics:
//	  top_n: 10
//	  returns_top_n: 5
//	  fallback_shares: 1
//
// Load validates the merged result and normalizes a few fields (log format,
// log output, fallback shares) to safe values.
//
// GetPaths resolves the data/prices, data/reports and logs directories next
// to the running executable.
package config
