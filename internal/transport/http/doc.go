// Package http implements the HTTP handlers of the capboard service.
//
// Handlers stay thin: they decode and validate query parameters, call the
// dashboard or health service, and render the result. Successful market
// responses use one envelope:
//
//	{"status": "success", "data": {...}, "count": 10}
//
// Errors are rendered as RFC 7807 problem details through
// errors.ErrorHandler, so a bad "top" or "period" produces a 400 with the
// rejected parameter named in the detail and an unknown entity a 404.
//
// # Routes
//
//	GET /api/health                      health, /ready and /live checks
//	GET /api/version                     build and runtime information
//	GET /api/market/caps                 ranked market caps (json|csv)
//	GET /api/market/returns              trailing 1y or 3y returns (json|csv)
//	GET /api/market/volatility           annualized volatility (json|csv)
//	GET /api/market/dashboard            every table of one build (json|xlsx)
//	GET /api/market/entities/{name}      one entity's metrics
//	GET /api/market/entities/{name}/caps one entity's market-cap series
//	GET /metrics                         Prometheus scrape
//
// The table routes accept entities=AAPL,Microsoft to restrict the build to a
// subset of the universe, matched by name or ticker.
//
// Every market response carries the provenance of its prices, "fixture"
// or "synthetic", so synthetic numbers are never mistaken for market data.
package http
