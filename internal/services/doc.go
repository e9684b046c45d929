// Package services implements the business logic layer of capboard.
// It sits between the HTTP handlers and the price sources, so handlers never
// touch a datasource or the metric functions directly.
//
// DashboardService loads one dataset per request from its configured source,
// runs the market metric computations over it and returns tables labeled
// with the provenance of their prices:
//
//	svc, err := services.NewDashboardService(source, universe, cfg.Metrics, logger,
//		services.WithTracer(providers.Tracer),
//		services.WithMetrics(metrics),
//	)
//	dash, err := svc.Build(ctx, services.BuildOptions{Top: 10, Period: marketmetrics.Period3Y})
//
// Per-entity failures are part of every result and never fail a build. A build
// fails only when the source cannot be loaded at all or supplies no entity.
//
// HealthService answers liveness and readiness checks; readiness loads the
// dataset once through DatasetChecker.
package services
