package http

import (
	"context"

	"capboard/internal/marketmetrics"
	"capboard/internal/services"
)

// MarketService is the part of services.DashboardService the market routes use
type MarketService interface {
	Build(ctx context.Context, opts services.BuildOptions) (*services.Dashboard, error)
	MarketCaps(ctx context.Context, opts services.BuildOptions) (*services.CapRanking, error)
	Returns(ctx context.Context, window marketmetrics.Window, opts services.BuildOptions) (*services.ReturnRanking, error)
	Volatility(ctx context.Context, opts services.BuildOptions) (*services.VolatilityRanking, error)
	Entity(ctx context.Context, key string, period marketmetrics.Period) (*services.EntityDetail, error)
}

// Ensure DashboardService implements MarketService
var _ MarketService = (*services.DashboardService)(nil)
