package http

import (
	"context"

	"kbpulse/internal/services"
	"kbpulse/pkg/contracts/domain"
)

// DataServiceInterface defines the data operations the handlers need
type DataServiceInterface interface {
	Categories(ctx context.Context) ([]services.CategoryStatus, error)
	Table(ctx context.Context, category string) (*domain.CleanedSeriesTable, error)
	Taxonomy() []string
	Members(ctx context.Context, category, group string) ([]string, error)
	Series(ctx context.Context, region, primary, secondary string) (*domain.AlignedSeries, error)
	News(ctx context.Context, region string) ([]domain.Headline, error)
	Refresh(ctx context.Context) (*services.Snapshot, error)
}

// HealthServiceInterface reports service health
type HealthServiceInterface interface {
	HealthCheck(ctx context.Context) services.HealthStatus
}
