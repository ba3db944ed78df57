package app

import (
	"context"
	"log/slog"

	"github.com/replytics/dashboard-api/internal/analytics_service/domain"
)

const topServicesLimit = 5

// Application assembles the analytics overview.
type Application struct {
	analyticsRepo domain.AnalyticsRepository
	logger        *slog.Logger
}

func NewApplication(analyticsRepo domain.AnalyticsRepository, logger *slog.Logger) *Application {
	return &Application{analyticsRepo: analyticsRepo, logger: logger}
}

// Overview returns stats and chart series for the range.
func (a *Application) Overview(ctx context.Context, businessID string, r domain.DateRange) (*domain.Overview, error) {
	stats, err := a.analyticsRepo.Stats(ctx, businessID, r)
	if err != nil {
		a.logger.ErrorContext(ctx, "Failed to load analytics stats", "error", err, "business_id", businessID)
		return nil, err
	}
	volume, err := a.analyticsRepo.CallVolume(ctx, businessID, r)
	if err != nil {
		return nil, err
	}
	outcomes, err := a.analyticsRepo.CallOutcomes(ctx, businessID, r)
	if err != nil {
		return nil, err
	}
	peaks, err := a.analyticsRepo.PeakHours(ctx, businessID, r)
	if err != nil {
		return nil, err
	}
	top, err := a.analyticsRepo.TopServices(ctx, businessID, r, topServicesLimit)
	if err != nil {
		return nil, err
	}

	return &domain.Overview{
		Stats: *stats,
		Charts: domain.Charts{
			CallVolume:   volume,
			CallOutcomes: *outcomes,
			PeakHours:    peaks,
			TopServices:  top,
		},
	}, nil
}
