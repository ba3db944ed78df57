package domain

import "context"

// AnalyticsRepository aggregates call, SMS and booking rows. All queries are
// scoped by business id and run as SQL aggregation, never row fetches.
type AnalyticsRepository interface {
	Stats(ctx context.Context, businessID string, r DateRange) (*Stats, error)
	CallVolume(ctx context.Context, businessID string, r DateRange) ([]CallVolumePoint, error)
	CallOutcomes(ctx context.Context, businessID string, r DateRange) (*CallOutcomes, error)
	PeakHours(ctx context.Context, businessID string, r DateRange) ([]PeakHourPoint, error)
	TopServices(ctx context.Context, businessID string, r DateRange, limit int) ([]TopService, error)
}
