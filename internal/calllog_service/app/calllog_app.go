package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/replytics/dashboard-api/internal/calllog_service/domain"
)

// Application serves call history, recordings and call stats.
type Application struct {
	callRepo domain.CallRepository
	logger   *slog.Logger
}

func NewApplication(callRepo domain.CallRepository, logger *slog.Logger) *Application {
	return &Application{callRepo: callRepo, logger: logger}
}

// ListCalls returns one page of call history.
func (a *Application) ListCalls(ctx context.Context, businessID string, filter domain.ListFilter) (*domain.CallPage, error) {
	if err := filter.Normalize(); err != nil {
		return nil, err
	}
	page, err := a.callRepo.List(ctx, businessID, filter)
	if err != nil {
		a.logger.ErrorContext(ctx, "Failed to list calls", "error", err, "business_id", businessID)
		return nil, err
	}
	return page, nil
}

// RecordingURL returns the recording for a call the business owns. A call
// owned by another business reads as not found.
func (a *Application) RecordingURL(ctx context.Context, callID string, businessID string) (string, error) {
	call, err := a.callRepo.GetByID(ctx, callID, businessID)
	if err != nil {
		return "", err
	}
	if call.RecordingURL == "" {
		return "", domain.ErrNoRecording
	}
	return call.RecordingURL, nil
}

// RecordCall upserts a call reported by the voice platform. Replays of the
// same call ID overwrite the previous row.
func (a *Application) RecordCall(ctx context.Context, call *domain.Call) error {
	if call.ID == "" || call.BusinessID == "" {
		return domain.ErrValidation
	}
	if call.CreatedAt.IsZero() {
		call.CreatedAt = time.Now().UTC()
	}
	if err := a.callRepo.Upsert(ctx, call); err != nil {
		a.logger.ErrorContext(ctx, "Failed to record call", "error", err, "call_id", call.ID, "business_id", call.BusinessID)
		return err
	}
	return nil
}

// Stats returns the today/this-week summary.
func (a *Application) Stats(ctx context.Context, businessID string) (*domain.CallStats, error) {
	stats, err := a.callRepo.Stats(ctx, businessID)
	if err != nil {
		a.logger.ErrorContext(ctx, "Failed to load call stats", "error", err, "business_id", businessID)
		return nil, err
	}
	return stats, nil
}
