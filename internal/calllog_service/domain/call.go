package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrCallNotFound indicates the call does not exist for this business.
	ErrCallNotFound = errors.New("call not found")
	// ErrNoRecording indicates the call has no recording attached.
	ErrNoRecording = errors.New("no recording available for this call")
	// ErrValidation indicates an invalid filter value.
	ErrValidation = errors.New("validation failed")
)

// Call statuses written by the voice platform.
const (
	StatusCompleted  = "completed"
	StatusMissed     = "missed"
	StatusInProgress = "in_progress"
	StatusFailed     = "failed"
)

// Call is one handled or attempted phone call.
type Call struct {
	ID              string    `json:"id"`
	BusinessID      string    `json:"business_id"`
	CustomerPhone   string    `json:"customer_phone"`
	Status          string    `json:"status"`
	Outcome         string    `json:"outcome,omitempty"`
	DurationSeconds int       `json:"duration_seconds"`
	RecordingURL    string    `json:"recording_url,omitempty"`
	Transcript      string    `json:"transcript,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// ListFilter selects a page of call history.
type ListFilter struct {
	Start  *time.Time
	End    *time.Time
	Status string
	Limit  int
	Offset int
}

// Normalize applies defaults and validates bounds.
func (f *ListFilter) Normalize() error {
	if f.Limit == 0 {
		f.Limit = 50
	}
	if f.Limit < 1 || f.Limit > 100 {
		return fmt.Errorf("%w: limit must be between 1 and 100", ErrValidation)
	}
	if f.Offset < 0 {
		return fmt.Errorf("%w: offset must not be negative", ErrValidation)
	}
	switch f.Status {
	case "", StatusCompleted, StatusMissed, StatusInProgress, StatusFailed:
	default:
		return fmt.Errorf("%w: unknown status %q", ErrValidation, f.Status)
	}
	if f.Start != nil && f.End != nil && f.Start.After(*f.End) {
		return fmt.Errorf("%w: start date must not be after end date", ErrValidation)
	}
	return nil
}

// CallPage is one page of history plus the unpaginated total.
type CallPage struct {
	Calls []*Call `json:"calls"`
	Total int64   `json:"total"`
}

// CallStats is the today/this-week summary.
type CallStats struct {
	TodayTotal    int64 `json:"todayTotal"`
	TodayAnswered int64 `json:"todayAnswered"`
	TodayMissed   int64 `json:"todayMissed"`
	WeekTotal     int64 `json:"weekTotal"`
	WeekAnswered  int64 `json:"weekAnswered"`
	WeekMissed    int64 `json:"weekMissed"`
}
