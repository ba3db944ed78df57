package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrValidation indicates an invalid date range.
	ErrValidation = errors.New("validation failed")
)

// MaxRangeDays caps the analytics window.
const MaxRangeDays = 365

// DateRange is a closed interval of instants.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange validates and defaults a range: an empty range means the
// last 30 days, and spans longer than a year are rejected.
func NewDateRange(start, end *time.Time) (DateRange, error) {
	now := time.Now().UTC()
	r := DateRange{Start: now.AddDate(0, 0, -30), End: now}
	if end != nil {
		r.End = end.UTC()
	}
	if start != nil {
		r.Start = start.UTC()
	}
	if r.Start.After(r.End) {
		return DateRange{}, fmt.Errorf("%w: start date must not be after end date", ErrValidation)
	}
	if r.End.Sub(r.Start) > MaxRangeDays*24*time.Hour {
		return DateRange{}, fmt.Errorf("%w: date range must not exceed %d days", ErrValidation, MaxRangeDays)
	}
	return r, nil
}

// Stats are the headline numbers for the dashboard cards.
type Stats struct {
	TotalCalls      int64   `json:"totalCalls"`
	AnsweredCalls   int64   `json:"answeredCalls"`
	MissedCalls     int64   `json:"missedCalls"`
	AvgCallDuration float64 `json:"avgCallDuration"` // seconds
	TotalSMS        int64   `json:"totalSMS"`
	CallsToday      int64   `json:"callsToday"`
	SMSToday        int64   `json:"smsToday"`
	BookingsToday   int64   `json:"bookingsToday"`
}

// CallVolumePoint is one day of call volume.
type CallVolumePoint struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Calls int64  `json:"calls"`
}

// CallOutcomes is the outcome distribution over the range.
type CallOutcomes struct {
	Answered  int64 `json:"answered"`
	Missed    int64 `json:"missed"`
	Voicemail int64 `json:"voicemail"`
}

// PeakHourPoint is call volume for one hour of day (0-23).
type PeakHourPoint struct {
	Hour  int   `json:"hour"`
	Calls int64 `json:"calls"`
}

// TopService is one catalog item ranked by bookings.
type TopService struct {
	Service  string `json:"service"`
	Bookings int64  `json:"bookings"`
}

// Charts holds the aggregated series for the overview graphs.
type Charts struct {
	CallVolume   []CallVolumePoint `json:"callVolume"`
	CallOutcomes CallOutcomes      `json:"callOutcomes"`
	PeakHours    []PeakHourPoint   `json:"peakHours"`
	TopServices  []TopService      `json:"topServices"`
}

// Overview is the full analytics payload.
type Overview struct {
	Stats  Stats  `json:"stats"`
	Charts Charts `json:"charts"`
}
