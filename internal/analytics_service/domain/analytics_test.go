package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDateRange(t *testing.T) {
	t.Run("DefaultsToLast30Days", func(t *testing.T) {
		r, err := NewDateRange(nil, nil)
		require.NoError(t, err)
		assert.WithinDuration(t, time.Now().UTC(), r.End, 2*time.Second)
		assert.WithinDuration(t, r.End.AddDate(0, 0, -30), r.Start, 2*time.Second)
	})

	t.Run("ExplicitRange", func(t *testing.T) {
		start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
		r, err := NewDateRange(&start, &end)
		require.NoError(t, err)
		assert.Equal(t, start, r.Start)
		assert.Equal(t, end, r.End)
	})

	t.Run("StartAfterEnd", func(t *testing.T) {
		start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		_, err := NewDateRange(&start, &end)
		require.ErrorIs(t, err, ErrValidation)
	})

	t.Run("SpanOverOneYear", func(t *testing.T) {
		start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
		_, err := NewDateRange(&start, &end)
		require.ErrorIs(t, err, ErrValidation)
	})

	t.Run("ExactlyOneYearAllowed", func(t *testing.T) {
		start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		end := start.Add(365 * 24 * time.Hour)
		_, err := NewDateRange(&start, &end)
		require.NoError(t, err)
	})
}
