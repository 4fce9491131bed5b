package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(d int) time.Time {
	return time.Date(2025, 3, d, 0, 0, 0, 0, time.UTC)
}

func TestDayRange(t *testing.T) {
	now := time.Date(2025, 3, 10, 7, 30, 0, 0, time.UTC)

	tests := []struct {
		name         string
		from, to     string
		lastArchived time.Time
		first, last  time.Time
	}{
		{"empty archive", "", "", time.Time{}, date(9), date(9)},
		{"resumes after last archived", "", "", date(5), date(6), date(9)},
		{"up to date", "", "", date(9), date(9), date(9)},
		{"explicit from", "2025-03-01", "", date(5), date(1), date(1)},
		{"explicit range", "2025-03-01", "2025-03-04", time.Time{}, date(1), date(4)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first, last, err := dayRange(tt.from, tt.to, now, tt.lastArchived)
			require.NoError(t, err)
			assert.Equal(t, tt.first, first)
			assert.Equal(t, tt.last, last)
		})
	}

	_, _, err := dayRange("03/01/2025", "", now, time.Time{})
	assert.Error(t, err)
}
