package dateutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestManualClock(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewManualClock(start)
	require.Equal(t, start, c.Now())

	c.Advance(time.Hour)
	require.Equal(t, start.Add(time.Hour), c.Now())

	c.Advance(-time.Hour)
	require.Equal(t, start.Add(time.Hour), c.Now())

	c.Set(start)
	require.Equal(t, start.Add(time.Hour), c.Now())

	c.Set(start.Add(2 * time.Hour))
	require.Equal(t, start.Add(2*time.Hour), c.Now())
}

func TestWithinWindow(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	window := 30 * 24 * time.Hour

	testCases := []struct {
		name string
		now  time.Time
		want bool
	}{
		{name: "at start", now: start, want: true},
		{name: "exactly at the end", now: start.Add(window), want: true},
		{name: "one nanosecond late", now: start.Add(window + 1), want: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, WithinWindow(tc.now, start, window))
		})
	}
}
