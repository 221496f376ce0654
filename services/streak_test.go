package services

import (
	"testing"
	"time"
)

func TestNextStreak(t *testing.T) {
	now := time.Date(2026, 1, 1, 8, 30, 0, 0, time.UTC)

	cases := []struct {
		name    string
		lastDay string
		current int
		wantDay string
		wantRun int
	}{
		{"first activity", "", 0, "2026-01-01", 1},
		{"same day", "2026-01-01", 4, "2026-01-01", 4},
		{"next day across year", "2025-12-31", 4, "2026-01-01", 5},
		{"gap resets", "2025-12-29", 4, "2026-01-01", 1},
		{"garbage day resets", "yesterday", 9, "2026-01-01", 1},
	}

	for _, tc := range cases {
		day, run := nextStreak(tc.lastDay, tc.current, now)
		if day != tc.wantDay || run != tc.wantRun {
			t.Errorf("%s: expected (%s, %d), got (%s, %d)", tc.name, tc.wantDay, tc.wantRun, day, run)
		}
	}
}

func TestActivityDayUsesUTC(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	local := time.Date(2026, 3, 2, 5, 0, 0, 0, loc)
	if got := activityDay(local); got != "2026-03-01" {
		t.Errorf("Expected UTC day 2026-03-01, got %s", got)
	}
}
