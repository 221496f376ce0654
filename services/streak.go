package services

import "time"

const dayLayout = "2006-01-02"

// activityDay formats t as the UTC calendar day used for streaks
func activityDay(t time.Time) string {
	return t.UTC().Format(dayLayout)
}

// nextStreak advances a daily streak: same day keeps it, the following day
// extends it, any other gap restarts it at 1.
func nextStreak(lastDay string, current int, now time.Time) (string, int) {
	today := activityDay(now)
	if lastDay == "" || current < 1 {
		return today, 1
	}
	if lastDay == today {
		return today, current
	}
	last, err := time.Parse(dayLayout, lastDay)
	if err != nil {
		return today, 1
	}
	if activityDay(last.AddDate(0, 0, 1)) == today {
		return today, current + 1
	}
	return today, 1
}
