package ledger

import (
	"sort"
	"time"
)

const day = 24 * time.Hour

func utcDayStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// activeDays returns the distinct UTC day starts of dates, ascending.
func activeDays(dates []time.Time) []time.Time {
	seen := make(map[time.Time]struct{}, len(dates))
	days := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		start := utcDayStart(d)
		if _, ok := seen[start]; ok {
			continue
		}
		seen[start] = struct{}{}
		days = append(days, start)
	}
	sort.Slice(days, func(i, j int) bool {
		return days[i].Before(days[j])
	})
	return days
}

// ComputeStreak derives streak stats from session dates. Multiple sessions on
// the same UTC day count once.
func ComputeStreak(dates []time.Time, now time.Time) StreakStats {
	days := activeDays(dates)
	if len(days) == 0 {
		return StreakStats{}
	}

	longest, rolling := 1, 1
	for i := 1; i < len(days); i++ {
		if days[i].Sub(days[i-1]) == day {
			rolling++
		} else {
			rolling = 1
		}
		longest = max(longest, rolling)
	}

	today := utcDayStart(now)
	last := days[len(days)-1]

	current := 0
	if last.Equal(today) || last.Equal(today.Add(-day)) {
		current = 1
		for i := len(days) - 1; i > 0; i-- {
			if days[i].Sub(days[i-1]) != day {
				break
			}
			current++
		}
	}

	return StreakStats{
		CurrentStreak:   current,
		LongestStreak:   longest,
		TotalActiveDays: len(days),
		HasTrainedToday: last.Equal(today),
		LastActiveDate:  &last,
	}
}
