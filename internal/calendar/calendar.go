// Package calendar aggregates diary entries by local calendar day.
package calendar

import (
	"sort"
	"strings"
	"time"

	"github.com/AnshRaj112/ediary-backend/internal/diary"
)

const keyLayout = "2006-01-02"

// GridSize is the number of cells in a month grid: six Sunday-first weeks.
const GridSize = 42

// DateKey formats the local date of t in loc as YYYY-MM-DD.
func DateKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(keyLayout)
}

// ParseDateKey parses a YYYY-MM-DD key as local midnight in loc.
func ParseDateKey(key string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(keyLayout, key, loc)
}

// StartOfDay returns local midnight of t in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// GroupByDay buckets entries by their local creation day. Each bucket keeps input order.
func GroupByDay(entries []diary.Entry, loc *time.Location) map[string][]diary.Entry {
	out := make(map[string][]diary.Entry)
	for _, e := range entries {
		k := DateKey(e.CreatedAt, loc)
		out[k] = append(out[k], e)
	}
	return out
}

// dayNumber counts days since the epoch for the local date of t, ignoring DST shifts.
func dayNumber(t time.Time, loc *time.Location) int64 {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400
}

// Streaks returns the current and longest runs of consecutive days with entries,
// evaluated in now's location. The current streak is zero unless the most recent
// entry day is today or yesterday.
func Streaks(entries []diary.Entry, now time.Time) (current, longest int) {
	if len(entries) == 0 {
		return 0, 0
	}
	loc := now.Location()

	seen := make(map[int64]struct{}, len(entries))
	days := make([]int64, 0, len(entries))
	for _, e := range entries {
		n := dayNumber(e.CreatedAt, loc)
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		days = append(days, n)
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })

	run := 0
	for i, d := range days {
		if i > 0 && d-days[i-1] == 1 {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}

	gap := dayNumber(now, loc) - days[len(days)-1]
	if gap == 0 || gap == 1 {
		current = run
	}
	return current, longest
}

// WordCount sums whitespace-separated tokens over title and content of each entry.
func WordCount(entries []diary.Entry) int {
	total := 0
	for _, e := range entries {
		total += len(strings.Fields(e.Title + " " + e.Content))
	}
	return total
}

// Stats is the profile summary of a user's active entries.
type Stats struct {
	TotalEntries  int `json:"totalEntries"`
	CurrentStreak int `json:"currentStreak"`
	LongestStreak int `json:"longestStreak"`
	TotalWords    int `json:"totalWords"`
}

func Summarize(entries []diary.Entry, now time.Time) Stats {
	current, longest := Streaks(entries, now)
	return Stats{
		TotalEntries:  len(entries),
		CurrentStreak: current,
		LongestStreak: longest,
		TotalWords:    WordCount(entries),
	}
}

// Recent returns up to n entries, newest first. n <= 0 returns all of them.
func Recent(entries []diary.Entry, n int) []diary.Entry {
	out := make([]diary.Entry, len(entries))
	copy(out, entries)
	diary.SortNewestFirst(out)
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
