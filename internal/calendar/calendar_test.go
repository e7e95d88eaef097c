package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnshRaj112/ediary-backend/internal/diary"
)

func at(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, time.UTC)
}

func entriesOn(times ...time.Time) []diary.Entry {
	out := make([]diary.Entry, len(times))
	for i, t := range times {
		out[i] = diary.Entry{ID: t.String(), Title: "t", Content: "c", CreatedAt: t}
	}
	return out
}

func TestDateKey_UsesLocalDate(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*3600)
	assert.Equal(t, "2025-10-10", DateKey(at(2025, 10, 9, 23), loc))
	assert.Equal(t, "2025-10-09", DateKey(at(2025, 10, 9, 23), time.UTC))

	parsed, err := ParseDateKey("2025-10-10", loc)
	require.NoError(t, err)
	assert.Equal(t, "2025-10-10", DateKey(parsed, loc))
}

func TestGroupByDay(t *testing.T) {
	groups := GroupByDay(entriesOn(at(2025, 10, 7, 19), at(2025, 10, 7, 22), at(2025, 10, 8, 8)), time.UTC)
	assert.Len(t, groups, 2)
	assert.Len(t, groups["2025-10-07"], 2)
	assert.Len(t, groups["2025-10-08"], 1)
}

func TestStreaks_GapResetsRun(t *testing.T) {
	entries := entriesOn(at(2025, 10, 1, 9), at(2025, 10, 2, 9), at(2025, 10, 4, 9))

	current, longest := Streaks(entries, at(2025, 10, 10, 12))
	assert.Equal(t, 2, longest)
	assert.Equal(t, 0, current)
}

func TestStreaks_CurrentCountsTodayOrYesterday(t *testing.T) {
	entries := entriesOn(at(2025, 10, 8, 9), at(2025, 10, 9, 9), at(2025, 10, 9, 20), at(2025, 10, 3, 9))

	current, longest := Streaks(entries, at(2025, 10, 9, 23))
	assert.Equal(t, 2, current)
	assert.Equal(t, 2, longest)

	current, _ = Streaks(entries, at(2025, 10, 10, 8))
	assert.Equal(t, 2, current)

	current, _ = Streaks(entries, at(2025, 10, 11, 8))
	assert.Equal(t, 0, current)
}

func TestStreaks_Empty(t *testing.T) {
	current, longest := Streaks(nil, at(2025, 10, 10, 0))
	assert.Zero(t, current)
	assert.Zero(t, longest)
}

func TestWordCount(t *testing.T) {
	entries := []diary.Entry{{Title: "Hello world", Content: "foo  bar\nbaz"}}
	assert.Equal(t, 5, WordCount(entries))
	assert.Equal(t, 0, WordCount([]diary.Entry{{Title: " ", Content: ""}}))
}

func TestSummarize(t *testing.T) {
	entries := []diary.Entry{
		{Title: "one two", Content: "three", CreatedAt: at(2025, 10, 9, 9)},
		{Title: "four", Content: "five six", CreatedAt: at(2025, 10, 10, 9)},
	}
	s := Summarize(entries, at(2025, 10, 10, 18))
	assert.Equal(t, Stats{TotalEntries: 2, CurrentStreak: 2, LongestStreak: 2, TotalWords: 6}, s)
}

func TestRecent(t *testing.T) {
	entries := entriesOn(at(2025, 10, 1, 1), at(2025, 10, 3, 1), at(2025, 10, 2, 1))
	got := Recent(entries, 2)
	require.Len(t, got, 2)
	assert.Equal(t, at(2025, 10, 3, 1), got[0].CreatedAt)
	assert.Equal(t, at(2025, 10, 2, 1), got[1].CreatedAt)
	assert.Equal(t, at(2025, 10, 1, 1), entries[0].CreatedAt, "input left untouched")
}

func TestMonthGrid(t *testing.T) {
	byDay := GroupByDay(entriesOn(at(2025, 10, 7, 19), at(2025, 10, 7, 22)), time.UTC)
	cells := MonthGrid(at(2025, 10, 15, 0), at(2025, 10, 7, 0), at(2025, 10, 9, 0), byDay)

	require.Len(t, cells, GridSize)
	// October 2025 starts on a Wednesday, so the grid opens on Sunday 28 September.
	assert.Equal(t, "2025-09-28", cells[0].Key)
	assert.Equal(t, time.Sunday, cells[0].Date.Weekday())
	assert.False(t, cells[0].InMonth)
	assert.True(t, cells[3].InMonth)
	assert.Equal(t, 1, cells[3].Day)

	var sel, today, with int
	for _, c := range cells {
		if c.IsSelected {
			sel++
			assert.Equal(t, "2025-10-07", c.Key)
			assert.True(t, c.HasEntries)
			assert.Equal(t, 2, c.Count)
		}
		if c.IsToday {
			today++
			assert.Equal(t, "2025-10-09", c.Key)
		}
		if c.HasEntries {
			with++
		}
	}
	assert.Equal(t, 1, sel)
	assert.Equal(t, 1, today)
	assert.Equal(t, 1, with)
}

func TestGreetingName(t *testing.T) {
	assert.Equal(t, "diarist", GreetingName("diarist", "Ada", "L", "a@b.c"))
	assert.Equal(t, "Ada Lovelace", GreetingName("", "Ada", "Lovelace", "a@b.c"))
	assert.Equal(t, "Ada", GreetingName(" ", "Ada", "", "a@b.c"))
	assert.Equal(t, "ada", GreetingName("", "", "", "ada@example.com"))
	assert.Equal(t, "there", GreetingName("", "", "", ""))
}
