package calendar

import (
	"strings"
	"time"

	"github.com/AnshRaj112/ediary-backend/internal/diary"
)

// Cell is one day in a month grid.
type Cell struct {
	Date       time.Time `json:"date"`
	Key        string    `json:"key"`
	Day        int       `json:"day"`
	InMonth    bool      `json:"inMonth"`
	IsToday    bool      `json:"isToday"`
	IsSelected bool      `json:"isSelected"`
	HasEntries bool      `json:"hasEntries"`
	Count      int       `json:"count"`
}

// MonthGrid lays out the month containing month as 42 cells starting on the Sunday
// on or before the first of the month. Dates are computed in month's location.
// A zero selected disables the selection flag.
func MonthGrid(month, selected, today time.Time, byDay map[string][]diary.Entry) []Cell {
	loc := month.Location()
	first := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, loc)
	start := first.AddDate(0, 0, -int(first.Weekday()))

	todayKey := DateKey(today, loc)
	selectedKey := ""
	if !selected.IsZero() {
		selectedKey = DateKey(selected, loc)
	}

	cells := make([]Cell, 0, GridSize)
	for i := 0; i < GridSize; i++ {
		d := start.AddDate(0, 0, i)
		key := d.Format(keyLayout)
		n := len(byDay[key])
		cells = append(cells, Cell{
			Date:       d,
			Key:        key,
			Day:        d.Day(),
			InMonth:    d.Month() == first.Month(),
			IsToday:    key == todayKey,
			IsSelected: key == selectedKey,
			HasEntries: n > 0,
			Count:      n,
		})
	}
	return cells
}

// GreetingName picks the name shown in the home greeting.
func GreetingName(username, firstName, lastName, email string) string {
	if v := strings.TrimSpace(username); v != "" {
		return v
	}
	if full := strings.TrimSpace(strings.TrimSpace(firstName) + " " + strings.TrimSpace(lastName)); full != "" {
		return full
	}
	if local, _, _ := strings.Cut(strings.TrimSpace(email), "@"); local != "" {
		return local
	}
	return "there"
}
