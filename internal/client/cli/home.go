package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/AnshRaj112/ediary-backend/internal/calendar"
	"github.com/AnshRaj112/ediary-backend/pkg/utils"
)

const recentCount = 3

func (c *cli) homeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "home",
		Short: "Greeting, streaks and your latest entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := c.user()
			if err != nil {
				return err
			}
			loc, err := c.location()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			active := c.entries.Active()

			fmt.Fprintf(out, "Hello, %s!\n\n", greeting(u))
			printStats(out, calendar.Summarize(active, c.now().In(loc)))

			recent := calendar.Recent(active, recentCount)
			if len(recent) == 0 {
				return nil
			}
			fmt.Fprintln(out, "\nRecent entries")
			return printEntries(out, recent, loc, false)
		},
	}
}

func (c *cli) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Entry count, streaks and words written",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := c.user(); err != nil {
				return err
			}
			loc, err := c.location()
			if err != nil {
				return err
			}
			printStats(cmd.OutOrStdout(), calendar.Summarize(c.entries.Active(), c.now().In(loc)))
			return nil
		},
	}
}

func printStats(w io.Writer, s calendar.Stats) {
	fmt.Fprintf(w, "Entries: %d\n", s.TotalEntries)
	fmt.Fprintf(w, "Current streak: %d %s\n", s.CurrentStreak, plural(s.CurrentStreak, "day", "days"))
	fmt.Fprintf(w, "Longest streak: %d %s\n", s.LongestStreak, plural(s.LongestStreak, "day", "days"))
	fmt.Fprintf(w, "Words written: %d\n", s.TotalWords)
}

func (c *cli) calendarCmd() *cobra.Command {
	var month, day string
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Month view with the entries of one day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := c.user(); err != nil {
				return err
			}
			loc, err := c.location()
			if err != nil {
				return err
			}
			today := c.now().In(loc)

			selected := today
			if day != "" {
				if selected, err = calendar.ParseDateKey(day, loc); err != nil {
					return utils.NewValidationError("day", "Day must look like 2025-10-09")
				}
			}
			shown := selected
			if month != "" {
				if shown, err = time.ParseInLocation("2006-01", month, loc); err != nil {
					return utils.NewValidationError("month", "Month must look like 2025-10")
				}
			}

			byDay := calendar.GroupByDay(c.entries.Active(), loc)
			out := cmd.OutOrStdout()
			printMonth(out, shown, calendar.MonthGrid(shown, selected, today, byDay))

			key := calendar.DateKey(selected, loc)
			list := byDay[key]
			fmt.Fprintf(out, "\n%s\n", selected.Format("Monday, January 2, 2006"))
			if len(list) == 0 {
				fmt.Fprintln(out, "No entries on this day.")
				return nil
			}
			return printEntries(out, list, loc, false)
		},
	}
	cmd.Flags().StringVar(&month, "month", "", "month to show as YYYY-MM, default is the selected day's month")
	cmd.Flags().StringVar(&day, "day", "", "day to list as YYYY-MM-DD, default is today")
	return cmd
}

// printMonth renders the grid. Days with entries carry a '*', today is bracketed and
// days outside the month are blank.
func printMonth(w io.Writer, month time.Time, cells []calendar.Cell) {
	fmt.Fprintf(w, "%s\n", month.Format("January 2006"))
	fmt.Fprintln(w, " Su   Mo   Tu   We   Th   Fr   Sa")
	var line strings.Builder
	for i, cell := range cells {
		switch {
		case !cell.InMonth:
			line.WriteString("     ")
		case cell.IsToday:
			fmt.Fprintf(&line, "[%2d]", cell.Day)
		default:
			fmt.Fprintf(&line, " %2d ", cell.Day)
		}
		if cell.InMonth {
			if cell.HasEntries {
				line.WriteByte('*')
			} else {
				line.WriteByte(' ')
			}
		}
		if i%7 == 6 {
			fmt.Fprintln(w, strings.TrimRight(line.String(), " "))
			line.Reset()
		}
	}
}
