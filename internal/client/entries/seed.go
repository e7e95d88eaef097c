package entries

import (
	"time"

	"github.com/AnshRaj112/ediary-backend/internal/diary"
)

// seedIdentity is the only identity that starts with demo entries.
const seedIdentity = "admin"

// SeedEntries returns the demo entries shown to the admin account on first use.
func SeedEntries() []diary.Entry {
	return []diary.Entry{
		{
			ID:        "entry-1",
			Mood:      diary.MoodSad,
			Title:     "Lost my precious item",
			Content:   "I misplaced something important today. Hoping it turns up soon.",
			CreatedAt: time.Date(2025, 10, 9, 23, 0, 0, 0, time.UTC),
		},
		{
			ID:        "entry-2",
			Mood:      diary.MoodAngry,
			Title:     "Travel",
			Content:   "Even with the delays, the trip was worth it in the end.",
			CreatedAt: time.Date(2025, 10, 8, 8, 0, 0, 0, time.UTC),
		},
		{
			ID:        "entry-3",
			Mood:      diary.MoodCalm,
			Title:     "Bad day",
			Content:   "Trying to unwind after everything that happened.",
			CreatedAt: time.Date(2025, 10, 7, 22, 0, 0, 0, time.UTC),
		},
		{
			ID:        "entry-4",
			Mood:      diary.MoodLove,
			Title:     "She's pretty",
			Content:   "I finally told her how I felt today.",
			CreatedAt: time.Date(2025, 10, 7, 19, 0, 0, 0, time.UTC),
		},
		{
			ID:        "entry-5",
			Mood:      diary.MoodHappy,
			Title:     "First day in work",
			Content:   "Excited to start this new chapter!",
			CreatedAt: time.Date(2025, 10, 1, 15, 0, 0, 0, time.UTC),
		},
	}
}
