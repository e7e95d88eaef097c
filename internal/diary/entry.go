// Package diary holds the diary entry model shared by the server and the client.
package diary

import (
	"sort"
	"strings"
	"time"
)

// Status is the lifecycle state of an entry.
type Status string

const (
	StatusActive  Status = "active"
	StatusTrashed Status = "trashed"
)

// Entry is a single mood-tagged diary record. TrashedAt is nil while the entry is active.
type Entry struct {
	ID        string     `json:"id"`
	Mood      Mood       `json:"mood"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	ImageURI  string     `json:"imageUri,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt,omitzero"`
	TrashedAt *time.Time `json:"trashedAt,omitempty"`
}

func (e Entry) Status() Status {
	if e.TrashedAt != nil {
		return StatusTrashed
	}
	return StatusActive
}

func (e Entry) IsTrashed() bool { return e.TrashedAt != nil }

// Draft is the user input for a new entry. ID and CreatedAt are optional.
type Draft struct {
	ID        string    `json:"id,omitempty"`
	Mood      string    `json:"mood"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	ImageURI  string    `json:"imageUri,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
}

// Normalize trims the text fields, resolves the mood and checks required fields.
func (d Draft) Normalize() (Draft, Mood, error) {
	d.Title = strings.TrimSpace(d.Title)
	d.Content = strings.TrimSpace(d.Content)
	d.ImageURI = strings.TrimSpace(d.ImageURI)

	if d.Title == "" {
		return d, "", &ValidationError{Field: "title", Message: "Title is required"}
	}
	if d.Content == "" {
		return d, "", &ValidationError{Field: "content", Message: "Content is required"}
	}
	mood, err := ParseMood(d.Mood)
	if err != nil {
		return d, "", err
	}
	d.Mood = string(mood)
	return d, mood, nil
}

// NewEntry validates d and builds an active entry. newID is used when d has no ID.
func NewEntry(d Draft, now time.Time, newID func() string) (Entry, error) {
	d, mood, err := d.Normalize()
	if err != nil {
		return Entry{}, err
	}
	e := Entry{
		ID:        d.ID,
		Mood:      mood,
		Title:     d.Title,
		Content:   d.Content,
		ImageURI:  d.ImageURI,
		CreatedAt: d.CreatedAt,
		UpdatedAt: now,
	}
	if e.ID == "" {
		e.ID = newID()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	return e, nil
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	Mood     *string `json:"mood,omitempty"`
	Title    *string `json:"title,omitempty"`
	Content  *string `json:"content,omitempty"`
	ImageURI *string `json:"imageUri,omitempty"`
}

func (p Patch) Empty() bool {
	return p.Mood == nil && p.Title == nil && p.Content == nil && p.ImageURI == nil
}

// Apply merges p into e. Text fields are trimmed; a title or content patched to blank is rejected.
func (p Patch) Apply(e Entry, now time.Time) (Entry, error) {
	if p.Title != nil {
		t := strings.TrimSpace(*p.Title)
		if t == "" {
			return e, &ValidationError{Field: "title", Message: "Title is required"}
		}
		e.Title = t
	}
	if p.Content != nil {
		c := strings.TrimSpace(*p.Content)
		if c == "" {
			return e, &ValidationError{Field: "content", Message: "Content is required"}
		}
		e.Content = c
	}
	if p.Mood != nil {
		m, err := ParseMood(*p.Mood)
		if err != nil {
			return e, err
		}
		e.Mood = m
	}
	if p.ImageURI != nil {
		e.ImageURI = strings.TrimSpace(*p.ImageURI)
	}
	e.UpdatedAt = now
	return e, nil
}

// Matches reports whether query occurs in the entry's title or content, ignoring case.
func (e Entry) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(e.Title+" "+e.Content), q)
}

// Search filters entries by Matches, keeping order.
func Search(entries []Entry, query string) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.Matches(query) {
			out = append(out, e)
		}
	}
	return out
}

// SortNewestFirst orders entries by CreatedAt descending.
func SortNewestFirst(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
}

// SortRecentlyTrashedFirst orders entries by TrashedAt descending. Entries without TrashedAt sort last.
func SortRecentlyTrashedFirst(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i].TrashedAt, entries[j].TrashedAt
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})
}
