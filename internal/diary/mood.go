package diary

import (
	"fmt"
	"strings"
)

// Mood tags an entry with how the author felt.
type Mood string

const (
	MoodSad   Mood = "sad"
	MoodAngry Mood = "angry"
	MoodCalm  Mood = "calm"
	MoodHappy Mood = "happy"
	MoodLove  Mood = "love"

	DefaultMood = MoodCalm
)

// Moods lists the accepted moods in picker order.
var Moods = []Mood{MoodHappy, MoodSad, MoodAngry, MoodCalm, MoodLove}

// MoodMeta is the display metadata for a mood.
type MoodMeta struct {
	Label string `json:"label"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

var moodMeta = map[Mood]MoodMeta{
	MoodHappy: {Label: "Happy", Color: "#F3C95C", Icon: "emoticon-happy-outline"},
	MoodSad:   {Label: "Sad", Color: "#79A7F3", Icon: "emoticon-sad-outline"},
	MoodAngry: {Label: "Angry", Color: "#F37A74", Icon: "emoticon-angry-outline"},
	MoodCalm:  {Label: "Calm", Color: "#68C290", Icon: "emoticon-neutral-outline"},
	MoodLove:  {Label: "In Love", Color: "#E39BCB", Icon: "heart-outline"},
}

// FallbackMeta is shown for moods outside the known set.
var FallbackMeta = MoodMeta{Label: "Memory", Color: "#FFA36C", Icon: "emoticon-outline"}

// ParseMood normalizes s into a Mood. Empty input yields DefaultMood.
func ParseMood(s string) (Mood, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case "":
		return DefaultMood, nil
	case "in love":
		return MoodLove, nil
	}
	m := Mood(v)
	if !m.Valid() {
		return "", &ValidationError{
			Field:   "mood",
			Message: fmt.Sprintf("Mood must be one of sad, angry, calm, happy, love (got %q)", s),
		}
	}
	return m, nil
}

// Valid reports whether m is one of the known moods.
func (m Mood) Valid() bool {
	_, ok := moodMeta[m]
	return ok
}

// Meta returns display metadata, falling back to FallbackMeta.
func (m Mood) Meta() MoodMeta {
	if meta, ok := moodMeta[m]; ok {
		return meta
	}
	return FallbackMeta
}

func (m Mood) String() string { return string(m) }
