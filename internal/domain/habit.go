package domain

import (
	"slices"
	"strings"
	"time"
)

// Weekday is a stringified weekday digit '0' (Sunday) through '6' (Saturday),
// matching the wire contract.
type Weekday string

// WeekdayOf derives the weekday code of a moment in that moment's location.
func WeekdayOf(t time.Time) Weekday {
	return Weekday('0' + rune(t.Weekday()))
}

// ParseWeekday validates a wire weekday code.
func ParseWeekday(raw string) (Weekday, error) {
	raw = strings.TrimSpace(raw)
	if len(raw) != 1 || raw[0] < '0' || raw[0] > '6' {
		return "", ErrInvalidWeekday
	}
	return Weekday(raw), nil
}

// Habit is a recurring practice scheduled on fixed weekdays. Dates holds the
// completion history with at most one entry per calendar date.
type Habit struct {
	ID    int
	Name  string
	Days  []Weekday
	Dates []Date
}

// AvailableOn reports whether the habit is scheduled for the date's weekday.
func (h Habit) AvailableOn(d Date) bool {
	return slices.Contains(h.Days, d.Weekday())
}

// CompletedOn reports whether the habit was completed on the date.
func (h Habit) CompletedOn(d Date) bool {
	return slices.Contains(h.Dates, d)
}

// ToggleDate flips the date's membership in the completion set: added when
// absent, removed when present, never duplicated. This is the local mirror
// of the server-side toggle, used for optimistic rendering.
func (h *Habit) ToggleDate(d Date) {
	for idx, existing := range h.Dates {
		if existing == d {
			h.Dates = append(h.Dates[:idx], h.Dates[idx+1:]...)
			return
		}
	}
	h.Dates = append(h.Dates, d)
}

// NewHabitInput validates habit creation fields before they are sent to the
// server.
func NewHabitInput(name string, days []Weekday) (string, []Weekday, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", nil, ErrInvalidName
	}
	out := make([]Weekday, 0, len(days))
	for _, day := range days {
		if _, err := ParseWeekday(string(day)); err != nil {
			return "", nil, err
		}
		if slices.Contains(out, day) {
			continue
		}
		out = append(out, day)
	}
	slices.Sort(out)
	return name, out, nil
}
