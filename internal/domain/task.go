package domain

import "strings"

// Status identifies one of the four fixed board columns.
type Status string

// StatusWeek and related constants define the board columns in display order.
const (
	StatusWeek       Status = "to-do-week"
	StatusToday      Status = "to-do-today"
	StatusInProgress Status = "in-progress"
	StatusFinished   Status = "finished"
)

// columnOrder stores the fixed column display order.
var columnOrder = []Status{StatusWeek, StatusToday, StatusInProgress, StatusFinished}

// statusLabels stores display names for the board columns.
var statusLabels = map[Status]string{
	StatusWeek:       "This Week",
	StatusToday:      "Today",
	StatusInProgress: "In Progress",
	StatusFinished:   "Finished",
}

// allowedMoves is the column transition table. Transitions fire only on
// explicit user action; finished is terminal in the UI sense only.
var allowedMoves = map[Status][]Status{
	StatusWeek:       {StatusToday},
	StatusToday:      {StatusInProgress, StatusFinished},
	StatusInProgress: {StatusWeek, StatusToday, StatusFinished},
	StatusFinished:   {StatusWeek, StatusToday},
}

// Columns returns the four board columns in display order.
func Columns() []Status {
	return append([]Status(nil), columnOrder...)
}

// ParseStatus parses a wire status value into a known column.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.TrimSpace(strings.ToLower(raw)))
	if !s.Valid() {
		return "", ErrUnknownStatus
	}
	return s, nil
}

// Valid reports whether the status is one of the four known columns.
func (s Status) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Label returns the display name for a column.
func (s Status) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

// AllowedMoves returns the columns a task in the given column may move to.
func AllowedMoves(from Status) []Status {
	return append([]Status(nil), allowedMoves[from]...)
}

// CanMove reports whether the transition table permits moving from one
// column to another.
func CanMove(from, to Status) bool {
	for _, next := range allowedMoves[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Task is one card on the board. IDs are assigned by the server; Order is
// the rank within the task's column.
type Task struct {
	ID     int
	Title  string
	Status Status
	Order  int
}

// NormalizeTitle trims a submitted title. An empty result means the edit
// deletes the task server-side.
func NormalizeTitle(raw string) string {
	return strings.TrimSpace(raw)
}
