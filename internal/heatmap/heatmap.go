// Package heatmap builds the yearly calendar grid from per-date history
// aggregates. Everything here is pure: the grid and the shade of every
// cell are deterministic functions of the inputs.
package heatmap

import (
	"fmt"
	"strings"
	"time"

	"github.com/hylla/syssla/internal/domain"
)

// Mode selects the metric that colors the grid.
type Mode int

const (
	// ModeCombined shades by completed tasks plus completed habits.
	ModeCombined Mode = iota
	// ModeHabitRate shades by the day's habit completion rate.
	ModeHabitRate
	// ModeTaskCount shades by completed tasks alone.
	ModeTaskCount
)

// modeCount is the number of display modes Next cycles through.
const modeCount = 3

// ShadeUnknown marks a date with no history record.
const ShadeUnknown = -1

// rateThresholds divides the habit completion rate into nine buckets the
// way a d3 threshold scale would: bucket index is the count of thresholds
// at or below the rate.
var rateThresholds = []float64{0, 0.10, 0.25, 0.40, 0.65, 0.75, 0.85, 1.0}

// Next cycles to the following display mode.
func (m Mode) Next() Mode {
	return (m + 1) % modeCount
}

// Label returns the mode name shown in the heatmap header.
func (m Mode) Label() string {
	switch m {
	case ModeHabitRate:
		return "Habit Rate"
	case ModeTaskCount:
		return "Tasks"
	default:
		return "Combined"
	}
}

// Buckets returns how many shade buckets the mode uses, not counting the
// unknown shade.
func (m Mode) Buckets() int {
	if m == ModeHabitRate {
		return len(rateThresholds) + 1
	}
	return 12
}

// Shade maps one day's record onto a bucket index in [0, Buckets).
// A missing record, or a habit-rate lookup on a day with no scheduled
// habits, yields ShadeUnknown.
func (m Mode) Shade(record domain.DayRecord, known bool) int {
	if !known {
		return ShadeUnknown
	}
	switch m {
	case ModeHabitRate:
		if !record.RateKnown {
			return ShadeUnknown
		}
		bucket := 0
		for _, threshold := range rateThresholds {
			if record.CompletionRate >= threshold {
				bucket++
			}
		}
		return bucket
	case ModeTaskCount:
		return countBucket(record.TaskCount())
	default:
		return countBucket(record.CombinedCount())
	}
}

// countBucket maps a completion count onto the twelve count buckets
// (0, 1, ..., 10, 11+).
func countBucket(count int) int {
	if count > 11 {
		return 11
	}
	return count
}

// Cell is one date square in the grid.
type Cell struct {
	Date      domain.Date
	Shade     int
	HasRecord bool
}

// Month is one labeled block of the grid. LeadingBlanks is the number of
// empty slots before the first day, so every week row starts on Sunday.
type Month struct {
	Month         time.Month
	Cells         []Cell
	LeadingBlanks int
}

// Grid is the rendered-model of one year of history.
type Grid struct {
	Year   int
	Mode   Mode
	Months []Month
}

// Build lays out the grid for a year, covering January 1 through
// December 31 or through today for the current calendar year.
func Build(year int, today time.Time, mode Mode, records map[domain.Date]domain.DayRecord) Grid {
	grid := Grid{Year: year, Mode: mode}
	end := time.Date(year, time.December, 31, 0, 0, 0, 0, today.Location())
	if year == today.Year() {
		end = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())
	}
	day := time.Date(year, time.January, 1, 0, 0, 0, 0, today.Location())
	if day.After(end) {
		return grid
	}

	var current *Month
	for !day.After(end) {
		if current == nil || current.Month != day.Month() {
			grid.Months = append(grid.Months, Month{
				Month:         day.Month(),
				LeadingBlanks: int(day.Weekday()),
			})
			current = &grid.Months[len(grid.Months)-1]
		}
		date := domain.DateOf(day)
		record, known := records[date]
		current.Cells = append(current.Cells, Cell{
			Date:      date,
			Shade:     mode.Shade(record, known),
			HasRecord: known,
		})
		day = day.AddDate(0, 0, 1)
	}
	return grid
}

// CanAdvance reports whether year navigation may move forward from the
// displayed year. The current calendar year is the ceiling.
func CanAdvance(displayed int, today time.Time) bool {
	return displayed < today.Year()
}

// DetailMarkdown renders one date's aggregates as a markdown document for
// the detail panel. Empty categories get an explicit line rather than
// being omitted.
func DetailMarkdown(date domain.Date, record domain.DayRecord, known bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", date)
	if !known {
		b.WriteString("No activity recorded for this date.\n")
		return b.String()
	}
	writeSection(&b, "Completed Tasks", record.CompletedTasks)
	writeSection(&b, "Completed Habits", record.CompletedHabits)
	writeSection(&b, "Journal Entries", record.JournalEntries)
	return b.String()
}

func writeSection(b *strings.Builder, heading string, items []string) {
	fmt.Fprintf(b, "### %s\n\n", heading)
	if len(items) == 0 {
		b.WriteString("_nothing completed_\n\n")
		return
	}
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
	b.WriteString("\n")
}
