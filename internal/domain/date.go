package domain

import (
	"strconv"
	"time"
)

// dateLayout is the ISO calendar-date wire format.
const dateLayout = "2006-01-02"

// Date is an ISO YYYY-MM-DD calendar date in the viewer's local timezone.
type Date string

// DateOf derives the calendar date of a moment in that moment's location.
func DateOf(t time.Time) Date {
	return Date(t.Format(dateLayout))
}

// ParseDate validates a wire date string.
func ParseDate(raw string) (Date, error) {
	if _, err := time.ParseInLocation(dateLayout, raw, time.Local); err != nil {
		return "", ErrInvalidDate
	}
	return Date(raw), nil
}

// Time returns the date's midnight in the local timezone.
func (d Date) Time() (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, string(d), time.Local)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// Weekday returns the date's weekday code, or an empty code when the date
// is malformed.
func (d Date) Weekday() Weekday {
	t, err := d.Time()
	if err != nil {
		return ""
	}
	return WeekdayOf(t)
}

// Year returns the date's calendar year, or zero when malformed.
func (d Date) Year() int {
	if len(d) < 4 {
		return 0
	}
	year, err := strconv.Atoi(string(d[:4]))
	if err != nil {
		return 0
	}
	return year
}
