package domain

import "errors"

// ErrUnknownStatus and related errors describe validation failures.
var (
	ErrUnknownStatus  = errors.New("unknown status")
	ErrInvalidDate    = errors.New("invalid date")
	ErrInvalidWeekday = errors.New("invalid weekday code")
	ErrInvalidName    = errors.New("invalid name")
)
