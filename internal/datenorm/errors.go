package datenorm

import "fmt"

// FutureDateError is returned when a phrase resolves to a date after today.
type FutureDateError struct {
	Date string
}

func (e *FutureDateError) Error() string {
	return fmt.Sprintf("Attendance can't be checked for a future date: %s", e.Date)
}

// UnknownDateError is returned when a resolved date has no column in the dataset.
type UnknownDateError struct {
	Date   string
	Latest string // "N/A" when the dataset has no date columns
}

func (e *UnknownDateError) Error() string {
	return fmt.Sprintf("Date '%s' not found in records. Latest date is: %s", e.Date, e.Latest)
}
