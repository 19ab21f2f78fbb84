package utils

import (
	"fmt"
	"strings"
	"time"
)

// DateOnlyLayout is the calendar-date form accepted alongside RFC 3339.
// A date-only value means midnight UTC at the start of that day.
const DateOnlyLayout = "2006-01-02"

// DateValidationError represents a rejected date input
type DateValidationError struct {
	Code    string
	Field   string
	Message string
}

func (e *DateValidationError) Error() string {
	return e.Message
}

// ParseDate parses an RFC 3339 timestamp or a YYYY-MM-DD date
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("date is empty")
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(DateOnlyLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q is not RFC 3339 or YYYY-MM-DD", value)
	}
	return t, nil
}

// ValidateFutureDate parses value and requires it to be strictly after now
func ValidateFutureDate(field, value string, now time.Time) (time.Time, error) {
	t, err := ParseDate(value)
	if err != nil {
		return time.Time{}, &DateValidationError{
			Code:    "INVALID_DATE_FORMAT",
			Field:   field,
			Message: fmt.Sprintf("%s must be an RFC 3339 timestamp or a YYYY-MM-DD date", field),
		}
	}
	if !t.After(now) {
		return time.Time{}, &DateValidationError{
			Code:    "DATE_NOT_IN_FUTURE",
			Field:   field,
			Message: fmt.Sprintf("%s must be in the future", field),
		}
	}
	return t, nil
}

// ValidateDeadline checks a customer-supplied request deadline
func ValidateDeadline(value string, now time.Time) (time.Time, error) {
	return ValidateFutureDate("deadline", value, now)
}
