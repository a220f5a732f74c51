package contracts

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the only accepted date format (ISO YYYY-MM-DD)
const DateLayout = "2006-01-02"

// Date is a calendar date kept in its ISO text form.
// The empty Date means "not set".
type Date string

// ParseDate parses a strict ISO date
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return "", fmt.Errorf("date %q is not YYYY-MM-DD", s)
	}
	return DateOf(t), nil
}

// DateOf returns the calendar date of t in UTC
func DateOf(t time.Time) Date {
	return Date(t.UTC().Format(DateLayout))
}

// Time returns midnight UTC of d, or the zero time if d is unset or malformed
func (d Date) Time() time.Time {
	if d == "" {
		return time.Time{}
	}
	t, err := time.Parse(DateLayout, string(d))
	if err != nil {
		return time.Time{}
	}
	return t
}

// IsZero reports whether d is unset
func (d Date) IsZero() bool {
	return d == ""
}

// Valid reports whether d is set and well formed
func (d Date) Valid() bool {
	return !d.Time().IsZero()
}

// Before reports whether d is strictly earlier than other
func (d Date) Before(other Date) bool {
	return d.Time().Before(other.Time())
}

func (d Date) String() string {
	return string(d)
}
