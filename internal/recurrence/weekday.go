package recurrence

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Weekday is a day of the week indexed from Monday (0) to Sunday (6).
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

// ErrUnrecognizedWeekday is returned when a weekday string matches none of
// the accepted forms.
var ErrUnrecognizedWeekday = errors.New("recurrence: unrecognized weekday")

var weekdayNames = [...]string{
	"Monday",
	"Tuesday",
	"Wednesday",
	"Thursday",
	"Friday",
	"Saturday",
	"Sunday",
}

// String returns the English name of the day.
func (w Weekday) String() string {
	if !w.Valid() {
		return fmt.Sprintf("Weekday(%d)", int(w))
	}
	return weekdayNames[w]
}

// Short returns the lower-case three letter abbreviation ("mon", "tue", ...).
func (w Weekday) Short() string {
	if !w.Valid() {
		return ""
	}
	return strings.ToLower(weekdayNames[w][:3])
}

// Valid reports whether w is within Monday..Sunday.
func (w Weekday) Valid() bool {
	return w >= Monday && w <= Sunday
}

// FromTime returns the Weekday of t.
func FromTime(t time.Time) Weekday {
	// time.Weekday starts on Sunday.
	return Weekday((int(t.Weekday()) + 6) % 7)
}

// ParseWeekday parses a fuzzy weekday: a number between 0 and 6, a three
// letter abbreviation ("wed") or a full day name ("Wednesday"). Matching is
// case-insensitive.
func ParseWeekday(s string) (Weekday, error) {
	value := strings.TrimSpace(s)
	if value == "" {
		return 0, fmt.Errorf("%w: empty value", ErrUnrecognizedWeekday)
	}

	if isDigits(value) {
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 || n > 6 {
			return 0, fmt.Errorf("%w: day number %q must be between 0 and 6", ErrUnrecognizedWeekday, value)
		}
		return Weekday(n), nil
	}

	for i, name := range weekdayNames {
		if strings.EqualFold(value, name) || strings.EqualFold(value, name[:3]) {
			return Weekday(i), nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrUnrecognizedWeekday, value)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
