package slots

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/teemow/ocslots/internal/recurrence"
)

// ErrInvalidValue is returned for hour or repeat arguments that are not
// plain non-negative integers.
var ErrInvalidValue = errors.New("slots: invalid value")

// Series is a validated weekly recurrence of an hour range.
type Series struct {
	Weekday recurrence.Weekday
	Hours   recurrence.HourRange
	Repeat  int
}

// Validate checks the weekday, the hour range and the repeat count.
func (s Series) Validate() error {
	if !s.Weekday.Valid() {
		return fmt.Errorf("%w: %d", recurrence.ErrUnrecognizedWeekday, int(s.Weekday))
	}
	if err := s.Hours.Validate(); err != nil {
		return err
	}
	if s.Repeat < 1 {
		return fmt.Errorf("%w (got %d)", recurrence.ErrInvalidRepeat, s.Repeat)
	}
	return nil
}

// SlotCount is the number of slots the series spans.
func (s Series) SlotCount() int {
	return s.Hours.Len() * s.Repeat
}

// String describes the series, e.g. "every Monday, 18:00-21:00, 2 weeks".
func (s Series) String() string {
	weeks := "week"
	if s.Repeat > 1 {
		weeks = "weeks"
	}
	return fmt.Sprintf("every %s, %s, %d %s", s.Weekday, s.Hours, s.Repeat, weeks)
}

// ParseSeries validates raw command arguments. An empty repeat means one week.
func ParseSeries(weekday, start, end, repeat string) (Series, error) {
	day, err := recurrence.ParseWeekday(weekday)
	if err != nil {
		return Series{}, err
	}
	if repeat == "" {
		repeat = "1"
	}

	values := make([]int, 0, 3)
	for _, raw := range []string{start, end, repeat} {
		v, err := parseCount(raw)
		if err != nil {
			return Series{}, err
		}
		values = append(values, v)
	}

	s := Series{
		Weekday: day,
		Hours:   recurrence.HourRange{Start: values[0], End: values[1]},
		Repeat:  values[2],
	}
	if err := s.Validate(); err != nil {
		return Series{}, err
	}
	return s, nil
}

// parseCount accepts ASCII digits only, so signs and blanks are rejected.
func parseCount(raw string) (int, error) {
	if raw == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidValue)
	}
	for _, r := range raw {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("%w: %q", ErrInvalidValue, raw)
		}
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidValue, raw)
	}
	return v, nil
}
