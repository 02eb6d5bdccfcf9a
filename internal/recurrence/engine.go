package recurrence

import (
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/teambition/rrule-go"
)

// MaxHour is the upper bound of an hour range; 24 means "until midnight".
const MaxHour = 24

// ErrInvalidRange indicates an hour range outside [0, 24] or with start > end.
var ErrInvalidRange = errors.New("recurrence: invalid hour range")

// ErrInvalidRepeat indicates a repeat count below one.
var ErrInvalidRepeat = errors.New("recurrence: repeat count must be at least 1")

// Slot is a one hour availability block.
type Slot struct {
	Start time.Time
	End   time.Time
}

// UTC returns the slot with both bounds converted to UTC.
func (s Slot) UTC() Slot {
	return Slot{Start: s.Start.UTC(), End: s.End.UTC()}
}

// HourRange is a half-open range of hours [Start, End).
type HourRange struct {
	Start int
	End   int
}

// Validate checks the range bounds.
func (r HourRange) Validate() error {
	return ValidateRange(r.Start, r.End)
}

// Hours yields every hour in [Start, End).
func (r HourRange) Hours() iter.Seq[int] {
	return func(yield func(int) bool) {
		for h := r.Start; h < r.End; h++ {
			if !yield(h) {
				return
			}
		}
	}
}

// Contains reports whether a slot starting at hour h belongs to the range,
// i.e. Start <= h <= End-1.
func (r HourRange) Contains(h int) bool {
	return r.Start <= h && h <= r.End-1
}

// Len returns the number of slots in the range.
func (r HourRange) Len() int {
	if r.End < r.Start {
		return 0
	}
	return r.End - r.Start
}

// String formats the range as "18:00-21:00".
func (r HourRange) String() string {
	return fmt.Sprintf("%d:00-%d:00", r.Start, r.End)
}

// ValidateRange fails if start > end or either value lies outside [0, 24].
func ValidateRange(start, end int) error {
	if start > end {
		return fmt.Errorf("%w: start hour %d must not be after end hour %d", ErrInvalidRange, start, end)
	}
	if start < 0 || end < 0 {
		return fmt.Errorf("%w: hours cannot be negative (got %d-%d)", ErrInvalidRange, start, end)
	}
	if start > MaxHour || end > MaxHour {
		return fmt.Errorf("%w: hours cannot exceed %d (got %d-%d)", ErrInvalidRange, MaxHour, start, end)
	}
	return nil
}

// SlotBounds returns the one hour slot starting at hour on the calendar day
// of day, in loc. Hour 23 ends at 00:00 on the following day. An hour skipped
// by a daylight saving jump starts at the first valid instant after it, and
// the slot still lasts one hour.
func SlotBounds(day time.Time, hour int, loc *time.Location) Slot {
	if loc == nil {
		loc = time.Local
	}
	y, m, d := day.In(loc).Date()
	start := time.Date(y, m, d, hour, 0, 0, 0, loc)
	return Slot{Start: start, End: start.Add(time.Hour)}
}

// Engine expands weekday recurrences relative to the current date.
type Engine struct {
	location *time.Location
	now      func() time.Time
}

// NewEngine constructs an Engine producing dates in loc. If loc is nil,
// time.Local is used; if now is nil, time.Now is used.
func NewEngine(loc *time.Location, now func() time.Time) *Engine {
	if loc == nil {
		loc = time.Local
	}
	if now == nil {
		now = time.Now
	}
	return &Engine{location: loc, now: now}
}

// Location returns the engine's time zone.
func (e *Engine) Location() *time.Location {
	return e.location
}

// Today returns midnight of the current day in the engine's location.
func (e *Engine) Today() time.Time {
	y, m, d := e.now().In(e.location).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, e.location)
}

// FirstOccurrence returns the next date (today inclusive) falling on weekday.
func (e *Engine) FirstOccurrence(weekday Weekday) time.Time {
	today := e.Today()
	offset := (int(weekday) - int(FromTime(today)) + 7) % 7
	return today.AddDate(0, 0, offset)
}

// NextOccurrences returns the next repeat dates falling on weekday, starting
// today inclusive, each 7 days after the previous one. Dates are midnight in
// the engine's location.
//
// The sequence is lazy and can be ranged over more than once.
func (e *Engine) NextOccurrences(weekday Weekday, repeat int) (iter.Seq[time.Time], error) {
	if !weekday.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnrecognizedWeekday, int(weekday))
	}
	if repeat < 1 {
		return nil, fmt.Errorf("%w (got %d)", ErrInvalidRepeat, repeat)
	}

	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:    rrule.WEEKLY,
		Count:   repeat,
		Dtstart: e.FirstOccurrence(weekday),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build weekly rule: %w", err)
	}

	loc := e.location
	return func(yield func(time.Time) bool) {
		next := rule.Iterator()
		for {
			t, ok := next()
			if !ok {
				return
			}
			y, m, d := t.In(loc).Date()
			if !yield(time.Date(y, m, d, 0, 0, 0, 0, loc)) {
				return
			}
		}
	}, nil
}

// DateKey returns a comparable calendar-day key for t in loc.
func DateKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(time.DateOnly)
}
