package slots

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/ocslots/internal/recurrence"
)

func TestParseSeries(t *testing.T) {
	s, err := ParseSeries("mon", "18", "21", "2")
	require.NoError(t, err)
	assert.Equal(t, recurrence.Monday, s.Weekday)
	assert.Equal(t, recurrence.HourRange{Start: 18, End: 21}, s.Hours)
	assert.Equal(t, 2, s.Repeat)
	assert.Equal(t, 6, s.SlotCount())
	assert.Equal(t, "every Monday, 18:00-21:00, 2 weeks", s.String())
}

func TestParseSeries_DefaultRepeat(t *testing.T) {
	s, err := ParseSeries("Wednesday", "9", "17", "")
	require.NoError(t, err)
	assert.Equal(t, 1, s.Repeat)
	assert.Equal(t, "every Wednesday, 9:00-17:00, 1 week", s.String())
}

func TestParseSeries_Errors(t *testing.T) {
	tests := []struct {
		name                string
		weekday, start, end string
		repeat              string
		want                error
	}{
		{"unknown weekday", "funday", "18", "21", "1", recurrence.ErrUnrecognizedWeekday},
		{"weekday out of range", "7", "18", "21", "1", recurrence.ErrUnrecognizedWeekday},
		{"negative start", "mon", "-1", "5", "1", ErrInvalidValue},
		{"signed end", "mon", "1", "+5", "1", ErrInvalidValue},
		{"decimal repeat", "mon", "18", "21", "1.5", ErrInvalidValue},
		{"empty start", "mon", "", "21", "1", ErrInvalidValue},
		{"start after end", "mon", "5", "3", "1", recurrence.ErrInvalidRange},
		{"end above 24", "mon", "10", "25", "1", recurrence.ErrInvalidRange},
		{"zero repeat", "mon", "18", "21", "0", recurrence.ErrInvalidRepeat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSeries(tt.weekday, tt.start, tt.end, tt.repeat)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParseSeries_EmptyRangeIsValid(t *testing.T) {
	s, err := ParseSeries("sun", "24", "24", "3")
	require.NoError(t, err)
	assert.Zero(t, s.SlotCount())
}
