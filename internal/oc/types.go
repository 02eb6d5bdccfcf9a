package oc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrNotAuthenticated is returned by API calls made before a successful
// Authenticate.
var ErrNotAuthenticated = errors.New("oc: session is not authenticated")

// APIError describes a failed call to the scheduling API.
type APIError struct {
	// Op is the operation that failed, one of the instrumentation Operation* names.
	Op string

	// StatusCode is the HTTP status, zero when no response was received.
	StatusCode int

	// Err is the transport or decoding error, if any.
	Err error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		if e.StatusCode != 0 {
			return fmt.Sprintf("oc %s: status %d: %v", e.Op, e.StatusCode, e.Err)
		}
		return fmt.Sprintf("oc %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("oc %s: unexpected status %d %s", e.Op, e.StatusCode, http.StatusText(e.StatusCode))
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// IsSuccess reports whether a status code counts as success for the API.
// Only 200, 201 and 204 are accepted.
func IsSuccess(code int) bool {
	switch code {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
		return true
	default:
		return false
	}
}

// Event is a booked meeting on the user's calendar.
type Event struct {
	Attendee string
	Start    time.Time
	End      time.Time
}

// Availability is an entry of the user's availability list.
// ID is empty for calendar entries that are not availabilities.
type Availability struct {
	ID        string
	StartDate string
	EndDate   string
}

// Start parses the start timestamp and converts it to loc.
func (a Availability) Start(loc *time.Location) (time.Time, error) {
	return ParseTimestamp(a.StartDate, loc)
}

// End parses the end timestamp and converts it to loc.
func (a Availability) End(loc *time.Location) (time.Time, error) {
	return ParseTimestamp(a.EndDate, loc)
}

// timestampLayout renders UTC instants with an explicit +00:00 offset.
const timestampLayout = "2006-01-02T15:04:05-07:00"

// FormatTimestamp renders t in UTC as ISO-8601, e.g. 2024-03-11T17:00:00+00:00.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

var parseLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999-0700",
	"2006-01-02T15:04:05.999999999-07",
}

// ParseTimestamp parses an ISO-8601 timestamp from the API and converts it to
// loc. Timestamps without a zone are taken to be in loc.
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range parseLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.In(loc), nil
		}
	}
	if t, err := time.ParseInLocation("2006-01-02T15:04:05.999999999", s, loc); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// flexID decodes identifiers the API sends either as JSON numbers or strings.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid id %s: %w", data, err)
	}
	*f = flexID(n.String())
	return nil
}

type csrfResponse struct {
	CSRF string `json:"csrf"`
}

type meResponse struct {
	ID flexID `json:"id"`
}

type attendeeJSON struct {
	DisplayName string `json:"displayName"`
}

type eventJSON struct {
	Attendees []attendeeJSON `json:"attendees"`
	StartDate string         `json:"startDate"`
	EndDate   string         `json:"endDate"`
}

type availabilityJSON struct {
	AvailabilityID flexID `json:"availabilityId"`
	StartDate      string `json:"startDate"`
	EndDate        string `json:"endDate"`
}

type availabilityRequest struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}
