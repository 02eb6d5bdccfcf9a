package calendar

import "time"

// EventResult is the outcome of exporting one meeting.
type EventResult struct {
	ID      string
	Summary string
	Start   time.Time
	Status  string
	Err     error
}

// Export statuses.
const (
	StatusCreated = "created"
	StatusExists  = "exists"
	StatusFailed  = "failed"
)

// ExportResult summarizes an export run.
type ExportResult struct {
	CalendarID string
	Events     []EventResult
}

// Count returns the number of events with the given status.
func (r ExportResult) Count(status string) int {
	n := 0
	for _, e := range r.Events {
		if e.Status == status {
			n++
		}
	}
	return n
}
