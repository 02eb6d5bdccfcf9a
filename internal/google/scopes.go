package google

import calendar "google.golang.org/api/calendar/v3"

// DefaultOAuthScopes are the scopes requested by google-auth. Exporting
// meetings only needs to write events.
var DefaultOAuthScopes = []string{
	calendar.CalendarEventsScope,
}
