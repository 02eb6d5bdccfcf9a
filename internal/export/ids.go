package export

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/teemow/ocslots/internal/oc"
)

// namespace scopes the name-based UUIDs of exported meetings.
var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/teemow/ocslots/meetings"))

// EventID returns the stable UUID of a meeting.
func EventID(e oc.Event) string {
	name := e.Start.UTC().Format(time.RFC3339) + "|" + e.Attendee
	return uuid.NewSHA1(namespace, []byte(name)).String()
}

// CalendarEventID returns EventID in the base32hex alphabet Google Calendar
// accepts for client supplied event ids.
func CalendarEventID(e oc.Event) string {
	return strings.ReplaceAll(EventID(e), "-", "")
}

// Summary is the title used for an exported meeting.
func Summary(e oc.Event) string {
	if e.Attendee == "" {
		return "Mentoring session"
	}
	return "Mentoring session with " + e.Attendee
}
