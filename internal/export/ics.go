package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/teemow/ocslots/internal/oc"
)

// ProductID identifies ocslots as the producer of iCalendar files.
const ProductID = "-//teemow//ocslots//EN"

// NewCalendar builds an iCalendar document with one VEVENT per meeting.
// stamp is used as DTSTAMP.
func NewCalendar(events []oc.Event, stamp time.Time) *ics.Calendar {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(ProductID)
	cal.SetXWRCalName("Mentoring sessions")

	for _, e := range events {
		vevent := cal.AddEvent(EventID(e) + "@ocslots")
		vevent.SetDtStampTime(stamp.UTC())
		vevent.SetStartAt(e.Start.UTC())
		vevent.SetEndAt(e.End.UTC())
		vevent.SetSummary(Summary(e))
		vevent.SetStatus(ics.ObjectStatusConfirmed)
		if e.Attendee != "" {
			vevent.SetDescription("Attendee: " + e.Attendee)
		}
	}
	return cal
}

// WriteICS serializes the meetings as iCalendar to w.
func WriteICS(w io.Writer, events []oc.Event, stamp time.Time) error {
	if _, err := io.WriteString(w, NewCalendar(events, stamp).Serialize()); err != nil {
		return fmt.Errorf("failed to write calendar: %w", err)
	}
	return nil
}

// WriteICSFile writes the meetings to path, replacing any existing file.
func WriteICSFile(path string, events []oc.Event, stamp time.Time) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".ocslots-*.ics.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := WriteICS(tmp, events, stamp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
