// Package export renders booked meetings for other calendars.
//
// Every meeting gets an identifier derived from its start instant and its
// attendee, so exporting the same meetings twice produces the same UIDs in
// an iCalendar file and the same event ids in Google Calendar.
package export
