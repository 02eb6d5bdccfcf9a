// Package slots books and releases repeating hourly availability slots.
//
// A Series names a weekday, an hour range and a number of weeks. The Runner
// expands it with the recurrence engine and issues one API call per slot:
// creates for Book, deletes of matching existing entries for Release. A
// failing slot is recorded in the Report and never stops the run.
package slots
