// Package recurrence turns a weekday, an hour range and a repeat count into
// concrete calendar slots.
//
// Weekdays are indexed from Monday (0) to Sunday (6). Hour ranges are half-open:
// the range 18-21 covers the slots starting at 18:00, 19:00 and 20:00.
//
// Example usage:
//
//	day, err := recurrence.ParseWeekday("wed")
//	if err != nil {
//	    return err
//	}
//
//	engine := recurrence.NewEngine(time.Local, nil)
//	dates, err := engine.NextOccurrences(day, 4)
//	if err != nil {
//	    return err
//	}
//	for date := range dates {
//	    for hour := range recurrence.HourRange{Start: 18, End: 21}.Hours() {
//	        slot := recurrence.SlotBounds(date, hour, time.Local)
//	        fmt.Println(slot.Start, slot.End)
//	    }
//	}
package recurrence
