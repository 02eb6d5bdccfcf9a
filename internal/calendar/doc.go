// Package calendar mirrors scheduled meetings into a Google Calendar.
//
// Events are inserted with ids derived from the meeting start and attendee,
// so exporting the same meetings twice does not create duplicates.
//
// Example usage:
//
//	httpClient, err := google.GetHTTPClient(ctx, conf, google.NewFileTokenProvider(""))
//	if err != nil {
//	    return err
//	}
//	client, err := calendar.NewClient(ctx, calendar.WithHTTPClient(httpClient))
//	if err != nil {
//	    return err
//	}
//	result, err := client.ExportEvents(ctx, "primary", events)
package calendar
