package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/ocslots/internal/calendar"
	"github.com/teemow/ocslots/internal/export"
	"github.com/teemow/ocslots/internal/google"
	"github.com/teemow/ocslots/internal/instrumentation"
	"github.com/teemow/ocslots/internal/oc"
)

func newEventsCmd(opts *rootOptions) *cobra.Command {
	var (
		icsFile    string
		calendarID string
	)

	cmd := &cobra.Command{
		Use:   "events",
		Short: "List booked mentoring sessions",
		Long: `List the booked mentoring sessions with attendee, date and time in the
local time zone.

The sessions can also be exported:
  --ics FILE              write an iCalendar file
  --google-calendar ID    insert them into a Google Calendar (run google-auth first)

Exported sessions keep stable ids, so repeated exports do not create duplicates.
The calendar id defaults to google.calendar_id from the configuration.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			a, err := newApp(ctx, opts)
			if err != nil {
				return err
			}
			defer a.close()

			ctx, span := instrumentation.StartCommandSpan(ctx, "events")
			defer span.End()

			err = runEvents(ctx, cmd.OutOrStdout(), a, icsFile, calendarID)
			if err != nil {
				instrumentation.SetSpanError(span, err)
				return err
			}
			instrumentation.SetSpanSuccess(span)
			return nil
		},
	}

	cmd.Flags().StringVar(&icsFile, "ics", "", "Write the sessions to an iCalendar file")
	cmd.Flags().StringVar(&calendarID, "google-calendar", "", "Google Calendar id to export the sessions to (e.g. 'primary')")

	return cmd
}

func runEvents(ctx context.Context, out io.Writer, a *app, icsFile, calendarID string) error {
	if err := a.login(ctx); err != nil {
		return err
	}

	events, err := a.client.Events(ctx)
	if err != nil {
		return fmt.Errorf("failed to list events: %w", err)
	}
	printEvents(out, events, a.loc)

	if icsFile != "" {
		if err := export.WriteICSFile(icsFile, events, time.Now()); err != nil {
			return err
		}
		fmt.Fprintf(out, "Wrote %d sessions to %s\n", len(events), icsFile)
	}

	if calendarID == "" {
		calendarID = a.cfg.Google.CalendarID
	}
	if calendarID != "" {
		if err := exportToGoogle(ctx, out, a, calendarID, events); err != nil {
			return err
		}
	}
	return nil
}

func printEvents(out io.Writer, events []oc.Event, loc *time.Location) {
	if len(events) == 0 {
		fmt.Fprintln(out, "No booked sessions.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tTIME\tATTENDEE")
	for _, e := range events {
		start, end := e.Start.In(loc), e.End.In(loc)
		fmt.Fprintf(w, "%s\t%s-%s\t%s\n",
			start.Format("Mon 02-01-2006"), start.Format("15:04"), end.Format("15:04"), e.Attendee)
	}
	_ = w.Flush()
}

func exportToGoogle(ctx context.Context, out io.Writer, a *app, calendarID string, events []oc.Event) error {
	conf, err := google.OAuthConfigFromEnv()
	if err != nil {
		return err
	}
	httpClient, err := google.GetHTTPClient(ctx, conf, google.NewFileTokenProvider(a.cfg.Google.TokenFile))
	if err != nil {
		return err
	}
	client, err := calendar.NewClient(ctx, calendar.WithHTTPClient(httpClient), calendar.WithLogger(a.logger))
	if err != nil {
		return err
	}

	result, err := client.ExportEvents(ctx, calendarID, events)
	fmt.Fprintf(out, "Google Calendar %s: %d created, %d already present, %d failed\n",
		calendarID, result.Count(calendar.StatusCreated), result.Count(calendar.StatusExists), result.Count(calendar.StatusFailed))
	if err != nil {
		return err
	}
	if n := result.Count(calendar.StatusFailed); n > 0 && n == len(result.Events) {
		return fmt.Errorf("failed to export any of %d sessions", n)
	}
	return nil
}
