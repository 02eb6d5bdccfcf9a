package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/teemow/ocslots/internal/instrumentation"
	"github.com/teemow/ocslots/internal/slots"
)

const seriesUsage = "<weekday> <start_hour> <end_hour> [repeat]"

const seriesHelp = `The weekday is a full or three letter English name (monday, mon) or a
number from 0 (Monday) to 6 (Sunday). Hours are in local time, 0-24, and the
range is half-open: 18 21 covers the slots starting at 18:00, 19:00 and 20:00.
Repeat is the number of consecutive weeks, starting with the next matching
day (today included). It defaults to 1.`

func newAddCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add " + seriesUsage,
		Short: "Create one-hour availability slots",
		Long:  "Create one availability per hour of the range on every occurrence of the weekday.\n\n" + seriesHelp,
		Example: `  ocslots add mon 18 21 2
  ocslots add 4 9 12`,
		Args: cobra.RangeArgs(3, 4),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeries(cmd, opts, slots.Book, args)
		},
	}
}

func newRemCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "rem " + seriesUsage,
		Aliases: []string{"remove"},
		Short:   "Delete availability slots",
		Long:    "Delete the existing availabilities starting within the hour range on every occurrence of the weekday.\n\n" + seriesHelp,
		Example: `  ocslots rem mon 18 21
  ocslots rem friday 9 12 3`,
		Args: cobra.RangeArgs(3, 4),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeries(cmd, opts, slots.Release, args)
		},
	}
}

// runSeries validates the arguments before anything touches the network,
// then logs in and runs op over the series.
func runSeries(cmd *cobra.Command, opts *rootOptions, op slots.Operation, args []string) error {
	repeat := ""
	if len(args) == 4 {
		repeat = args[3]
	}
	series, err := slots.ParseSeries(args[0], args[1], args[2], repeat)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx, opts)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, span := instrumentation.StartCommandSpan(ctx, op.String())
	defer span.End()

	if err := a.login(ctx); err != nil {
		instrumentation.SetSpanError(span, err)
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %s\n", op, series)

	report, err := a.runner().Run(ctx, op, series, func(r slots.Result) {
		fmt.Fprintf(out, "  %s\n", r)
	})
	printSummary(out, report)

	if err != nil {
		if contextErr(err) {
			fmt.Fprintln(out, "Interrupted, the remaining slots were not processed.")
		}
		instrumentation.SetSpanError(span, err)
		return err
	}
	if report.AllFailed() {
		err := errors.New("every slot failed")
		instrumentation.SetSpanError(span, err)
		return err
	}
	instrumentation.SetSpanSuccess(span)
	return nil
}

func printSummary(out io.Writer, report slots.Report) {
	if len(report.Results) == 0 && report.Skipped == 0 {
		fmt.Fprintln(out, "No matching slots.")
		return
	}
	fmt.Fprintln(out, report.Summary())
}

// contextErr reports whether err comes from an interrupted run.
func contextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
