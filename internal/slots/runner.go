package slots

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/teemow/ocslots/internal/instrumentation"
	"github.com/teemow/ocslots/internal/logging"
	"github.com/teemow/ocslots/internal/oc"
	"github.com/teemow/ocslots/internal/recurrence"
)

// ErrUnknownOperation is returned by Run for an Operation other than Book or Release.
var ErrUnknownOperation = errors.New("slots: unknown operation")

// Operation selects what a run does with the slots of a series.
type Operation int

const (
	// Book creates one availability per slot.
	Book Operation = iota + 1

	// Release deletes existing availabilities falling on the series' slots.
	Release
)

func (o Operation) String() string {
	switch o {
	case Book:
		return "book"
	case Release:
		return "release"
	default:
		return fmt.Sprintf("operation(%d)", int(o))
	}
}

// API is the part of the scheduling session a run needs.
type API interface {
	Availabilities(ctx context.Context) ([]oc.Availability, error)
	CreateAvailability(ctx context.Context, start, end time.Time) error
	DeleteAvailability(ctx context.Context, id string) error
}

// Result is the outcome of one slot.
type Result struct {
	Operation Operation

	// Slot holds the local bounds of the slot.
	Slot recurrence.Slot

	// ID is the availability id, set for releases.
	ID string

	Err error
}

// OK reports whether the API accepted the call.
func (r Result) OK() bool {
	return r.Err == nil
}

// String describes the result, e.g. "book 11-03-2024@18:00: ok".
func (r Result) String() string {
	slot := r.Slot.Start.Format("02-01-2006@15:04")
	if r.ID != "" {
		slot += " (" + r.ID + ")"
	}
	if r.Err != nil {
		return fmt.Sprintf("%s %s: failed: %v", r.Operation, slot, r.Err)
	}
	return fmt.Sprintf("%s %s: ok", r.Operation, slot)
}

// Report collects the results of a run in processing order.
type Report struct {
	Operation Operation
	Series    Series
	Results   []Result

	// Skipped counts listed entries a release ignored because their
	// timestamps could not be parsed.
	Skipped int
}

// Succeeded counts accepted slots.
func (r Report) Succeeded() int {
	n := 0
	for _, res := range r.Results {
		if res.OK() {
			n++
		}
	}
	return n
}

// Failed counts rejected slots.
func (r Report) Failed() int {
	return len(r.Results) - r.Succeeded()
}

// AllFailed reports whether there were slots and none of them succeeded.
func (r Report) AllFailed() bool {
	return len(r.Results) > 0 && r.Succeeded() == 0
}

// Summary describes the run in one line.
func (r Report) Summary() string {
	s := fmt.Sprintf("%s %s: %d succeeded, %d failed", r.Operation, r.Series, r.Succeeded(), r.Failed())
	if r.Skipped > 0 {
		s += fmt.Sprintf(", %d skipped", r.Skipped)
	}
	return s
}

// Runner executes Book and Release operations one slot at a time.
type Runner struct {
	API     API
	Engine  *recurrence.Engine
	Logger  *slog.Logger
	Metrics *instrumentation.Metrics
}

// NewRunner creates a Runner with the default logger.
func NewRunner(api API, engine *recurrence.Engine) *Runner {
	return &Runner{
		API:    api,
		Engine: engine,
		Logger: slog.Default(),
	}
}

// Run validates series and dispatches op. observe, if not nil, is called
// after every slot. The returned error is set when the run could not start
// or was cancelled; per-slot failures are only reported in the Report.
func (r *Runner) Run(ctx context.Context, op Operation, series Series, observe func(Result)) (Report, error) {
	report := Report{Operation: op, Series: series}
	if err := series.Validate(); err != nil {
		return report, err
	}
	if observe == nil {
		observe = func(Result) {}
	}

	switch op {
	case Book:
		return r.book(ctx, report, observe)
	case Release:
		return r.release(ctx, report, observe)
	default:
		return report, fmt.Errorf("%w: %s", ErrUnknownOperation, op)
	}
}

func (r *Runner) book(ctx context.Context, report Report, observe func(Result)) (Report, error) {
	series := report.Series
	dates, err := r.Engine.NextOccurrences(series.Weekday, series.Repeat)
	if err != nil {
		return report, err
	}
	loc := r.Engine.Location()
	logger := logging.WithOperation(r.logger(), Book.String())

	for day := range dates {
		for hour := range series.Hours.Hours() {
			if err := ctx.Err(); err != nil {
				return report, err
			}

			slot := recurrence.SlotBounds(day, hour, loc)
			utc := slot.UTC()
			res := Result{Operation: Book, Slot: slot}
			res.Err = r.API.CreateAvailability(ctx, utc.Start, utc.End)

			r.record(ctx, logger, &report, res)
			observe(res)
		}
	}
	return report, nil
}

func (r *Runner) release(ctx context.Context, report Report, observe func(Result)) (Report, error) {
	series := report.Series
	dates, err := r.Engine.NextOccurrences(series.Weekday, series.Repeat)
	if err != nil {
		return report, err
	}
	loc := r.Engine.Location()
	logger := logging.WithOperation(r.logger(), Release.String())

	targets := make(map[string]struct{}, series.Repeat)
	for day := range dates {
		targets[recurrence.DateKey(day, loc)] = struct{}{}
	}

	availabilities, err := r.API.Availabilities(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to list availabilities: %w", err)
	}

	for _, avail := range availabilities {
		if avail.ID == "" {
			continue
		}
		start, err := avail.Start(loc)
		if err != nil {
			report.Skipped++
			logger.Warn("skipping availability with unparseable start",
				"availability_id", avail.ID, logging.Status(logging.StatusSkipped), logging.Err(err))
			r.Metrics.RecordSlot(ctx, Release.String(), instrumentation.StatusSkipped)
			continue
		}
		if _, ok := targets[recurrence.DateKey(start, loc)]; !ok || !series.Hours.Contains(start.Hour()) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}

		end, err := avail.End(loc)
		if err != nil {
			end = start.Add(time.Hour)
		}
		res := Result{Operation: Release, Slot: recurrence.Slot{Start: start, End: end}, ID: avail.ID}
		res.Err = r.API.DeleteAvailability(ctx, avail.ID)

		r.record(ctx, logger, &report, res)
		observe(res)
	}
	return report, nil
}

func (r *Runner) record(ctx context.Context, logger *slog.Logger, report *Report, res Result) {
	report.Results = append(report.Results, res)

	status := instrumentation.StatusSuccess
	if !res.OK() {
		status = instrumentation.StatusError
		logger.Warn("slot failed", logging.Slot(res.Slot.Start), logging.Err(res.Err))
	} else {
		logger.Debug("slot done", logging.Slot(res.Slot.Start))
	}
	r.Metrics.RecordSlot(ctx, res.Operation.String(), status)
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}
