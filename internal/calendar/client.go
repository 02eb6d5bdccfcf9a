package calendar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/teemow/ocslots/internal/export"
	"github.com/teemow/ocslots/internal/instrumentation"
	"github.com/teemow/ocslots/internal/logging"
	"github.com/teemow/ocslots/internal/oc"
)

// Client wraps the Google Calendar service
type Client struct {
	svc    *calendar.Service
	logger *slog.Logger
}

// Option configures a Client.
type Option func(*clientOptions)

type clientOptions struct {
	httpClient *http.Client
	endpoint   string
	logger     *slog.Logger
}

// WithHTTPClient sets the authorized HTTP client used for API calls.
func WithHTTPClient(c *http.Client) Option {
	return func(o *clientOptions) { o.httpClient = c }
}

// WithEndpoint overrides the Calendar API base URL.
func WithEndpoint(url string) Option {
	return func(o *clientOptions) { o.endpoint = url }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *clientOptions) { o.logger = l }
}

// NewClient creates a Calendar client. An authorized HTTP client is required.
func NewClient(ctx context.Context, opts ...Option) (*Client, error) {
	o := clientOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.httpClient == nil {
		return nil, errors.New("calendar client requires an authorized HTTP client")
	}

	svcOpts := []option.ClientOption{option.WithHTTPClient(o.httpClient)}
	if o.endpoint != "" {
		svcOpts = append(svcOpts, option.WithEndpoint(o.endpoint))
	}

	svc, err := calendar.NewService(ctx, svcOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}

	return &Client{svc: svc, logger: o.logger}, nil
}

// ExportEvents inserts the meetings into calendarID. A meeting that was
// exported before is reported as StatusExists. The returned error is set only
// when the context ends before all meetings were processed.
func (c *Client) ExportEvents(ctx context.Context, calendarID string, events []oc.Event) (ExportResult, error) {
	result := ExportResult{CalendarID: calendarID}

	for _, e := range events {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		r := EventResult{
			ID:      export.CalendarEventID(e),
			Summary: export.Summary(e),
			Start:   e.Start,
		}
		r.Status, r.Err = c.insert(ctx, calendarID, r.ID, e)

		attrs := []any{"event_id", r.ID, logging.Slot(e.Start), logging.Status(r.Status)}
		if r.Err != nil {
			c.logger.Warn("Failed to export meeting", append(attrs, logging.Err(r.Err))...)
		} else {
			c.logger.Debug("Exported meeting", attrs...)
		}
		result.Events = append(result.Events, r)
	}

	return result, nil
}

func (c *Client) insert(ctx context.Context, calendarID, id string, e oc.Event) (string, error) {
	ctx, span := instrumentation.StartSpan(ctx, "gcal.events.insert")
	defer span.End()

	event := &calendar.Event{
		Id:          id,
		Summary:     export.Summary(e),
		Description: "Scheduled on OpenClassrooms",
		Start:       &calendar.EventDateTime{DateTime: e.Start.UTC().Format(time.RFC3339), TimeZone: "UTC"},
		End:         &calendar.EventDateTime{DateTime: e.End.UTC().Format(time.RFC3339), TimeZone: "UTC"},
		Status:      "confirmed",
	}

	_, err := c.svc.Events.Insert(calendarID, event).Context(ctx).Do()
	if err == nil {
		instrumentation.SetSpanSuccess(span)
		return StatusCreated, nil
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusConflict {
		instrumentation.SetSpanSuccess(span)
		return StatusExists, nil
	}

	instrumentation.SetSpanError(span, err)
	return StatusFailed, fmt.Errorf("failed to insert event %s: %w", id, err)
}
