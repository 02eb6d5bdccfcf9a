package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/teemow/ocslots/internal/credentials"
	"github.com/teemow/ocslots/internal/instrumentation"
	"github.com/teemow/ocslots/internal/oc"
	"github.com/teemow/ocslots/internal/recurrence"
	"github.com/teemow/ocslots/internal/slots"
)

// ErrAuthenticationFailed is returned when the platform rejects the credentials.
var ErrAuthenticationFailed = errors.New("authentication failed")

// ErrShutdown is returned after Shutdown.
var ErrShutdown = errors.New("server context is shut down")

// Session is the scheduling session the tools operate on. *oc.Client
// implements it.
type Session interface {
	slots.API
	Login(ctx context.Context, src credentials.Source, force bool) error
	// Authenticated is false once the token has expired.
	Authenticated() bool
	UserID() string
	Location() *time.Location
	Events(ctx context.Context) ([]oc.Event, error)
}

// ServerContext holds the context for the MCP server
type ServerContext struct {
	ctx      context.Context
	cancel   context.CancelFunc
	session  Session
	creds    credentials.Source
	now      func() time.Time
	metrics  *instrumentation.Metrics
	logger   *slog.Logger
	mu       sync.RWMutex
	shutdown bool
}

// Option configures a ServerContext.
type Option func(*ServerContext)

// WithMetrics sets the metrics recorder for tool invocations and slot runs.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(sc *ServerContext) { sc.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(sc *ServerContext) { sc.logger = l }
}

// WithClock overrides the clock used for recurrence calculations.
func WithClock(now func() time.Time) Option {
	return func(sc *ServerContext) { sc.now = now }
}

// NewServerContext creates a new server context
func NewServerContext(ctx context.Context, session Session, creds credentials.Source, opts ...Option) (*ServerContext, error) {
	if session == nil {
		return nil, errors.New("session cannot be nil")
	}
	if creds == nil {
		return nil, errors.New("credential source cannot be nil")
	}

	shutdownCtx, cancel := context.WithCancel(ctx)
	sc := &ServerContext{
		ctx:     shutdownCtx,
		cancel:  cancel,
		session: session,
		creds:   creds,
		now:     time.Now,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(sc)
	}
	return sc, nil
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Metrics returns the metrics recorder, which may be nil.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	return sc.metrics
}

// Logger returns the logger.
func (sc *ServerContext) Logger() *slog.Logger {
	return sc.logger
}

// Session returns an authenticated session, logging in first if needed and
// again once the token has expired. Credentials are only requested when no
// valid cached token exists.
func (sc *ServerContext) Session(ctx context.Context) (Session, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil, ErrShutdown
	}
	if sc.session.Authenticated() {
		return sc.session, nil
	}

	if err := sc.session.Login(ctx, sc.creds, false); err != nil {
		if errors.Is(err, oc.ErrLoginRejected) {
			return nil, fmt.Errorf("%w: %w", ErrAuthenticationFailed, err)
		}
		return nil, err
	}
	return sc.session, nil
}

// Runner returns a slot runner bound to an authenticated session.
func (sc *ServerContext) Runner(ctx context.Context) (*slots.Runner, error) {
	session, err := sc.Session(ctx)
	if err != nil {
		return nil, err
	}
	runner := slots.NewRunner(session, recurrence.NewEngine(session.Location(), sc.now))
	runner.Logger = sc.logger
	runner.Metrics = sc.metrics
	return runner, nil
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
