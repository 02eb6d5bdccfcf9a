package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/teemow/ocslots/internal/config"
	"github.com/teemow/ocslots/internal/credentials"
	"github.com/teemow/ocslots/internal/instrumentation"
	"github.com/teemow/ocslots/internal/logging"
	"github.com/teemow/ocslots/internal/oc"
	"github.com/teemow/ocslots/internal/recurrence"
	"github.com/teemow/ocslots/internal/slots"
)

// errAuthFailed is reported for every rejected login so the cause stays generic.
var errAuthFailed = errors.New("authentication failed")

// app bundles what a command run needs: configuration, logging,
// instrumentation and the scheduling session.
type app struct {
	opts     *rootOptions
	cfg      *config.Config
	logger   *slog.Logger
	provider *instrumentation.Provider
	client   *oc.Client
	creds    credentials.Source
	loc      *time.Location
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// newApp loads the configuration and wires the session. The caller must
// call close.
func newApp(ctx context.Context, opts *rootOptions) (*app, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.noSaveToken {
		cfg.SaveToken = false
	}

	logger, err := cfg.NewLogger(opts.errOut)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version
	provider, err := instrumentation.NewProvider(ctx, instrConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create instrumentation provider: %w", err)
	}

	client, err := oc.NewClient(cfg.ClientConfig(),
		oc.WithTokenStore(credentials.NewFileTokenStore(cfg.TokenFile)),
		oc.WithLocation(loc),
		oc.WithLogger(logger),
		oc.WithMetrics(provider.Metrics()),
		oc.WithLoginDelay(cfg.LoginDelay),
		oc.WithTimeout(cfg.Timeout),
	)
	if err != nil {
		_ = provider.Shutdown(ctx)
		return nil, err
	}

	file := credentials.NewFileSource(cfg.CredentialsFile, logger)
	prompt := credentials.NewPromptSource(file)
	prompt.In, prompt.Out = opts.in, opts.errOut

	return &app{
		opts:     opts,
		cfg:      cfg,
		logger:   logger,
		provider: provider,
		client:   client,
		creds:    credentials.Chain{credentials.NewEnvSource(), file, prompt},
		loc:      loc,
	}, nil
}

// close pushes the metrics of the run and flushes telemetry. It uses its
// own context so an interrupted run still reports.
func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.provider.Push(ctx); err != nil {
		a.logger.Warn("Failed to push metrics", logging.Err(err))
	}
	if err := a.provider.Shutdown(ctx); err != nil {
		a.logger.Warn("Failed to shut down instrumentation", logging.Err(err))
	}
}

// login authenticates the session. Rejected credentials surface as
// errAuthFailed.
func (a *app) login(ctx context.Context) error {
	err := a.client.Login(ctx, a.creds, a.opts.forceAuth)
	if errors.Is(err, oc.ErrLoginRejected) {
		return errAuthFailed
	}
	return err
}

// runner returns a slot runner over the authenticated session.
func (a *app) runner() *slots.Runner {
	runner := slots.NewRunner(a.client, recurrence.NewEngine(a.loc, nil))
	runner.Logger = a.logger
	runner.Metrics = a.provider.Metrics()
	return runner
}
