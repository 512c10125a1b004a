package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/rbac-console/internal/api"
	"github.com/odyssey-erp/rbac-console/internal/app"
	"github.com/odyssey-erp/rbac-console/internal/console"
	"github.com/odyssey-erp/rbac-console/internal/observability"
	"github.com/odyssey-erp/rbac-console/internal/session"
	"github.com/odyssey-erp/rbac-console/jobs"
)

// Runtime holds the collaborators a command needs once configuration is loaded.
type Runtime struct {
	Config   *app.Config
	Logger   *slog.Logger
	Metrics  *observability.Metrics
	Client   *api.Client
	Sessions *session.Manager
	// Jobs enqueues async assignments. Nil disables --async.
	Jobs console.Enqueuer

	closers []func() error
}

// OnClose registers fn to run when the command finishes.
func (r *Runtime) OnClose(fn func() error) {
	r.closers = append(r.closers, fn)
}

// Close runs the registered closers in reverse order.
func (r *Runtime) Close() error {
	if r == nil {
		return nil
	}
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return errors.Join(errs...)
}

// Factory builds the Runtime. It is called at most once per invocation.
type Factory func(ctx context.Context) (*Runtime, error)

// DefaultFactory loads configuration from the environment and restores the persisted session.
func DefaultFactory(ctx context.Context) (*Runtime, error) {
	cfg, err := app.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger := app.NewLogger(cfg)

	svc, err := app.NewServices(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	rt := &Runtime{
		Config:   cfg,
		Logger:   logger,
		Metrics:  svc.Metrics,
		Client:   svc.Client,
		Sessions: svc.Sessions,
	}
	rt.OnClose(svc.Close)

	queue := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	rt.Jobs = queue
	rt.OnClose(queue.Close)

	if _, err := svc.Sessions.Restore(ctx); err != nil {
		_ = rt.Close()
		return nil, fmt.Errorf("restore session: %w", err)
	}
	return rt, nil
}
