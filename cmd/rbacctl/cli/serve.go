package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/odyssey-erp/rbac-console/internal/app"
	"github.com/odyssey-erp/rbac-console/internal/console"
	"github.com/odyssey-erp/rbac-console/jobs"
)

const shutdownTimeout = 10 * time.Second

func (p *program) serveCommand() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the console API on a local address",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := p.runtime(cmd.Context())
			if err != nil {
				return err
			}
			if addr == "" {
				addr = rt.Config.ConsoleAddr
			}

			inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: rt.Config.RedisAddr})
			rt.OnClose(inspector.Close)
			jobsHandler := jobs.NewHandler(inspector, rt.Logger)

			router := app.NewRouter(app.RouterParams{
				Logger:  rt.Logger,
				Config:  rt.Config,
				Metrics: rt.Metrics,
				Console: console.NewHandler(console.Deps{
					Logger:   rt.Logger,
					Sessions: rt.Sessions,
					Jobs:     rt.Jobs,
				}),
				Mounts: []app.Mount{{Pattern: "/jobs", Routes: jobsHandler.MountRoutes}},
			})
			return serve(cmd.Context(), rt, &http.Server{
				Addr:         addr,
				Handler:      router,
				ReadTimeout:  rt.Config.ConsoleReadTimeout,
				WriteTimeout: rt.Config.ConsoleWriteTimeout,
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default CONSOLE_ADDR)")
	return cmd
}

func serve(ctx context.Context, rt *Runtime, server *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		rt.Logger.Info("starting console server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	rt.Logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
