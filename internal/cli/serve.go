package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"campusid/internal/platform/httpserver"
	platformmetrics "campusid/internal/platform/metrics"
	"campusid/internal/platform/migrations"
	"campusid/internal/registration"
	"campusid/internal/registration/reconcile"
	httptransport "campusid/internal/transport/http"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			d, err := buildDeps(ctx, a.cfg, a.logger)
			if err != nil {
				return err
			}
			defer d.Close()

			if migrate && d.db != nil {
				if err := migrations.Up(ctx, d.db); err != nil {
					return err
				}
			}

			router := httptransport.NewRouter(httptransport.Config{
				Logger:   a.logger,
				Metrics:  platformmetrics.NewWithRegistry(d.registry),
				Gatherer: d.registry,
				Checks:   d.checks,
			}, registration.NewHandler(d.service, a.logger))
			srv := httpserver.New(a.cfg.Addr, router)

			var scheduler *reconcile.Scheduler
			if a.cfg.ReconcileSchedule != "" {
				scheduler = reconcile.NewScheduler(d.reconciler, a.logger)
				if err := scheduler.Start(a.cfg.ReconcileSchedule); err != nil {
					return err
				}
			}

			errCh := make(chan error, 1)
			go func() {
				a.logger.Info("starting campusid", "addr", a.cfg.Addr, "version", version,
					"profile_backend", a.cfg.ProfileBackend,
					"credential_backend", a.cfg.CredentialBackend,
				)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			select {
			case <-ctx.Done():
			case err := <-errCh:
				return err
			}

			a.logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if scheduler != nil {
				scheduler.Stop(shutdownCtx)
			}
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", true, "apply pending migrations on start when Postgres is configured")
	return cmd
}
