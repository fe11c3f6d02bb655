package main

import (
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"vecna/internal/api"
	"vecna/internal/logging"
	"vecna/internal/workflow"
)

// errAlreadyRunning is returned when another serve process holds the lock.
var errAlreadyRunning = errors.New("another vecna serve process is running")

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the admin HTTP API and the stale in-flight reclaimer",
		RunE: func(cmd *cobra.Command, args []string) error {
			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			return ctx.withApp(func(app *application) error {
				lock := flock.New(app.cfg.LockPath())
				ok, err := lock.TryLock()
				if err != nil {
					return fmt.Errorf("acquire lock: %w", err)
				}
				if !ok {
					return fmt.Errorf("%w (lock %s)", errAlreadyRunning, app.cfg.LockPath())
				}
				defer func() {
					if err := lock.Unlock(); err != nil {
						app.logger.Warn("failed to release serve lock", logging.Error(err))
					}
				}()

				address := strings.TrimSpace(bind)
				if address == "" {
					address = app.cfg.Paths.APIBind
				}
				server := api.NewServer(address, api.Deps{
					Games:        app.games,
					Advancer:     app.advancer,
					Orchestrator: app.orchestrator,
					Reclaimer:    app.reclaimer,
					Defaults: workflow.Options{
						SkipBlocked: app.cfg.Pipeline.SkipBlocked,
						StopOnError: app.cfg.Pipeline.StopOnError,
					},
					Logger: app.logger,
				})
				if err := server.Start(signalCtx); err != nil {
					return err
				}
				defer server.Stop()

				app.logger.Info("vecna serve started",
					logging.String("address", server.Addr()),
					logging.String("lock", app.cfg.LockPath()),
					logging.Duration("in_flight_timeout", app.cfg.InFlightTimeout()),
				)
				fmt.Fprintf(cmd.OutOrStdout(), "Listening on http://%s\n", server.Addr())

				if err := app.reclaimer.Run(signalCtx); err != nil {
					return err
				}
				app.logger.Info("vecna serve shutting down")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&bind, "bind", "", "Listen address (defaults to paths.api_bind)")
	return cmd
}
