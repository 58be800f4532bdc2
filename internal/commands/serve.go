package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/recondesk-dev/recondesk/internal/scheduler"
	"github.com/recondesk-dev/recondesk/internal/server"
)

func newServeCommand(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the auto-reconciliation scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadSettings(*configPath)
			if err != nil {
				return err
			}
			log := newLogger()

			sched, err := scheduler.New(*cfg, log)
			if err != nil {
				return err
			}
			if err := sched.Start(); err != nil {
				return err
			}
			defer sched.Stop()

			srv := &http.Server{
				Addr:    cfg.ListenAddr,
				Handler: server.New(*cfg, log).Router(),
			}
			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe() }()
			log.Info("listening", "addr", cfg.ListenAddr)

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			select {
			case sig := <-sigCh:
				log.Info("shutting down", "signal", sig.String())
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return srv.Shutdown(ctx)
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return fmt.Errorf("server error: %w", err)
			}
		},
	}
	return cmd
}
