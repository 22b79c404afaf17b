package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/locvowork/pawsheets/internal/bootstrap"
	"github.com/locvowork/pawsheets/internal/logger"
)

var shutdownTimeout time.Duration

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the editor API, the cards endpoint and the embed viewer",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 10*time.Second, "Time allowed for pending saves on shutdown")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := bootstrap.NewApp()
	if err := app.Initialize(ctx); err != nil {
		logger.ErrorLog(ctx, "Failed to initialize application: %v", err)
		return err
	}

	errCh := make(chan error, 1)
	go func() { errCh <- app.Run() }()

	select {
	case err := <-errCh:
		app.Close()
		if !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorLog(ctx, "Application failed: %v", err)
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.InfoLog(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return app.Shutdown(shutdownCtx)
}
