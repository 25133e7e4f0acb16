package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ysoda/indexpulse/internal/api"
	"github.com/ysoda/indexpulse/internal/api/handlers"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the REST API server",
	Long: `Starts the REST API server.

Endpoints:
  GET  /health                   - Health check
  GET  /api/indices              - Registered instrument keys
  GET  /api/{key}/price-history  - MA-decorated close series
  POST /api/evaluate             - Composite score snapshot
  POST /api/backtest             - Replay backtest

Example:
  go run ./cmd/pulse api
  go run ./cmd/pulse api --port 8089`,
	RunE: runAPIServer,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (overrides PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	app, err := buildApp()
	if err != nil {
		return err
	}
	defer app.close()

	if apiPort != "" {
		app.cfg.Port = apiPort
	}

	indexHandler := handlers.NewIndexHandler(app.registry, app.history, app.builder, app.log)
	backtestHandler := handlers.NewBacktestHandler(app.engine, app.cfg.Backtest, app.log)

	router := api.NewRouter(indexHandler, backtestHandler, app.log)
	server := api.New(app.cfg, app.log, router)

	// Graceful shutdown on SIGINT/SIGTERM.
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		app.log.WithField("signal", sig.String()).Info("Shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	return nil
}
