package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rgehrsitz/payoutgo/internal/api"
	"github.com/rgehrsitz/payoutgo/internal/calculation"
	"github.com/rgehrsitz/payoutgo/internal/scheduler"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the pricing engine over HTTP",
	Long: `Start the JSON API.

Endpoints:
  GET  /health
  POST /api/v1/quote
  POST /api/v1/classify
  POST /api/v1/menu
  POST /api/v1/solve
  GET  /api/v1/funds
  GET  /api/v1/minimum-pension?date=YYYY-MM-DD
  GET  /api/v1/life-table/{sex}?rate=5
  GET  /api/v1/retirement-age?sex=female&date=YYYY-MM-DD`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", api.DefaultConfig().Addr, "Listen address")
	serveCmd.Flags().String("origins", "", "Comma-separated CORS origins (default: any)")
	serveCmd.Flags().String("reload", "", `Cron spec for reloading the life table and regulatory config, e.g. "@every 1h" or "0 0 3 * * *"`)

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	debugMode, _ := cmd.Flags().GetBool("debug")
	logger := newLogger(cmd.ErrOrStderr(), debugMode)
	slog.SetDefault(logger)

	engine, err := loadEngine(cmd)
	if err != nil {
		return err
	}

	cfg := api.DefaultConfig()
	cfg.Addr, _ = cmd.Flags().GetString("addr")
	if origins, _ := cmd.Flags().GetString("origins"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	}

	server := api.NewServer(cfg, engine, version)

	if spec, _ := cmd.Flags().GetString("reload"); spec != "" {
		reloader := scheduler.NewReloader(
			func() (*calculation.CalculationEngine, error) { return loadEngine(cmd) },
			server.Handler().SetEngine,
		)
		if err := reloader.Register(spec); err != nil {
			return err
		}
		reloader.Start()
		defer reloader.Stop()
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting HTTP server", "addr", cfg.Addr, "version", version, "table", engine.Table.Name())
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		slog.Info("received shutdown signal", "signal", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return err
	}
	slog.Info("server stopped")
	return nil
}
