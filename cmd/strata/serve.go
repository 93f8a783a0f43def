package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/lanreath/strata"
	"github.com/lanreath/strata/internal/config"
	"github.com/lanreath/strata/internal/logging"
	httpadapter "github.com/lanreath/strata/pkg/adapters/http"
	"github.com/lanreath/strata/pkg/observability"
	"github.com/lanreath/strata/pkg/persistence/middleware"
	"github.com/lanreath/strata/pkg/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the instance HTTP server",
	Long: `Serves the chart's instance API over HTTP: create instances, dispatch
events, and inspect state. Prometheus metrics are exposed on /metrics and
the OpenAPI contract on /openapi.yaml.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runServe(cmd, args); err != nil {
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides STRATA_ADDR)")
	serveCmd.Flags().String("store", "", "Snapshot store: memory, bolt, sqlite, or redis (overrides STRATA_STORE)")
	serveCmd.Flags().String("store-path", "", "Database file for the bolt and sqlite stores (overrides STRATA_STORE_PATH)")
	serveCmd.Flags().String("redis-addr", "", "Redis address for the redis store (overrides STRATA_REDIS_ADDR)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	var cfg config.Server
	if err := config.FromEnv(&cfg); err != nil {
		return err
	}
	applyServeFlags(cmd, &cfg)

	level := cfg.LogLevel
	if cmd.Flags().Changed("log-level") {
		level, _ = cmd.Flags().GetString("log-level")
	}
	logger := logging.New(logging.ParseLevel(level))

	path, err := chartPath(cmd, args)
	if err != nil {
		return err
	}
	def, err := loadChart(cmd.Context(), path)
	if err != nil {
		return err
	}

	store, locker, closer, err := newStore(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	wrapped := middleware.Chain(store,
		middleware.NewInstrumentation(prometheus.DefaultRegisterer),
		middleware.NewLogging(logger),
	)

	metrics := observability.New(def.Name, observability.WithChartDef(def))
	metrics.MustRegister(prometheus.DefaultRegisterer)

	managerOpts := []session.Option{
		session.WithLogger(logger),
		session.WithEngineOptions(
			strata.WithLifecycleHooks(metrics.Hooks()),
			strata.WithLogger(logger),
		),
	}
	if locker != nil {
		managerOpts = append(managerOpts, session.WithLocker(locker))
	}
	manager := session.NewManager(def, wrapped, managerOpts...)
	prometheus.DefaultRegisterer.MustRegister(observability.NewResidentGauge(manager.Resident))

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: httpadapter.NewHandler(manager, httpadapter.WithLogger(logger)),
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)

	go func() {
		logger.Info("server started", "addr", srv.Addr, "chart", def.Name, "store", cfg.Store)
		serverErrors <- srv.ListenAndServe()
	}()

	// Channel to listen for interrupt or terminate signals.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Blocking main and waiting for shutdown.
	select {
	case err := <-serverErrors:
		return err

	case sig := <-shutdown:
		logger.Info("shutdown started", "signal", sig.String())

		// Give outstanding requests a deadline for completion.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		// Asking listener to shut down and shed load.
		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn("graceful shutdown did not complete", "timeout", 5*time.Second, "err", err)
			if err := srv.Close(); err != nil {
				return fmt.Errorf("could not stop server: %w", err)
			}
		}
		logger.Info("server stopped")
	}

	return nil
}

// applyServeFlags lets explicit flags override the environment.
func applyServeFlags(cmd *cobra.Command, cfg *config.Server) {
	if cmd.Flags().Changed("addr") {
		cfg.Addr, _ = cmd.Flags().GetString("addr")
	}
	if cmd.Flags().Changed("store") {
		cfg.Store, _ = cmd.Flags().GetString("store")
	}
	if cmd.Flags().Changed("store-path") {
		cfg.StorePath, _ = cmd.Flags().GetString("store-path")
	}
	if cmd.Flags().Changed("redis-addr") {
		cfg.RedisAddr, _ = cmd.Flags().GetString("redis-addr")
	}
}
