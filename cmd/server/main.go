package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mattkerbyy/bubbly/backend/internal/metrics"
	"github.com/mattkerbyy/bubbly/backend/internal/router"
	"github.com/mattkerbyy/bubbly/backend/pkg/config"
	"github.com/mattkerbyy/bubbly/backend/pkg/firebase"
	"github.com/mattkerbyy/bubbly/backend/pkg/logger"
	"github.com/mattkerbyy/bubbly/backend/pkg/response"
	"github.com/mattkerbyy/bubbly/backend/validators"
)

const shutdownTimeout = 15 * time.Second

var (
	rootCmd = &cobra.Command{
		Use:   "bubbly",
		Short: "Bubbly social network API server",
		// Running the binary with no subcommand serves the API.
		RunE: runServe,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run migrations and start the HTTP, WebSocket and metrics servers",
		RunE:  runServe,
	}

	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Create PostgreSQL tables and MongoDB indexes, then exit",
		RunE:  runMigrate,
	}
)

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("bubbly: %v", err)
	}
}

// bootstrap loads configuration, sets up logging and connects the databases.
func bootstrap(ctx context.Context) (*config.Config, *config.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if _, err := logger.Init(cfg.Env); err != nil {
		return nil, nil, err
	}

	db, err := config.InitDB(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	_, db, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer logger.Sync()
	defer db.CloseDB()

	return router.Migrate(ctx, db)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, db, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer logger.Sync()
	defer db.CloseDB()

	if err := router.Migrate(ctx, db); err != nil {
		return err
	}

	// Firebase login is optional; without credentials it answers 503.
	firebaseApp, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath)
	if err != nil {
		if !errors.Is(err, firebase.ErrNotConfigured) {
			return err
		}
		logger.Warn("firebase credentials not set, firebase login disabled")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	e := echo.New()
	e.HideBanner = true
	e.Validator = validators.NewValidator()
	e.HTTPErrorHandler = response.ErrorHandler
	config.SetupMiddleware(e, cfg, m.Middleware())

	if err := router.SetupRoutes(e, router.Deps{Config: cfg, DB: db, Firebase: firebaseApp, Metrics: m}); err != nil {
		return err
	}

	metricsSrv := &http.Server{
		Addr:              ":" + cfg.MetricsPort,
		Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("API server listening", zap.String("port", cfg.Port))
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		logger.Info("metrics server listening", zap.String("port", cfg.MetricsPort))
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return errors.Join(e.Shutdown(shutdownCtx), metricsSrv.Shutdown(shutdownCtx))
	})

	return g.Wait()
}
