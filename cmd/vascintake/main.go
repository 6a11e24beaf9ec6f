package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vascintake/vascintake/internal/config"
	"github.com/vascintake/vascintake/internal/domain/coding"
	"github.com/vascintake/vascintake/internal/domain/scoring"
	"github.com/vascintake/vascintake/internal/platform/db"
	"github.com/vascintake/vascintake/internal/platform/middleware"
	"github.com/vascintake/vascintake/internal/platform/openapi"
	"github.com/vascintake/vascintake/internal/platform/telemetry"
)

var version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:          "vascintake",
		Short:        "Vascular intake coding suggestion service",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(suggestCmd())
	rootCmd.AddCommand(rvuCmd())
	rootCmd.AddCommand(catalogCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the coding API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return logger.Level(cfg.Level())
}

// openPool connects when DATABASE_URL is set; a nil pool means the server
// runs on the built-in catalog without a database.
func openPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	if cfg.DatabaseURL == "" {
		return nil, nil
	}
	return db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
}

// loadEngine builds the engine over the configured catalog source.
func loadEngine(ctx context.Context, cfg *config.Config, repo coding.CatalogRepository, logger zerolog.Logger) (*coding.Engine, error) {
	if cfg.CatalogSource != config.CatalogPostgres {
		return coding.NewEngine(nil), nil
	}
	cat, err := coding.LoadCatalog(ctx, repo, logger)
	if err != nil {
		return nil, err
	}
	return coding.NewEngine(cat), nil
}

func runServer() error {
	// Config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := newLogger(cfg)

	// Database
	ctx := context.Background()
	pool, err := openPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	var repo coding.CatalogRepository
	if pool != nil {
		defer pool.Close()
		repo = coding.NewCatalogRepoPG(pool)
		logger.Info().Msg("connected to database")
	}

	// Catalog
	engine, err := loadEngine(ctx, cfg, repo, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load code catalog")
	}
	logger.Info().Str("source", cfg.CatalogSource).Msg("code catalog ready")

	metrics := telemetry.NewProvider(telemetry.Config{
		Enabled:        cfg.MetricsEnabled,
		ServiceVersion: version,
		GoMetrics:      true,
	})
	svc := coding.NewService(engine, repo, metrics, logger)

	e := newServer(cfg, logger, svc, metrics, pool)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Bool("tls", cfg.TLSEnabled).Msg("starting server")
		var err error
		if cfg.TLSEnabled {
			err = e.StartTLS(addr, cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			err = e.Start(addr)
		}
		if err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}

// newServer wires middleware and routes. pool may be nil.
func newServer(cfg *config.Config, logger zerolog.Logger, svc *coding.Service, metrics *telemetry.Provider, pool *pgxpool.Pool) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(metrics.MetricsMiddleware())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{"Content-Type", middleware.RequestIDHeader},
	}))
	e.Use(middleware.BodyLimit(cfg.BodyLimit))

	// Health and metrics
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	if pool != nil {
		e.GET("/health/db", db.HealthHandler(pool))
	}
	e.GET("/metrics", metrics.Handler())

	// API groups
	apiV1 := e.Group("/api/v1")
	fhirGroup := e.Group("/fhir")

	// Rate limiting middleware
	rateLimitCfg := middleware.DefaultRateLimitConfig()
	if cfg.RateLimitRPS > 0 {
		rateLimitCfg.RequestsPerSecond = cfg.RateLimitRPS
		rateLimitCfg.BurstSize = cfg.RateLimitBurst
	}
	// One limiter store for both groups so a client has a single budget.
	rateLimit := middleware.RateLimit(rateLimitCfg)
	apiV1.Use(rateLimit)
	fhirGroup.Use(rateLimit)

	coding.NewHandler(svc).RegisterRoutes(apiV1, fhirGroup)
	scoring.NewHandler().RegisterRoutes(apiV1)

	// API documentation
	openapi.NewGenerator(e.Routes, version, "").RegisterRoutes(e.Group("/api"))

	return e
}
