package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/shrestarohan/square-inventory-manager-sub000/internal/cache"
	"github.com/shrestarohan/square-inventory-manager-sub000/internal/config"
	"github.com/shrestarohan/square-inventory-manager-sub000/internal/database"
	"github.com/shrestarohan/square-inventory-manager-sub000/internal/handler"
	"github.com/shrestarohan/square-inventory-manager-sub000/internal/middleware"
	"github.com/shrestarohan/square-inventory-manager-sub000/internal/repository"
	"github.com/shrestarohan/square-inventory-manager-sub000/internal/service"
	"github.com/shrestarohan/square-inventory-manager-sub000/internal/worker"
)

// main is the application entrypoint for the catalog matrix service.
func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Setup logger
	setupLogger(cfg.Env)
	log.Info().Str("env", cfg.Env).Msg("starting catalog matrix service")

	// 3. Connect database
	db, err := database.Connect(&cfg.DB)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		fmt.Fprintf(os.Stderr, "database connection failed: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	// 3a. Run migrations
	if err := runMigrations(db.DB); err != nil {
		log.Error().Err(err).Msg("migration failed")
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}
	log.Info().Msg("migrations completed successfully")

	// 3b. Connect to Redis
	redisClient, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.Error().Err(err).Msg("redis connection failed")
		fmt.Fprintf(os.Stderr, "redis connection failed: %v\n", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected successfully")

	// 4. Initialize repositories
	sourceRepo := repository.NewSourceRepository(db)
	matrixRepo := repository.NewMatrixRepository(db)
	locationRepo := repository.NewLocationRepository(db)

	// 5. Initialize services
	searchCache := cache.NewSearchCache(redisClient)
	querySvc := service.NewQueryService(matrixRepo, searchCache)
	reconcileSvc := service.NewReconcileService(
		sourceRepo,
		matrixRepo,
		locationRepo,
		cfg.Reconcile.LocationLabels,
		cfg.Reconcile.PageSize,
		cfg.Reconcile.BatchLimit,
	)

	// 6. Initialize handlers
	handlers := &Handlers{
		Health:    handler.NewHealthHandler(db, redisClient),
		Matrix:    handler.NewMatrixHandler(querySvc),
		Location:  handler.NewLocationHandler(locationRepo),
		Reconcile: handler.NewReconcileHandler(reconcileSvc),
	}

	// 7. Initialize middleware
	jwtMw := middleware.NewJWTMiddleware(cfg.JWTSecret)

	// 8. Setup router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(cfg.CORSHosts))
	router.Use(middleware.LoggingMiddleware())
	setupRoutes(router, handlers, jwtMw)

	// 9. Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 10. Start the periodic reconciliation worker
	workerOpts := service.RunOptions{
		DryRun:        cfg.Reconcile.DryRun,
		MerchantScope: cfg.Reconcile.MerchantScope,
		MaxGTINs:      cfg.Reconcile.MaxGTINs,
	}
	go worker.NewReconcileWorker(reconcileSvc, workerOpts, cfg.Reconcile.Interval).Start(ctx)

	// 11. Start HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// 12. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// 13. Cancel context to stop workers
	cancel()

	// 14. Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}

// Handlers groups all HTTP handlers used by the server.
type Handlers struct {
	Health    *handler.HealthHandler
	Matrix    *handler.MatrixHandler
	Location  *handler.LocationHandler
	Reconcile *handler.ReconcileHandler
}

// setupRoutes registers all routes.
func setupRoutes(router *gin.Engine, handlers *Handlers, jwtMiddleware *middleware.JWTMiddleware) {
	router.GET("/v1/health", handlers.Health.GetHealth)

	// Matrix read routes (public)
	router.GET("/v1/matrix/search", handlers.Matrix.Search)
	router.GET("/v1/matrix/:gtin", handlers.Matrix.GetByGTIN)
	router.GET("/v1/locations", handlers.Location.ListLocations)

	// Admin routes
	admin := router.Group("/v1/admin")
	admin.Use(jwtMiddleware.Handle())
	{
		admin.POST("/reconcile", handlers.Reconcile.Run)
	}
}

// runMigrations runs database migrations using golang-migrate.
func runMigrations(db *sql.DB) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres", driver)
	if err != nil {
		return fmt.Errorf("could not create migration instance: %w", err)
	}

	// Run migrations
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

func setupLogger(env string) {
	if env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}
