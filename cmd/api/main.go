// Package main is the entry point for the rideshare API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" driver for database/sql
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pkordes/rideshare/internal/cache"
	"github.com/pkordes/rideshare/internal/config"
	"github.com/pkordes/rideshare/internal/handler"
	"github.com/pkordes/rideshare/internal/metrics"
	"github.com/pkordes/rideshare/internal/middleware"
	"github.com/pkordes/rideshare/internal/repo"
	"github.com/pkordes/rideshare/internal/service"
	"github.com/pkordes/rideshare/migrations"
)

func main() {
	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		// Plain stderr: the logger is not configured yet.
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	ctx := context.Background()

	// --- Database ---------------------------------------------------------
	if cfg.MigrateOnStart {
		if err := migrate(ctx, cfg.DatabaseURL); err != nil {
			slog.Error("failed to apply migrations", "error", err)
			os.Exit(1)
		}
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Verify the DB is reachable before accepting traffic.
	if err := pool.Ping(ctx); err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	slog.Info("database connection established")

	// --- Cache ------------------------------------------------------------
	// With REDIS_URL every process shares tag generations; without it each
	// process caches on its own, which is only correct for a single instance.
	var store cache.Store
	if cfg.RedisURL != "" {
		client, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			slog.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		store = cache.NewRedis(client, "rideshare:")
		slog.Info("redis cache enabled")
	} else {
		store = cache.NewMemory()
		slog.Warn("REDIS_URL not set, using in-process cache")
	}
	reader := cache.NewReader(store, cfg.CacheTTL, logger)
	coord := cache.NewCoordinator(logger, store)

	// --- Services ---------------------------------------------------------
	trips := repo.NewTripRepo(pool)
	reads := repo.Repos{Trips: trips, Reservations: repo.NewReservationRepo(pool)}
	users := repo.NewUserRepo(pool)
	ledger := service.NewLedger(repo.NewStore(pool))

	srv := handler.NewServer(
		service.NewTripService(repo.NewStore(pool), ledger, trips, users, reader,
			service.Invalidation{Invalidator: coord, Tags: service.TripTags}, logger),
		service.NewReservationService(ledger, reads, reader,
			service.Invalidation{Invalidator: coord, Tags: service.ReservationTags}, logger),
		service.NewFavoriteService(repo.NewFavoriteRepo(pool), reader,
			service.Invalidation{Invalidator: coord, Tags: service.FavoriteTags}, logger),
		service.NewUserService(users, reader,
			service.Invalidation{Invalidator: coord, Tags: service.UserTags}, logger),
		logger,
	)
	auth := middleware.NewAuthenticator(cfg.JWTSecret)

	// Service routes verify a second key that end-user tokens are never
	// signed with; without it they stay unmounted.
	var requireService func(http.Handler) http.Handler
	if cfg.ServiceJWTSecret != "" {
		requireService = middleware.NewAuthenticator(cfg.ServiceJWTSecret).Require()
	} else {
		slog.Warn("SERVICE_JWT_SECRET not set, service routes disabled")
	}

	// --- Router -----------------------------------------------------------
	// RequestID → RealIP → SlogLogger → Recoverer → CORS → body limit → metrics.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(cfg.MaxBodyBytes))
	r.Use(middleware.NewMetricsHandler(metrics.HTTPRequestDuration))

	r.Handle("/metrics", promhttp.Handler())
	r.Mount("/", srv.Routes(auth.Require(), requireService))

	// --- HTTP Server ------------------------------------------------------
	httpSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown: wait for a signal, then give in-flight requests up
	// to 15 seconds to complete.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// migrate applies pending goose migrations over a short-lived database/sql
// connection; the pool is opened afterwards.
func migrate(ctx context.Context, dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	n, err := migrations.Up(ctx, db)
	if err != nil {
		return err
	}
	slog.Info("migrations applied", "count", n)
	return nil
}
