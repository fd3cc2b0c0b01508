// Package main is the entry point for the fleet routing API server.
// Its sole responsibility is wiring dependencies together and starting the
// server. No business logic belongs here.
package main

import (
	"context"
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
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"

	"github.com/avirmani/fleet-manager/internal/config"
	"github.com/avirmani/fleet-manager/internal/handler"
	"github.com/avirmani/fleet-manager/internal/middleware"
	"github.com/avirmani/fleet-manager/internal/notify"
	"github.com/avirmani/fleet-manager/internal/repo"
	"github.com/avirmani/fleet-manager/internal/routing"
	"github.com/avirmani/fleet-manager/internal/sequence"
	"github.com/avirmani/fleet-manager/internal/service"
	"github.com/avirmani/fleet-manager/migrations"
)

// maxBodyBytes caps request bodies; the largest legitimate payload is a bulk
// generation request, far below 1 MiB.
const maxBodyBytes = 1 << 20

func main() {
	// --- Config -----------------------------------------------------------
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
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

	// --- Database ---------------------------------------------------------
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(context.Background()); err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	slog.Info("database connection established")

	// --- Migrations -------------------------------------------------------
	// goose runs against database/sql, so open a stdlib handle over the
	// same pool configuration just for bootstrap.
	sqlDB := stdlib.OpenDBFromPool(pool)
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		slog.Error("failed to set migration dialect", "error", err)
		os.Exit(1)
	}
	if err := goose.Up(sqlDB, "."); err != nil {
		slog.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}
	if err := sqlDB.Close(); err != nil {
		slog.Error("failed to close migration handle", "error", err)
		os.Exit(1)
	}
	slog.Info("migrations applied")

	// --- Stores -----------------------------------------------------------
	store := repo.NewPgStore(pool)
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		store.UseShiftCache(rdb)
		slog.Info("shift cache enabled", "addr", cfg.RedisAddr)
	}

	// --- Services ---------------------------------------------------------
	provider := routing.NewGoogleClient(cfg.DirectionsBaseURL, cfg.DirectionsAPIKey)
	planner := sequence.New(provider)
	dispatcher := notify.NewAsyncDispatcher(&notify.LogSender{Logger: logger}, logger)

	clusterSvc := service.NewClusterService(store)
	routeSvc := service.NewRouteService(store, planner)
	assignSvc := service.NewAssignService(store, dispatcher)

	// --- Router -----------------------------------------------------------
	// Middleware order: RequestID → RealIP → SlogLogger → Recoverer →
	// CORS → body cap. RequestID first so every log line carries it.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(maxBodyBytes))

	srv := handler.NewServer(clusterSvc, routeSvc, assignSvc)
	r.Mount("/", srv.Routes())

	// --- HTTP Server ------------------------------------------------------
	// Explicit timeouts prevent slowloris and resource exhaustion attacks.
	httpSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown: wait for OS signal, then give in-flight requests
	// up to 15 seconds to complete before forcefully closing.
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

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
