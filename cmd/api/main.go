package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/harshal-b-98/NextGenWeb-sub006/internal/app/migrate"
	httpx "github.com/harshal-b-98/NextGenWeb-sub006/internal/http"
	"github.com/harshal-b-98/NextGenWeb-sub006/internal/provider"
	"github.com/harshal-b-98/NextGenWeb-sub006/internal/provider/netlify"
	"github.com/harshal-b-98/NextGenWeb-sub006/internal/provider/vercel"
	"github.com/harshal-b-98/NextGenWeb-sub006/internal/repository/postgres"
	"github.com/harshal-b-98/NextGenWeb-sub006/internal/service/deploy"
	"github.com/harshal-b-98/NextGenWeb-sub006/internal/service/export"
	"github.com/harshal-b-98/NextGenWeb-sub006/internal/service/version"
	"github.com/harshal-b-98/NextGenWeb-sub006/internal/ws"
	"github.com/harshal-b-98/NextGenWeb-sub006/pkg/config"
	"github.com/harshal-b-98/NextGenWeb-sub006/pkg/logger"
)

func main() {
	_ = godotenv.Load()
	cfg := config.LoadAPIConfig()
	log := logger.New("api", slog.LevelInfo)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	runner, err := migrate.New(pool, cfg.DatabaseURL, cfg.MigrationsDir, log)
	if err != nil {
		log.Error("failed to configure migrations", "error", err)
		os.Exit(1)
	}
	defer runner.Close()
	if err := runner.Ping(ctx); err != nil {
		log.Error("database ping failed", "error", err)
		os.Exit(1)
	}
	if err := runner.Ensure(ctx); err != nil {
		log.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	repo := postgres.New(pool)
	hub := ws.NewHub()

	providers := provider.Registry{}
	if cfg.VercelToken != "" {
		var opts []vercel.Option
		if cfg.VercelTeamID != "" {
			opts = append(opts, vercel.WithTeam(cfg.VercelTeamID))
		}
		providers["vercel"] = vercel.New(cfg.VercelToken, log, opts...)
	}
	if cfg.NetlifyToken != "" {
		providers["netlify"] = netlify.New(cfg.NetlifyToken, log)
	}
	if len(providers) == 0 {
		log.Warn("no deployment provider tokens configured, deploy requests will fail")
	}

	versionSvc := version.New(repo, repo, repo, log)
	exporter := export.New(log)
	orchestrator := deploy.New(repo, providers, hub, log, deploy.Config{
		PollInterval:    cfg.PollInterval,
		PollMaxAttempts: cfg.PollMaxAttempts,
	})
	defer orchestrator.Close()
	if err := orchestrator.Reconcile(ctx); err != nil {
		log.Warn("deployment reconciliation failed", "error", err)
	}

	limiter := httpx.NewMemoryRateLimiter()
	if addr := strings.TrimSpace(cfg.RateLimitRedisAddr); addr != "" {
		redisLimiter, err := httpx.NewRedisRateLimiter(addr, cfg.RateLimitRedisPass, cfg.RateLimitRedisDB, log)
		if err != nil {
			log.Warn("redis rate limiter unavailable", "error", err)
		} else {
			limiter = redisLimiter
		}
	}

	router := httpx.NewRouter(httpx.Deps{
		Logger:          log,
		Websites:        repo,
		Pages:           repo,
		Versions:        versionSvc,
		Exporter:        exporter,
		Deploys:         orchestrator,
		Hub:             hub,
		Limiter:         limiter,
		JWTSecret:       cfg.JWTSecret,
		DBHealth:        pool.Ping,
		DefaultProvider: cfg.DefaultProvider,
		DefaultTarget:   cfg.DeployTarget,
	})
	defer router.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errorCh := make(chan error, 1)
	go func() {
		log.Info("api server starting", "addr", cfg.Addr, "environment", cfg.Environment)
		errorCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
		log.Info("api server stopped")
	case err := <-errorCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}
}
