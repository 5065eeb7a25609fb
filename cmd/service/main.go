package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/dropDatabas3/socialauth/internal/config"
	v2server "github.com/dropDatabas3/socialauth/internal/http/v2/server"
	"github.com/dropDatabas3/socialauth/internal/observability/logger"
)

// commit lo fija el build: -ldflags "-X main.commit=$(git rev-parse --short HEAD)"
var commit = "dev"

func main() {
	// .env es opcional
	_ = godotenv.Load()

	var configPath string
	flag.StringVar(&configPath, "config", envOr("CONFIG_PATH", config.DefaultPath), "ruta al config.yaml")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.Log.Level,
		ServiceName: cfg.App.Name,
		Version:     cfg.App.Version,
	})
	defer func() { _ = logger.Sync() }()
	lg := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := v2server.Build(logger.ToContext(ctx, lg), cfg, v2server.WithCommit(commit))
	if err != nil {
		lg.Fatal("wiring failed", logger.Err(err))
	}
	defer func() {
		if err := app.Close(); err != nil {
			lg.Warn("cleanup error", logger.Err(err))
		}
	}()

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           app.Handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		lg.Info("server listening",
			logger.String("addr", cfg.Server.Addr),
			logger.String("storage", app.Store.Driver()),
			logger.Bool("metrics", app.Metrics != nil),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("server failed", logger.Err(err))
		}
	case <-ctx.Done():
		lg.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			lg.Error("graceful shutdown failed", logger.Err(err))
		}
	}
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
