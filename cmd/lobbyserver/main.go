package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cambiogame/cambio/internal/config"
	"github.com/cambiogame/cambio/internal/db"
	"github.com/cambiogame/cambio/internal/lobbyserver"
)

const ConfigPath = "config/lobbyserver.yaml"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	log := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(log)

	cfgPath := ConfigPath
	if p := os.Getenv("CAMBIO_LOBBY_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.LoadLobbyServer(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	store, err := db.New(ctx, cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer store.Close()
	log.Info("database connected")

	if err := db.RunMigrations(ctx, cfg.Database.DSN()); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	log.Info("database migrations applied")

	var limiter *lobbyserver.Limiter
	if cfg.RedisAddr != "" {
		limiter = lobbyserver.NewLimiter(cfg.RedisAddr, cfg.RedisPassword, log)
		defer limiter.Close()
		log.Info("rate limiter enabled", "redis", cfg.RedisAddr)
	}

	srv := lobbyserver.NewServer(store, lobbyserver.NewTokenIssuer(cfg.JWTSecret), limiter, log)
	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: srv.Router(),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("lobby server listening", "addr", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
