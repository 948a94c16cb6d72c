package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cambiogame/cambio/internal/config"
	"github.com/cambiogame/cambio/internal/gameserver"
	"github.com/cambiogame/cambio/internal/lobbyserver"
)

const ConfigPath = "Server.toml"

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
	if p := os.Getenv("CAMBIO_GAME_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.LoadGameServer(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log.Info("game server starting",
		"port", cfg.ServerPort,
		"snap_time_secs", cfg.SnapTimeSecs,
		"new_round_timer_secs", cfg.NewRoundTimerSecs)

	if cfg.Discovery != nil {
		if err := advertise(ctx, cfg, log); err != nil {
			return fmt.Errorf("advertising to lobby: %w", err)
		}
	}

	srv := gameserver.NewServer(cfg, log)
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("game server: %w", err)
	}
	return nil
}

// advertise registers this server with the lobby-discovery service so
// players can find it by join id.
func advertise(ctx context.Context, cfg config.GameServer, log *slog.Logger) error {
	disc := cfg.Discovery
	client := lobbyserver.NewClient(disc.URL)

	token, err := client.Login(ctx, disc.Username, disc.Password)
	if err != nil {
		return fmt.Errorf("logging in: %w", err)
	}

	addr := disc.AdvertiseAddr
	if addr == "" {
		addr = fmt.Sprintf("0.0.0.0:%d", cfg.ServerPort)
	}
	visibility := disc.Visibility
	if visibility == "" {
		visibility = "private"
	}
	id, err := client.CreateGame(ctx, token, lobbyserver.CreateGameRequest{
		Name:       disc.GameName,
		Visibility: visibility,
		ServerAddr: addr,
	})
	if err != nil {
		return fmt.Errorf("creating game entry: %w", err)
	}

	log.Info("game advertised", "join_id", id, "addr", addr)
	return nil
}
