// Package gameserver runs one Cambio game over TCP: it accepts players
// into a lobby, then drives the game engine against their connections
// through a central hub of per-player queues.
package gameserver

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/cambiogame/cambio/internal/config"
	"github.com/cambiogame/cambio/internal/game"
	"github.com/cambiogame/cambio/internal/protocol"
)

// Server hosts a single game: lobby phase, play phase, shutdown.
type Server struct {
	cfg    config.GameServer
	log    *slog.Logger
	data   *game.Data
	hub    *Hub
	engine *game.Engine

	accepting   atomic.Bool
	disconnects chan Disconnect

	listener net.Listener
	mu       sync.Mutex
}

// NewServer creates a game server with a randomly seeded engine.
func NewServer(cfg config.GameServer, log *slog.Logger) *Server {
	rng := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	return NewServerWithEngine(cfg, log, game.New(rng))
}

// NewServerWithEngine creates a game server around a caller-built engine.
// Tests use it to shorten the engine's waiting windows.
func NewServerWithEngine(cfg config.GameServer, log *slog.Logger, engine *game.Engine) *Server {
	return &Server{
		cfg:         cfg,
		log:         log,
		data:        game.NewData(),
		hub:         NewHub(),
		engine:      engine,
		disconnects: make(chan Disconnect, 2*config.MaxPlayerCount),
	}
}

// Data exposes the player table, for collaborators that report on it.
func (s *Server) Data() *game.Data { return s.data }

// Addr returns the address the server is listening on, or nil before
// Serve has been called.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Run binds the configured port and serves one game to completion or
// until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.ServerPort))
	if err != nil {
		return fmt.Errorf("binding server port: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve runs the server on an existing listener. It owns the listener and
// closes it on the way out.
//
// The lifecycle is sequential: lobby until the host starts, then the game
// until the engine exits, then shutdown. Cancelling ctx interrupts
// whichever phase is active; connected clients observe ServerClosing
// before their connection closes either way.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	s.log.Info("listening", "addr", ln.Addr())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-gctx.Done()
		ln.Close()
		return nil
	})
	g.Go(func() error {
		return s.runAcceptor(ln)
	})
	g.Go(func() error {
		s.runDisconnector(gctx)
		return nil
	})
	g.Go(func() error {
		defer cancel()
		if err := s.runLobby(gctx); err != nil {
			return nil // cancelled before the game began
		}
		s.data.SetStage(game.StagePlaying)
		s.runGame(gctx)
		return nil
	})

	err := g.Wait()

	// final words: one ServerClosing each, then close every worker
	s.hub.BroadcastEvent(protocol.ServerEvent{Kind: protocol.ServerClosing})
	s.hub.BroadcastCommand(CloseCommand())

	return err
}
