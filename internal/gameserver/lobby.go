package gameserver

import (
	"context"

	"github.com/cambiogame/cambio/internal/config"
	"github.com/cambiogame/cambio/internal/protocol"
)

// runLobby collects players until the host starts the game or the lobby
// fills up. Returns ctx.Err() when cancelled before either happens.
func (s *Server) runLobby(ctx context.Context) error {
	s.accepting.Store(true)
	defer s.accepting.Store(false)

	incoming := s.hub.Incoming()
	defer incoming.Close()
	conns := s.hub.Connections()
	defer conns.Close()

	s.log.Info("waiting for players",
		"count", s.data.PlayerCount(), "capacity", config.MaxPlayerCount)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case in := <-incoming.C():
			if s.tryStartGame(in) {
				s.log.Info("host started the game", "player", in.ID)
				return nil
			}

		case <-conns.C():
			// seats are settled by the acceptor and the disconnector;
			// the lobby only watches the head count
			count := s.data.PlayerCount()
			s.log.Info("waiting for players", "count", count, "capacity", config.MaxPlayerCount)
			if count == config.MaxPlayerCount {
				s.log.Info("max lobby capacity reached")
				return nil
			}
		}
	}
}

// tryStartGame reports whether the inbound event is a valid Start: it must
// come from the host and the lobby must hold enough players.
func (s *Server) tryStartGame(in InboundEvent) bool {
	if in.Event.Kind != protocol.ClientStart {
		s.log.Warn("unexpected event in lobby", "player", in.ID, "event", in.Event.Kind)
		return false
	}
	if s.data.PlayerCount() < config.MinPlayerCount {
		s.log.Warn("start refused, not enough players", "player", in.ID)
		return false
	}
	host, ok := s.data.HostID()
	if !ok || host != in.ID {
		s.log.Warn("start refused, player is not the host", "player", in.ID)
		return false
	}
	return true
}
