package gameserver

import (
	"errors"
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/cambiogame/cambio/internal/game"
	"github.com/cambiogame/cambio/internal/protocol"
)

// handshakeTimeout bounds how long a fresh connection may take to present
// its Join frame.
const handshakeTimeout = 10 * time.Second

// runAcceptor accepts connections while the lobby allows it. Connections
// arriving outside the accepting window are dropped on the floor.
func (s *Server) runAcceptor(ln net.Listener) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.log.Error("accept failed", "err", err)
			continue
		}

		if !s.accepting.Load() {
			s.log.Debug("not accepting, dropped connection", "remote", conn.RemoteAddr())
			conn.Close()
			continue
		}

		go s.handleConn(conn)
	}
}

// handleConn performs the id handshake and hands the connection to a
// worker. The worker's queue is registered before Joined goes out, so the
// joiner observes its own join.
func (s *Server) handleConn(conn net.Conn) {
	s.log.Info("connection accepted", "remote", conn.RemoteAddr())

	id, ok := s.idHandshake(conn)
	if !ok {
		conn.Close()
		return
	}

	queue := NewOutQueue()
	s.hub.Register(id, queue)
	go runWorker(conn, id, s.hub, s.data, queue, s.disconnects, s.log)

	s.hub.BroadcastEvent(protocol.Joined(id))
	s.hub.PublishConn(ConnEvent{Kind: ConnConnect, ID: id})

	// the player may start its event loop now
	s.hub.SendEvent(protocol.ServerEvent{Kind: protocol.ServerEnter}, id)
}

// idHandshake expects Join as the very first frame, assigns or validates
// the player id and answers with AssignId.
func (s *Server) idHandshake(conn net.Conn) (uuid.UUID, bool) {
	conn.SetReadDeadline(time.Now().Add(handshakeTimeout))
	ev, err := protocol.ReadClientEvent(conn)
	conn.SetReadDeadline(time.Time{})
	if err != nil {
		s.log.Warn("handshake read failed", "remote", conn.RemoteAddr(), "err", err)
		return uuid.Nil, false
	}
	if ev.Kind != protocol.ClientJoin {
		s.log.Warn("connection refused, first frame was not a join request",
			"remote", conn.RemoteAddr(), "event", ev.Kind)
		return uuid.Nil, false
	}

	id := s.retrieveOrCreateID(ev)

	if err := protocol.WriteServerEvent(conn, protocol.AssignID(id)); err != nil {
		s.log.Error("failed to assign id", "player", id, "err", err)
		return uuid.Nil, false
	}
	return id, true
}

func (s *Server) retrieveOrCreateID(ev protocol.ClientEvent) uuid.UUID {
	if ev.Existing != nil {
		if s.data.Exists(*ev.Existing) {
			return *ev.Existing
		}
		s.log.Warn("client presented an unknown id, assigning a fresh one", "id", *ev.Existing)
	}

	player := game.NewPlayerData()
	s.data.TryAddPlayer(player)
	return player.ID
}
