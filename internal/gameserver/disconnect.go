package gameserver

import (
	"context"

	"github.com/cambiogame/cambio/internal/protocol"
)

// runDisconnector consumes worker termination notices: it unregisters the
// queue, frees the player's seat, tells the remaining players and feeds
// the connection bus. A notice whose queue was already superseded by a
// rejoin is dropped without touching the new registration.
func (s *Server) runDisconnector(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case d := <-s.disconnects:
			if !s.hub.Remove(d.ID, d.Queue) {
				s.log.Debug("stale disconnect notice", "player", d.ID)
				continue
			}
			s.log.Info("client left", "player", d.ID, "reason", d.Reason)
			s.data.RemovePlayer(d.ID)
			s.hub.BroadcastEvent(protocol.Left(d.ID))
			s.hub.PublishConn(ConnEvent{Kind: ConnDisconnect, ID: d.ID, Reason: d.Reason})
		}
	}
}
