package gameserver

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/cambiogame/cambio/internal/card"
	"github.com/cambiogame/cambio/internal/config"
	"github.com/cambiogame/cambio/internal/game"
	"github.com/cambiogame/cambio/internal/protocol"
)

// runGame is the play-phase loop: it drains engine events into wire
// events, then feeds inbound client events and deadline expiries back into
// the engine. The engine lives entirely on this goroutine.
func (s *Server) runGame(ctx context.Context) {
	incoming := s.hub.Incoming()
	defer incoming.Close()
	conns := s.hub.Connections()
	defer conns.Close()

	confirmed := make(map[uuid.UUID]struct{}, s.data.PlayerCount())

loop:
	for {
		if ev, ok := s.engine.PollEvent(); ok {
			if ev.Kind == game.EventExit {
				break
			}
			s.dispatchEngineEvent(ctx, ev, confirmed)
			continue
		}

		if ctx.Err() != nil {
			return
		}
		// leavers lose their seat mid-game too; below the minimum the
		// game cannot go on
		if s.data.PlayerCount() < config.MinPlayerCount {
			s.log.Info("not enough players left, ending the game")
			break
		}

		s.log.Debug("engine state", "state", s.engine.State().Kind)

		if deadline, ok := s.engine.PollWaitDeadline(); ok {
			// wait for an input inside of the deadline
			timer := time.NewTimer(time.Until(deadline))
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case in := <-incoming.C():
				timer.Stop()
				s.handleIncoming(in, confirmed)
			case ce := <-conns.C():
				timer.Stop()
				if ce.Kind == ConnDisconnect && s.data.PlayerCount() < config.MinPlayerCount {
					s.log.Info("not enough players left, ending the game", "player", ce.ID)
					break loop
				}
			case <-timer.C:
			}
		}

		s.engine.Advance(time.Now())
	}

	// always tell the clients the game has ended
	s.hub.BroadcastEvent(protocol.ServerEvent{Kind: protocol.ServerGameEnd})
}

// dispatchEngineEvent turns one engine event into network effects. Most
// kinds are plain broadcasts; the rest need the player table or targeted
// delivery.
func (s *Server) dispatchEngineEvent(ctx context.Context, ev game.Event, confirmed map[uuid.UUID]struct{}) {
	switch ev.Kind {
	case game.EventFirstDraw:
		s.hub.BroadcastEvent(protocol.ServerEvent{Kind: protocol.ServerFirstDraw})
	case game.EventStartRound:
		s.hub.BroadcastEvent(protocol.RoundStart(ev.Round))
	case game.EventWaitForDecision:
		s.hub.BroadcastEvent(protocol.ServerEvent{Kind: protocol.ServerWaitingForDecision})
	case game.EventWaitForSnap:
		// the decision has been played; open the snap window
		s.hub.BroadcastEvent(protocol.ServerEvent{Kind: protocol.ServerPlayAction})
		s.hub.BroadcastEvent(protocol.ServerEvent{Kind: protocol.ServerWaitingForSnap})
	case game.EventEndTurn:
		s.hub.BroadcastEvent(protocol.ServerEvent{Kind: protocol.ServerEndTurn})
	case game.EventEndRound:
		s.hub.BroadcastEvent(protocol.ServerEvent{Kind: protocol.ServerRoundEnd})
	case game.EventCambio:
		s.hub.BroadcastEvent(protocol.ServerEvent{Kind: protocol.ServerCambioCall})

	case game.EventSetup:
		s.data.DealStartingCards(s.engine.Deck())
		s.hub.BroadcastEvent(protocol.ServerEvent{Kind: protocol.ServerSetup})
	case game.EventFirstPeek:
		s.firstPeek()
	case game.EventStartTurn:
		if id, ok := s.data.IDAtTurn(ev.Seat); ok {
			s.hub.BroadcastEvent(protocol.TurnStart(id))
		}
	case game.EventDrawCard:
		// the drawn card is private to the acting player
		if id, ok := s.data.IDAtTurn(ev.Seat); ok {
			s.hub.SendEvent(protocol.DrawCard(ev.Card), id)
		}
	case game.EventWaitForNewRound:
		// only ask once per round; later emissions carry running tallies
		if ev.Confirmations == 0 {
			clear(confirmed)
			s.hub.BroadcastEvent(protocol.ServerEvent{Kind: protocol.ServerConfirmNewRound})
		}
	case game.EventFindWinner:
		s.findWinner(ctx)
	}
}

// firstPeek shows each player their own front two cards, as a single
// logical broadcast with per-recipient payloads.
func (s *Server) firstPeek() {
	peeks := s.data.FirstPeeks()
	s.hub.BroadcastMap(func(id uuid.UUID) (protocol.ServerEvent, bool) {
		pair, ok := peeks[id]
		if !ok {
			return protocol.ServerEvent{}, false
		}
		return protocol.FirstPeek(pair[0], pair[1]), true
	})
}

// findWinner reveals every hand after the configured cooldown and then
// announces the lowest scorer, or a tie when the lowest score is shared.
func (s *Server) findWinner(ctx context.Context) {
	cooldown := time.Duration(s.cfg.ShowAllCooldown) * time.Second
	if cooldown > 0 {
		select {
		case <-ctx.Done():
			return
		case <-time.After(cooldown):
		}
	}

	players := s.data.Players()
	s.hub.BroadcastEvent(protocol.ShowAll(players))
	s.hub.BroadcastEvent(protocol.AnnounceWinner(winnerOf(players)))
}

// winnerOf groups players by score and takes the minimum-scoring group: a
// sole member wins, anything else is a tie.
func winnerOf(players []game.PlayerData) protocol.Winner {
	if len(players) == 0 {
		return protocol.WinnerTied()
	}

	best := players[0].Score()
	var winner uuid.UUID
	count := 0
	for _, p := range players {
		score := p.Score()
		switch {
		case score < best || count == 0:
			best = score
			winner = p.ID
			count = 1
		case score == best:
			count++
		}
	}

	if count == 1 {
		return protocol.WinnerPlayer(winner)
	}
	return protocol.WinnerTied()
}

// handleIncoming feeds one client event into the engine. The confirmation
// set makes repeat ConfirmNewRound frames from the same player count once.
func (s *Server) handleIncoming(in InboundEvent, confirmed map[uuid.UUID]struct{}) {
	s.log.Debug("handling event", "player", in.ID, "event", in.Event.Kind)

	now := time.Now()
	switch in.Event.Kind {
	case protocol.ClientSnap:
		s.engine.HandleSnap(card.Joker(), now)
	case protocol.ClientDecision:
		s.engine.HandleDecision(in.Event.Decision, now)
	case protocol.ClientConfirmNewRound:
		if _, dup := confirmed[in.ID]; dup {
			return
		}
		confirmed[in.ID] = struct{}{}
		// leavers are already unseated, so the quota is the survivors
		s.engine.ConfirmNewRound(s.data.PlayerCount(), now)
	case protocol.ClientSkipNewRound:
		s.engine.SkipNewRound()
	}
}
