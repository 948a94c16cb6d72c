package gameserver

import (
	"errors"
	"io"
	"log/slog"
	"net"

	"github.com/google/uuid"

	"github.com/cambiogame/cambio/internal/game"
	"github.com/cambiogame/cambio/internal/protocol"
)

// CloseReason explains why a connection worker terminated.
type CloseReason int

const (
	// CloseRequest means the close was asked for, by the client (Leave)
	// or by the server (Close command).
	CloseRequest CloseReason = iota
	// CloseExhausted means the peer or the outbound queue ran dry.
	CloseExhausted
	// CloseError means a transport or decode failure.
	CloseError
)

var closeReasonNames = [...]string{
	CloseRequest:   "request",
	CloseExhausted: "exhausted",
	CloseError:     "error",
}

func (r CloseReason) String() string { return closeReasonNames[r] }

// Disconnect is the worker's termination notice for the disconnector.
// Queue identifies which registration died, so a rejoin that raced the
// notice is not torn down by mistake.
type Disconnect struct {
	ID     uuid.UUID
	Reason CloseReason
	Queue  *OutQueue
}

type readResult struct {
	ev  protocol.ClientEvent
	err error
}

// runWorker owns one client connection: it writes commands dequeued from
// the player's outbound queue and forwards decoded inbound events to the
// hub. It is the connection's only writer after the handshake.
func runWorker(conn net.Conn, id uuid.UUID, hub *Hub, data *game.Data, queue *OutQueue, disconnects chan<- Disconnect, log *slog.Logger) {
	log = log.With("player", id)

	reads := make(chan readResult)
	stop := make(chan struct{})
	go func() {
		for {
			ev, err := protocol.ReadClientEvent(conn)
			select {
			case reads <- readResult{ev: ev, err: err}:
			case <-stop:
				return
			}
			if err != nil {
				return
			}
		}
	}()

	reason := CloseError
loop:
	for {
		select {
		case cmd := <-queue.Commands():
			done, r := writeCommand(conn, cmd, log)
			if done {
				reason = r
				break loop
			}

		case <-queue.Done():
			reason = drainQueue(conn, queue, log)
			break loop

		case res := <-reads:
			if res.err != nil {
				if errors.Is(res.err, io.EOF) {
					reason = CloseExhausted
				} else {
					log.Warn("read failed", "err", res.err)
					reason = CloseError
				}
				break loop
			}
			done, r := handleInbound(conn, res.ev, id, hub, data, log)
			if done {
				reason = r
				break loop
			}
		}
	}

	close(stop)
	conn.Close()
	log.Debug("worker closed", "reason", reason)
	disconnects <- Disconnect{ID: id, Reason: reason, Queue: queue}
}

// writeCommand executes one dequeued command. The first return is true
// when the worker should terminate.
func writeCommand(conn net.Conn, cmd Command, log *slog.Logger) (bool, CloseReason) {
	if cmd.Kind == CommandClose {
		return true, CloseRequest
	}
	if err := protocol.WriteServerEvent(conn, cmd.Event); err != nil {
		log.Warn("write failed", "event", cmd.Event.Kind, "err", err)
		return true, CloseError
	}
	return false, 0
}

// drainQueue flushes the commands still buffered in a closed queue.
func drainQueue(conn net.Conn, queue *OutQueue, log *slog.Logger) CloseReason {
	for {
		select {
		case cmd := <-queue.Commands():
			if done, r := writeCommand(conn, cmd, log); done {
				return r
			}
		default:
			return CloseExhausted
		}
	}
}

// handleInbound deals with one decoded client event. Leave and
// GetLobbyInfo are settled here without involving the driver; everything
// else goes onto the inbound bus.
func handleInbound(conn net.Conn, ev protocol.ClientEvent, id uuid.UUID, hub *Hub, data *game.Data, log *slog.Logger) (bool, CloseReason) {
	switch ev.Kind {
	case protocol.ClientLeave:
		return true, CloseRequest
	case protocol.ClientGetLobbyInfo:
		if err := protocol.WriteServerEvent(conn, protocol.LobbyInfo(data.PlayerCount())); err != nil {
			log.Warn("write failed", "event", protocol.ServerLobbyInfo, "err", err)
			return true, CloseError
		}
		return false, 0
	default:
		hub.PublishInbound(InboundEvent{ID: id, Event: ev})
		return false, 0
	}
}
