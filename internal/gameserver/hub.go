package gameserver

import (
	"sync"

	"github.com/google/uuid"

	"github.com/cambiogame/cambio/internal/protocol"
)

// outQueueCap bounds a player's pending outbound commands. A full queue
// applies back-pressure to the sender rather than dropping.
const outQueueCap = 32

// CommandKind selects between delivering an event and closing the worker.
type CommandKind int

const (
	CommandEvent CommandKind = iota
	CommandClose
)

// Command is one instruction for a connection worker.
type Command struct {
	Kind  CommandKind
	Event protocol.ServerEvent
}

func EventCommand(e protocol.ServerEvent) Command {
	return Command{Kind: CommandEvent, Event: e}
}

func CloseCommand() Command {
	return Command{Kind: CommandClose}
}

// InboundEvent is a client event tagged with the sending player.
type InboundEvent struct {
	ID    uuid.UUID
	Event protocol.ClientEvent
}

// ConnKind tags connection lifecycle notifications.
type ConnKind int

const (
	ConnConnect ConnKind = iota
	ConnDisconnect
)

// ConnEvent announces a player connecting or disconnecting.
type ConnEvent struct {
	Kind   ConnKind
	ID     uuid.UUID
	Reason CloseReason // disconnects only
}

// OutQueue is the bounded command queue owned by one connection worker.
// Send blocks while the queue is full and silently fails once closed.
type OutQueue struct {
	ch   chan Command
	done chan struct{}
	once sync.Once
}

func NewOutQueue() *OutQueue {
	return &OutQueue{
		ch:   make(chan Command, outQueueCap),
		done: make(chan struct{}),
	}
}

// Send enqueues cmd, waiting for room. Returns false when the queue closed
// before the command could be accepted.
func (q *OutQueue) Send(cmd Command) bool {
	select {
	case <-q.done:
		return false
	default:
	}
	select {
	case q.ch <- cmd:
		return true
	case <-q.done:
		return false
	}
}

// Close marks the queue dead. Commands already buffered remain readable so
// the worker can drain them.
func (q *OutQueue) Close() {
	q.once.Do(func() { close(q.done) })
}

// Commands is the worker's receive side.
func (q *OutQueue) Commands() <-chan Command { return q.ch }

// Done is closed when the queue is.
func (q *OutQueue) Done() <-chan struct{} { return q.done }

// Hub is the sole contact point between connection workers and the driver.
// It owns the player→queue map and the two broadcast buses.
type Hub struct {
	mu     sync.RWMutex
	queues map[uuid.UUID]*OutQueue

	inbound *Bus[InboundEvent]
	conns   *Bus[ConnEvent]
}

func NewHub() *Hub {
	return &Hub{
		queues:  make(map[uuid.UUID]*OutQueue),
		inbound: NewBus[InboundEvent](),
		conns:   NewBus[ConnEvent](),
	}
}

// Register makes the player's queue visible to sends. The mapping is live
// by the time Register returns.
func (h *Hub) Register(id uuid.UUID, q *OutQueue) {
	h.mu.Lock()
	h.queues[id] = q
	h.mu.Unlock()
}

// Remove closes q and, when it is still the registered queue for id,
// drops the mapping. Returns false when a newer registration under the
// same id has superseded q; that registration is left untouched.
func (h *Hub) Remove(id uuid.UUID, q *OutQueue) bool {
	h.mu.Lock()
	cur, ok := h.queues[id]
	live := ok && cur == q
	if live {
		delete(h.queues, id)
	}
	h.mu.Unlock()
	q.Close()
	return live
}

// Len counts currently connected players.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.queues)
}

// Send unicasts cmd to one player. Unknown ids and closed queues are
// silently dropped.
func (h *Hub) Send(cmd Command, id uuid.UUID) {
	h.mu.RLock()
	q, ok := h.queues[id]
	h.mu.RUnlock()
	if ok {
		q.Send(cmd)
	}
}

// SendEvent unicasts a server event to one player.
func (h *Hub) SendEvent(e protocol.ServerEvent, id uuid.UUID) {
	h.Send(EventCommand(e), id)
}

// BroadcastCommand fans cmd out to every live queue. The fan-out has fully
// completed when the call returns, so a later unicast can never overtake
// this broadcast at any receiver.
func (h *Hub) BroadcastCommand(cmd Command) {
	h.broadcast(func(uuid.UUID) (Command, bool) { return cmd, true })
}

// BroadcastEvent fans a server event out to every live queue.
func (h *Hub) BroadcastEvent(e protocol.ServerEvent) {
	h.BroadcastCommand(EventCommand(e))
}

// BroadcastMap fans out one logical event whose payload differs per
// recipient. f returning false skips that player.
func (h *Hub) BroadcastMap(f func(id uuid.UUID) (protocol.ServerEvent, bool)) {
	h.broadcast(func(id uuid.UUID) (Command, bool) {
		e, ok := f(id)
		return EventCommand(e), ok
	})
}

func (h *Hub) broadcast(f func(id uuid.UUID) (Command, bool)) {
	// snapshot under the read lock, push outside of it
	h.mu.RLock()
	targets := make(map[uuid.UUID]*OutQueue, len(h.queues))
	for id, q := range h.queues {
		targets[id] = q
	}
	h.mu.RUnlock()

	var wg sync.WaitGroup
	for id, q := range targets {
		cmd, ok := f(id)
		if !ok {
			continue
		}
		wg.Add(1)
		go func(q *OutQueue, cmd Command) {
			defer wg.Done()
			q.Send(cmd)
		}(q, cmd)
	}
	wg.Wait()
}

// Incoming subscribes to the stream of (player, client event) pairs.
func (h *Hub) Incoming() *Sub[InboundEvent] {
	return h.inbound.Subscribe()
}

// Connections subscribes to the stream of connect/disconnect notices.
func (h *Hub) Connections() *Sub[ConnEvent] {
	return h.conns.Subscribe()
}

// PublishInbound puts a client event on the inbound bus.
func (h *Hub) PublishInbound(ev InboundEvent) {
	h.inbound.Publish(ev)
}

// PublishConn puts a lifecycle notice on the connection bus.
func (h *Hub) PublishConn(ev ConnEvent) {
	h.conns.Publish(ev)
}
