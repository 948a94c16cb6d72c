package gameserver

import "sync"

// busBacklog is the per-subscriber buffer. A subscriber lagging behind it
// loses events; consumers of the bus tolerate gaps.
const busBacklog = 128

// Bus is a multi-producer multi-consumer broadcast stream. Publish never
// blocks: a full subscriber simply misses the event.
type Bus[T any] struct {
	mu   sync.Mutex
	subs map[*Sub[T]]struct{}
}

// Sub is one subscription to a Bus.
type Sub[T any] struct {
	bus *Bus[T]
	ch  chan T
}

func NewBus[T any]() *Bus[T] {
	return &Bus[T]{subs: make(map[*Sub[T]]struct{})}
}

// Subscribe registers a new subscriber with a fresh backlog.
func (b *Bus[T]) Subscribe() *Sub[T] {
	s := &Sub[T]{bus: b, ch: make(chan T, busBacklog)}
	b.mu.Lock()
	b.subs[s] = struct{}{}
	b.mu.Unlock()
	return s
}

// Publish delivers v to every current subscriber that has room.
func (b *Bus[T]) Publish(v T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for s := range b.subs {
		select {
		case s.ch <- v:
		default:
		}
	}
}

// C is the subscriber's receive channel.
func (s *Sub[T]) C() <-chan T { return s.ch }

// Close detaches the subscription. Buffered events stay readable.
func (s *Sub[T]) Close() {
	s.bus.mu.Lock()
	delete(s.bus.subs, s)
	s.bus.mu.Unlock()
}
