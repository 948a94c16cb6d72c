package gameserver

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBusFanOut(t *testing.T) {
	b := NewBus[int]()
	a := b.Subscribe()
	c := b.Subscribe()

	b.Publish(7)

	require.Equal(t, 7, <-a.C())
	require.Equal(t, 7, <-c.C())
}

func TestBusDropsWhenSubscriberLags(t *testing.T) {
	b := NewBus[int]()
	s := b.Subscribe()

	for i := 0; i < busBacklog+10; i++ {
		b.Publish(i)
	}

	// the backlog survived, the overflow did not
	for i := 0; i < busBacklog; i++ {
		require.Equal(t, i, <-s.C())
	}
	select {
	case v := <-s.C():
		t.Fatalf("unexpected event %d after backlog drained", v)
	default:
	}
}

func TestBusCloseDetaches(t *testing.T) {
	b := NewBus[int]()
	s := b.Subscribe()
	s.Close()

	b.Publish(1)

	select {
	case v := <-s.C():
		t.Fatalf("closed subscription received %d", v)
	default:
	}
}

func TestBusPublishWithoutSubscribers(t *testing.T) {
	b := NewBus[string]()
	b.Publish("nobody home") // must not panic or block
}
