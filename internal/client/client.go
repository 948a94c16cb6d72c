// Package client is a thin connection to a game server: it performs the
// join handshake and exposes the event stream.
package client

import (
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/cambiogame/cambio/internal/protocol"
)

const dialTimeout = 10 * time.Second

// Client is a single player's connection to a game server.
type Client struct {
	conn net.Conn
	id   uuid.UUID
}

// Dial connects to a game server and joins as a new player.
func Dial(addr string) (*Client, error) {
	return dial(addr, protocol.JoinNew())
}

// DialExisting connects and asks the server to reattach an earlier id.
// The server assigns a fresh id when it does not recognize the old one.
func DialExisting(addr string, id uuid.UUID) (*Client, error) {
	return dial(addr, protocol.JoinExisting(id))
}

func dial(addr string, join protocol.ClientEvent) (*Client, error) {
	conn, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", addr, err)
	}
	if err := protocol.WriteClientEvent(conn, join); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sending join: %w", err)
	}

	assigned, err := protocol.ReadServerEvent(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("reading join reply: %w", err)
	}
	if assigned.Kind != protocol.ServerAssignID {
		conn.Close()
		return nil, fmt.Errorf("expected id assignment, got %v", assigned.Kind)
	}

	return &Client{conn: conn, id: assigned.ID}, nil
}

// ID is the player id the server assigned during the handshake.
func (c *Client) ID() uuid.UUID {
	return c.id
}

// Read blocks until the next server event arrives.
func (c *Client) Read() (protocol.ServerEvent, error) {
	return protocol.ReadServerEvent(c.conn)
}

// Send delivers a client event to the server.
func (c *Client) Send(ev protocol.ClientEvent) error {
	return protocol.WriteClientEvent(c.conn, ev)
}

// Close tears down the connection without notifying the server.
// Use Leave for an orderly departure.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Leave tells the server we are done and closes the connection.
func (c *Client) Leave() error {
	if err := protocol.WriteClientEvent(c.conn, protocol.ClientEvent{Kind: protocol.ClientLeave}); err != nil {
		c.conn.Close()
		return fmt.Errorf("sending leave: %w", err)
	}
	return c.conn.Close()
}
