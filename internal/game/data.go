// Package game holds the authoritative Cambio state: the player table and
// the round/turn state machine that drives a game.
package game

import (
	"sync"

	"github.com/google/uuid"

	"github.com/cambiogame/cambio/internal/card"
)

// StartingHandSize is the number of cards dealt to each seat at round start.
const StartingHandSize = 4

// PlayerData is one seated player: a stable id and an ordered hand.
type PlayerData struct {
	ID    uuid.UUID   `json:"id"`
	Cards []card.Card `json:"cards"`
}

// NewPlayerData allocates a fresh player with a random id and an empty hand.
func NewPlayerData() PlayerData {
	return PlayerData{
		ID:    uuid.New(),
		Cards: make([]card.Card, 0, StartingHandSize),
	}
}

// Score sums the game value of every card in hand.
func (p PlayerData) Score() int {
	total := 0
	for _, c := range p.Cards {
		total += c.GameValue()
	}
	return total
}

// Stage of the server lifecycle a Data is in.
type Stage int

const (
	StageLobby Stage = iota
	StagePlaying
)

// Data is the shared player table. Seat order is join order; seat 0 is the
// host. All methods are safe for concurrent use.
type Data struct {
	mu      sync.Mutex
	players []PlayerData
	stage   Stage
}

func NewData() *Data {
	return &Data{}
}

// PlayerCount returns the number of seated players.
func (d *Data) PlayerCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.players)
}

// Exists reports whether id currently holds a seat.
func (d *Data) Exists(id uuid.UUID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.indexOf(id) >= 0
}

// TryAddPlayer seats the player at the next free seat.
// Returns false when the id is already seated.
func (d *Data) TryAddPlayer(p PlayerData) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.indexOf(p.ID) >= 0 {
		return false
	}
	d.players = append(d.players, p)
	return true
}

// RemovePlayer frees the player's seat, shifting later seats down.
// Returns false when the id is not seated.
func (d *Data) RemovePlayer(id uuid.UUID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	i := d.indexOf(id)
	if i < 0 {
		return false
	}
	d.players = append(d.players[:i], d.players[i+1:]...)
	return true
}

// HostID returns the id at seat 0.
func (d *Data) HostID() (uuid.UUID, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.players) == 0 {
		return uuid.Nil, false
	}
	return d.players[0].ID, true
}

// IDAtTurn maps a monotonically increasing turn counter to the id of the
// acting seat (turn modulo player count).
func (d *Data) IDAtTurn(turn int) (uuid.UUID, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.players) == 0 {
		return uuid.Nil, false
	}
	return d.players[turn%len(d.players)].ID, true
}

// Players returns a deep snapshot of every seat in order.
func (d *Data) Players() []PlayerData {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]PlayerData, len(d.players))
	for i, p := range d.players {
		out[i] = PlayerData{ID: p.ID, Cards: append([]card.Card(nil), p.Cards...)}
	}
	return out
}

// Stage returns the current lifecycle stage.
func (d *Data) Stage() Stage {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stage
}

// SetStage moves the table into the given lifecycle stage.
func (d *Data) SetStage(s Stage) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stage = s
}

// DealStartingCards replaces every hand with StartingHandSize cards drawn
// from the top of the deck, in seat order.
func (d *Data) DealStartingCards(deck *card.Deck) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.players {
		hand := make([]card.Card, 0, StartingHandSize)
		for len(hand) < StartingHandSize {
			c, ok := deck.Draw()
			if !ok {
				break
			}
			hand = append(hand, c)
		}
		d.players[i].Cards = hand
	}
}

// FirstPeeks returns, per player, the two cards they are allowed to see at
// the start of a round.
func (d *Data) FirstPeeks() map[uuid.UUID][2]card.Card {
	d.mu.Lock()
	defer d.mu.Unlock()
	peeks := make(map[uuid.UUID][2]card.Card, len(d.players))
	for _, p := range d.players {
		if len(p.Cards) < 2 {
			continue
		}
		peeks[p.ID] = [2]card.Card{p.Cards[0], p.Cards[1]}
	}
	return peeks
}

func (d *Data) indexOf(id uuid.UUID) int {
	for i, p := range d.players {
		if p.ID == id {
			return i
		}
	}
	return -1
}
