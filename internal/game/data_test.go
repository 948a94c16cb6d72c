package game

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cambiogame/cambio/internal/card"
)

func TestTryAddPlayerRejectsDuplicates(t *testing.T) {
	d := NewData()
	p := NewPlayerData()

	require.True(t, d.TryAddPlayer(p))
	require.False(t, d.TryAddPlayer(p), "same id must not take two seats")
	require.Equal(t, 1, d.PlayerCount())
	require.True(t, d.Exists(p.ID))
}

func TestRemovePlayerShiftsSeats(t *testing.T) {
	d := NewData()
	p0 := NewPlayerData()
	p1 := NewPlayerData()
	p2 := NewPlayerData()
	d.TryAddPlayer(p0)
	d.TryAddPlayer(p1)
	d.TryAddPlayer(p2)

	require.True(t, d.RemovePlayer(p1.ID))
	require.False(t, d.RemovePlayer(p1.ID))
	require.Equal(t, 2, d.PlayerCount())

	players := d.Players()
	require.Equal(t, p0.ID, players[0].ID)
	require.Equal(t, p2.ID, players[1].ID)
}

func TestHostIsSeatZero(t *testing.T) {
	d := NewData()
	if _, ok := d.HostID(); ok {
		t.Fatal("empty table has no host")
	}

	host := NewPlayerData()
	d.TryAddPlayer(host)
	d.TryAddPlayer(NewPlayerData())

	id, ok := d.HostID()
	require.True(t, ok)
	require.Equal(t, host.ID, id)
}

func TestIDAtTurnWraps(t *testing.T) {
	d := NewData()
	p0 := NewPlayerData()
	p1 := NewPlayerData()
	d.TryAddPlayer(p0)
	d.TryAddPlayer(p1)

	for turn, want := range map[int]uuid.UUID{0: p0.ID, 1: p1.ID, 2: p0.ID, 5: p1.ID} {
		id, ok := d.IDAtTurn(turn)
		require.True(t, ok)
		assert.Equal(t, want, id, "turn %d", turn)
	}
}

func TestDealStartingCards(t *testing.T) {
	d := NewData()
	d.TryAddPlayer(NewPlayerData())
	d.TryAddPlayer(NewPlayerData())

	deck := card.Full()
	d.DealStartingCards(deck)

	require.Equal(t, card.DeckSize-2*StartingHandSize, deck.Len())
	for _, p := range d.Players() {
		assert.Len(t, p.Cards, StartingHandSize)
	}
}

func TestFirstPeeks(t *testing.T) {
	d := NewData()
	p := NewPlayerData()
	d.TryAddPlayer(p)
	deck := card.Full()
	d.DealStartingCards(deck)

	peeks := d.FirstPeeks()
	require.Len(t, peeks, 1)
	hand := d.Players()[0].Cards
	require.Equal(t, [2]card.Card{hand[0], hand[1]}, peeks[p.ID])
}

func TestScore(t *testing.T) {
	p := PlayerData{ID: uuid.New(), Cards: []card.Card{
		card.Normal(card.Hearts, card.King),  // -2
		card.Normal(card.Spades, card.King),  // 13
		card.Normal(card.Clubs, card.Seven),  // 7
		card.Joker(),                         // 0
	}}
	require.Equal(t, 18, p.Score())
}

func TestPlayersSnapshotIsIndependent(t *testing.T) {
	d := NewData()
	d.TryAddPlayer(NewPlayerData())
	d.DealStartingCards(card.Full())

	snap := d.Players()
	before := append([]card.Card(nil), snap[0].Cards...)
	snap[0].Cards[0] = card.Normal(card.Hearts, card.Ace)
	snap[0].Cards[1] = card.Normal(card.Hearts, card.Two)

	fresh := d.Players()[0].Cards
	assert.Equal(t, before, fresh, "snapshot must not alias live hands")
}

func TestStage(t *testing.T) {
	d := NewData()
	require.Equal(t, StageLobby, d.Stage())
	d.SetStage(StagePlaying)
	require.Equal(t, StagePlaying, d.Stage())
}
