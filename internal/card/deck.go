package card

import "math/rand/v2"

// DeckSize is the number of cards in a full deck: a standard 52 plus two jokers.
const DeckSize = 54

// Deck is an ordered pile of cards. Draw removes from the top.
type Deck struct {
	cards []Card
}

// Full returns a complete, unshuffled deck of 54 cards.
func Full() *Deck {
	cards := make([]Card, 0, DeckSize)
	for _, s := range []Suit{Hearts, Diamonds, Clubs, Spades} {
		for f := Ace; f <= King; f++ {
			cards = append(cards, Normal(s, f))
		}
	}
	cards = append(cards, Joker(), Joker())
	return &Deck{cards: cards}
}

// Reset refills the deck to the full 54 cards.
func (d *Deck) Reset() {
	*d = *Full()
}

// Draw removes and returns the top card. The second return is false
// when the deck is empty.
func (d *Deck) Draw() (Card, bool) {
	if len(d.cards) == 0 {
		return Card{}, false
	}
	top := d.cards[len(d.cards)-1]
	d.cards = d.cards[:len(d.cards)-1]
	return top, true
}

// Shuffle randomizes the deck order using the supplied RNG.
func (d *Deck) Shuffle(rng *rand.Rand) {
	rng.Shuffle(len(d.cards), func(i, j int) {
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	})
}

// Len returns the number of cards remaining.
func (d *Deck) Len() int { return len(d.cards) }

// IsEmpty reports whether the deck has no cards left.
func (d *Deck) IsEmpty() bool { return len(d.cards) == 0 }
