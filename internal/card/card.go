// Package card holds the playing-card domain: cards, the deck, and the
// per-card decision rules of Cambio.
package card

import (
	"encoding/json"
	"fmt"
)

// Suit of a normal playing card.
type Suit uint8

const (
	Hearts Suit = iota
	Diamonds
	Clubs
	Spades
)

var suitNames = [...]string{"Hearts", "Diamonds", "Clubs", "Spades"}

func (s Suit) String() string {
	if int(s) < len(suitNames) {
		return suitNames[s]
	}
	return fmt.Sprintf("Suit(%d)", uint8(s))
}

// Color of a suit. Red kings score -2, black kings 13.
type Color uint8

const (
	Red Color = iota
	Black
)

// Color returns the color of the suit.
func (s Suit) Color() Color {
	switch s {
	case Hearts, Diamonds:
		return Red
	default:
		return Black
	}
}

// Face of a normal playing card. Numeric faces equal their game value.
type Face uint8

const (
	Ace   Face = 1
	Two   Face = 2
	Three Face = 3
	Four  Face = 4
	Five  Face = 5
	Six   Face = 6
	Seven Face = 7
	Eight Face = 8
	Nine  Face = 9
	Ten   Face = 10
	Jack  Face = 11
	Queen Face = 12
	King  Face = 13
)

var faceNames = [...]string{
	Ace: "Ace", Two: "Two", Three: "Three", Four: "Four", Five: "Five",
	Six: "Six", Seven: "Seven", Eight: "Eight", Nine: "Nine", Ten: "Ten",
	Jack: "Jack", Queen: "Queen", King: "King",
}

func (f Face) String() string {
	if int(f) < len(faceNames) && faceNames[f] != "" {
		return faceNames[f]
	}
	return fmt.Sprintf("Face(%d)", uint8(f))
}

// Card is either a normal suit+face card or a Joker.
// The zero value is not a valid card; use Normal or Joker.
type Card struct {
	suit  Suit
	face  Face
	joker bool
}

// Normal returns the card with the given suit and face.
func Normal(s Suit, f Face) Card {
	return Card{suit: s, face: f}
}

// Joker returns a joker card.
func Joker() Card {
	return Card{joker: true}
}

// IsJoker reports whether the card is a joker.
func (c Card) IsJoker() bool { return c.joker }

// Suit returns the suit of a normal card. Meaningless for jokers.
func (c Card) Suit() Suit { return c.suit }

// Face returns the face of a normal card. Meaningless for jokers.
func (c Card) Face() Face { return c.face }

// GameValue returns the Cambio score contribution of the card:
// red king -2, black king 13, queen 12, jack 11, numeric cards their
// face value, ace 1, joker 0.
func (c Card) GameValue() int {
	if c.joker {
		return 0
	}
	if c.face == King && c.suit.Color() == Red {
		return -2
	}
	return int(c.face)
}

func (c Card) String() string {
	if c.joker {
		return "Joker"
	}
	return fmt.Sprintf("%s of %s", c.face, c.suit)
}

type normalJSON struct {
	Suit Suit `json:"suit"`
	Face Face `json:"face"`
}

// MarshalJSON encodes the card in the wire format:
// {"Normal":{"suit":"Hearts","face":"King"}} or "Joker".
func (c Card) MarshalJSON() ([]byte, error) {
	if c.joker {
		return json.Marshal("Joker")
	}
	return json.Marshal(map[string]normalJSON{
		"Normal": {Suit: c.suit, Face: c.face},
	})
}

// UnmarshalJSON decodes the wire format produced by MarshalJSON.
func (c *Card) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s != "Joker" {
			return fmt.Errorf("unknown card variant %q", s)
		}
		*c = Joker()
		return nil
	}

	var obj map[string]normalJSON
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("decoding card: %w", err)
	}
	normal, ok := obj["Normal"]
	if !ok {
		return fmt.Errorf("decoding card: missing Normal variant")
	}
	*c = Normal(normal.Suit, normal.Face)
	return nil
}

func (s Suit) MarshalJSON() ([]byte, error) {
	if int(s) >= len(suitNames) {
		return nil, fmt.Errorf("invalid suit %d", uint8(s))
	}
	return json.Marshal(suitNames[s])
}

func (s *Suit) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for i, n := range suitNames {
		if n == name {
			*s = Suit(i)
			return nil
		}
	}
	return fmt.Errorf("unknown suit %q", name)
}

func (f Face) MarshalJSON() ([]byte, error) {
	if f < Ace || f > King {
		return nil, fmt.Errorf("invalid face %d", uint8(f))
	}
	return json.Marshal(faceNames[f])
}

func (f *Face) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for i, n := range faceNames {
		if n != "" && n == name {
			*f = Face(i)
			return nil
		}
	}
	return fmt.Errorf("unknown face %q", name)
}
