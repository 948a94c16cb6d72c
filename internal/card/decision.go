package card

import (
	"encoding/json"
	"fmt"
)

// Decision is one of the actions a player may take with a drawn card.
type Decision uint8

const (
	// Discard places the card into the discard pile.
	Discard Decision = iota
	// Replace swaps the drawn card with one in hand, discarding the old one.
	Replace
	// LookAtOwn discards the card and peeks at one of the player's own cards.
	LookAtOwn
	// LookAtOther discards the card and peeks at any card but the player's own.
	LookAtOther
	// BlindSwap swaps one of the player's cards with someone else's, unseen.
	BlindSwap
	// LookAndSwap peeks at one own and one other card, then optionally swaps.
	LookAndSwap
)

// AllDecisions lists every decision in discriminant order.
var AllDecisions = [6]Decision{Discard, Replace, LookAtOwn, LookAtOther, BlindSwap, LookAndSwap}

var decisionNames = [...]string{
	Discard:     "Discard",
	Replace:     "Replace",
	LookAtOwn:   "LookAtOwn",
	LookAtOther: "LookAtOther",
	BlindSwap:   "BlindSwap",
	LookAndSwap: "LookAndSwap",
}

func (d Decision) String() string {
	if int(d) < len(decisionNames) {
		return decisionNames[d]
	}
	return fmt.Sprintf("Decision(%d)", uint8(d))
}

// IsValid reports whether the decision is a member of the given set.
func (d Decision) IsValid(set DecisionSet) bool {
	return set.Contains(d)
}

func (d Decision) MarshalJSON() ([]byte, error) {
	if int(d) >= len(decisionNames) {
		return nil, fmt.Errorf("invalid decision %d", uint8(d))
	}
	return json.Marshal(decisionNames[d])
}

func (d *Decision) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for i, n := range decisionNames {
		if n == name {
			*d = Decision(i)
			return nil
		}
	}
	return fmt.Errorf("unknown decision %q", name)
}

// DecisionSet is a bitset of decisions.
type DecisionSet uint64

// EmptyDecisionSet contains no decisions.
const EmptyDecisionSet DecisionSet = 0

// Only returns the set containing exactly one decision.
func Only(d Decision) DecisionSet {
	return DecisionSet(1) << d
}

// Decisions builds a set from the listed decisions.
func Decisions(ds ...Decision) DecisionSet {
	set := EmptyDecisionSet
	for _, d := range ds {
		set = set.With(d)
	}
	return set
}

// With returns the set extended with d.
func (s DecisionSet) With(d Decision) DecisionSet {
	return s | Only(d)
}

// Contains reports whether d is in the set.
func (s DecisionSet) Contains(d Decision) bool {
	return s&Only(d) != 0
}

// Slice returns the members of the set in discriminant order.
func (s DecisionSet) Slice() []Decision {
	var out []Decision
	for _, d := range AllDecisions {
		if s.Contains(d) {
			out = append(out, d)
		}
	}
	return out
}

// ValidSet returns the decisions permitted for the drawn card.
// Every card allows Discard and Replace; 7/8 add LookAtOwn, 9/10 add
// LookAtOther, jack/queen add BlindSwap, king adds LookAndSwap. Jokers
// stay at the base set.
func ValidSet(c Card) DecisionSet {
	base := Decisions(Discard, Replace)
	if c.IsJoker() {
		return base
	}
	switch c.Face() {
	case King:
		return base.With(LookAndSwap)
	case Jack, Queen:
		return base.With(BlindSwap)
	case Nine, Ten:
		return base.With(LookAtOther)
	case Seven, Eight:
		return base.With(LookAtOwn)
	default:
		return base
	}
}
