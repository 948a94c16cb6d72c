package game

import (
	"math/rand/v2"
	"time"

	"github.com/cambiogame/cambio/internal/card"
)

// Deadlines enforced by the engine. The Server.toml timer values only tune
// cosmetic waits; these bounds decide whether an input arrived in time.
const (
	MaxDecisionTime        = 10 * time.Second
	MaxSnapTime            = 2 * time.Second
	MaxNewRoundConfirmTime = 10 * time.Second
)

// StateKind names a state of the round/turn machine.
type StateKind int

const (
	StatePregame StateKind = iota
	StateStartRound
	StateStartTurn
	StateDrawCard
	StateWaitingForDecision
	StatePlayDecision
	StateWaitingForSnaps
	StateSnapped
	StateEndTurn
	StateCambioCall
	StateEndRound
	StateFindWinner
	StateWaitingForNewRound
	StateFinished
)

var stateNames = [...]string{
	StatePregame:            "Pregame",
	StateStartRound:         "StartRound",
	StateStartTurn:          "StartTurn",
	StateDrawCard:           "DrawCard",
	StateWaitingForDecision: "WaitingForDecision",
	StatePlayDecision:       "PlayDecision",
	StateWaitingForSnaps:    "WaitingForSnaps",
	StateSnapped:            "Snapped",
	StateEndTurn:            "EndTurn",
	StateCambioCall:         "CambioCall",
	StateEndRound:           "EndRound",
	StateFindWinner:         "FindWinner",
	StateWaitingForNewRound: "WaitingForNewRound",
	StateFinished:           "Finished",
}

func (k StateKind) String() string { return stateNames[k] }

// State is the machine state plus whichever fields the kind carries.
type State struct {
	Kind          StateKind
	Round         int
	Turn          int
	Card          card.Card
	Decision      card.Decision
	Confirmations int
	ResetDeck     bool
	StartedAt     time.Time
}

// EventKind names an event the engine queues for the driver.
type EventKind int

const (
	EventSetup EventKind = iota
	EventFirstDraw
	EventFirstPeek
	EventStartRound
	EventStartTurn
	EventDrawCard
	EventWaitForDecision
	EventWaitForSnap
	EventEndTurn
	EventWaitForNewRound
	EventEndRound
	EventCambio
	EventFindWinner
	EventExit
)

var eventNames = [...]string{
	EventSetup:           "Setup",
	EventFirstDraw:       "FirstDraw",
	EventFirstPeek:       "FirstPeek",
	EventStartRound:      "StartRound",
	EventStartTurn:       "StartTurn",
	EventDrawCard:        "DrawCard",
	EventWaitForDecision: "WaitForDecision",
	EventWaitForSnap:     "WaitForSnap",
	EventEndTurn:         "EndTurn",
	EventWaitForNewRound: "WaitForNewRound",
	EventEndRound:        "EndRound",
	EventCambio:          "Cambio",
	EventFindWinner:      "FindWinner",
	EventExit:            "Exit",
}

func (k EventKind) String() string { return eventNames[k] }

// Event is an engine output awaiting dispatch by the driver.
type Event struct {
	Kind          EventKind
	Round         int
	Seat          int
	Card          card.Card
	Confirmations int
}

// Engine is the Cambio state machine. It does no I/O and keeps no timers:
// the caller injects the RNG at construction and a clock reading with every
// time-sensitive call. It is single-owner; the driver is its only mutator.
type Engine struct {
	deck   *card.Deck
	state  State
	events []Event
	rng    *rand.Rand

	decisionTimeout time.Duration
	snapTimeout     time.Duration
	newRoundTimeout time.Duration
}

// New returns an engine in Pregame with a full deck.
func New(rng *rand.Rand) *Engine {
	return NewWithTimeouts(rng, MaxDecisionTime, MaxSnapTime, MaxNewRoundConfirmTime)
}

// NewWithTimeouts is New with shortened waiting windows, for tests that
// drive real clients through full rounds.
func NewWithTimeouts(rng *rand.Rand, decision, snap, newRound time.Duration) *Engine {
	return &Engine{
		deck:            card.Full(),
		rng:             rng,
		decisionTimeout: decision,
		snapTimeout:     snap,
		newRoundTimeout: newRound,
	}
}

// State returns the current machine state.
func (e *Engine) State() State { return e.state }

// Deck exposes the live deck. The driver deals starting hands from it when
// handling the Setup event.
func (e *Engine) Deck() *card.Deck { return e.deck }

// PollEvent pops the oldest queued event.
func (e *Engine) PollEvent() (Event, bool) {
	if len(e.events) == 0 {
		return Event{}, false
	}
	ev := e.events[0]
	e.events = e.events[1:]
	return ev, true
}

// PollWaitDeadline returns the instant at which the current waiting state
// expires, if the engine is waiting at all.
func (e *Engine) PollWaitDeadline() (time.Time, bool) {
	switch e.state.Kind {
	case StateWaitingForDecision:
		return e.state.StartedAt.Add(e.decisionTimeout), true
	case StateWaitingForSnaps:
		return e.state.StartedAt.Add(e.snapTimeout), true
	case StateWaitingForNewRound:
		return e.state.StartedAt.Add(e.newRoundTimeout), true
	default:
		return time.Time{}, false
	}
}

// Advance performs exactly one transition out of the current state, queuing
// any events the transition produces. Waiting states stay put until their
// deadline passes; their announcement events were queued on entry.
func (e *Engine) Advance(now time.Time) {
	switch s := e.state; s.Kind {
	case StatePregame:
		e.state = State{Kind: StateStartRound, Round: 0, ResetDeck: false}

	case StateStartRound:
		if s.ResetDeck {
			e.deck.Reset()
		}
		e.deck.Shuffle(e.rng)
		e.emit(Event{Kind: EventSetup})
		e.emit(Event{Kind: EventFirstDraw})
		e.emit(Event{Kind: EventFirstPeek})
		e.emit(Event{Kind: EventStartRound, Round: s.Round})
		// each round opens on a different seat
		e.state = State{Kind: StateStartTurn, Round: s.Round, Turn: s.Round}

	case StateStartTurn:
		e.emit(Event{Kind: EventStartTurn, Seat: s.Turn})
		if c, ok := e.deck.Draw(); ok {
			e.state = State{Kind: StateDrawCard, Round: s.Round, Turn: s.Turn, Card: c}
		} else {
			e.state = State{Kind: StateEndRound, Round: s.Round}
		}

	case StateDrawCard:
		e.emit(Event{Kind: EventDrawCard, Seat: s.Turn, Card: s.Card})
		e.emit(Event{Kind: EventWaitForDecision})
		e.state = State{Kind: StateWaitingForDecision, Round: s.Round, Turn: s.Turn, StartedAt: now}

	case StateWaitingForDecision:
		if now.Sub(s.StartedAt) >= e.decisionTimeout {
			// no decision in time, nothing to snap at
			e.state = State{Kind: StateEndTurn, Round: s.Round, Turn: s.Turn}
		}

	case StatePlayDecision:
		// the decision's board effect is not resolved yet
		e.emit(Event{Kind: EventWaitForSnap})
		e.state = State{Kind: StateWaitingForSnaps, Round: s.Round, Turn: s.Turn, StartedAt: now}

	case StateWaitingForSnaps:
		if now.Sub(s.StartedAt) >= e.snapTimeout {
			e.state = State{Kind: StateEndTurn, Round: s.Round, Turn: s.Turn}
		}

	case StateSnapped:
		e.state = State{Kind: StateEndTurn, Round: s.Round, Turn: s.Turn}

	case StateEndTurn:
		e.emit(Event{Kind: EventEndTurn, Seat: s.Turn})
		if e.deck.IsEmpty() {
			e.state = State{Kind: StateEndRound, Round: s.Round}
		} else {
			e.state = State{Kind: StateStartTurn, Round: s.Round, Turn: s.Turn + 1}
		}

	case StateCambioCall:
		e.emit(Event{Kind: EventCambio})
		e.state = State{Kind: StateEndRound, Round: s.Round}

	case StateEndRound:
		e.emit(Event{Kind: EventEndRound, Round: s.Round})
		e.state = State{Kind: StateFindWinner, Round: s.Round}

	case StateFindWinner:
		e.emit(Event{Kind: EventFindWinner})
		e.emit(Event{Kind: EventWaitForNewRound, Confirmations: 0})
		e.state = State{Kind: StateWaitingForNewRound, Round: s.Round, Confirmations: 0, StartedAt: now}

	case StateWaitingForNewRound:
		if now.Sub(s.StartedAt) >= e.newRoundTimeout {
			e.state = State{Kind: StateFinished}
		}

	case StateFinished:
		e.emit(Event{Kind: EventExit})
	}
}

// HandleDecision records the acting player's decision. Only effective while
// waiting for one; a late decision ends the turn instead.
func (e *Engine) HandleDecision(d card.Decision, at time.Time) {
	s := e.state
	if s.Kind != StateWaitingForDecision {
		return
	}
	if at.Sub(s.StartedAt) <= e.decisionTimeout {
		e.state = State{Kind: StatePlayDecision, Round: s.Round, Turn: s.Turn, Decision: d}
	} else {
		e.state = State{Kind: StateEndTurn, Round: s.Round, Turn: s.Turn}
	}
}

// HandleSnap records a snap during the snap window. A late snap ends the
// turn instead.
func (e *Engine) HandleSnap(c card.Card, at time.Time) {
	s := e.state
	if s.Kind != StateWaitingForSnaps {
		return
	}
	if at.Sub(s.StartedAt) <= e.snapTimeout {
		e.state = State{Kind: StateSnapped, Round: s.Round, Turn: s.Turn, Card: c}
	} else {
		e.state = State{Kind: StateEndTurn, Round: s.Round, Turn: s.Turn}
	}
}

// ConfirmNewRound counts one vote for another round. When the vote count
// reaches needed within the window, the next round starts with a fresh
// deck; a vote after the deadline finishes the game.
func (e *Engine) ConfirmNewRound(needed int, at time.Time) {
	s := e.state
	if s.Kind != StateWaitingForNewRound {
		return
	}
	s.Confirmations++
	if at.Sub(s.StartedAt) > e.newRoundTimeout {
		e.state = State{Kind: StateFinished}
		return
	}
	if s.Confirmations >= needed {
		e.state = State{Kind: StateStartRound, Round: s.Round + 1, ResetDeck: true}
		return
	}
	e.state = s
}

// SkipNewRound declines another round, finishing the game.
func (e *Engine) SkipNewRound() {
	if e.state.Kind == StateWaitingForNewRound {
		e.state = State{Kind: StateFinished}
	}
}

// CambioCall freezes play, forcing the round to end after the current turn
// resolves. Valid only while a decision or snap is pending, or right after
// a decision was made; in the last case the decision resolves first.
// Returns false when called in any other state.
func (e *Engine) CambioCall(now time.Time) bool {
	switch s := e.state; s.Kind {
	case StateWaitingForDecision, StateWaitingForSnaps:
		e.state = State{Kind: StateCambioCall, Round: s.Round}
	case StatePlayDecision:
		// resolve the decision's deck effects before freezing
		e.Advance(now)
		e.state = State{Kind: StateCambioCall, Round: s.Round}
	default:
		return false
	}
	return true
}

func (e *Engine) emit(ev Event) {
	e.events = append(e.events, ev)
}
