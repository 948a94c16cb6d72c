package game

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cambiogame/cambio/internal/card"
)

func testEngine() *Engine {
	return New(rand.New(rand.NewPCG(42, 0)))
}

func drainEvents(e *Engine) []Event {
	var out []Event
	for {
		ev, ok := e.PollEvent()
		if !ok {
			return out
		}
		out = append(out, ev)
	}
}

func kinds(events []Event) []EventKind {
	out := make([]EventKind, len(events))
	for i, ev := range events {
		out[i] = ev.Kind
	}
	return out
}

// Advance to the start of the first turn, returning the events of the
// round-opening transition.
func openRound(t *testing.T, e *Engine, now time.Time) []Event {
	t.Helper()
	e.Advance(now) // Pregame -> StartRound
	require.Equal(t, StateStartRound, e.State().Kind)
	e.Advance(now) // StartRound -> StartTurn
	return drainEvents(e)
}

func TestRoundOpening(t *testing.T) {
	e := testEngine()
	now := time.Now()

	events := openRound(t, e, now)
	require.Equal(t,
		[]EventKind{EventSetup, EventFirstDraw, EventFirstPeek, EventStartRound},
		kinds(events))
	require.Equal(t, 0, events[3].Round)

	s := e.State()
	require.Equal(t, StateStartTurn, s.Kind)
	require.Equal(t, 0, s.Round)
	require.Equal(t, 0, s.Turn)
}

func TestTurnFlow(t *testing.T) {
	e := testEngine()
	now := time.Now()
	openRound(t, e, now)

	e.Advance(now) // StartTurn -> DrawCard
	events := drainEvents(e)
	require.Equal(t, []EventKind{EventStartTurn}, kinds(events))
	require.Equal(t, StateDrawCard, e.State().Kind)
	drawn := e.State().Card

	e.Advance(now) // DrawCard -> WaitingForDecision
	events = drainEvents(e)
	require.Equal(t, []EventKind{EventDrawCard, EventWaitForDecision}, kinds(events))
	require.Equal(t, drawn, events[0].Card)
	require.Equal(t, 0, events[0].Seat)

	e.HandleDecision(card.Discard, now.Add(time.Second))
	require.Equal(t, StatePlayDecision, e.State().Kind)

	e.Advance(now) // PlayDecision -> WaitingForSnaps
	require.Equal(t, []EventKind{EventWaitForSnap}, kinds(drainEvents(e)))

	e.HandleSnap(card.Joker(), now.Add(time.Second))
	require.Equal(t, StateSnapped, e.State().Kind)

	e.Advance(now) // Snapped -> EndTurn
	e.Advance(now) // EndTurn -> StartTurn{1}
	events = drainEvents(e)
	require.Equal(t, []EventKind{EventEndTurn}, kinds(events))
	require.Equal(t, 0, events[0].Seat)
	require.Equal(t, 1, e.State().Turn)
}

func TestWaitingStatesEmitOnce(t *testing.T) {
	e := testEngine()
	now := time.Now()
	openRound(t, e, now)
	e.Advance(now)
	e.Advance(now)
	drainEvents(e)
	require.Equal(t, StateWaitingForDecision, e.State().Kind)

	// advancing inside the window neither moves nor re-announces
	e.Advance(now.Add(time.Second))
	require.Equal(t, StateWaitingForDecision, e.State().Kind)
	require.Empty(t, drainEvents(e))
}

func TestDecisionTimeout(t *testing.T) {
	e := testEngine()
	now := time.Now()
	openRound(t, e, now)
	e.Advance(now)
	e.Advance(now)
	drainEvents(e)

	deadline, ok := e.PollWaitDeadline()
	require.True(t, ok)
	require.Equal(t, now.Add(MaxDecisionTime), deadline)

	e.Advance(deadline)
	require.Equal(t, StateEndTurn, e.State().Kind)
	require.Empty(t, drainEvents(e))
}

func TestLateDecisionEndsTurn(t *testing.T) {
	e := testEngine()
	now := time.Now()
	openRound(t, e, now)
	e.Advance(now)
	e.Advance(now)
	drainEvents(e)

	e.HandleDecision(card.Replace, now.Add(MaxDecisionTime+time.Second))
	require.Equal(t, StateEndTurn, e.State().Kind)
}

func TestLateSnapEndsTurn(t *testing.T) {
	e := testEngine()
	now := time.Now()
	openRound(t, e, now)
	e.Advance(now)
	e.Advance(now)
	e.HandleDecision(card.Discard, now)
	e.Advance(now)
	drainEvents(e)
	require.Equal(t, StateWaitingForSnaps, e.State().Kind)

	e.HandleSnap(card.Joker(), now.Add(MaxSnapTime+time.Millisecond))
	require.Equal(t, StateEndTurn, e.State().Kind)
}

func TestHandlersIgnoredOutsideTheirState(t *testing.T) {
	e := testEngine()
	now := time.Now()

	e.HandleDecision(card.Discard, now)
	require.Equal(t, StatePregame, e.State().Kind)
	e.HandleSnap(card.Joker(), now)
	require.Equal(t, StatePregame, e.State().Kind)
	e.ConfirmNewRound(1, now)
	require.Equal(t, StatePregame, e.State().Kind)
	e.SkipNewRound()
	require.Equal(t, StatePregame, e.State().Kind)
}

func TestCambioCall(t *testing.T) {
	e := testEngine()
	now := time.Now()
	require.False(t, e.CambioCall(now), "cambio in Pregame must be rejected")

	openRound(t, e, now)
	e.Advance(now)
	e.Advance(now)
	drainEvents(e)
	require.Equal(t, StateWaitingForDecision, e.State().Kind)

	require.True(t, e.CambioCall(now))
	require.Equal(t, StateCambioCall, e.State().Kind)

	e.Advance(now)
	events := drainEvents(e)
	require.Equal(t, []EventKind{EventCambio}, kinds(events))
	require.Equal(t, StateEndRound, e.State().Kind)
}

func TestCambioCallAfterDecision(t *testing.T) {
	e := testEngine()
	now := time.Now()
	openRound(t, e, now)
	e.Advance(now)
	e.Advance(now)
	e.HandleDecision(card.Discard, now)
	drainEvents(e)
	require.Equal(t, StatePlayDecision, e.State().Kind)

	// the pending decision resolves first, then the call lands
	require.True(t, e.CambioCall(now))
	require.Equal(t, StateCambioCall, e.State().Kind)
}

// Walk the engine to the new-round vote by timing out every turn until the
// deck runs dry.
func driveToNewRoundVote(t *testing.T, e *Engine, now time.Time) time.Time {
	t.Helper()
	for i := 0; i < 10_000; i++ {
		drainEvents(e)
		if e.State().Kind == StateWaitingForNewRound {
			drainEvents(e)
			return now
		}
		if deadline, ok := e.PollWaitDeadline(); ok {
			now = deadline
		}
		e.Advance(now)
	}
	t.Fatal("engine never reached the new-round vote")
	return now
}

func TestNewRoundVoteConfirms(t *testing.T) {
	e := testEngine()
	now := driveToNewRoundVote(t, e, time.Now())

	e.ConfirmNewRound(2, now.Add(time.Second))
	require.Equal(t, StateWaitingForNewRound, e.State().Kind)
	require.Equal(t, 1, e.State().Confirmations)

	e.ConfirmNewRound(2, now.Add(2*time.Second))
	s := e.State()
	require.Equal(t, StateStartRound, s.Kind)
	require.Equal(t, 1, s.Round)
	require.True(t, s.ResetDeck)

	// round 1 opens on seat 1
	e.Advance(now)
	drainEvents(e)
	require.Equal(t, 1, e.State().Turn)
	require.Equal(t, card.DeckSize, e.Deck().Len(), "vote must reset the deck")
}

func TestNewRoundVoteTimesOut(t *testing.T) {
	e := testEngine()
	driveToNewRoundVote(t, e, time.Now())

	deadline, ok := e.PollWaitDeadline()
	require.True(t, ok)
	e.Advance(deadline)
	require.Equal(t, StateFinished, e.State().Kind)

	e.Advance(deadline)
	require.Equal(t, []EventKind{EventExit}, kinds(drainEvents(e)))
	require.Equal(t, StateFinished, e.State().Kind)
}

func TestLateConfirmFinishes(t *testing.T) {
	e := testEngine()
	now := driveToNewRoundVote(t, e, time.Now())

	e.ConfirmNewRound(1, now.Add(MaxNewRoundConfirmTime+time.Second))
	require.Equal(t, StateFinished, e.State().Kind)
}

func TestSkipNewRound(t *testing.T) {
	e := testEngine()
	driveToNewRoundVote(t, e, time.Now())

	e.SkipNewRound()
	require.Equal(t, StateFinished, e.State().Kind)
}

// Simulated round driven only by poll/advance, the way the driver runs it.
// The clock jumps straight to each deadline instead of sleeping.
func TestOneRoundFinish(t *testing.T) {
	e := testEngine()
	now := time.Now()

	const maxIters = 10_000
	done := false
	for i := 0; i < maxIters && !done; i++ {
		if ev, ok := e.PollEvent(); ok {
			switch ev.Kind {
			case EventWaitForDecision:
				e.HandleDecision(card.Replace, now)
			case EventWaitForSnap:
				e.HandleSnap(card.Joker(), now)
			case EventWaitForNewRound:
				e.SkipNewRound()
			case EventExit:
				done = true
			}
			continue
		}
		if deadline, ok := e.PollWaitDeadline(); ok {
			now = deadline
		}
		e.Advance(now)
	}

	require.True(t, done, "engine never emitted Exit")
	require.Equal(t, StateFinished, e.State().Kind)
}

func TestNoExpiredWaitAfterAdvance(t *testing.T) {
	e := testEngine()
	now := time.Now()
	openRound(t, e, now)

	for i := 0; i < 10_000; i++ {
		drainEvents(e)
		if e.State().Kind == StateFinished {
			return
		}
		if deadline, ok := e.PollWaitDeadline(); ok {
			now = deadline.Add(time.Millisecond)
		}
		e.Advance(now)

		if deadline, ok := e.PollWaitDeadline(); ok {
			require.True(t, now.Before(deadline),
				"state %s expired at %v but survived advance", e.State().Kind, deadline)
		}
	}
	t.Fatal("engine never finished")
}
