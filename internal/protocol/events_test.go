package protocol

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cambiogame/cambio/internal/card"
	"github.com/cambiogame/cambio/internal/game"
)

var testID = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

func TestClientEventGolden(t *testing.T) {
	tests := []struct {
		event ClientEvent
		want  string
	}{
		{JoinNew(), `{"Join":"New"}`},
		{JoinExisting(testID), `{"Join":{"Existing":"` + testID.String() + `"}}`},
		{ClientEvent{Kind: ClientGetLobbyInfo}, `"GetLobbyInfo"`},
		{ClientEvent{Kind: ClientStart}, `"Start"`},
		{ClientEvent{Kind: ClientSnap}, `"Snap"`},
		{Decide(card.Discard), `{"Decision":"Discard"}`},
		{Decide(card.LookAndSwap), `{"Decision":"LookAndSwap"}`},
		{ClientEvent{Kind: ClientConfirmNewRound}, `"ConfirmNewRound"`},
		{ClientEvent{Kind: ClientSkipNewRound}, `"SkipNewRound"`},
		{ClientEvent{Kind: ClientContinue}, `"Continue"`},
		{ClientEvent{Kind: ClientLeave}, `"Leave"`},
	}

	for _, tt := range tests {
		data, err := json.Marshal(tt.event)
		require.NoError(t, err)
		assert.Equal(t, tt.want, string(data))

		var back ClientEvent
		require.NoError(t, json.Unmarshal(data, &back), "decoding %s", data)
		assert.Equal(t, tt.event, back)
	}
}

func TestClientEventRejectsMalformed(t *testing.T) {
	for _, raw := range []string{
		`"Join"`,                    // join needs its inner variant
		`"Decision"`,                // decision needs a payload
		`"Teleport"`,                // unknown unit
		`{"Join":"Old"}`,            // unknown join variant
		`{"Join":{"Wrong":"x"}}`,    // missing Existing
		`{"Decision":"Shred"}`,      // unknown decision
		`{"Start":1,"Snap":2}`,      // two variants
		`{"Warp":{}}`,               // unknown variant
		`42`,                        // not a variant at all
	} {
		var e ClientEvent
		assert.Error(t, json.Unmarshal([]byte(raw), &e), "input %s", raw)
	}
}

func TestServerEventGolden(t *testing.T) {
	king := card.Normal(card.Hearts, card.King)
	ace := card.Normal(card.Spades, card.Ace)

	tests := []struct {
		event ServerEvent
		want  string
	}{
		{ServerEvent{Kind: ServerEnter}, `"Enter"`},
		{ServerEvent{Kind: ServerRestart}, `"Restart"`},
		{LobbyInfo(3), `{"LobbyInfo":{"player_count":3}}`},
		{AssignID(testID), `{"AssignId":{"id":"` + testID.String() + `"}}`},
		{Joined(testID), `{"Joined":{"id":"` + testID.String() + `"}}`},
		{Left(testID), `{"Left":{"id":"` + testID.String() + `"}}`},
		{RoundStart(2), `{"RoundStart":2}`},
		{ServerEvent{Kind: ServerSetup}, `"Setup"`},
		{ServerEvent{Kind: ServerFirstDraw}, `"FirstDraw"`},
		{FirstPeek(king, ace),
			`{"FirstPeek":[{"Normal":{"suit":"Hearts","face":"King"}},{"Normal":{"suit":"Spades","face":"Ace"}}]}`},
		{TurnStart(testID), `{"TurnStart":{"id":"` + testID.String() + `"}}`},
		{DrawCard(card.Joker()), `{"DrawCard":"Joker"}`},
		{ServerEvent{Kind: ServerWaitingForDecision}, `"WaitingForDecision"`},
		{ServerEvent{Kind: ServerPlayAction}, `"PlayAction"`},
		{ServerEvent{Kind: ServerWaitingForSnap}, `"WaitingForSnap"`},
		{ServerEvent{Kind: ServerEndTurn}, `"EndTurn"`},
		{ServerEvent{Kind: ServerCambioCall}, `"CambioCall"`},
		{ShowAll([]game.PlayerData{{ID: testID, Cards: []card.Card{ace}}}),
			`{"ShowAll":[{"id":"` + testID.String() + `","cards":[{"Normal":{"suit":"Spades","face":"Ace"}}]}]}`},
		{AnnounceWinner(WinnerPlayer(testID)), `{"Winner":{"Player":{"uuid":"` + testID.String() + `"}}}`},
		{AnnounceWinner(WinnerTied()), `{"Winner":"Tied"}`},
		{ServerEvent{Kind: ServerRoundEnd}, `"RoundEnd"`},
		{ServerEvent{Kind: ServerConfirmNewRound}, `"ConfirmNewRound"`},
		{ServerEvent{Kind: ServerGameEnd}, `"GameEnd"`},
		{ServerEvent{Kind: ServerClosing}, `"ServerClosing"`},
	}

	for _, tt := range tests {
		data, err := json.Marshal(tt.event)
		require.NoError(t, err)
		assert.Equal(t, tt.want, string(data))

		var back ServerEvent
		require.NoError(t, json.Unmarshal(data, &back), "decoding %s", data)
		assert.Equal(t, tt.event, back)
	}
}

func TestServerEventRejectsMalformed(t *testing.T) {
	for _, raw := range []string{
		`"Joined"`,             // payload kinds cannot be bare strings
		`"Winner"`,             //
		`"Vanish"`,             // unknown unit
		`{"Vanish":{}}`,        // unknown variant
		`{"Winner":"Draw"}`,    // unknown winner variant
		`{"Winner":{"Nope":{}}}`,
		`{"Enter":1,"Setup":2}`, // two variants
	} {
		var e ServerEvent
		assert.Error(t, json.Unmarshal([]byte(raw), &e), "input %s", raw)
	}
}
