package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/cambiogame/cambio/internal/card"
	"github.com/cambiogame/cambio/internal/game"
)

// ClientEventKind names a client-to-server message.
type ClientEventKind int

const (
	ClientJoin ClientEventKind = iota
	ClientGetLobbyInfo
	ClientStart
	ClientSnap
	ClientDecision
	ClientConfirmNewRound
	ClientSkipNewRound
	ClientContinue
	ClientLeave
)

var clientEventNames = [...]string{
	ClientJoin:            "Join",
	ClientGetLobbyInfo:    "GetLobbyInfo",
	ClientStart:           "Start",
	ClientSnap:            "Snap",
	ClientDecision:        "Decision",
	ClientConfirmNewRound: "ConfirmNewRound",
	ClientSkipNewRound:    "SkipNewRound",
	ClientContinue:        "Continue",
	ClientLeave:           "Leave",
}

func (k ClientEventKind) String() string {
	if int(k) < len(clientEventNames) {
		return clientEventNames[k]
	}
	return fmt.Sprintf("ClientEventKind(%d)", int(k))
}

// ClientEvent is one client-to-server message. Kind selects the variant;
// only the fields the kind carries are meaningful.
type ClientEvent struct {
	Kind ClientEventKind
	// Existing is the id a rejoining player presents with ClientJoin.
	// Nil means a brand new join.
	Existing *uuid.UUID
	// Decision accompanies ClientDecision.
	Decision card.Decision
}

// JoinNew is the first message of a fresh connection.
func JoinNew() ClientEvent {
	return ClientEvent{Kind: ClientJoin}
}

// JoinExisting asks to reattach to a seat held earlier.
func JoinExisting(id uuid.UUID) ClientEvent {
	return ClientEvent{Kind: ClientJoin, Existing: &id}
}

// Decide wraps a decision for the active turn.
func Decide(d card.Decision) ClientEvent {
	return ClientEvent{Kind: ClientDecision, Decision: d}
}

// Wire shapes: unit variants are bare strings ("Start"), data-carrying
// variants are single-key objects ({"Decision":"Discard"}). Join nests its
// own variant: {"Join":"New"} or {"Join":{"Existing":"<uuid>"}}.

func (e ClientEvent) MarshalJSON() ([]byte, error) {
	switch e.Kind {
	case ClientJoin:
		if e.Existing == nil {
			return json.Marshal(map[string]string{"Join": "New"})
		}
		return json.Marshal(map[string]map[string]uuid.UUID{
			"Join": {"Existing": *e.Existing},
		})
	case ClientDecision:
		return json.Marshal(map[string]card.Decision{"Decision": e.Decision})
	case ClientGetLobbyInfo, ClientStart, ClientSnap, ClientConfirmNewRound,
		ClientSkipNewRound, ClientContinue, ClientLeave:
		return json.Marshal(clientEventNames[e.Kind])
	default:
		return nil, fmt.Errorf("invalid client event kind %d", int(e.Kind))
	}
}

func (e *ClientEvent) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		for k, n := range clientEventNames {
			kind := ClientEventKind(k)
			if n != name || kind == ClientJoin || kind == ClientDecision {
				continue
			}
			*e = ClientEvent{Kind: kind}
			return nil
		}
		return fmt.Errorf("unknown client event %q", name)
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("decoding client event: %w", err)
	}
	if len(obj) != 1 {
		return fmt.Errorf("client event must have exactly one variant, got %d", len(obj))
	}

	for variant, raw := range obj {
		switch variant {
		case "Join":
			return e.unmarshalJoin(raw)
		case "Decision":
			var d card.Decision
			if err := json.Unmarshal(raw, &d); err != nil {
				return fmt.Errorf("decoding decision: %w", err)
			}
			*e = Decide(d)
			return nil
		default:
			return fmt.Errorf("unknown client event %q", variant)
		}
	}
	return nil
}

func (e *ClientEvent) unmarshalJoin(raw json.RawMessage) error {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s != "New" {
			return fmt.Errorf("unknown join variant %q", s)
		}
		*e = JoinNew()
		return nil
	}

	var obj struct {
		Existing *uuid.UUID `json:"Existing"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return fmt.Errorf("decoding join: %w", err)
	}
	if obj.Existing == nil {
		return fmt.Errorf("join object missing Existing id")
	}
	*e = JoinExisting(*obj.Existing)
	return nil
}

// ServerEventKind names a server-to-client message.
type ServerEventKind int

const (
	ServerEnter ServerEventKind = iota
	ServerRestart
	ServerLobbyInfo
	ServerAssignID
	ServerJoined
	ServerLeft
	ServerRoundStart
	ServerSetup
	ServerFirstDraw
	ServerFirstPeek
	ServerTurnStart
	ServerDrawCard
	ServerWaitingForDecision
	ServerPlayAction
	ServerWaitingForSnap
	ServerEndTurn
	ServerCambioCall
	ServerShowAll
	ServerWinner
	ServerRoundEnd
	ServerConfirmNewRound
	ServerGameEnd
	ServerClosing
)

var serverEventNames = [...]string{
	ServerEnter:              "Enter",
	ServerRestart:            "Restart",
	ServerLobbyInfo:          "LobbyInfo",
	ServerAssignID:           "AssignId",
	ServerJoined:             "Joined",
	ServerLeft:               "Left",
	ServerRoundStart:         "RoundStart",
	ServerSetup:              "Setup",
	ServerFirstDraw:          "FirstDraw",
	ServerFirstPeek:          "FirstPeek",
	ServerTurnStart:          "TurnStart",
	ServerDrawCard:           "DrawCard",
	ServerWaitingForDecision: "WaitingForDecision",
	ServerPlayAction:         "PlayAction",
	ServerWaitingForSnap:     "WaitingForSnap",
	ServerEndTurn:            "EndTurn",
	ServerCambioCall:         "CambioCall",
	ServerShowAll:            "ShowAll",
	ServerWinner:             "Winner",
	ServerRoundEnd:           "RoundEnd",
	ServerConfirmNewRound:    "ConfirmNewRound",
	ServerGameEnd:            "GameEnd",
	ServerClosing:            "ServerClosing",
}

func (k ServerEventKind) String() string {
	if int(k) < len(serverEventNames) {
		return serverEventNames[k]
	}
	return fmt.Sprintf("ServerEventKind(%d)", int(k))
}

// Winner is the outcome of a round: a sole lowest scorer or a tie.
type Winner struct {
	Tied   bool
	Player uuid.UUID
}

// WinnerPlayer marks id as the sole winner.
func WinnerPlayer(id uuid.UUID) Winner {
	return Winner{Player: id}
}

// WinnerTied marks a shared lowest score.
func WinnerTied() Winner {
	return Winner{Tied: true}
}

func (w Winner) MarshalJSON() ([]byte, error) {
	if w.Tied {
		return json.Marshal("Tied")
	}
	return json.Marshal(map[string]map[string]uuid.UUID{
		"Player": {"uuid": w.Player},
	})
}

func (w *Winner) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s != "Tied" {
			return fmt.Errorf("unknown winner variant %q", s)
		}
		*w = WinnerTied()
		return nil
	}

	var obj struct {
		Player *struct {
			UUID uuid.UUID `json:"uuid"`
		} `json:"Player"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("decoding winner: %w", err)
	}
	if obj.Player == nil {
		return fmt.Errorf("winner object missing Player variant")
	}
	*w = WinnerPlayer(obj.Player.UUID)
	return nil
}

// ServerEvent is one server-to-client message. Kind selects the variant;
// only the fields the kind carries are meaningful.
type ServerEvent struct {
	Kind        ServerEventKind
	PlayerCount int               // LobbyInfo
	ID          uuid.UUID         // AssignId, Joined, Left, TurnStart
	Round       int               // RoundStart
	Card        card.Card         // DrawCard
	Peek        [2]card.Card      // FirstPeek
	Players     []game.PlayerData // ShowAll
	Winner      Winner            // Winner
}

func LobbyInfo(playerCount int) ServerEvent {
	return ServerEvent{Kind: ServerLobbyInfo, PlayerCount: playerCount}
}

func AssignID(id uuid.UUID) ServerEvent {
	return ServerEvent{Kind: ServerAssignID, ID: id}
}

func Joined(id uuid.UUID) ServerEvent {
	return ServerEvent{Kind: ServerJoined, ID: id}
}

func Left(id uuid.UUID) ServerEvent {
	return ServerEvent{Kind: ServerLeft, ID: id}
}

func RoundStart(round int) ServerEvent {
	return ServerEvent{Kind: ServerRoundStart, Round: round}
}

func FirstPeek(a, b card.Card) ServerEvent {
	return ServerEvent{Kind: ServerFirstPeek, Peek: [2]card.Card{a, b}}
}

func TurnStart(id uuid.UUID) ServerEvent {
	return ServerEvent{Kind: ServerTurnStart, ID: id}
}

func DrawCard(c card.Card) ServerEvent {
	return ServerEvent{Kind: ServerDrawCard, Card: c}
}

func ShowAll(players []game.PlayerData) ServerEvent {
	return ServerEvent{Kind: ServerShowAll, Players: players}
}

func AnnounceWinner(w Winner) ServerEvent {
	return ServerEvent{Kind: ServerWinner, Winner: w}
}

type idPayload struct {
	ID uuid.UUID `json:"id"`
}

type lobbyInfoPayload struct {
	PlayerCount int `json:"player_count"`
}

func (e ServerEvent) MarshalJSON() ([]byte, error) {
	switch e.Kind {
	case ServerLobbyInfo:
		return json.Marshal(map[string]lobbyInfoPayload{"LobbyInfo": {PlayerCount: e.PlayerCount}})
	case ServerAssignID, ServerJoined, ServerLeft, ServerTurnStart:
		return json.Marshal(map[string]idPayload{serverEventNames[e.Kind]: {ID: e.ID}})
	case ServerRoundStart:
		return json.Marshal(map[string]int{"RoundStart": e.Round})
	case ServerFirstPeek:
		return json.Marshal(map[string][2]card.Card{"FirstPeek": e.Peek})
	case ServerDrawCard:
		return json.Marshal(map[string]card.Card{"DrawCard": e.Card})
	case ServerShowAll:
		return json.Marshal(map[string][]game.PlayerData{"ShowAll": e.Players})
	case ServerWinner:
		return json.Marshal(map[string]Winner{"Winner": e.Winner})
	case ServerEnter, ServerRestart, ServerSetup, ServerFirstDraw,
		ServerWaitingForDecision, ServerPlayAction, ServerWaitingForSnap,
		ServerEndTurn, ServerCambioCall, ServerRoundEnd,
		ServerConfirmNewRound, ServerGameEnd, ServerClosing:
		return json.Marshal(serverEventNames[e.Kind])
	default:
		return nil, fmt.Errorf("invalid server event kind %d", int(e.Kind))
	}
}

func (e *ServerEvent) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		for k, n := range serverEventNames {
			if n != name {
				continue
			}
			kind := ServerEventKind(k)
			switch kind {
			case ServerLobbyInfo, ServerAssignID, ServerJoined, ServerLeft,
				ServerRoundStart, ServerFirstPeek, ServerTurnStart,
				ServerDrawCard, ServerShowAll, ServerWinner:
				return fmt.Errorf("server event %q requires a payload", name)
			}
			*e = ServerEvent{Kind: kind}
			return nil
		}
		return fmt.Errorf("unknown server event %q", name)
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("decoding server event: %w", err)
	}
	if len(obj) != 1 {
		return fmt.Errorf("server event must have exactly one variant, got %d", len(obj))
	}

	for variant, raw := range obj {
		switch variant {
		case "LobbyInfo":
			var p lobbyInfoPayload
			if err := json.Unmarshal(raw, &p); err != nil {
				return err
			}
			*e = LobbyInfo(p.PlayerCount)
		case "AssignId", "Joined", "Left", "TurnStart":
			var p idPayload
			if err := json.Unmarshal(raw, &p); err != nil {
				return err
			}
			kind := map[string]ServerEventKind{
				"AssignId": ServerAssignID, "Joined": ServerJoined,
				"Left": ServerLeft, "TurnStart": ServerTurnStart,
			}[variant]
			*e = ServerEvent{Kind: kind, ID: p.ID}
		case "RoundStart":
			var round int
			if err := json.Unmarshal(raw, &round); err != nil {
				return err
			}
			*e = RoundStart(round)
		case "FirstPeek":
			var peek [2]card.Card
			if err := json.Unmarshal(raw, &peek); err != nil {
				return err
			}
			*e = FirstPeek(peek[0], peek[1])
		case "DrawCard":
			var c card.Card
			if err := json.Unmarshal(raw, &c); err != nil {
				return err
			}
			*e = DrawCard(c)
		case "ShowAll":
			var players []game.PlayerData
			if err := json.Unmarshal(raw, &players); err != nil {
				return err
			}
			*e = ShowAll(players)
		case "Winner":
			var w Winner
			if err := json.Unmarshal(raw, &w); err != nil {
				return err
			}
			*e = AnnounceWinner(w)
		default:
			return fmt.Errorf("unknown server event %q", variant)
		}
		return nil
	}
	return nil
}
