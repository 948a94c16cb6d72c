// Command client is a line-oriented terminal client for a game server.
// It prints every server event as it arrives and turns stdin lines into
// client events: start, snap, confirm, skip, continue, leave, or one of
// the decision names (discard, replace, lookatown, lookatother,
// blindswap, lookandswap).
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/cambiogame/cambio/internal/card"
	"github.com/cambiogame/cambio/internal/client"
	"github.com/cambiogame/cambio/internal/protocol"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:25580", "game server address")
	idArg := flag.String("id", "", "previously assigned player id to reattach")
	flag.Parse()

	if err := run(*addr, *idArg); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(addr, idArg string) error {
	var (
		c   *client.Client
		err error
	)
	if idArg != "" {
		id, parseErr := uuid.Parse(idArg)
		if parseErr != nil {
			return fmt.Errorf("parsing id: %w", parseErr)
		}
		c, err = client.DialExisting(addr, id)
	} else {
		c, err = client.Dial(addr)
	}
	if err != nil {
		return err
	}
	defer c.Close()

	fmt.Printf("connected to %s as %s\n", addr, c.ID())

	done := make(chan error, 1)
	go func() {
		for {
			ev, err := c.Read()
			if err != nil {
				done <- err
				return
			}
			printEvent(ev)
			if ev.Kind == protocol.ServerClosing {
				done <- nil
				return
			}
		}
	}()

	go readCommands(c)

	err = <-done
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("connection lost: %w", err)
	}
	fmt.Println("server closed the session")
	return nil
}

func readCommands(c *client.Client) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if line == "" {
			continue
		}
		ev, ok := parseCommand(line)
		if !ok {
			fmt.Printf("unknown command %q\n", line)
			continue
		}
		if err := c.Send(ev); err != nil {
			fmt.Printf("send failed: %v\n", err)
			return
		}
		if ev.Kind == protocol.ClientLeave {
			return
		}
	}
}

func parseCommand(line string) (protocol.ClientEvent, bool) {
	switch line {
	case "start":
		return protocol.ClientEvent{Kind: protocol.ClientStart}, true
	case "snap":
		return protocol.ClientEvent{Kind: protocol.ClientSnap}, true
	case "confirm":
		return protocol.ClientEvent{Kind: protocol.ClientConfirmNewRound}, true
	case "skip":
		return protocol.ClientEvent{Kind: protocol.ClientSkipNewRound}, true
	case "continue":
		return protocol.ClientEvent{Kind: protocol.ClientContinue}, true
	case "leave":
		return protocol.ClientEvent{Kind: protocol.ClientLeave}, true
	case "lobby":
		return protocol.ClientEvent{Kind: protocol.ClientGetLobbyInfo}, true
	}
	for _, d := range card.AllDecisions {
		if line == strings.ToLower(d.String()) {
			return protocol.Decide(d), true
		}
	}
	return protocol.ClientEvent{}, false
}

func printEvent(ev protocol.ServerEvent) {
	switch ev.Kind {
	case protocol.ServerLobbyInfo:
		fmt.Printf("<- LobbyInfo players=%d\n", ev.PlayerCount)
	case protocol.ServerJoined, protocol.ServerLeft, protocol.ServerTurnStart:
		fmt.Printf("<- %v player=%s\n", ev.Kind, ev.ID)
	case protocol.ServerRoundStart:
		fmt.Printf("<- RoundStart round=%d\n", ev.Round)
	case protocol.ServerFirstPeek:
		fmt.Printf("<- FirstPeek %v %v\n", ev.Peek[0], ev.Peek[1])
	case protocol.ServerDrawCard:
		fmt.Printf("<- DrawCard %v\n", ev.Card)
	case protocol.ServerShowAll:
		fmt.Println("<- ShowAll")
		for _, p := range ev.Players {
			fmt.Printf("   %s: %v\n", p.ID, p.Cards)
		}
	case protocol.ServerWinner:
		if ev.Winner.Tied {
			fmt.Println("<- Winner: tied")
		} else {
			fmt.Printf("<- Winner: %s\n", ev.Winner.Player)
		}
	default:
		fmt.Printf("<- %v\n", ev.Kind)
	}
}
