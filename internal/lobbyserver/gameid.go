package lobbyserver

import (
	"errors"
	"fmt"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Game ids are short codes players type to join, so the alphabet skips
// zero to avoid confusion with the letter O.
const (
	gameIDLength   = 6
	gameIDAlphabet = "123456789"
)

var (
	ErrGameIDLength = errors.New("game id must be 6 characters")
	ErrGameIDChars  = errors.New("game id must contain only digits 1-9")
)

// NewGameID generates a fresh 6-digit game id.
func NewGameID() (string, error) {
	id, err := gonanoid.Generate(gameIDAlphabet, gameIDLength)
	if err != nil {
		return "", fmt.Errorf("generating game id: %w", err)
	}
	return id, nil
}

// ParseGameID validates a player-supplied game id.
func ParseGameID(s string) (string, error) {
	if len(s) != gameIDLength {
		return "", ErrGameIDLength
	}
	for _, r := range s {
		if !strings.ContainsRune(gameIDAlphabet, r) {
			return "", ErrGameIDChars
		}
	}
	return s, nil
}
