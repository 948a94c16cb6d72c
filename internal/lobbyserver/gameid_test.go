package lobbyserver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGameIDShape(t *testing.T) {
	for range 50 {
		id, err := NewGameID()
		require.NoError(t, err)

		parsed, err := ParseGameID(id)
		require.NoError(t, err)
		assert.Equal(t, id, parsed)
	}
}

func TestParseGameIDRejectsBadLength(t *testing.T) {
	for _, s := range []string{"", "12345", "1234567"} {
		_, err := ParseGameID(s)
		assert.ErrorIs(t, err, ErrGameIDLength, "input %q", s)
	}
}

func TestParseGameIDRejectsBadChars(t *testing.T) {
	for _, s := range []string{"12345a", "120456", "ABCDEF", "12 456"} {
		_, err := ParseGameID(s)
		assert.ErrorIs(t, err, ErrGameIDChars, "input %q", s)
	}
}
