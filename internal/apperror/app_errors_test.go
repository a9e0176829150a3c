package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessage(t *testing.T) {
	t.Run("Returns client text for every game error", func(t *testing.T) {
		cases := map[error]string{
			ErrPlayerNotFound: "Player not recognized. Please refresh.",
			ErrNotInGame:      "You are not in an active game.",
			ErrGameOver:       "Game is already over.",
			ErrNotYourTurn:    "Not your turn.",
			ErrInvalidCell:    "Invalid cell index.",
			ErrCellTaken:      "Cell already taken.",
			ErrChatNotInGame:  "You must be in a game to chat.",
		}

		for err, expected := range cases {
			assert.Equal(t, expected, Message(err), err.Error())
		}
	})

	t.Run("Unwraps wrapped errors", func(t *testing.T) {
		// Given: a wrapped sentinel
		err := fmt.Errorf("invalid turn: %w", ErrNotYourTurn)

		// When: resolving the message
		msg := Message(err)

		// Then: the sentinel's text is used
		assert.Equal(t, "Not your turn.", msg)
	})

	t.Run("Falls back for unknown errors", func(t *testing.T) {
		assert.Equal(t, unknownErrorMessage, Message(errors.New("boom")))
	})
}
