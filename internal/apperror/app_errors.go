package apperror

import "errors"

var (
	ErrPlayerNotFound      = errors.New("player not recognized")
	ErrNotInGame           = errors.New("player is not in an active game")
	ErrGameOver            = errors.New("game is already over")
	ErrNotYourTurn         = errors.New("it's not your turn")
	ErrInvalidCell         = errors.New("invalid cell index")
	ErrCellTaken           = errors.New("cell is already taken")
	ErrChatNotInGame       = errors.New("player must be in a game to chat")
	ErrPlayerAlreadyInRoom = errors.New("player is already in a room")
	ErrPlayerExists        = errors.New("player is already registered")
	ErrRoomExists          = errors.New("room already exists")
	ErrRoomNotFound        = errors.New("room not found")
)

// clientMessages - text sent to the originating connection in a game_error notification.
var clientMessages = map[error]string{
	ErrPlayerNotFound: "Player not recognized. Please refresh.",
	ErrNotInGame:      "You are not in an active game.",
	ErrGameOver:       "Game is already over.",
	ErrNotYourTurn:    "Not your turn.",
	ErrInvalidCell:    "Invalid cell index.",
	ErrCellTaken:      "Cell already taken.",
	ErrChatNotInGame:  "You must be in a game to chat.",
}

const unknownErrorMessage = "Something went wrong."

// Message - returns the client-facing text for err, unwrapping as needed.
func Message(err error) string {
	for target, msg := range clientMessages {
		if errors.Is(err, target) {
			return msg
		}
	}

	return unknownErrorMessage
}
