package usecase

import "github.com/rocketscienceinc/tictactoe-lobby/internal/entity"

const (
	EventWaitForOpponent = "wait_for_opponent"
	EventGameStart       = "game_start"
	EventUpdateGame      = "update_game"
	EventOpponentLeft    = "opponent_left"
	EventGameError       = "game_error"
	EventNewMessage      = "new_message"
)

type GameStartPayload struct {
	Symbol       entity.Mark `json:"symbol"`
	OpponentName string      `json:"opponentName"`
}

type GameErrorPayload struct {
	Message string `json:"message"`
}

type ChatPayload struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

// Notification - outbound message addressed either to one connection or to the members of a room.
type Notification struct {
	Event      string
	RoomID     string
	Recipients []string
	Payload    any
}

// Outcome - everything produced while handling one inbound event.
type Outcome struct {
	Notifications []Notification
	Events        []entity.MatchEvent
}

func (that *Outcome) toConnection(connID, event string, payload any) {
	that.Notifications = append(that.Notifications, Notification{
		Event:      event,
		Recipients: []string{connID},
		Payload:    payload,
	})
}

func (that *Outcome) toRoom(room *entity.Room, event string, payload any) {
	that.Notifications = append(that.Notifications, Notification{
		Event:      event,
		RoomID:     room.ID,
		Recipients: room.Members(),
		Payload:    payload,
	})
}

func (that *Outcome) merge(other Outcome) {
	that.Notifications = append(that.Notifications, other.Notifications...)
	that.Events = append(that.Events, other.Events...)
}
