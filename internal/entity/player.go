package entity

import "strings"

const DefaultPlayerName = "Anonymous"

type Player struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Mark   Mark   `json:"mark,omitempty"`
	RoomID string `json:"room_id,omitempty"`
}

func NewPlayer(id, rawName string, maxNameLength int) *Player {
	return &Player{
		ID:   id,
		Name: SanitizeName(rawName, maxNameLength),
	}
}

func (that *Player) InRoom() bool {
	return that.RoomID != ""
}

// SanitizeName - trims the raw display name, falls back to DefaultPlayerName and limits its length.
func SanitizeName(raw string, maxLength int) string {
	name := strings.TrimSpace(raw)
	if name == "" {
		return DefaultPlayerName
	}

	return Truncate(name, maxLength)
}

// Truncate - cuts s to at most n characters. A non-positive n disables the limit.
func Truncate(s string, n int) string {
	if n <= 0 {
		return s
	}

	runes := []rune(s)
	if len(runes) <= n {
		return s
	}

	return string(runes[:n])
}
