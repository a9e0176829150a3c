package entity

import "time"

type MatchEventKind string

const (
	MatchStarted  MatchEventKind = "started"
	MoveApplied   MatchEventKind = "move"
	MatchFinished MatchEventKind = "finished"
	MatchClosed   MatchEventKind = "closed"
)

// MatchEvent - lifecycle change of a room, reported to observers after the event is processed.
type MatchEvent struct {
	Kind       MatchEventKind `json:"kind"`
	Room       RoomState      `json:"room"`
	OccurredAt time.Time      `json:"occurred_at"`
}
