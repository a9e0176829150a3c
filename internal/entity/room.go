package entity

import (
	"encoding/json"
	"fmt"
	"maps"

	"github.com/rocketscienceinc/tictactoe-lobby/internal/apperror"
)

type Result string

const (
	ResultNone Result = ""
	ResultX    Result = Result(MarkX)
	ResultO    Result = Result(MarkO)
	ResultDraw Result = "Draw"
)

func (that Result) MarshalJSON() ([]byte, error) {
	if that == ResultNone {
		return []byte("null"), nil
	}

	return json.Marshal(string(that))
}

func (that *Result) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*that = ResultNone
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err //nolint: wrapcheck // plain decode error
	}

	*that = Result(s)

	return nil
}

// Room - authoritative state of one match. Players holds [X-holder, O-holder].
type Room struct {
	ID      string
	Board   Board
	Turn    Mark
	Players [2]string
	Names   map[string]string
	Over    bool
	Result  Result
}

// RoomState - immutable copy of a room as broadcast in update_game.
type RoomState struct {
	ID      string            `json:"id"`
	Board   Board             `json:"board"`
	Turn    Mark              `json:"turn"`
	Players [2]string         `json:"players"`
	Names   map[string]string `json:"names"`
	Over    bool              `json:"over"`
	Result  Result            `json:"result"`
}

func NewRoom(id string, playerX, playerO *Player) *Room {
	return &Room{
		ID:      id,
		Turn:    MarkX,
		Players: [2]string{playerX.ID, playerO.ID},
		Names: map[string]string{
			playerX.ID: playerX.Name,
			playerO.ID: playerO.Name,
		},
	}
}

// MakeMove - validates and applies mark at cell. Rejected moves leave the room untouched.
func (that *Room) MakeMove(mark Mark, cell int) error {
	if that.Over {
		return apperror.ErrGameOver
	}

	if that.Turn != mark {
		return apperror.ErrNotYourTurn
	}

	if !IsValidCell(cell) {
		return fmt.Errorf("%w: cell %d", apperror.ErrInvalidCell, cell)
	}

	if that.Board[cell] != MarkNone {
		return fmt.Errorf("%w: cell %d", apperror.ErrCellTaken, cell)
	}

	that.Board[cell] = mark
	that.updateState()

	return nil
}

func (that *Room) updateState() {
	if winner := that.Board.Winner(); winner != MarkNone {
		that.Over = true
		that.Result = Result(winner)
		return
	}

	if that.Board.IsDraw() {
		that.Over = true
		that.Result = ResultDraw
		return
	}

	that.Turn = that.Turn.Opponent()
}

// Opponent - returns the member of the room that is not connID.
func (that *Room) Opponent(connID string) (string, bool) {
	switch connID {
	case that.Players[0]:
		return that.Players[1], true
	case that.Players[1]:
		return that.Players[0], true
	default:
		return "", false
	}
}

func (that *Room) Members() []string {
	return []string{that.Players[0], that.Players[1]}
}

func (that *Room) State() RoomState {
	return RoomState{
		ID:      that.ID,
		Board:   that.Board,
		Turn:    that.Turn,
		Players: that.Players,
		Names:   maps.Clone(that.Names),
		Over:    that.Over,
		Result:  that.Result,
	}
}
