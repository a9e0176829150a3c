package entity

import "encoding/json"

type Mark string

const (
	MarkNone Mark = ""
	MarkX    Mark = "X"
	MarkO    Mark = "O"
)

const BoardSize = 9

var WinCombos = [][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// Opponent - returns the other mark. MarkNone has no opponent.
func (that Mark) Opponent() Mark {
	switch that {
	case MarkX:
		return MarkO
	case MarkO:
		return MarkX
	default:
		return MarkNone
	}
}

// MarshalJSON encodes an empty mark as null so clients can test cells for emptiness.
func (that Mark) MarshalJSON() ([]byte, error) {
	if that == MarkNone {
		return []byte("null"), nil
	}

	return json.Marshal(string(that))
}

func (that *Mark) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*that = MarkNone
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err //nolint: wrapcheck // plain decode error
	}

	*that = Mark(s)

	return nil
}

type Board [BoardSize]Mark

// Winner - returns the mark occupying any of the fixed triples, or MarkNone.
func (that Board) Winner() Mark {
	for _, combo := range WinCombos {
		a, b, c := that[combo[0]], that[combo[1]], that[combo[2]]
		if a != MarkNone && a == b && b == c {
			return a
		}
	}

	return MarkNone
}

func (that Board) IsFull() bool {
	for _, cell := range that {
		if cell == MarkNone {
			return false
		}
	}

	return true
}

// IsDraw - every cell is occupied and nobody holds a triple.
func (that Board) IsDraw() bool {
	return that.IsFull() && that.Winner() == MarkNone
}

func IsValidCell(cell int) bool {
	return cell >= 0 && cell < BoardSize
}
