package repository

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-lobby/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-lobby/internal/entity"
)

// PlayerRepository - session registry: one record per connected client.
type PlayerRepository interface {
	Register(id, rawName string) (*entity.Player, error)
	GetByID(id string) (*entity.Player, error)
	Assign(id, roomID string, mark entity.Mark) error
	ClearRoom(id string) error
	Unregister(id string) (*entity.Player, error)
	Count() int
}

type memPlayer struct {
	players       map[string]*entity.Player
	maxNameLength int
}

func NewPlayerRepository(maxNameLength int) PlayerRepository {
	return &memPlayer{
		players:       make(map[string]*entity.Player),
		maxNameLength: maxNameLength,
	}
}

func (that *memPlayer) Register(id, rawName string) (*entity.Player, error) {
	if _, ok := that.players[id]; ok {
		return nil, fmt.Errorf("%w: %s", apperror.ErrPlayerExists, id)
	}

	player := entity.NewPlayer(id, rawName, that.maxNameLength)
	that.players[id] = player

	return player, nil
}

func (that *memPlayer) GetByID(id string) (*entity.Player, error) {
	player, ok := that.players[id]
	if !ok {
		return nil, apperror.ErrPlayerNotFound
	}

	return player, nil
}

// Assign - binds an unmatched player to a room with the given mark.
func (that *memPlayer) Assign(id, roomID string, mark entity.Mark) error {
	player, err := that.GetByID(id)
	if err != nil {
		return err
	}

	if player.InRoom() {
		return fmt.Errorf("%w: %s in %s", apperror.ErrPlayerAlreadyInRoom, id, player.RoomID)
	}

	player.RoomID = roomID
	player.Mark = mark

	return nil
}

func (that *memPlayer) ClearRoom(id string) error {
	player, err := that.GetByID(id)
	if err != nil {
		return err
	}

	player.RoomID = ""
	player.Mark = entity.MarkNone

	return nil
}

// Unregister - removes the record and returns it so the caller learns its last room.
func (that *memPlayer) Unregister(id string) (*entity.Player, error) {
	player, ok := that.players[id]
	if !ok {
		return nil, apperror.ErrPlayerNotFound
	}

	delete(that.players, id)

	return player, nil
}

func (that *memPlayer) Count() int {
	return len(that.players)
}
