package repository

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-lobby/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-lobby/internal/entity"
)

type RoomRepository interface {
	Create(room *entity.Room) error
	GetByID(id string) (*entity.Room, error)
	DeleteByID(id string)
	Count() int
}

type memRoom struct {
	rooms map[string]*entity.Room
}

func NewRoomRepository() RoomRepository {
	return &memRoom{
		rooms: make(map[string]*entity.Room),
	}
}

func (that *memRoom) Create(room *entity.Room) error {
	if _, ok := that.rooms[room.ID]; ok {
		return fmt.Errorf("%w: %s", apperror.ErrRoomExists, room.ID)
	}

	that.rooms[room.ID] = room

	return nil
}

func (that *memRoom) GetByID(id string) (*entity.Room, error) {
	room, ok := that.rooms[id]
	if !ok {
		return nil, apperror.ErrRoomNotFound
	}

	return room, nil
}

func (that *memRoom) DeleteByID(id string) {
	delete(that.rooms, id)
}

func (that *memRoom) Count() int {
	return len(that.rooms)
}
