package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rocketscienceinc/tictactoe-lobby/internal/entity"
)

const (
	roomKeyPrefix = "room:"
	roomsSetKey   = "rooms"
)

var ErrSnapshotNotFound = errors.New("room snapshot not found")

// SnapshotRepository - read-only mirror of live rooms kept in redis.
type SnapshotRepository interface {
	CreateOrUpdate(ctx context.Context, state entity.RoomState) error
	GetByID(ctx context.Context, id string) (*entity.RoomState, error)
	DeleteByID(ctx context.Context, id string) error
	List(ctx context.Context) ([]string, error)
}

type dbSnapshot struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSnapshotRepository(client *redis.Client, ttl time.Duration) SnapshotRepository {
	return &dbSnapshot{
		client: client,
		ttl:    ttl,
	}
}

func (that *dbSnapshot) CreateOrUpdate(ctx context.Context, state entity.RoomState) error {
	stateJSON, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("could not marshal room: %w", err)
	}

	_, err = that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, roomKeyPrefix+state.ID, stateJSON, that.ttl)
		pipe.SAdd(ctx, roomsSetKey, state.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to set room: %w", err)
	}

	return nil
}

func (that *dbSnapshot) GetByID(ctx context.Context, id string) (*entity.RoomState, error) {
	response, err := that.client.Get(ctx, roomKeyPrefix+id).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSnapshotNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get room by id: %w", err)
	}

	var state entity.RoomState
	if err = json.Unmarshal([]byte(response), &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal room: %w", err)
	}

	return &state, nil
}

func (that *dbSnapshot) DeleteByID(ctx context.Context, id string) error {
	_, err := that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, roomKeyPrefix+id)
		pipe.SRem(ctx, roomsSetKey, id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete room by id: %w", err)
	}

	return nil
}

// List - returns ids of mirrored rooms. Ids whose snapshot expired are pruned from the set.
func (that *dbSnapshot) List(ctx context.Context) ([]string, error) {
	ids, err := that.client.SMembers(ctx, roomsSetKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}

	live := make([]string, 0, len(ids))
	for _, id := range ids {
		exists, err := that.client.Exists(ctx, roomKeyPrefix+id).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to check room %s: %w", id, err)
		}

		if exists == 0 {
			if err = that.client.SRem(ctx, roomsSetKey, id).Err(); err != nil {
				return nil, fmt.Errorf("failed to prune room %s: %w", id, err)
			}

			continue
		}

		live = append(live, id)
	}

	sort.Strings(live)

	return live, nil
}
