package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/rocketscienceinc/tictactoe-lobby/internal/entity"
)

const drainTimeout = 5 * time.Second

type snapshotRepo interface {
	CreateOrUpdate(ctx context.Context, state entity.RoomState) error
	DeleteByID(ctx context.Context, id string) error
}

// Snapshotter - mirrors live rooms into the snapshot store.
type Snapshotter struct {
	logger *slog.Logger

	snapshotRepo snapshotRepo
	queue        *eventQueue
}

func NewSnapshotter(logger *slog.Logger, snapshotRepo snapshotRepo, bufferSize int) *Snapshotter {
	logger = logger.With("component", "snapshotter")

	return &Snapshotter{
		logger:       logger,
		snapshotRepo: snapshotRepo,
		queue:        newEventQueue(logger, bufferSize),
	}
}

func (that *Snapshotter) Observe(event entity.MatchEvent) {
	that.queue.offer(event)
}

// Run - blocks until ctx is done.
func (that *Snapshotter) Run(ctx context.Context) {
	that.queue.run(ctx, that.handle)
}

func (that *Snapshotter) handle(ctx context.Context, event entity.MatchEvent) {
	log := that.logger.With("method", "handle", "kind", event.Kind, "room_id", event.Room.ID)

	var err error

	switch event.Kind {
	case entity.MatchStarted, entity.MoveApplied:
		err = that.snapshotRepo.CreateOrUpdate(ctx, event.Room)
	case entity.MatchClosed:
		err = that.snapshotRepo.DeleteByID(ctx, event.Room.ID)
	case entity.MatchFinished:
		// the accepted move already stored the final board
		return
	}

	if err != nil {
		log.Error("failed to sync snapshot", "error", err)
	}
}
