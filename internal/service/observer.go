package service

import (
	"context"
	"log/slog"

	"github.com/rocketscienceinc/tictactoe-lobby/internal/entity"
)

// eventQueue - bounded buffer between the dispatcher and a slow sink.
// Offer never blocks; events are dropped with a warning when the buffer is full.
type eventQueue struct {
	logger *slog.Logger
	events chan entity.MatchEvent
}

func newEventQueue(logger *slog.Logger, size int) *eventQueue {
	if size <= 0 {
		size = 1
	}

	return &eventQueue{
		logger: logger,
		events: make(chan entity.MatchEvent, size),
	}
}

func (that *eventQueue) offer(event entity.MatchEvent) {
	select {
	case that.events <- event:
	default:
		that.logger.Warn("event buffer is full, dropping event", "kind", event.Kind, "room_id", event.Room.ID)
	}
}

// run - feeds queued events to handle until ctx is done, then drains what is left.
func (that *eventQueue) run(ctx context.Context, handle func(context.Context, entity.MatchEvent)) {
	for {
		select {
		case event := <-that.events:
			handle(ctx, event)
		case <-ctx.Done():
			that.drain(handle)
			return
		}
	}
}

func (that *eventQueue) drain(handle func(context.Context, entity.MatchEvent)) {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()

	for {
		select {
		case event := <-that.events:
			handle(ctx, event)
		default:
			return
		}
	}
}
