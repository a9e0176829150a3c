package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/rocketscienceinc/tictactoe-lobby/internal/entity"
)

type publisher interface {
	Publish(subject string, data []byte) error
}

// EventPublisher - publishes match lifecycle events to NATS under <prefix>.match.<kind>.
type EventPublisher struct {
	logger *slog.Logger

	publisher publisher
	prefix    string
	queue     *eventQueue
}

func NewEventPublisher(logger *slog.Logger, publisher publisher, prefix string, bufferSize int) *EventPublisher {
	logger = logger.With("component", "event_publisher")

	return &EventPublisher{
		logger:    logger,
		publisher: publisher,
		prefix:    prefix,
		queue:     newEventQueue(logger, bufferSize),
	}
}

// ConnectNATS - dials the broker with reconnects enabled.
func ConnectNATS(url string) (*nats.Conn, error) {
	conn, err := nats.Connect(
		url,
		nats.Name("tictactoe-lobby"),
		nats.Timeout(10*time.Second),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}

	return conn, nil
}

func (that *EventPublisher) Observe(event entity.MatchEvent) {
	// moves are not published
	if event.Kind == entity.MoveApplied {
		return
	}

	that.queue.offer(event)
}

// Run - blocks until ctx is done.
func (that *EventPublisher) Run(ctx context.Context) {
	that.queue.run(ctx, func(_ context.Context, event entity.MatchEvent) {
		if err := that.publish(event); err != nil {
			that.logger.Error("failed to publish event", "kind", event.Kind, "room_id", event.Room.ID, "error", err)
		}
	})
}

func (that *EventPublisher) Subject(kind entity.MatchEventKind) string {
	return fmt.Sprintf("%s.match.%s", that.prefix, kind)
}

func (that *EventPublisher) publish(event entity.MatchEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err = that.publisher.Publish(that.Subject(event.Kind), data); err != nil {
		return fmt.Errorf("failed to publish: %w", err)
	}

	return nil
}
