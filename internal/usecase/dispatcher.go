package usecase

import (
	"log/slog"
	"sync"

	"github.com/rocketscienceinc/tictactoe-lobby/internal/entity"
)

// Transport - delivers an outbound event to one connection without blocking.
type Transport interface {
	Send(connID, event string, payload any)
}

// MatchObserver - receives room lifecycle events. Observe must not block.
type MatchObserver interface {
	Observe(event entity.MatchEvent)
}

// Dispatcher - serializes inbound events against the MatchController and delivers
// the resulting notifications under the same lock, so every connection sees events in order.
type Dispatcher struct {
	mu sync.Mutex

	logger     *slog.Logger
	controller *MatchController
	transport  Transport
	observers  []MatchObserver
}

func NewDispatcher(logger *slog.Logger, controller *MatchController, transport Transport, observers ...MatchObserver) *Dispatcher {
	return &Dispatcher{
		logger:     logger.With("component", "dispatcher"),
		controller: controller,
		transport:  transport,
		observers:  observers,
	}
}

func (that *Dispatcher) Connect(connID, name string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.deliver(that.controller.Connect(connID, name))
}

func (that *Dispatcher) Disconnect(connID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.deliver(that.controller.Disconnect(connID))
}

func (that *Dispatcher) MakeMove(connID string, index *int) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.deliver(that.controller.MakeMove(connID, index))
}

func (that *Dispatcher) SendMessage(connID, text string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.deliver(that.controller.SendMessage(connID, text))
}

func (that *Dispatcher) Stats() Stats {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.controller.Stats()
}

func (that *Dispatcher) deliver(out Outcome) {
	for _, notification := range out.Notifications {
		for _, connID := range notification.Recipients {
			that.transport.Send(connID, notification.Event, notification.Payload)
		}
	}

	for _, event := range out.Events {
		for _, observer := range that.observers {
			observer.Observe(event)
		}
	}
}
