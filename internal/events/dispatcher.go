package events

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// EventHandler handles a published event.
type EventHandler func(context.Context, Event) error

// Dispatcher interface allows event publication/subscription.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType EventType, handler EventHandler)
}

// AsyncDispatcher queues events on a buffered channel and delivers them
// from a background drain loop, decoupling notification side effects
// from the request path. Delivery is at-least-once with no ordering
// guarantee across events.
type AsyncDispatcher struct {
	mu        sync.RWMutex
	listeners map[EventType][]EventHandler
	queue     chan Event
	logger    *zap.Logger
}

// NewAsyncDispatcher creates a dispatcher with the given queue depth.
func NewAsyncDispatcher(buffer int, logger *zap.Logger) *AsyncDispatcher {
	if buffer <= 0 {
		buffer = 64
	}
	return &AsyncDispatcher{
		listeners: make(map[EventType][]EventHandler),
		queue:     make(chan Event, buffer),
		logger:    logger,
	}
}

// Publish enqueues the event without blocking the caller. When the queue
// is saturated the event is delivered from its own goroutine instead of
// being dropped.
func (d *AsyncDispatcher) Publish(_ context.Context, event Event) error {
	select {
	case d.queue <- event:
	default:
		go d.deliver(event)
	}
	return nil
}

// Subscribe registers a handler for the given event type.
func (d *AsyncDispatcher) Subscribe(eventType EventType, handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners[eventType] = append(d.listeners[eventType], handler)
}

// Run drains the queue until the context is cancelled.
func (d *AsyncDispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-d.queue:
			d.deliver(event)
		}
	}
}

func (d *AsyncDispatcher) deliver(event Event) {
	d.mu.RLock()
	handlers := append([]EventHandler{}, d.listeners[event.Type]...)
	d.mu.RUnlock()

	ctx := context.Background()
	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil && d.logger != nil {
			d.logger.Warn("event handler failed",
				zap.String("event_type", string(event.Type)),
				zap.String("travel_request_id", event.TravelRequestID),
				zap.Error(err))
		}
	}
}
