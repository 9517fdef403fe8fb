package eventbus

import (
	"context"
	"sync"
	"time"

	"docstore/internal/shared/logger"
)

// Change event types emitted by repositories after successful mutations.
const (
	EventDocumentAdded    = "document.added"
	EventDocumentReplaced = "document.replaced"
	EventDocumentDeleted  = "document.deleted"
)

// ChangeEvent describes a single mutation applied to a container.
type ChangeEvent struct {
	Type       string
	DatabaseID string
	Container  string
	DocumentID string
	At         time.Time
}

// NewChangeEvent builds a ChangeEvent stamped with the current time.
func NewChangeEvent(eventType, databaseID, container, documentID string) ChangeEvent {
	return ChangeEvent{
		Type:       eventType,
		DatabaseID: databaseID,
		Container:  container,
		DocumentID: documentID,
		At:         time.Now().UTC(),
	}
}

// Handler is invoked for each published event of a subscribed type.
type Handler func(ctx context.Context, event ChangeEvent) error

// Bus is an in-memory publish/subscribe bus for repository change events.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	log      logger.Logger
}

// NewBus creates a new event bus instance.
func NewBus(log logger.Logger) *Bus {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Bus{
		handlers: make(map[string][]Handler),
		log:      log,
	}
}

// Subscribe adds a handler for a specific event type.
func (b *Bus) Subscribe(eventType string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)
	b.log.Debugf("Subscribed handler for event type: %s", eventType)
}

// Publish sends an event to all registered handlers, in subscription order.
// The first handler error stops propagation and is returned.
func (b *Bus) Publish(ctx context.Context, event ChangeEvent) error {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers[event.Type]...)
	b.mu.RUnlock()

	for i, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			b.log.Errorf("Handler %d failed for event %s: %v", i, event.Type, err)
			return err
		}
	}
	return nil
}

// PublishAndForget publishes an event asynchronously without waiting for completion.
func (b *Bus) PublishAndForget(ctx context.Context, event ChangeEvent) {
	go func() {
		if err := b.Publish(ctx, event); err != nil {
			b.log.Errorf("Failed to publish event %s: %v", event.Type, err)
		}
	}()
}

// Unsubscribe removes all handlers for a specific event type.
func (b *Bus) Unsubscribe(eventType string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.handlers, eventType)
}

// SubscriberCount returns the number of handlers for an event type.
func (b *Bus) SubscriberCount(eventType string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[eventType])
}
