// Package events carries update and network lifecycle notifications
// between subsystems over an in-memory bus.
package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wrtpod/wrtpod/pkg/logger"
)

type InMemoryBus struct {
	handlers  []Handler
	eventChan chan Event
	done      chan struct{}
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	log       *logger.Logger
}

func NewInMemoryBus(bufferSize int) *InMemoryBus {
	if bufferSize <= 0 {
		bufferSize = 100
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &InMemoryBus{
		handlers:  make([]Handler, 0),
		eventChan: make(chan Event, bufferSize),
		done:      make(chan struct{}),
		ctx:       ctx,
		cancel:    cancel,
		log:       logger.GetLogger(),
	}
}

func (bus *InMemoryBus) Publish(event Event) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case <-bus.ctx.Done():
		return fmt.Errorf("event bus is stopped")
	default:
	}

	select {
	case bus.eventChan <- event:
		bus.log.Debug("event published", "event_id", event.ID, "event_type", string(event.Type))
		return nil
	default:
		return fmt.Errorf("event channel is full, dropping event %s", event.ID)
	}
}

func (bus *InMemoryBus) Subscribe(handler Handler) error {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	bus.handlers = append(bus.handlers, handler)
	return nil
}

func (bus *InMemoryBus) Start() error {
	go bus.dispatch()
	return nil
}

func (bus *InMemoryBus) Stop() error {
	bus.cancel()
	<-bus.done
	return nil
}

func (bus *InMemoryBus) dispatch() {
	defer close(bus.done)

	for {
		select {
		case event := <-bus.eventChan:
			bus.mu.RLock()
			handlers := make([]Handler, len(bus.handlers))
			copy(handlers, bus.handlers)
			bus.mu.RUnlock()

			for _, handler := range handlers {
				if !handler.CanHandle(event.Type) {
					continue
				}
				if err := handler.Handle(event); err != nil {
					bus.log.Error("event handler failed", "event_id", event.ID, "event_type", string(event.Type), "error", err)
				}
			}
		case <-bus.ctx.Done():
			return
		}
	}
}
