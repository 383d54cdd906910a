package events

import (
	"time"
)

type EventType string

const (
	UpdateCheckCompleted EventType = "update.check"
	UpdateStarted        EventType = "update.started"
	UpdateCompleted      EventType = "update.completed"
	UpdateFailed         EventType = "update.failed"
	NetworkIntegrated    EventType = "network.integrated"
	NetworkRemoved       EventType = "network.removed"
)

type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Container string      `json:"container,omitempty"`
	Image     string      `json:"image,omitempty"`
	Network   string      `json:"network,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

type Handler interface {
	Handle(event Event) error
	CanHandle(eventType EventType) bool
}

// Publisher is the side of the bus producers depend on.
type Publisher interface {
	Publish(event Event) error
}
