package events

import (
	"github.com/wrtpod/wrtpod/pkg/logger"
)

// LogHandler writes every lifecycle event to the application log.
type LogHandler struct {
	log *logger.Logger
}

func NewLogHandler() *LogHandler {
	return &LogHandler{log: logger.GetLogger()}
}

func (h *LogHandler) CanHandle(eventType EventType) bool {
	return true
}

func (h *LogHandler) Handle(event Event) error {
	keyvals := []interface{}{"type", string(event.Type)}
	if event.Container != "" {
		keyvals = append(keyvals, "container", event.Container)
	}
	if event.Image != "" {
		keyvals = append(keyvals, "image", event.Image)
	}
	if event.Network != "" {
		keyvals = append(keyvals, "network", event.Network)
	}

	switch event.Type {
	case UpdateFailed:
		h.log.Warn("lifecycle event", keyvals...)
	default:
		h.log.Info("lifecycle event", keyvals...)
	}
	return nil
}
