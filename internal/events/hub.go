// Package events fans workflow changes and user notifications out to
// connected pages.
package events

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/example/forgery-check/internal/render"
	"github.com/example/forgery-check/internal/workflow"
)

const subscriberBuffer = 32

// Type discriminates hub messages.
type Type string

const (
	TypeState        Type = "state"
	TypeNotification Type = "notification"
)

// Event is one message sent to subscribers.
type Event struct {
	Type         Type                   `json:"type"`
	View         *render.View           `json:"view,omitempty"`
	Notification *workflow.Notification `json:"notification,omitempty"`
}

// Hub broadcasts events to subscribers. A subscriber that falls behind loses
// messages instead of blocking the workflow.
type Hub struct {
	logger *zap.Logger

	mu          sync.Mutex
	subscribers map[chan []byte]struct{}
}

// NewHub returns a hub with no subscribers.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{logger: logger.Named("events"), subscribers: make(map[chan []byte]struct{})}
}

// StateChanged implements workflow.Observer.
func (h *Hub) StateChanged(s workflow.Snapshot) {
	view := render.Render(s)
	h.publish(Event{Type: TypeState, View: &view})
}

// Notify implements workflow.Notifier.
func (h *Hub) Notify(n workflow.Notification) {
	h.publish(Event{Type: TypeNotification, Notification: &n})
}

// Subscribe returns a channel of encoded events.
func (h *Hub) Subscribe() chan []byte {
	ch := make(chan []byte, subscriberBuffer)
	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

// Unsubscribe removes and closes ch.
func (h *Hub) Unsubscribe(ch chan []byte) {
	h.mu.Lock()
	if _, ok := h.subscribers[ch]; ok {
		delete(h.subscribers, ch)
		close(ch)
	}
	h.mu.Unlock()
}

func (h *Hub) publish(e Event) {
	msg, err := json.Marshal(e)
	if err != nil {
		h.logger.Error("failed to encode event", zap.Error(err), zap.String("type", string(e.Type)))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subscribers {
		select {
		case ch <- msg:
		default:
			h.logger.Warn("dropping event for slow subscriber", zap.String("type", string(e.Type)))
		}
	}
}
