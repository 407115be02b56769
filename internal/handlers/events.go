package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/example/forgery-check/internal/events"
	"github.com/example/forgery-check/internal/render"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// streamEvents streams hub messages over a websocket, starting with the current
// state so a freshly opened page can render immediately.
func (r *routes) streamEvents(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		r.Logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ch := r.Hub.Subscribe()
	defer r.Hub.Unsubscribe(ch)

	view := render.Render(r.Controller.Snapshot())
	initial, err := json.Marshal(events.Event{Type: events.TypeState, View: &view})
	if err != nil {
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, initial); err != nil {
		return
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
