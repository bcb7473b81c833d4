package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

// taskWS pushes progress events for a task over a WebSocket. It carries the
// same events as the SSE progress endpoints for clients that prefer a socket.
func (a *App) taskWS(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "taskID")

	conn, err := a.upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	for ev := range a.watcher.Watch(ctx, id) {
		if err := conn.WriteJSON(ev); err != nil {
			return
		}
	}

	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
