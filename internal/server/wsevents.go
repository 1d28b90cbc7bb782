package server

import (
	"log/slog"
	"net/http"
	"time"

	"nhooyr.io/websocket"
)

// handleEventsWS is the WebSocket twin of the SSE stream, for clients
// behind proxies that buffer SSE. Auth via token query parameter.
func handleEventsWS(logger *slog.Logger, broker *Broker, store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := playerFromRequest(r, store)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid session token")
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			logger.Error("websocket accept failed", "error", err)
			return
		}
		defer conn.CloseNow()

		ctx := r.Context()

		teamCh := broker.Subscribe(sess.TeamID)
		defer broker.Unsubscribe(sess.TeamID, teamCh)
		broadcastCh := broker.Subscribe(topicBroadcast)
		defer broker.Unsubscribe(topicBroadcast, broadcastCh)

		ping := time.NewTicker(30 * time.Second)
		defer ping.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case data := <-teamCh:
				if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
					logger.Debug("websocket write failed", "error", err)
					return
				}
			case data := <-broadcastCh:
				if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
					logger.Debug("websocket write failed", "error", err)
					return
				}
			case <-ping.C:
				if err := conn.Ping(ctx); err != nil {
					logger.Debug("websocket ping failed", "error", err)
					return
				}
			}
		}
	}
}
