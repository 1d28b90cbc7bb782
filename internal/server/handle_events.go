package server

import (
	"fmt"
	"net/http"
	"time"
)

// handleEvents streams a team's events over SSE. EventSource cannot set
// headers, so the session token arrives as a query parameter.
func handleEvents(broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := playerFrom(r)

		streamEvents(w, r, broker, sess.TeamID, topicBroadcast)
	}
}

// handleFirehose streams every event to a coordinator dashboard.
func handleFirehose(broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		streamEvents(w, r, broker, topicFirehose)
	}
}

func streamEvents(w http.ResponseWriter, r *http.Request, broker *Broker, keys ...string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	flusher.Flush()

	// Fan the subscribed keys into one channel for the write loop.
	merged := make(chan []byte, 16)
	for _, key := range keys {
		ch := broker.Subscribe(key)
		defer broker.Unsubscribe(key, ch)
		go func(ch chan []byte) {
			for {
				select {
				case <-r.Context().Done():
					return
				case data := <-ch:
					select {
					case merged <- data:
					default:
					}
				}
			}
		}(ch)
	}

	ping := time.NewTicker(30 * time.Second)
	defer ping.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case data := <-merged:
			fmt.Fprintf(w, "event: hunt\ndata: %s\n\n", data)
			flusher.Flush()
		case <-ping.C:
			fmt.Fprintf(w, ": ping\n\n")
			flusher.Flush()
		}
	}
}
