package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// KeepAliveInterval is how often an idle stream gets a comment line.
const KeepAliveInterval = 30 * time.Second

type connected struct {
	ClientID string `json:"client_id"`
	Filter   string `json:"filter"`
}

// ServeSSE streams the hub's messages matching filter to w until the
// request is cancelled or the hub stops.
func ServeSSE(hub *Hub, w http.ResponseWriter, r *http.Request, clientID, filter string) {
	if filter != "" && !ValidFilter(filter) {
		http.Error(w, "invalid filter pattern", http.StatusBadRequest)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	// Streams outlive the server's write timeout.
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
		hub.log.Debug("could not clear write deadline", map[string]interface{}{"client_id": clientID, "error": err.Error()})
	}

	client := NewClient(clientID, filter)
	if !hub.Register(client) {
		http.Error(w, "stream closed", http.StatusServiceUnavailable)
		return
	}
	defer hub.Unregister(client)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	hello, _ := json.Marshal(connected{ClientID: clientID, Filter: client.filter})
	_, _ = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", EventConnected, hello)
	flusher.Flush()

	keepAlive := time.NewTicker(KeepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case data, ok := <-client.Events():
			if !ok {
				return
			}
			_, _ = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", EventMessage, data)
			flusher.Flush()
		case <-keepAlive.C:
			_, _ = fmt.Fprintf(w, ": keepalive %d\n\n", time.Now().Unix())
			flusher.Flush()
		}
	}
}
