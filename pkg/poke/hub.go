// Package poke implements the invalidation channel: an SSE hub on the
// server and a long-lived listener on the client. Poke payloads carry no
// data; they are only a hint that the named channel's replicas may be
// stale and should pull.
package poke

import (
	"net/http"
	"sync"

	"tripsync/pkg/logger"
	"tripsync/pkg/telemetry"
)

// Hub fans empty invalidation signals out to SSE subscribers keyed by a
// logical channel name ("user/<id>", "trip/<id>").
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[chan struct{}]struct{}
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[chan struct{}]struct{})}
}

// Subscribe registers a subscriber on channel and returns its signal
// stream plus a cancel func. The stream has a one-slot buffer: pokes
// arriving while one is already pending coalesce, which is safe because a
// poke carries no payload.
func (h *Hub) Subscribe(channel string) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	h.mu.Lock()
	set, ok := h.subs[channel]
	if !ok {
		set = make(map[chan struct{}]struct{})
		h.subs[channel] = set
	}
	set[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if set, ok := h.subs[channel]; ok {
			delete(set, ch)
			if len(set) == 0 {
				delete(h.subs, channel)
			}
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Poke signals every subscriber of channel without blocking.
func (h *Hub) Poke(channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[channel] {
		select {
		case ch <- struct{}{}:
			telemetry.Pokes.Inc()
		default:
			// a poke is already pending for this subscriber
		}
	}
}

// Channels returns the number of channels with live subscribers.
func (h *Hub) Channels() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// ServeHTTP streams pokes for ?channel=<name> as server-sent events until
// the client disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	channel := r.URL.Query().Get("channel")
	if channel == "" {
		http.Error(w, `{"error":"channel required"}`, http.StatusBadRequest)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, `{"error":"streaming unsupported"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	// open the stream so clients see the subscription immediately
	_, _ = w.Write([]byte(": connected\n\n"))
	flusher.Flush()

	signals, cancel := h.Subscribe(channel)
	defer cancel()
	logger.Debug("poke_subscribed", "channel", channel, "remote", r.RemoteAddr)

	for {
		select {
		case <-r.Context().Done():
			logger.Debug("poke_unsubscribed", "channel", channel, "remote", r.RemoteAddr)
			return
		case <-signals:
			if _, err := w.Write([]byte("data: {}\n\n")); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
