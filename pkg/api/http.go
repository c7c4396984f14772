// Package api is the authoritative side of the sync contract: HTTP
// endpoints that replay client mutation batches through the shared mutator
// registry, serve reconciliation diffs, and poke stale channels.
package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"tripsync/pkg/mutate"
	"tripsync/pkg/poke"
	"tripsync/pkg/store"
	"tripsync/pkg/telemetry"
)

// Server wires the sync endpoints over an authoritative store.
type Server struct {
	st      *store.Store
	reg     *mutate.Registry
	hub     *poke.Hub
	limiter *limiterPool
}

// New constructs a server. rl configures per-client rate limiting; zero
// values fall back to defaults.
func New(st *store.Store, reg *mutate.Registry, hub *poke.Hub, rl RateLimit) *Server {
	return &Server{
		st:      st,
		reg:     reg,
		hub:     hub,
		limiter: newLimiterPool(rl),
	}
}

// Hub returns the poke hub so callers can fan out additional signals.
func (s *Server) Hub() *poke.Hub { return s.hub }

// Router returns the HTTP handler tree.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", telemetry.Handler()).Methods(http.MethodGet)

	sync := r.PathPrefix("/sync").Subrouter()
	sync.Use(s.logRequests, s.rateLimit)
	sync.HandleFunc("/push", s.handlePush).Methods(http.MethodPost)
	sync.HandleFunc("/pull", s.handlePull).Methods(http.MethodPost)
	sync.Handle("/poke", s.hub).Methods(http.MethodGet)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if !s.st.Ready() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"store not ready"}`))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
