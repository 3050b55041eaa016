package server

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Stats is the body of the /stats endpoint.
type Stats struct {
	Connections  int      `json:"connections"`
	Participants []string `json:"participants"`
}

// WebSocketHandler upgrades the request and attaches the new connection to
// the relay. The connection receives broadcasts before it joins.
func (s *Server) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("WebSocket upgrade failed", "addr", r.RemoteAddr, "error", err)
		return
	}

	s.serve(NewClient(conn, s.relay, r.RemoteAddr, s.cfg, s.log))
}

// HealthHandler reports that the process is up.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprint(w, "Relay is running!")
}

// StatsHandler reports the number of open connections and the names of
// joined participants.
func (s *Server) StatsHandler(w http.ResponseWriter, _ *http.Request) {
	registry := s.relay.Registry()
	stats := Stats{
		Connections:  registry.Len(),
		Participants: registry.Names(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(stats); err != nil {
		s.log.Error("Error writing stats response", "error", err)
	}
}
