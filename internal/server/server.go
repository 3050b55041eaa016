package server

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/Tyrowin/wsrelay/internal/config"
	"github.com/Tyrowin/wsrelay/internal/relay"
	"github.com/gorilla/websocket"
)

// ShutdownNotice is broadcast to every connection before the server closes
// them.
const ShutdownNotice = "Server is shutting down"

// Server owns the HTTP listener and the WebSocket connections feeding the
// relay.
type Server struct {
	cfg      config.Config
	relay    *relay.Relay
	log      *slog.Logger
	origins  originPolicy
	upgrader websocket.Upgrader
	http     *http.Server
	wg       sync.WaitGroup
}

// New creates a Server serving r with cfg.
func New(cfg config.Config, r *relay.Relay, log *slog.Logger) *Server {
	s := &Server{
		cfg:     cfg,
		relay:   r,
		log:     log,
		origins: newOriginPolicy(cfg.Origins(), log),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.origins.checkOrigin,
	}
	s.http = CreateServer(cfg.Addr, s.Routes())
	return s
}

// Relay returns the relay core behind the server.
func (s *Server) Relay() *relay.Relay {
	return s.relay
}

// ListenAndServe blocks until the server stops. It returns
// http.ErrServerClosed after Shutdown.
func (s *Server) ListenAndServe() error {
	return StartServer(s.http, s.log)
}

// Shutdown stops accepting requests, tells every connected client, closes
// their connections and waits for all pumps to return or ctx to expire.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Initiating relay shutdown", "connections", s.relay.Registry().Len())

	if err := ShutdownServer(ctx, s.http, s.log); err != nil {
		return err
	}

	s.relay.Broadcast(ShutdownNotice)
	s.closeClients()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.log.Info("Relay shutdown completed")
		return nil
	case <-ctx.Done():
		s.log.Warn("Relay shutdown timeout reached, some connections may still be open")
		return ctx.Err()
	}
}

// closeClients closes the send side of every registered client. Each write
// pump flushes what is queued, sends a close frame and closes the socket,
// which in turn ends the read pump.
func (s *Server) closeClients() {
	peers := s.relay.Registry().All()
	for _, peer := range peers {
		if client, ok := peer.(*Client); ok {
			client.closeSend()
		}
	}
	s.log.Info("Closing client connections", "count", len(peers))
}

// serve registers client with the relay and starts its pumps.
func (s *Server) serve(client *Client) {
	s.relay.Attach(client.id, client)
	s.log.Info("Client registered",
		"conn_id", client.id,
		"addr", client.addr,
		"connections", s.relay.Registry().Len())

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		client.writePump()
	}()
	go func() {
		defer s.wg.Done()
		client.readPump()
	}()
}
