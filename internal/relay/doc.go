// Package relay implements the connection registry, broadcast dispatcher,
// and per-connection lifecycle of the chat relay.
//
// The package is transport agnostic: a connection is an opaque ConnID plus
// a Peer that can accept encoded frames. The WebSocket transport in
// internal/server is one such collaborator; tests use in-memory peers.
package relay
