// Package server is the WebSocket transport of the relay.
//
// It upgrades HTTP requests on /ws, runs one read pump and one write pump
// per connection, and hands every inbound frame to the relay core. Health
// and stats endpoints sit next to the upgrade handler on the same mux.
package server
