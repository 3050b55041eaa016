package relay

import (
	"log/slog"
	"time"
)

// Option configures a Relay.
type Option func(*Relay)

// WithClock overrides the clock used to stamp notices.
func WithClock(now func() time.Time) Option {
	return func(r *Relay) {
		r.now = now
	}
}

// Relay ties the registry and the dispatcher to the lifecycle of each
// connection: Connect, then any number of Handle calls, then Disconnect.
// It is safe for concurrent use by every connection's worker.
type Relay struct {
	registry   *Registry
	dispatcher *Dispatcher
	log        *slog.Logger
	now        func() time.Time
}

// New creates a Relay with an empty registry.
func New(log *slog.Logger, opts ...Option) *Relay {
	registry := NewRegistry()
	r := &Relay{
		registry:   registry,
		dispatcher: NewDispatcher(registry, log),
		log:        log,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Registry exposes the registry for inspection.
func (r *Relay) Registry() *Registry {
	return r.registry
}

// Connect registers a newly accepted connection under a fresh handle.
func (r *Relay) Connect(peer Peer) ConnID {
	id := NewConnID()
	r.Attach(id, peer)
	return id
}

// Attach registers peer under a handle chosen by the caller.
func (r *Relay) Attach(id ConnID, peer Peer) {
	r.registry.Attach(id, peer)
	r.log.Debug("Connection attached", "conn_id", id, "connections", r.registry.Len())
}

// Handle processes one inbound frame from id. A malformed frame returns an
// error wrapping ErrMalformedFrame and has no other effect.
func (r *Relay) Handle(id ConnID, raw []byte) error {
	frame, err := DecodeFrame(raw)
	if err != nil {
		return err
	}

	switch frame.Type {
	case TypeJoin:
		r.Join(id, frame.Username)
	case TypeMessage:
		r.Say(id, frame.Content)
	}
	return nil
}

// Join binds name to id, overwriting any earlier binding, and announces it.
func (r *Relay) Join(id ConnID, name string) {
	r.registry.Bind(id, name)
	r.log.Info("Participant joined", "conn_id", id, "name", name)
	r.dispatcher.Broadcast(NewNotice(SystemSender, joinedText(name), r.now()))
}

// Say broadcasts content on behalf of id using the registry-resolved name.
func (r *Relay) Say(id ConnID, content string) {
	r.dispatcher.Broadcast(NewNotice(r.registry.Resolve(id), content, r.now()))
}

// Disconnect removes id and announces the departure using the name bound
// at close time, or FallbackSender when the connection never joined.
// Calling it again for the same id does nothing.
func (r *Relay) Disconnect(id ConnID) {
	name, bound, present := r.registry.detach(id)
	if !present {
		return
	}
	if !bound {
		name = FallbackSender
	}

	r.log.Info("Participant left", "conn_id", id, "name", name, "joined", bound)
	r.dispatcher.Broadcast(NewNotice(SystemSender, leftText(name), r.now()))
}

// Broadcast sends a system notice with the given content to every peer.
func (r *Relay) Broadcast(content string) int {
	return r.dispatcher.Broadcast(NewNotice(SystemSender, content, r.now()))
}
