package relay

import (
	"encoding/json"
	"log/slog"
)

// PeerSource yields the peers a broadcast is delivered to.
type PeerSource interface {
	All() []Peer
}

// Dispatcher fans a notice out to every peer of its source. It keeps no
// state of its own: nothing is queued or retried.
type Dispatcher struct {
	peers PeerSource
	log   *slog.Logger
}

// NewDispatcher creates a Dispatcher reading peers from source.
func NewDispatcher(source PeerSource, log *slog.Logger) *Dispatcher {
	return &Dispatcher{peers: source, log: log}
}

// Broadcast encodes notice once and offers the frame to every peer in the
// current snapshot. Peers that refuse the frame are skipped. It returns the
// number of peers that accepted it.
func (d *Dispatcher) Broadcast(notice Notice) int {
	frame, err := json.Marshal(notice)
	if err != nil {
		d.log.Error("Unable to encode notice", "sender", notice.Sender, "error", err)
		return 0
	}

	peers := d.peers.All()
	delivered := 0
	for _, peer := range peers {
		if d.safeSend(peer, frame) {
			delivered++
		}
	}

	d.log.Debug("Broadcast notice",
		"sender", notice.Sender,
		"targets", len(peers),
		"delivered", delivered)
	return delivered
}

func (d *Dispatcher) safeSend(peer Peer, frame []byte) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("Recovered from panic while sending to peer", "panic", r)
			ok = false
		}
	}()
	return peer.Send(frame)
}
