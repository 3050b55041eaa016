//go:generate go run go.uber.org/mock/mockgen -source=peer.go -destination=../mocks/mock_peer.go -package=mocks
package relay

import "github.com/google/uuid"

// ConnID identifies one live connection in the registry.
type ConnID uuid.UUID

// NewConnID returns a fresh random connection handle.
func NewConnID() ConnID {
	return ConnID(uuid.New())
}

func (id ConnID) String() string {
	return uuid.UUID(id).String()
}

// Peer is the outbound write capability of a connection.
//
// Send must not block. It reports false when the connection is closing or
// cannot take the frame right now, in which case the frame is dropped for
// that peer only.
type Peer interface {
	Send(frame []byte) bool
}
