package relay

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedFrame is returned when an inbound frame cannot be decoded
	// into a known event. The connection that sent it stays open.
	ErrMalformedFrame = errors.New("malformed frame")

	// ErrUnknownEventType wraps ErrMalformedFrame for frames whose type is
	// neither join nor message.
	ErrUnknownEventType = fmt.Errorf("%w: unknown event type", ErrMalformedFrame)
)
