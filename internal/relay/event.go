package relay

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	// TypeJoin is the inbound frame type that binds a display name.
	TypeJoin = "join"
	// TypeMessage is used for inbound chat frames and every outbound notice.
	TypeMessage = "message"

	// SystemSender is the sender label of join and leave notices.
	SystemSender = "system"
	// FallbackSender is used for connections that never joined.
	FallbackSender = "Anonymous"
)

var validate = validator.New()

// Frame is an inbound client frame. Only the fields relevant to Type are
// read; a client supplied sender is never decoded.
type Frame struct {
	Type     string `json:"type" validate:"required"`
	Username string `json:"username"`
	Content  string `json:"content"`
}

// Notice is the only payload ever broadcast to peers.
type Notice struct {
	Type      string `json:"type"`
	Sender    string `json:"sender"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
}

// NewNotice builds an outbound notice stamped with at in epoch milliseconds.
func NewNotice(sender, content string, at time.Time) Notice {
	return Notice{
		Type:      TypeMessage,
		Sender:    sender,
		Content:   content,
		Timestamp: at.UnixMilli(),
	}
}

// DecodeFrame parses a raw inbound frame. Every failure wraps
// ErrMalformedFrame.
func DecodeFrame(raw []byte) (Frame, error) {
	var frame Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return Frame{}, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	if err := validate.Struct(frame); err != nil {
		return Frame{}, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	switch frame.Type {
	case TypeJoin, TypeMessage:
		return frame, nil
	default:
		return Frame{}, fmt.Errorf("%w: %q", ErrUnknownEventType, frame.Type)
	}
}

func joinedText(name string) string {
	return name + " has joined the chat"
}

func leftText(name string) string {
	return name + " has left the chat"
}
