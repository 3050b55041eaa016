package server

import (
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/gorilla/websocket"
)

// isExpectedCloseError reports whether err is a normal consequence of a
// connection going away.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, net.ErrClosed) ||
		errors.Is(err, websocket.ErrCloseSent) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	return strings.Contains(err.Error(), "use of closed network connection")
}
