package transport

import "errors"

// ErrConnClosed is returned by Send once a Conn has been closed, locally or
// by the peer.
var ErrConnClosed = errors.New("transport: connection closed")
