// Package transport provides the long-lived, message-oriented connections
// that carry STOMP frames between the monitor and its two downstream
// counterparts: the network-events feed and quiet-route-plan clients.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package transport

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/livetransit/network-monitor/cmn/nlog"
	"github.com/livetransit/network-monitor/hk"
)

// transport defaults
const (
	dfltBurstNum     = 128             // SQ depth: messages a caller can post without blocking
	dfltTick         = time.Second     // collector sweep period
	dfltIdleTeardown = 30 * time.Second
)

type (
	// RecvFunc is invoked, on the Conn's own receive goroutine, once per
	// inbound message. A non-nil error terminates the connection.
	RecvFunc func(msg []byte) error

	// DisconnectFunc is invoked exactly once, when a Conn's underlying
	// transport goes away, whether by local Close or peer disconnect.
	DisconnectFunc func(err error)

	// Conn is the capability every session above this package relies on,
	// whether it rides a live websocket (see live.go) or a scripted
	// in-memory mock (see mock.go). Sends are async: Send enqueues onto
	// an SQ and returns; delivery (or failure) surfaces only through
	// OnDisconnect.
	Conn interface {
		ID() string
		Send(msg []byte) error
		Close() error
		OnMessage(RecvFunc)
		OnDisconnect(DisconnectFunc)
	}

	// Dialer opens an outbound Conn; LiveDialer (live.go) and MockDialer
	// (mock.go) are its two implementations.
	Dialer interface {
		Dial(ctx context.Context, url string) (Conn, error)
	}

	// AcceptFunc is called once per accepted inbound connection on a
	// registered endpoint.
	AcceptFunc func(Conn)

	handler struct {
		endpoint string
		accept   AcceptFunc
		hkName   string
	}
)

var (
	mu       sync.Mutex
	handlers = make(map[string]*handler, 4)
)

// Handle registers accept to be called for every Conn accepted on endpoint.
// Mirrors the receive-side registration idiom (HandleObjStream/HandleMsgStream)
// the object-streaming version of this package used, narrowed to one
// accept-callback per named endpoint.
func Handle(endpoint string, accept AcceptFunc) error {
	mu.Lock()
	defer mu.Unlock()
	if _, ok := handlers[endpoint]; ok {
		return fmt.Errorf("transport: endpoint %q already registered", endpoint)
	}
	handlers[endpoint] = &handler{endpoint: endpoint, accept: accept, hkName: endpoint}
	return nil
}

// Unhandle deregisters endpoint and unregisters the housekeeper entry named
// endpoint+hk.NameSuffix; Handle itself registers no housekeeper entry.
func Unhandle(endpoint string) error {
	mu.Lock()
	h, ok := handlers[endpoint]
	if ok {
		delete(handlers, endpoint)
	}
	mu.Unlock()
	if !ok {
		return fmt.Errorf("transport: endpoint %q not registered", endpoint)
	}
	hk.Unreg(h.hkName + hk.NameSuffix)
	return nil
}

func lookup(endpoint string) (*handler, bool) {
	mu.Lock()
	defer mu.Unlock()
	h, ok := handlers[endpoint]
	return h, ok
}

// Accept feeds c to endpoint's registered AcceptFunc as if it had just been
// accepted by a LiveListener. Exported so MockConn-based tests can simulate
// an inbound connection without running an actual listener.
func Accept(endpoint string, c Conn) bool { return dispatch(endpoint, c) }

func dispatch(endpoint string, c Conn) bool {
	h, ok := lookup(endpoint)
	if !ok {
		nlog.Warningf("transport: no handler for %q, dropping connection %s", endpoint, c.ID())
		_ = c.Close()
		return false
	}
	h.accept(c)
	return true
}
