// Package transport provides the long-lived, message-oriented connections
// that carry STOMP frames between the monitor and its two downstream
// counterparts: the network-events feed and quiet-route-plan clients.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package transport

import (
	"context"
	"sync"

	"github.com/livetransit/network-monitor/cmn/cos"
)

// MockConn is an in-process Conn with no socket underneath it, the
// message-transport analogue of the dry-run mode the object-streaming
// transport used to load-test without a live HTTP client. Two MockConns
// created via NewMockPair feed each other directly. Unlike WSConn, Send is
// synchronous: it runs the peer's receive callback on the caller's
// goroutine and returns that callback's error.
type MockConn struct {
	id      string
	peer    *MockConn
	mu      sync.Mutex
	onMsg   RecvFunc
	onDisc  DisconnectFunc
	closed  bool
	Sent    [][]byte // every message handed to Send, in order; test introspection
}

var _ Conn = (*MockConn)(nil)

// NewMockPair returns two connected MockConns: messages sent on one arrive,
// synchronously, as a receive callback on the other.
func NewMockPair() (a, b *MockConn) {
	a = &MockConn{id: cos.GenUUID()}
	b = &MockConn{id: cos.GenUUID()}
	a.peer, b.peer = b, a
	return
}

func (c *MockConn) ID() string { return c.id }

func (c *MockConn) OnMessage(f RecvFunc) {
	c.mu.Lock()
	c.onMsg = f
	c.mu.Unlock()
}

func (c *MockConn) OnDisconnect(f DisconnectFunc) {
	c.mu.Lock()
	c.onDisc = f
	c.mu.Unlock()
}

func (c *MockConn) Send(msg []byte) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrConnClosed
	}
	c.Sent = append(c.Sent, msg)
	peer := c.peer
	c.mu.Unlock()

	peer.mu.Lock()
	onMsg := peer.onMsg
	peer.mu.Unlock()
	if onMsg == nil {
		return nil
	}
	return onMsg(msg)
}

func (c *MockConn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	onDisc := c.onDisc
	c.mu.Unlock()
	if onDisc != nil {
		onDisc(nil)
	}
	return nil
}

// MockDialer hands out one side of a NewMockPair per Dial call, feeding the
// other side to onAccept as if it had arrived on a registered endpoint —
// useful for exercising a full client+server session pair in one test
// process without a listener.
type MockDialer struct {
	OnAccept func(Conn)
}

func (d *MockDialer) Dial(_ context.Context, _ string) (Conn, error) {
	client, server := NewMockPair()
	if d.OnAccept != nil {
		d.OnAccept(server)
	}
	return client, nil
}
