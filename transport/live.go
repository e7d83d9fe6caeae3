// Package transport provides the long-lived, message-oriented connections
// that carry STOMP frames between the monitor and its two downstream
// counterparts: the network-events feed and quiet-route-plan clients.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package transport

import (
	"context"
	"crypto/tls"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/livetransit/network-monitor/cmn/cos"
	"github.com/livetransit/network-monitor/cmn/nlog"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 1 << 20 // 1MB: generous for a STOMP frame carrying a handful of passenger events
)

// WSConn is the live Conn implementation: a websocket.Conn plus the
// SQ/SCQ goroutine pair (sendLoop writes, recvLoop reads) the object-
// streaming transport used for its HTTP streams, adapted to a framed,
// bidirectional websocket instead of one-way chunked HTTP.
type WSConn struct {
	id         string
	ws         *websocket.Conn
	sendCh     chan []byte
	closeOnce  sync.Once
	closed     chan struct{}
	onMsg      RecvFunc
	onDisc     DisconnectFunc
	collector  *Collector
	mu         sync.Mutex
}

var _ Conn = (*WSConn)(nil)

func newWSConn(ws *websocket.Conn, gc *Collector) *WSConn {
	c := &WSConn{
		id:        cos.GenUUID(),
		ws:        ws,
		sendCh:    make(chan []byte, dfltBurstNum),
		closed:    make(chan struct{}),
		collector: gc,
	}
	ws.SetReadLimit(maxMessageSize)
	if gc != nil {
		gc.Watch(c)
	}
	go c.sendLoop()
	go c.recvLoop()
	return c
}

func (c *WSConn) ID() string { return c.id }

func (c *WSConn) OnMessage(f RecvFunc) {
	c.mu.Lock()
	c.onMsg = f
	c.mu.Unlock()
}

func (c *WSConn) OnDisconnect(f DisconnectFunc) {
	c.mu.Lock()
	c.onDisc = f
	c.mu.Unlock()
}

// Send enqueues msg onto the SQ and returns immediately; ErrConnClosed if
// the connection has already gone away.
func (c *WSConn) Send(msg []byte) error {
	select {
	case <-c.closed:
		return ErrConnClosed
	default:
	}
	select {
	case c.sendCh <- msg:
		return nil
	case <-c.closed:
		return ErrConnClosed
	}
}

func (c *WSConn) Close() error {
	c.closeOnce.Do(func() {
		close(c.closed)
		if c.collector != nil {
			c.collector.Forget(c)
		}
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait))
		_ = c.ws.Close()
	})
	return nil
}

func (c *WSConn) sendLoop() {
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()
	for {
		select {
		case msg := <-c.sendCh:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.fin(err)
				return
			}
			if c.collector != nil {
				c.collector.Touch(c)
			}
		case <-ping.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.fin(err)
				return
			}
		case <-c.closed:
			return
		}
	}
}

func (c *WSConn) recvLoop() {
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, body, err := c.ws.ReadMessage()
		if err != nil {
			c.fin(err)
			return
		}
		if c.collector != nil {
			c.collector.Touch(c)
		}
		c.mu.Lock()
		onMsg := c.onMsg
		c.mu.Unlock()
		if onMsg == nil {
			continue
		}
		if err := onMsg(body); err != nil {
			nlog.Warningf("transport: %s: receive callback: %v", c.id, err)
			c.fin(err)
			return
		}
	}
}

func (c *WSConn) fin(err error) {
	_ = c.Close()
	c.mu.Lock()
	onDisc := c.onDisc
	c.mu.Unlock()
	if onDisc != nil {
		onDisc(err)
	}
}

// LiveDialer opens outbound websocket connections, optionally over TLS.
type LiveDialer struct {
	TLSConfig *tls.Config
	Collector *Collector
}

func (d *LiveDialer) Dial(ctx context.Context, url string) (Conn, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
		TLSClientConfig:  d.TLSConfig,
	}
	ws, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return newWSConn(ws, d.Collector), nil
}

// LiveListener upgrades inbound http requests on a registered endpoint to
// websockets and hands the resulting Conn to that endpoint's AcceptFunc.
type LiveListener struct {
	Collector *Collector
	upgrader  websocket.Upgrader
}

func NewLiveListener(gc *Collector) *LiveListener {
	return &LiveListener{
		Collector: gc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// ServeHTTP implements http.Handler; mount one LiveListener per registered
// endpoint (see Handle), the way the object-streaming transport mounted one
// http.Handler per (network, trname).
func (l *LiveListener) ServeHTTP(endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, err := l.upgrader.Upgrade(w, r, nil)
		if err != nil {
			nlog.Warningf("transport: upgrade failed for %s: %v", endpoint, err)
			return
		}
		c := newWSConn(ws, l.Collector)
		dispatch(endpoint, c)
	}
}
