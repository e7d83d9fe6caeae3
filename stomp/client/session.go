package client

import (
	"context"
	"sync"

	"github.com/livetransit/network-monitor/cmn/cos"
	"github.com/livetransit/network-monitor/cmn/nlog"
	"github.com/livetransit/network-monitor/stomp"
	"github.com/livetransit/network-monitor/transport"
)

type state int

const (
	stateIdle state = iota
	stateTransportConnecting
	stateStompConnecting
	stateConnected
)

type (
	OnConnectFunc    func(code Code)
	OnDisconnectFunc func(code Code)
	OnSubscribeFunc  func(code Code, subscriptionID string)
	OnMessageFunc    func(code Code, body string)
	OnCloseFunc      func(code Code)

	subscription struct {
		destination string
		onSubscribe OnSubscribeFunc
		onMessage   OnMessageFunc
	}

	// Session drives one upstream STOMP connection through
	// TransportConnecting -> StompConnecting -> Connected, demultiplexing
	// server frames to per-subscription callbacks. Callbacks driven by
	// inbound frames or a transport drop run on Session's own goroutine
	// (the "callback strand"), separate from the transport.Conn's own
	// send/receive goroutines (the "transport strand") — the same
	// separation a streaming I/O layer draws between its own I/O loops and
	// caller-supplied completion callbacks. The failure callbacks Connect
	// and Subscribe fire for a failed dial or send run on the caller's
	// goroutine.
	Session struct {
		dialer   transport.Dialer
		host     string
		url      string
		username string
		password string

		mu    sync.Mutex
		st    state
		conn  transport.Conn
		subs  map[string]*subscription

		onConnect    OnConnectFunc
		onDisconnect OnDisconnectFunc

		frameCh chan frameEvent
		done    chan struct{}
		wg      sync.WaitGroup
	}

	frameEvent struct {
		frame *stomp.Frame
		disc  bool
		err   error
	}
)

// New constructs a Session that will dial url (e.g. "wss://host:443/network-events")
// through dialer, presenting host as the STOMP "host" header.
func New(dialer transport.Dialer, url, host string) *Session {
	return &Session{
		dialer:  dialer,
		url:     url,
		host:    host,
		subs:    make(map[string]*subscription, 4),
		frameCh: make(chan frameEvent, 64),
		done:    make(chan struct{}),
	}
}

// Connect dials the transport, then attempts the STOMP handshake.
// onConnect fires once: with Ok on CONNECTED, or with an error code when
// the dial or the send of the STOMP frame fails. An ERROR frame or a
// transport drop while waiting for CONNECTED fires
// onDisconnect(WebsocketServerDisconnected) instead of onConnect; after
// CONNECTED, a transport drop fires onDisconnect.
func (s *Session) Connect(ctx context.Context, username, password string, onConnect OnConnectFunc, _ OnMessageFunc, onDisconnect OnDisconnectFunc) {
	s.mu.Lock()
	s.username, s.password = username, password
	s.onConnect, s.onDisconnect = onConnect, onDisconnect
	s.st = stateTransportConnecting
	s.mu.Unlock()

	s.wg.Add(1)
	go s.dispatchLoop()

	conn, err := s.dialer.Dial(ctx, s.url)
	if err != nil {
		nlog.Warningf("client: dial %s: %v", s.url, err)
		s.setState(stateIdle)
		s.fireConnect(CouldNotConnectToWebsocketServer)
		return
	}

	s.mu.Lock()
	s.conn = conn
	s.st = stateStompConnecting
	s.mu.Unlock()

	conn.OnMessage(s.onRawMessage)
	conn.OnDisconnect(s.onRawDisconnect)

	frame := stomp.New(stomp.CmdSTOMP, nil,
		stomp.HdrAcceptVersion, "1.2",
		stomp.HdrHost, s.host,
		stomp.HdrLogin, username,
		stomp.HdrPasscode, password,
	)
	if err := conn.Send(frame.Emit()); err != nil {
		nlog.Warningf("client: send STOMP frame: %v", err)
		_ = conn.Close()
		s.setState(stateIdle)
		s.fireConnect(CouldNotSendStompFrame)
	}
}

// Subscribe sends a SUBSCRIBE frame and returns the generated subscription
// id, or "" if the session isn't Connected or the send fails.
func (s *Session) Subscribe(destination string, onSubscribe OnSubscribeFunc, onMessage OnMessageFunc) string {
	s.mu.Lock()
	if s.st != stateConnected {
		s.mu.Unlock()
		return ""
	}
	id := cos.GenUUID()
	s.subs[id] = &subscription{destination: destination, onSubscribe: onSubscribe, onMessage: onMessage}
	conn := s.conn
	s.mu.Unlock()

	frame := stomp.New(stomp.CmdSUBSCRIBE, nil,
		stomp.HdrID, id,
		stomp.HdrDestination, destination,
		stomp.HdrAck, "auto",
		stomp.HdrReceipt, id,
	)
	if err := conn.Send(frame.Emit()); err != nil {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
		if onSubscribe != nil {
			onSubscribe(CouldNotSendSubscribeFrame, "")
		}
		return ""
	}
	return id
}

// Close tears down the transport; onClose fires once the teardown attempt
// completes, success or not.
func (s *Session) Close(onClose OnCloseFunc) {
	s.mu.Lock()
	conn := s.conn
	s.subs = make(map[string]*subscription)
	s.st = stateIdle
	s.mu.Unlock()

	close(s.done)
	s.wg.Wait()

	if conn == nil {
		if onClose != nil {
			onClose(Ok)
		}
		return
	}
	if err := conn.Close(); err != nil {
		if onClose != nil {
			onClose(CouldNotCloseWebsocketConnection)
		}
		return
	}
	if onClose != nil {
		onClose(Ok)
	}
}

func (s *Session) onRawMessage(raw []byte) error {
	f, err := stomp.Parse(raw)
	if err != nil {
		nlog.Warningf("client: %v", err)
		return nil // malformed server frames don't kill the transport
	}
	s.frameCh <- frameEvent{frame: f}
	return nil
}

func (s *Session) onRawDisconnect(err error) {
	select {
	case s.frameCh <- frameEvent{disc: true, err: err}:
	case <-s.done:
	}
}

func (s *Session) dispatchLoop() {
	defer s.wg.Done()
	for {
		select {
		case ev := <-s.frameCh:
			if ev.disc {
				s.handleDisconnect()
				return
			}
			s.handleFrame(ev.frame)
		case <-s.done:
			return
		}
	}
}

func (s *Session) handleFrame(f *stomp.Frame) {
	s.mu.Lock()
	st := s.st
	s.mu.Unlock()

	switch st {
	case stateStompConnecting:
		switch f.Command {
		case stomp.CmdCONNECTED:
			s.setState(stateConnected)
			s.fireConnect(Ok)
		case stomp.CmdERROR:
			s.setState(stateIdle)
			s.fireDisconnect(WebsocketServerDisconnected)
		}
	case stateConnected:
		switch f.Command {
		case stomp.CmdRECEIPT:
			s.handleReceipt(f)
		case stomp.CmdMESSAGE:
			s.handleMessage(f)
		case stomp.CmdERROR:
			body, _ := f.Header(stomp.HdrMessage)
			nlog.Warningf("client: server ERROR: %s", body)
		}
	}
}

func (s *Session) handleReceipt(f *stomp.Frame) {
	receiptID, ok := f.Header(stomp.HdrReceiptID)
	if !ok {
		return
	}
	s.mu.Lock()
	sub, ok := s.subs[receiptID]
	s.mu.Unlock()
	if !ok {
		return
	}
	if sub.onSubscribe != nil {
		sub.onSubscribe(Ok, receiptID)
	}
}

func (s *Session) handleMessage(f *stomp.Frame) {
	subID, ok := f.Header(stomp.HdrSubscription)
	if !ok {
		nlog.Warningln("client: MESSAGE frame missing subscription header, dropping")
		return
	}
	s.mu.Lock()
	sub, ok := s.subs[subID]
	s.mu.Unlock()
	if !ok {
		nlog.Warningf("client: unknown subscription %q, dropping message", subID)
		return
	}
	if dest, _ := f.Header(stomp.HdrDestination); dest != sub.destination {
		if sub.onMessage != nil {
			sub.onMessage(UnexpectedSubscriptionMismatch, "")
		}
		return
	}
	if sub.onMessage != nil {
		sub.onMessage(Ok, string(f.Body))
	}
}

func (s *Session) handleDisconnect() {
	s.setState(stateIdle)
	s.fireDisconnect(WebsocketServerDisconnected)
}

func (s *Session) setState(st state) {
	s.mu.Lock()
	s.st = st
	s.mu.Unlock()
}

func (s *Session) fireConnect(code Code) {
	s.mu.Lock()
	cb := s.onConnect
	s.mu.Unlock()
	if cb != nil {
		cb(code)
	}
}

func (s *Session) fireDisconnect(code Code) {
	s.mu.Lock()
	cb := s.onDisconnect
	s.mu.Unlock()
	if cb != nil {
		cb(code)
	}
}

// SubscriptionCount reports the number of live subscriptions.
func (s *Session) SubscriptionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}
