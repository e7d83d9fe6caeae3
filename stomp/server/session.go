package server

import (
	"strconv"
	"sync"

	"github.com/livetransit/network-monitor/cmn/cos"
	"github.com/livetransit/network-monitor/cmn/nlog"
	"github.com/livetransit/network-monitor/stomp"
	"github.com/livetransit/network-monitor/transport"
)

type connStatus int

const (
	statusPending connStatus = iota
	statusConnected
)

type conn struct {
	id     string
	tconn  transport.Conn
	status connStatus
	closed bool
}

type (
	OnClientConnectFunc    func(code Code, connectionID string)
	OnClientMessageFunc    func(code Code, connectionID, destination, requestID string, body []byte)
	OnClientDisconnectFunc func(code Code, connectionID string)
	OnServerDisconnectFunc func(code Code)
	OnSendFunc             func(code Code, requestID string)
	OnCloseFunc            func(code Code)

	// Server accepts downstream clients on one registered endpoint,
	// enforces the STOMP handshake before exposing them to the caller,
	// and demultiplexes SEND frames to a single message handler.
	Server struct {
		endpoint string
		host     string

		mu      sync.RWMutex
		conns   map[string]*conn
		stopped bool

		onClientConnect    OnClientConnectFunc
		onClientMessage    OnClientMessageFunc
		onClientDisconnect OnClientDisconnectFunc
		onServerDisconnect OnServerDisconnectFunc
	}
)

// New constructs a Server bound to endpoint (e.g. "/quiet-route") that will
// only accept clients presenting host as their STOMP "host" header.
func New(endpoint, host string) *Server {
	return &Server{
		endpoint: endpoint,
		host:     host,
		conns:    make(map[string]*conn, 16),
	}
}

// Run registers the server's accept handler with the transport package.
// Returns false with CouldNotStartWebsocketServer if the endpoint is
// already registered (e.g. Run called twice).
func (s *Server) Run(onClientConnect OnClientConnectFunc, onClientMessage OnClientMessageFunc, onClientDisconnect OnClientDisconnectFunc, onServerDisconnect OnServerDisconnectFunc) (bool, Code) {
	s.onClientConnect = onClientConnect
	s.onClientMessage = onClientMessage
	s.onClientDisconnect = onClientDisconnect
	s.onServerDisconnect = onServerDisconnect

	if err := transport.Handle(s.endpoint, s.onAccept); err != nil {
		nlog.Warningf("server: %v", err)
		return false, CouldNotStartWebsocketServer
	}
	return true, Ok
}

func (s *Server) onAccept(tc transport.Conn) {
	c := &conn{id: cos.GenUUID(), tconn: tc, status: statusPending}
	s.mu.Lock()
	s.conns[c.id] = c
	s.mu.Unlock()

	tc.OnMessage(func(raw []byte) error { return s.handleRaw(c, raw) })
	tc.OnDisconnect(func(err error) { s.handleDisconnect(c, err) })
}

func (s *Server) handleRaw(c *conn, raw []byte) error {
	f, err := stomp.Parse(raw)
	if err != nil {
		nlog.Warningf("server: %s: %v", c.id, err)
		s.sendError(c, err.Error())
		s.closeConn(c, CouldNotParseFrame, c.status == statusConnected)
		return nil
	}

	s.mu.RLock()
	status := c.status
	s.mu.RUnlock()

	switch status {
	case statusPending:
		s.handlePending(c, f)
	case statusConnected:
		s.handleConnected(c, f)
	}
	return nil
}

func (s *Server) handlePending(c *conn, f *stomp.Frame) {
	if f.Command != stomp.CmdSTOMP && f.Command != stomp.CmdCONNECT {
		s.closeConn(c, UnsupportedFrame, false)
		return
	}
	av, _ := f.Header(stomp.HdrAcceptVersion)
	if av != "1.2" {
		s.sendError(c, "invalid accept-version")
		s.closeConn(c, InvalidHeaderValueAcceptVersion, false)
		return
	}
	host, _ := f.Header(stomp.HdrHost)
	if host != s.host {
		s.sendError(c, "invalid host")
		s.closeConn(c, InvalidHeaderValueHost, false)
		return
	}

	s.mu.Lock()
	c.status = statusConnected
	s.mu.Unlock()

	connected := stomp.New(stomp.CmdCONNECTED, nil, stomp.HdrVersion, "1.2", stomp.HdrSession, c.id)
	if err := c.tconn.Send(connected.Emit()); err != nil {
		nlog.Warningf("server: %s: send CONNECTED: %v", c.id, err)
	}
	if s.onClientConnect != nil {
		s.onClientConnect(Ok, c.id)
	}
}

func (s *Server) handleConnected(c *conn, f *stomp.Frame) {
	switch f.Command {
	case stomp.CmdSTOMP, stomp.CmdCONNECT:
		s.sendError(c, "client cannot reconnect")
		s.closeConn(c, ClientCannotReconnect, true)
	case stomp.CmdSEND:
		dest, _ := f.Header(stomp.HdrDestination)
		reqID, _ := f.Header(stomp.HdrID)
		if s.onClientMessage != nil {
			s.onClientMessage(Ok, c.id, dest, reqID, f.Body)
		}
	default:
		s.sendError(c, "unsupported frame")
		s.closeConn(c, UnsupportedFrame, true)
	}
}

// Send assembles and sends a SEND frame to connectionID's destination.
// Returns the request id used (userRequestID if non-empty, else
// generated), or "" if connectionID is unknown or not yet Connected.
func (s *Server) Send(connectionID, destination string, body []byte, onSend OnSendFunc, userRequestID string) string {
	s.mu.RLock()
	c, ok := s.conns[connectionID]
	s.mu.RUnlock()
	if !ok || c.status != statusConnected {
		return ""
	}

	reqID := userRequestID
	if reqID == "" {
		reqID = cos.GenUUID()
	}
	frame := stomp.New(stomp.CmdSEND, body,
		stomp.HdrID, reqID,
		stomp.HdrDestination, destination,
		stomp.HdrContentType, "application/json",
		stomp.HdrContentLength, strconv.Itoa(len(body)),
	)
	if err := c.tconn.Send(frame.Emit()); err != nil {
		if onSend != nil {
			onSend(CouldNotSendMessage, reqID)
		}
		return ""
	}
	if onSend != nil {
		onSend(Ok, reqID)
	}
	return reqID
}

// Close closes one connection by id; onClose reports whether the teardown
// attempt succeeded.
func (s *Server) Close(connectionID string, onClose OnCloseFunc) {
	s.mu.RLock()
	c, ok := s.conns[connectionID]
	s.mu.RUnlock()
	if !ok {
		if onClose != nil {
			onClose(WebsocketSessionDisconnected)
		}
		return
	}
	s.closeConn(c, Ok, false)
	if onClose != nil {
		onClose(Ok)
	}
}

// Stop stops accepting new connections and closes every live connection
// without firing onClientDisconnect or onServerDisconnect.
func (s *Server) Stop() {
	s.mu.Lock()
	s.stopped = true
	conns := make([]*conn, 0, len(s.conns))
	for _, c := range s.conns {
		conns = append(conns, c)
	}
	s.conns = make(map[string]*conn)
	s.mu.Unlock()

	_ = transport.Unhandle(s.endpoint)
	for _, c := range conns {
		_ = c.tconn.Close()
	}
}

func (s *Server) handleDisconnect(c *conn, _ error) {
	s.mu.Lock()
	if s.stopped || c.closed {
		s.mu.Unlock()
		return
	}
	c.closed = true
	wasVisible := c.status == statusConnected
	delete(s.conns, c.id)
	s.mu.Unlock()

	if wasVisible && s.onClientDisconnect != nil {
		s.onClientDisconnect(WebsocketSessionDisconnected, c.id)
	}
}

// closeConn closes the transport and, if notify, removes the connection
// and fires onClientDisconnect; otherwise the connection simply vanishes,
// exactly as §4.3 requires for handshake failures the user never saw.
func (s *Server) closeConn(c *conn, code Code, notify bool) {
	s.mu.Lock()
	if c.closed {
		s.mu.Unlock()
		return
	}
	c.closed = true
	delete(s.conns, c.id)
	s.mu.Unlock()

	_ = c.tconn.Close()
	if notify && s.onClientDisconnect != nil {
		s.onClientDisconnect(code, c.id)
	}
}

func (s *Server) sendError(c *conn, msg string) {
	f := stomp.New(stomp.CmdERROR, nil, stomp.HdrMessage, msg)
	_ = c.tconn.Send(f.Emit())
}
