package monitor

import (
	"context"
	"crypto/tls"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/livetransit/network-monitor/cmn/nlog"
	"github.com/livetransit/network-monitor/config"
	"github.com/livetransit/network-monitor/layout"
	"github.com/livetransit/network-monitor/network"
	"github.com/livetransit/network-monitor/network/routeplan"
	"github.com/livetransit/network-monitor/stomp/client"
	"github.com/livetransit/network-monitor/stomp/server"
	"github.com/livetransit/network-monitor/transport"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	networkEventsEndpoint = "/network-events"
	networkLayoutEndpoint = "/network-layout.json"
	subscriptionDest      = "/passengers"
	quietRouteDest        = "/quiet-route"
)

type passengerEventDoc struct {
	StationID      string `json:"station_id"`
	PassengerEvent string `json:"passenger_event"`
	Datetime       string `json:"datetime"`
}

type quietRouteRequestDoc struct {
	StartStationID string `json:"start_station_id"`
	EndStationID   string `json:"end_station_id"`
}

type stepDoc struct {
	StationID string `json:"station_id,omitempty"`
	LineID    string `json:"line_id,omitempty"`
	RouteID   string `json:"route_id,omitempty"`
}

type travelRouteDoc struct {
	StartStationID  string    `json:"start_station_id"`
	EndStationID    string    `json:"end_station_id"`
	TotalTravelTime uint      `json:"total_travel_time"`
	Steps           []stepDoc `json:"steps"`
}

// Monitor owns one network, one upstream STOMP client, one downstream STOMP
// server, and wires the callbacks between them per the orchestrator's
// design. It is safe to query (LastError, LastTravelRoute, ConnectedClients)
// from any goroutine while Run is active.
type Monitor struct {
	cfg *config.Config

	network *network.Graph
	client  *client.Session
	srv     *server.Server

	mu               sync.Mutex
	lastErrorCode    Code
	lastTravelRoute  routeplan.TravelRoute
	connectedClients map[string]bool

	metrics *metrics

	done chan struct{}
}

// New constructs an unconfigured Monitor.
func New() *Monitor {
	return &Monitor{
		lastErrorCode:    UndefinedError,
		connectedClients: make(map[string]bool),
		metrics:          newMetrics(),
		done:             make(chan struct{}),
	}
}

// Configure validates the CA bundle and layout source, loads the network,
// constructs the client, and runs the server, which registers its accept
// handler with the transport package. The upstream client is not connected
// until Run; Configure performs no network I/O beyond the layout fetch.
func (mon *Monitor) Configure(ctx context.Context, cfg *config.Config, dialer transport.Dialer) Code {
	mon.cfg = cfg

	if _, err := os.Stat(cfg.CACertFile); err != nil {
		nlog.Errorf("monitor: missing CA bundle %s: %v", cfg.CACertFile, err)
		return MissingCaCertFile
	}
	if cfg.LayoutFile != "" {
		if _, err := os.Stat(cfg.LayoutFile); err != nil {
			nlog.Errorf("monitor: missing layout file %s: %v", cfg.LayoutFile, err)
			return MissingNetworkLayoutFile
		}
	}

	caPool, err := layout.LoadCABundle(cfg.CACertFile)
	if err != nil {
		nlog.Errorf("monitor: %v", err)
		return MissingCaCertFile
	}

	layoutPath := cfg.LayoutFile
	if layoutPath == "" {
		layoutPath = filepath.Join(os.TempDir(), "network-layout.json")
		url := fmt.Sprintf("https://%s:%d%s", cfg.UpstreamHost, cfg.UpstreamPort, networkLayoutEndpoint)
		nlog.Infof("monitor: downloading network layout from %s", url)
		if err := layout.Fetch(ctx, url, layoutPath, caPool); err != nil {
			nlog.Errorf("monitor: %v", err)
			return FailedNetworkLayoutFileDownload
		}
	}

	doc, err := layout.ReadFile(layoutPath)
	if err != nil {
		nlog.Errorf("monitor: %v", err)
		return FailedNetworkLayoutFileParsing
	}

	g, err := network.Load(doc)
	if err != nil {
		nlog.Errorf("monitor: failed to construct network: %v", err)
		return FailedTransportNetworkConstruction
	}
	mon.network = g
	mon.metrics.stationCount.Set(float64(g.StationCount()))
	mon.metrics.lineCount.Set(float64(g.LineCount()))

	upstreamURL := fmt.Sprintf("wss://%s:%d%s", cfg.UpstreamHost, cfg.UpstreamPort, networkEventsEndpoint)
	if dialer == nil {
		dialer = &transport.LiveDialer{TLSConfig: &tls.Config{RootCAs: caPool, MinVersion: tls.VersionTLS12}}
	}
	mon.client = client.New(dialer, upstreamURL, cfg.UpstreamHost)

	mon.srv = server.New(quietRouteDest, cfg.QuietHostname)
	ok, srvCode := mon.srv.Run(mon.onQuietRouteClientConnect, mon.onQuietRouteClientMessage, mon.onQuietRouteClientDisconnect, mon.onQuietRouteDisconnect)
	if !ok {
		nlog.Errorf("monitor: could not start STOMP server: %v", srvCode)
		return CouldNotStartStompServer
	}

	nlog.Infoln("monitor: successfully configured")
	mon.setLastError(Ok)
	return Ok
}

// Run connects the upstream client and blocks until Stop is called or, if
// cfg.RunDuration is nonzero, until that duration elapses.
func (mon *Monitor) Run(ctx context.Context) {
	nlog.Infoln("monitor: running")
	mon.setLastError(Ok)
	mon.client.Connect(ctx, mon.cfg.Username, mon.cfg.Password, mon.onNetworkEventsConnect, nil, mon.onNetworkEventsDisconnect)

	if mon.cfg.RunDuration > 0 {
		select {
		case <-mon.done:
		case <-time.After(mon.cfg.RunDuration):
			mon.Stop()
		}
		return
	}
	<-mon.done
}

// Stop cancels outstanding work: closes the upstream client and stops the
// downstream server, then unblocks Run.
func (mon *Monitor) Stop() {
	nlog.Infoln("monitor: stopping")
	if mon.client != nil {
		mon.client.Close(nil)
	}
	if mon.srv != nil {
		mon.srv.Stop()
	}
	select {
	case <-mon.done:
	default:
		close(mon.done)
	}
}

// LastError and LastTravelRoute expose the orchestrator's testability
// surface.
func (mon *Monitor) LastError() Code {
	mon.mu.Lock()
	defer mon.mu.Unlock()
	return mon.lastErrorCode
}

func (mon *Monitor) LastTravelRoute() routeplan.TravelRoute {
	mon.mu.Lock()
	defer mon.mu.Unlock()
	return mon.lastTravelRoute
}

func (mon *Monitor) ConnectedClients() []string {
	mon.mu.Lock()
	defer mon.mu.Unlock()
	out := make([]string, 0, len(mon.connectedClients))
	for id := range mon.connectedClients {
		out = append(out, id)
	}
	return out
}

// Network exposes the loaded graph read-only, for status/health reporting.
func (mon *Monitor) Network() *network.Graph { return mon.network }

func (mon *Monitor) setLastError(c Code) {
	mon.mu.Lock()
	mon.lastErrorCode = c
	mon.mu.Unlock()
	mon.metrics.setLastError(c)
}

// --- upstream (client) callbacks ---

func (mon *Monitor) onNetworkEventsConnect(code client.Code) {
	if code != client.Ok {
		nlog.Errorf("monitor: STOMP client connection failed: %v", code)
		mon.setLastError(CouldNotConnectToStompClient)
		mon.client.Close(nil)
		mon.srv.Stop()
		return
	}
	nlog.Infoln("monitor: STOMP client connected")

	id := mon.client.Subscribe(subscriptionDest, mon.onSubscribe, mon.onNetworkEventsMessage)
	if id == "" {
		nlog.Errorf("monitor: STOMP client subscription failed")
		mon.setLastError(CouldNotSubscribeToPassengerEvents)
		mon.client.Close(nil)
		mon.srv.Stop()
		return
	}
	mon.setLastError(Ok)
}

func (mon *Monitor) onSubscribe(code client.Code, _ string) {
	if code != client.Ok {
		nlog.Errorf("monitor: unable to subscribe to %s", subscriptionDest)
		mon.setLastError(CouldNotSubscribeToPassengerEvents)
		return
	}
	mon.setLastError(Ok)
}

func (mon *Monitor) onNetworkEventsDisconnect(code client.Code) {
	nlog.Errorf("monitor: STOMP client disconnected: %v", code)
	mon.setLastError(StompClientDisconnected)
}

func (mon *Monitor) onNetworkEventsMessage(code client.Code, body string) {
	if code != client.Ok {
		nlog.Errorf("monitor: unexpected network-events message code: %v", code)
		return
	}
	var doc passengerEventDoc
	if err := jsonAPI.Unmarshal([]byte(body), &doc); err != nil {
		nlog.Errorf("monitor: could not parse passenger event: %v", err)
		mon.setLastError(CouldNotParsePassengerEvent)
		mon.metrics.passengerEvents.WithLabelValues("parse_error").Inc()
		return
	}
	kind, ok := parseEventKind(doc.PassengerEvent)
	if !ok {
		nlog.Errorf("monitor: unrecognized passenger event kind %q", doc.PassengerEvent)
		mon.setLastError(CouldNotParsePassengerEvent)
		mon.metrics.passengerEvents.WithLabelValues("parse_error").Inc()
		return
	}
	ts, _ := time.Parse(time.RFC3339, doc.Datetime)
	if err := mon.network.RecordPassengerEvent(network.PassengerEvent{StationID: doc.StationID, Kind: kind, Timestamp: ts}); err != nil {
		nlog.Errorf("monitor: could not record passenger event: %v", err)
		mon.setLastError(CouldNotRecordPassengerEvent)
		mon.metrics.passengerEvents.WithLabelValues("record_error").Inc()
		return
	}
	mon.setLastError(Ok)
	mon.metrics.passengerEvents.WithLabelValues("ok").Inc()
}

func parseEventKind(s string) (network.EventKind, bool) {
	switch s {
	case "in":
		return network.In, true
	case "out":
		return network.Out, true
	default:
		return 0, false
	}
}

// --- downstream (server) callbacks ---

func (mon *Monitor) onQuietRouteClientConnect(code server.Code, connectionID string) {
	nlog.Infof("monitor: [%s] connected to quiet-route", connectionID)
	mon.mu.Lock()
	mon.connectedClients[connectionID] = true
	mon.mu.Unlock()
	mon.metrics.connectedClients.Set(float64(len(mon.ConnectedClients())))
	mon.setLastError(Ok)
}

// onQuietRouteClientMessage decodes a quiet-route request and replies with
// the computed TravelRoute. A malformed request or wrong destination closes
// just that connection rather than tearing down the whole server.
func (mon *Monitor) onQuietRouteClientMessage(_ server.Code, connectionID, destination, requestID string, body []byte) {
	if destination != quietRouteDest {
		nlog.Errorf("monitor: [%s] unsupported destination: %s", connectionID, destination)
		mon.srv.Close(connectionID, nil)
		mon.forgetClient(connectionID)
		return
	}

	var req quietRouteRequestDoc
	if err := jsonAPI.Unmarshal(body, &req); err != nil {
		nlog.Errorf("monitor: [%s] could not parse quiet-route request: %v", connectionID, err)
		mon.setLastError(CouldNotParseQuietRouteRequest)
		mon.srv.Close(connectionID, nil)
		mon.forgetClient(connectionID)
		return
	}

	route := mon.network.GetQuietTravelRoute(req.StartStationID, req.EndStationID,
		mon.cfg.MaxSlowdownPc, mon.cfg.MinQuietnessPc, mon.cfg.MaxNPaths)

	respBody, err := jsonAPI.Marshal(toTravelRouteDoc(route))
	if err != nil {
		nlog.Errorf("monitor: [%s] could not encode travel route: %v", connectionID, err)
		return
	}
	mon.srv.Send(connectionID, quietRouteDest, respBody, nil, requestID)

	mon.mu.Lock()
	mon.lastTravelRoute = route
	mon.mu.Unlock()
	mon.setLastError(Ok)
	mon.metrics.quietRouteReqs.Inc()
}

func (mon *Monitor) onQuietRouteClientDisconnect(_ server.Code, connectionID string) {
	nlog.Infof("monitor: [%s] disconnected from quiet-route", connectionID)
	mon.forgetClient(connectionID)
	mon.setLastError(StompServerClientDisconnected)
}

func (mon *Monitor) onQuietRouteDisconnect(code server.Code) {
	nlog.Errorf("monitor: quiet-route server disconnected: %v", code)
	mon.setLastError(StompServerDisconnected)
}

func (mon *Monitor) forgetClient(connectionID string) {
	mon.mu.Lock()
	delete(mon.connectedClients, connectionID)
	n := len(mon.connectedClients)
	mon.mu.Unlock()
	mon.metrics.connectedClients.Set(float64(n))
}

func toTravelRouteDoc(r routeplan.TravelRoute) travelRouteDoc {
	steps := make([]stepDoc, len(r.Steps))
	for i, s := range r.Steps {
		if s.Kind == routeplan.StepVisit {
			steps[i] = stepDoc{StationID: s.StationID}
		} else {
			steps[i] = stepDoc{LineID: s.LineID, RouteID: s.RouteID}
		}
	}
	return travelRouteDoc{
		StartStationID:  r.StartStationID,
		EndStationID:    r.EndStationID,
		TotalTravelTime: r.TotalTravelTime,
		Steps:           steps,
	}
}
