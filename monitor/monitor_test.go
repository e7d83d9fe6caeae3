package monitor_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/livetransit/network-monitor/config"
	"github.com/livetransit/network-monitor/monitor"
	"github.com/livetransit/network-monitor/stomp"
	"github.com/livetransit/network-monitor/transport"
)

const sampleLayout = `{
  "stations": [
    {"station_id": "a", "name": "Alpha"},
    {"station_id": "b", "name": "Bravo"},
    {"station_id": "c", "name": "Charlie"}
  ],
  "lines": [
    {"line_id": "L1", "name": "Line One", "routes": [
      {"route_id": "R1", "line_id": "L1", "start_station_id": "a", "end_station_id": "c", "route_stops": ["a", "b", "c"]}
    ]}
  ],
  "travel_times": [
    {"start_station_id": "a", "end_station_id": "b", "travel_time": 5},
    {"start_station_id": "b", "end_station_id": "c", "travel_time": 5}
  ]
}`

// writeSelfSignedCA writes a throwaway self-signed PEM certificate to path,
// satisfying layout.LoadCABundle's parser without touching any real CA.
func writeSelfSignedCA(path string) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	Expect(err).NotTo(HaveOccurred())
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "transit-monitor-test"},
		NotBefore:    time.Now(),
		NotAfter:     time.Now().Add(time.Hour),
		IsCA:         true,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	Expect(err).NotTo(HaveOccurred())
	f, err := os.Create(path)
	Expect(err).NotTo(HaveOccurred())
	defer f.Close()
	Expect(pem.Encode(f, &pem.Block{Type: "CERTIFICATE", Bytes: der})).To(Succeed())
}

// scriptedUpstream plays the network-events feed's server half: a STOMP
// handshake, then a RECEIPT and one passenger-event MESSAGE per SUBSCRIBE.
func scriptedUpstream(server transport.Conn) {
	server.OnMessage(func(raw []byte) error {
		f, err := stomp.Parse(raw)
		if err != nil {
			return nil
		}
		switch f.Command {
		case stomp.CmdSTOMP:
			_ = server.Send(stomp.New(stomp.CmdCONNECTED, nil, stomp.HdrVersion, "1.2").Emit())
		case stomp.CmdSUBSCRIBE:
			id, _ := f.Header(stomp.HdrID)
			dest, _ := f.Header(stomp.HdrDestination)
			_ = server.Send(stomp.New(stomp.CmdRECEIPT, nil, stomp.HdrReceiptID, id).Emit())
			_ = server.Send(stomp.New(stomp.CmdMESSAGE,
				[]byte(`{"station_id":"a","passenger_event":"in","datetime":"2026-08-01T12:00:00Z"}`),
				stomp.HdrSubscription, id,
				stomp.HdrMessageID, "m-1",
				stomp.HdrDestination, dest,
			).Emit())
		}
		return nil
	})
}

func newConfiguredMonitor(dialer transport.Dialer) (*monitor.Monitor, *config.Config) {
	dir, err := os.MkdirTemp("", "transit-monitor-test")
	Expect(err).NotTo(HaveOccurred())

	caPath := filepath.Join(dir, "ca.pem")
	writeSelfSignedCA(caPath)

	layoutPath := filepath.Join(dir, "network-layout.json")
	Expect(os.WriteFile(layoutPath, []byte(sampleLayout), 0o644)).To(Succeed())

	cfg := &config.Config{
		UpstreamHost:   "upstream.example",
		UpstreamPort:   443,
		Username:       "user",
		Password:       "pass",
		CACertFile:     caPath,
		LayoutFile:     layoutPath,
		QuietHostname:  "localhost",
		QuietPort:      8042,
		MaxSlowdownPc:  0.5,
		MinQuietnessPc: 0.01,
		MaxNPaths:      20,
	}

	mon := monitor.New()
	code := mon.Configure(context.Background(), cfg, dialer)
	Expect(code).To(Equal(monitor.Ok))
	return mon, cfg
}

var _ = Describe("Monitor", func() {
	It("subscribes to passenger events and applies them to the network", func() {
		dialer := &transport.MockDialer{OnAccept: scriptedUpstream}
		mon, _ := newConfiguredMonitor(dialer)

		done := make(chan struct{})
		go func() {
			mon.Run(context.Background())
			close(done)
		}()

		Eventually(func() int64 {
			c, _ := mon.Network().GetPassengerCount("a")
			return c
		}, time.Second).Should(BeEquivalentTo(1))
		Eventually(func() monitor.Code { return mon.LastError() }, time.Second).Should(Equal(monitor.Ok))

		mon.Stop()
		Eventually(done, time.Second).Should(BeClosed())
	})

	It("answers a quiet-route request over the downstream server", func() {
		mon, cfg := newConfiguredMonitor(&transport.MockDialer{})

		client, serverSide := transport.NewMockPair()
		transport.Accept("/quiet-route", serverSide)

		replies := make(chan *stomp.Frame, 4)
		client.OnMessage(func(raw []byte) error {
			f, err := stomp.Parse(raw)
			Expect(err).NotTo(HaveOccurred())
			replies <- f
			return nil
		})

		handshake := stomp.New(stomp.CmdSTOMP, nil,
			stomp.HdrAcceptVersion, "1.2",
			stomp.HdrHost, cfg.QuietHostname,
		)
		Expect(client.Send(handshake.Emit())).To(Succeed())
		var connected *stomp.Frame
		Eventually(replies, time.Second).Should(Receive(&connected))
		Expect(connected.Command).To(Equal(stomp.CmdCONNECTED))

		req := stomp.New(stomp.CmdSEND, []byte(`{"start_station_id":"a","end_station_id":"c"}`),
			stomp.HdrDestination, "/quiet-route",
			stomp.HdrID, "req-1",
		)
		Expect(client.Send(req.Emit())).To(Succeed())

		var resp *stomp.Frame
		Eventually(replies, time.Second).Should(Receive(&resp))
		Expect(resp.Command).To(Equal(stomp.CmdSEND))
		id, _ := resp.Header(stomp.HdrID)
		Expect(id).To(Equal("req-1"))

		route := mon.LastTravelRoute()
		Expect(route.StartStationID).To(Equal("a"))
		Expect(route.EndStationID).To(Equal("c"))
		Expect(route.TotalTravelTime).To(BeEquivalentTo(10))
	})
})
