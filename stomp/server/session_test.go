package server_test

import (
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/livetransit/network-monitor/stomp"
	"github.com/livetransit/network-monitor/stomp/server"
	"github.com/livetransit/network-monitor/transport"
)

var _ = Describe("Server", func() {
	It("completes the handshake and fires onClientConnect", func() {
		srv := server.New("/quiet-route-handshake", "localhost")
		connected := make(chan string, 1)
		ok, code := srv.Run(
			func(c server.Code, id string) { Expect(c).To(Equal(server.Ok)); connected <- id },
			nil, nil, nil,
		)
		Expect(ok).To(BeTrue())
		Expect(code).To(Equal(server.Ok))
		defer srv.Stop()

		client, serverSide := transport.NewMockPair()
		transport.Accept("/quiet-route-handshake", serverSide)

		replies := make(chan *stomp.Frame, 4)
		client.OnMessage(func(raw []byte) error {
			f, err := stomp.Parse(raw)
			Expect(err).NotTo(HaveOccurred())
			replies <- f
			return nil
		})

		handshake := stomp.New(stomp.CmdSTOMP, nil,
			stomp.HdrAcceptVersion, "1.2",
			stomp.HdrHost, "localhost",
		)
		Expect(client.Send(handshake.Emit())).To(Succeed())

		var connID string
		Eventually(connected, time.Second).Should(Receive(&connID))
		Expect(connID).NotTo(BeEmpty())

		var reply *stomp.Frame
		Eventually(replies, time.Second).Should(Receive(&reply))
		Expect(reply.Command).To(Equal(stomp.CmdCONNECTED))
		v, _ := reply.Header(stomp.HdrSession)
		Expect(v).To(Equal(connID))
	})

	It("dispatches SEND frames to onClientMessage and replies via Send", func() {
		srv := server.New("/quiet-route-send", "localhost")
		var connID string
		connected := make(chan struct{})
		messages := make(chan []byte, 1)
		ok, _ := srv.Run(
			func(_ server.Code, id string) { connID = id; close(connected) },
			func(code server.Code, id, dest, reqID string, body []byte) {
				Expect(code).To(Equal(server.Ok))
				Expect(dest).To(Equal("/quiet-route"))
				srv.Send(id, "/quiet-route", []byte(`{"done":true}`), nil, reqID)
			},
			nil, nil,
		)
		Expect(ok).To(BeTrue())
		defer srv.Stop()

		client, serverSide := transport.NewMockPair()
		transport.Accept("/quiet-route-send", serverSide)

		replies := make(chan *stomp.Frame, 4)
		client.OnMessage(func(raw []byte) error {
			f, _ := stomp.Parse(raw)
			replies <- f
			messages <- f.Body
			return nil
		})

		handshake := stomp.New(stomp.CmdSTOMP, nil, stomp.HdrAcceptVersion, "1.2", stomp.HdrHost, "localhost")
		Expect(client.Send(handshake.Emit())).To(Succeed())
		Eventually(connected, time.Second).Should(BeClosed())
		<-replies  // CONNECTED
		<-messages // CONNECTED's empty body, so the reply's body is next

		send := stomp.New(stomp.CmdSEND, []byte(`{"start_station_id":"a"}`),
			stomp.HdrDestination, "/quiet-route",
			stomp.HdrID, "req-42",
		)
		Expect(client.Send(send.Emit())).To(Succeed())

		var body []byte
		Eventually(messages, time.Second).Should(Receive(&body))
		Expect(string(body)).To(Equal(`{"done":true}`))
		_ = connID
	})

	It("rejects a bad handshake without notifying the user", func() {
		srv := server.New("/quiet-route-badhost", "localhost")
		connected := make(chan string, 1)
		srv.Run(func(_ server.Code, id string) { connected <- id }, nil, nil, nil)
		defer srv.Stop()

		client, serverSide := transport.NewMockPair()
		transport.Accept("/quiet-route-badhost", serverSide)

		handshake := stomp.New(stomp.CmdSTOMP, nil,
			stomp.HdrAcceptVersion, "1.2",
			stomp.HdrHost, "not-localhost",
		)
		Expect(client.Send(handshake.Emit())).To(Succeed())

		Consistently(connected, 200*time.Millisecond).ShouldNot(Receive())
	})
})
