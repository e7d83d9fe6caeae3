package client_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/livetransit/network-monitor/stomp"
	"github.com/livetransit/network-monitor/stomp/client"
	"github.com/livetransit/network-monitor/transport"
)

// scriptedServer plays the server half of the STOMP handshake and a single
// subscription over a transport.MockConn, without pulling in the server
// package under test elsewhere.
func scriptedServer(server transport.Conn) {
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
			_ = server.Send(stomp.New(stomp.CmdMESSAGE, []byte(`{"ok":true}`),
				stomp.HdrSubscription, id,
				stomp.HdrMessageID, "m-1",
				stomp.HdrDestination, dest,
			).Emit())
		}
		return nil
	})
}

var _ = Describe("Session", func() {
	It("connects, subscribes, and dispatches a message", func() {
		dialer := &transport.MockDialer{OnAccept: scriptedServer}
		sess := client.New(dialer, "mock://network-events", "localhost")

		connected := make(chan client.Code, 1)
		sess.Connect(context.Background(), "user", "pass",
			func(code client.Code) { connected <- code },
			nil,
			func(client.Code) {},
		)
		Eventually(connected, time.Second).Should(Receive(Equal(client.Ok)))

		subscribed := make(chan string, 1)
		messages := make(chan string, 1)
		id := sess.Subscribe("/passengers",
			func(code client.Code, subID string) {
				Expect(code).To(Equal(client.Ok))
				subscribed <- subID
			},
			func(code client.Code, body string) {
				Expect(code).To(Equal(client.Ok))
				messages <- body
			},
		)
		Expect(id).NotTo(BeEmpty())
		Eventually(subscribed, time.Second).Should(Receive(Equal(id)))
		Eventually(messages, time.Second).Should(Receive(Equal(`{"ok":true}`)))
	})

	It("returns an empty subscription id from Subscribe when not connected", func() {
		dialer := &transport.MockDialer{}
		sess := client.New(dialer, "mock://network-events", "localhost")
		id := sess.Subscribe("/passengers", nil, nil)
		Expect(id).To(BeEmpty())
	})
})
