package transport_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/livetransit/network-monitor/transport"
)

func TestMockConnDeliversToPeer(t *testing.T) {
	a, b := transport.NewMockPair()
	received := make(chan string, 1)
	b.OnMessage(func(msg []byte) error {
		received <- string(msg)
		return nil
	})

	require.NoError(t, a.Send([]byte("hello")))
	require.Equal(t, "hello", <-received)
	require.Equal(t, [][]byte{[]byte("hello")}, a.Sent)
}

func TestMockConnSendAfterCloseFails(t *testing.T) {
	a, b := transport.NewMockPair()
	_ = b
	require.NoError(t, a.Close())
	require.ErrorIs(t, a.Send([]byte("too late")), transport.ErrConnClosed)
}

func TestMockConnCloseInvokesOnDisconnect(t *testing.T) {
	a, _ := transport.NewMockPair()
	done := make(chan struct{})
	a.OnDisconnect(func(err error) {
		require.NoError(t, err)
		close(done)
	})
	require.NoError(t, a.Close())
	<-done
}

func TestHandleAndUnhandle(t *testing.T) {
	const endpoint = "/test-endpoint"
	accepted := make(chan transport.Conn, 1)
	require.NoError(t, transport.Handle(endpoint, func(c transport.Conn) { accepted <- c }))
	defer transport.Unhandle(endpoint)

	require.Error(t, transport.Handle(endpoint, func(transport.Conn) {}))

	dialer := &transport.MockDialer{OnAccept: func(c transport.Conn) { accepted <- c }}
	_, err := dialer.Dial(context.Background(), endpoint)
	require.NoError(t, err)
	<-accepted
}
