// Package client drives the upstream STOMP feed: one outbound connection,
// a STOMP/CONNECTED handshake, and subscription-keyed message dispatch.
// Grounded on the readLoop/processLoop split in
// github.com/mschneider82/stomp's server-side Conn (adapted to the client
// direction) and on transport's own split between a transport I/O
// goroutine and the user-callback dispatch it hands frames to.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package client

// Code enumerates every outcome a client-facing callback can report, one
// value per named StompClientError in the system this package implements.
type Code int

const (
	Ok Code = iota
	UndefinedError
	CouldNotCloseWebsocketConnection
	CouldNotConnectToWebsocketServer
	CouldNotParseMessageAsStompFrame
	CouldNotSendStompFrame
	CouldNotSendSubscribeFrame
	UnexpectedCouldNotCreateValidFrame
	UnexpectedMessageContentType
	UnexpectedSubscriptionMismatch
	WebsocketServerDisconnected
)

var codeNames = [...]string{
	"Ok",
	"UndefinedError",
	"CouldNotCloseWebsocketConnection",
	"CouldNotConnectToWebsocketServer",
	"CouldNotParseMessageAsStompFrame",
	"CouldNotSendStompFrame",
	"CouldNotSendSubscribeFrame",
	"UnexpectedCouldNotCreateValidFrame",
	"UnexpectedMessageContentType",
	"UnexpectedSubscriptionMismatch",
	"WebsocketServerDisconnected",
}

func (c Code) String() string {
	if int(c) < 0 || int(c) >= len(codeNames) {
		return "UndefinedError"
	}
	return codeNames[c]
}
