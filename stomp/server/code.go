// Package server accepts downstream STOMP clients: validating the
// handshake, keeping a connection table, and demultiplexing SEND frames to
// a single message handler. Grounded on the accept/readLoop/processLoop
// split in github.com/mschneider82/stomp's server Conn, narrowed to the one
// accepted-destination, one-handler shape this system needs.
/*
 * Copyright (c) 2018-2023, NVIDIA CORPORATION. All rights reserved.
 */
package server

// Code enumerates every outcome a server-facing callback can report, one
// value per named StompServerError in the system this package implements.
type Code int

const (
	Ok Code = iota
	UndefinedError
	ClientCannotReconnect
	CouldNotCloseClientConnection
	CouldNotParseFrame
	CouldNotSendMessage
	CouldNotStartWebsocketServer
	InvalidHeaderValueAcceptVersion
	InvalidHeaderValueHost
	UnsupportedFrame
	WebsocketSessionDisconnected
	WebsocketServerDisconnected
)

var codeNames = [...]string{
	"Ok",
	"UndefinedError",
	"ClientCannotReconnect",
	"CouldNotCloseClientConnection",
	"CouldNotParseFrame",
	"CouldNotSendMessage",
	"CouldNotStartWebsocketServer",
	"InvalidHeaderValueAcceptVersion",
	"InvalidHeaderValueHost",
	"UnsupportedFrame",
	"WebsocketSessionDisconnected",
	"WebsocketServerDisconnected",
}

func (c Code) String() string {
	if int(c) < 0 || int(c) >= len(codeNames) {
		return "UndefinedError"
	}
	return codeNames[c]
}
