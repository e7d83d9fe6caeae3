// Package monitor owns the one network, one STOMP client and one STOMP
// server the process runs: it wires the client's subscription to the
// graph's event-application path and the server's incoming requests to the
// quiet-route planner, exposing a last-error/last-route surface for
// testability the way the original NetworkMonitor class does.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package monitor

// Code enumerates every outcome the orchestrator can record, one value per
// named NetworkMonitorError in the system this package implements.
type Code int

const (
	Ok Code = iota
	UndefinedError
	CouldNotConnectToStompClient
	CouldNotParsePassengerEvent
	CouldNotParseQuietRouteRequest
	CouldNotRecordPassengerEvent
	CouldNotStartStompServer
	CouldNotSubscribeToPassengerEvents
	FailedNetworkLayoutFileDownload
	FailedNetworkLayoutFileParsing
	FailedTransportNetworkConstruction
	MissingCaCertFile
	MissingNetworkLayoutFile
	StompClientDisconnected
	StompServerClientDisconnected
	StompServerDisconnected
)

var codeNames = [...]string{
	"Ok",
	"UndefinedError",
	"CouldNotConnectToStompClient",
	"CouldNotParsePassengerEvent",
	"CouldNotParseQuietRouteRequest",
	"CouldNotRecordPassengerEvent",
	"CouldNotStartStompServer",
	"CouldNotSubscribeToPassengerEvents",
	"FailedNetworkLayoutFileDownload",
	"FailedNetworkLayoutFileParsing",
	"FailedTransportNetworkConstruction",
	"MissingCaCertFile",
	"MissingNetworkLayoutFile",
	"StompClientDisconnected",
	"StompServerClientDisconnected",
	"StompServerDisconnected",
}

func (c Code) String() string {
	if int(c) < 0 || int(c) >= len(codeNames) {
		return "UndefinedError"
	}
	return codeNames[c]
}
