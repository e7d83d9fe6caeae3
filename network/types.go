// Package network is the in-memory transport-network graph: stations,
// lines, routes and their edges, passenger-count bookkeeping, and the
// quiet-route query surface that delegates to routeplan. Built on an
// arena/handle pattern — a map-of-structs-by-id registry, never a web
// of pointer-linked nodes with back-edges — so the graph stays a plain
// value store with integer handles instead of cyclic pointers.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package network

import "time"

// EventKind is a PassengerEvent's direction.
type EventKind int

const (
	In EventKind = iota
	Out
)

// Station is a read-only snapshot of one station's identity and current
// passenger count. edges are not exposed here; callers query adjacency
// through the graph's operations.
type Station struct {
	ID             string
	Name           string
	PassengerCount int64
}

// RouteInput describes one route of a line as found in the layout
// document: an ordered, duplicate-free sequence of at least two station
// ids.
type RouteInput struct {
	ID              string
	LineID          string
	Direction       string
	StartStationID  string
	EndStationID    string
	Stops           []string
}

// LineInput describes a line and all of its routes for AddLine.
type LineInput struct {
	ID     string
	Name   string
	Routes []RouteInput
}

// PassengerEvent is one observed boarding/alighting at a station.
type PassengerEvent struct {
	StationID string
	Kind      EventKind
	Timestamp time.Time
}

// edge is directed and attached to exactly one station (the "from"),
// carrying a back-reference to the route it belongs to.
type edge struct {
	lineID     string
	routeID    string
	to         int // station handle
	travelTime uint
}

type stationNode struct {
	id             string
	name           string
	passengerCount int64
	edges          []edge
}

type routeNode struct {
	id        string
	lineID    string
	direction string
	stops     []int // station handles, in route order
}

type lineNode struct {
	id     string
	name   string
	routes []string // route ids, insertion order
}
