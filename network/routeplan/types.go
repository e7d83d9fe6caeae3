// Package routeplan computes quiet alternatives to the fastest route between
// two stations: enumerate the K shortest paths by travel time (Yen's
// algorithm over a container/heap Dijkstra, the same min-heap shape
// hk.Housekeeper and transport.Collector use for their own priority
// queues), then pick the path among the admissible-under-slowdown subset
// that most reduces interior-station crowding.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package routeplan

// Edge is one hop a NetworkView exposes out of a station: a concrete
// route/line choice and its travel time, per the "two stations may be
// connected by multiple edges" rule (one per route traversing them
// adjacently).
type Edge struct {
	To         string
	LineID     string
	RouteID    string
	TravelTime uint
}

// NetworkView is the narrow read-only surface the planner needs. network.Graph
// implements it directly; tests can supply a fake.
type NetworkView interface {
	HasStation(id string) bool
	PassengerCount(id string) int64
	Neighbors(id string) []Edge
}

// StepKind distinguishes a station visit from a boarding/transfer marker.
type StepKind int

const (
	StepVisit StepKind = iota
	StepTransfer
)

// Step is one element of a TravelRoute: either a station visit or, when the
// route/line in use changes, a transfer marker immediately preceding the
// next visit.
type Step struct {
	Kind      StepKind
	StationID string
	LineID    string
	RouteID   string
}

// TravelRoute is the planner's result. The zero value (all fields empty) is
// the well-defined "no route" answer for invalid input or an unreachable
// pair, per §4.5.
type TravelRoute struct {
	StartStationID  string
	EndStationID    string
	TotalTravelTime uint
	Steps           []Step
}
