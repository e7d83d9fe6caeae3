package network

import (
	"sort"
	"sync"

	"github.com/livetransit/network-monitor/network/routeplan"
)

// Graph is the transport network: every station, line and route the
// monitor knows about, plus the live passenger counts the upstream feed
// maintains. The orchestrator is its only writer (§5); RWMutex is kept
// anyway because the quiet-route query and the STOMP server's SEND handler
// run on Go's real goroutines rather than the single cooperative strand the
// design assumes, so a reader must never observe a half-applied event.
type Graph struct {
	mu sync.RWMutex

	stationIdx map[string]int
	stations   []stationNode

	lineIdx map[string]int
	lines   []lineNode

	routeIdx map[string]int // routeID -> index into routes, global across lines
	routes   []routeNode

	// routesByStation memoizes getRoutesServingStation; invalidated on
	// every AddLine, per §4.4's "must invalidate on any addLine" escape
	// hatch for implementations that choose to memoize.
	routesByStation map[string][]string
}

// New returns an empty Graph.
func New() *Graph {
	return &Graph{
		stationIdx: make(map[string]int),
		lineIdx:    make(map[string]int),
		routeIdx:   make(map[string]int),
	}
}

// AddStation inserts a new station. Fails with ErrAlreadyExists if id is
// taken.
func (g *Graph) AddStation(id, name string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.stationIdx[id]; ok {
		return newErrAlreadyExists("station %q", id)
	}
	g.stationIdx[id] = len(g.stations)
	g.stations = append(g.stations, stationNode{id: id, name: name})
	return nil
}

// AddLine validates the entire line (id uniqueness, route shape, station
// existence) before mutating anything, so a failure leaves the graph
// exactly as it was (§4.4 "all-or-nothing").
func (g *Graph) AddLine(line LineInput) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.lineIdx[line.ID]; ok {
		return newErrAlreadyExists("line %q", line.ID)
	}
	for _, r := range line.Routes {
		if _, ok := g.routeIdx[r.ID]; ok {
			return &ErrInvalidLine{reason: "duplicate route id " + r.ID}
		}
		if len(r.Stops) < 2 {
			return &ErrInvalidLine{reason: "route " + r.ID + " has fewer than two stops"}
		}
		seen := make(map[string]bool, len(r.Stops))
		for _, s := range r.Stops {
			if seen[s] {
				return &ErrInvalidLine{reason: "route " + r.ID + " repeats stop " + s}
			}
			seen[s] = true
			if _, ok := g.stationIdx[s]; !ok {
				return &ErrInvalidLine{reason: "route " + r.ID + " references unknown station " + s}
			}
		}
	}

	ln := lineNode{id: line.ID, name: line.Name}
	for _, r := range line.Routes {
		stops := make([]int, len(r.Stops))
		for i, s := range r.Stops {
			stops[i] = g.stationIdx[s]
		}
		routeIdx := len(g.routes)
		g.routes = append(g.routes, routeNode{id: r.ID, lineID: line.ID, direction: r.Direction, stops: stops})
		g.routeIdx[r.ID] = routeIdx

		for i := 0; i < len(stops)-1; i++ {
			from, to := stops[i], stops[i+1]
			g.stations[from].edges = append(g.stations[from].edges, edge{
				lineID: line.ID, routeID: r.ID, to: to, travelTime: 0,
			})
		}
		ln.routes = append(ln.routes, r.ID)
	}
	g.lineIdx[line.ID] = len(g.lines)
	g.lines = append(g.lines, ln)
	g.routesByStation = nil // invalidate memo
	return nil
}

// RecordPassengerEvent applies one In/Out event to its station.
func (g *Graph) RecordPassengerEvent(ev PassengerEvent) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	idx, ok := g.stationIdx[ev.StationID]
	if !ok {
		return newErrStationNotFound(ev.StationID)
	}
	switch ev.Kind {
	case In:
		g.stations[idx].passengerCount++
	case Out:
		g.stations[idx].passengerCount--
	default:
		return &ErrUnknownEventKind{}
	}
	return nil
}

// GetPassengerCount returns the current signed passenger count for id.
func (g *Graph) GetPassengerCount(id string) (int64, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	idx, ok := g.stationIdx[id]
	if !ok {
		return 0, newErrStationNotFound(id)
	}
	return g.stations[idx].passengerCount, nil
}

// GetRoutesServingStation returns every route id that lists id anywhere in
// its stops, terminals included.
func (g *Graph) GetRoutesServingStation(id string) ([]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.stationIdx[id]; !ok {
		return nil, newErrStationNotFound(id)
	}
	if g.routesByStation == nil {
		g.routesByStation = g.buildRoutesByStation()
	}
	out := append([]string(nil), g.routesByStation[id]...)
	sort.Strings(out)
	return out, nil
}

func (g *Graph) buildRoutesByStation() map[string][]string {
	m := make(map[string][]string, len(g.stations))
	for _, r := range g.routes {
		for _, h := range r.stops {
			sid := g.stations[h].id
			m[sid] = append(m[sid], r.id)
		}
	}
	return m
}

// SetTravelTime sets t on every edge A->B and B->A across every route that
// traverses that adjacency; fails if the two stations are never adjacent.
func (g *Graph) SetTravelTime(stationA, stationB string, t uint) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	a, ok := g.stationIdx[stationA]
	if !ok {
		return newErrStationNotFound(stationA)
	}
	b, ok := g.stationIdx[stationB]
	if !ok {
		return newErrStationNotFound(stationB)
	}

	found := false
	for i := range g.stations[a].edges {
		if g.stations[a].edges[i].to == b {
			g.stations[a].edges[i].travelTime = t
			found = true
		}
	}
	for i := range g.stations[b].edges {
		if g.stations[b].edges[i].to == a {
			g.stations[b].edges[i].travelTime = t
			found = true
		}
	}
	if !found {
		return &ErrNoSuchAdjacency{a: stationA, b: stationB}
	}
	return nil
}

// GetTravelTime returns the direct A->B travel time, or 0 if the stations
// are not adjacent or identical.
func (g *Graph) GetTravelTime(stationA, stationB string) uint {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if stationA == stationB {
		return 0
	}
	a, ok := g.stationIdx[stationA]
	if !ok {
		return 0
	}
	b, ok := g.stationIdx[stationB]
	if !ok {
		return 0
	}
	for _, e := range g.stations[a].edges {
		if e.to == b {
			return e.travelTime
		}
	}
	return 0
}

// GetRouteTravelTime returns the cumulative travel time along routeID from
// stationA to stationB in route order, or 0 if either station is absent
// from the route, appears out of order, or A == B.
func (g *Graph) GetRouteTravelTime(lineID, routeID, stationA, stationB string) uint {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if stationA == stationB {
		return 0
	}
	ridx, ok := g.routeIdx[routeID]
	if !ok {
		return 0
	}
	r := g.routes[ridx]
	if r.lineID != lineID {
		return 0
	}
	a, ok := g.stationIdx[stationA]
	if !ok {
		return 0
	}
	b, ok := g.stationIdx[stationB]
	if !ok {
		return 0
	}
	posA, posB := -1, -1
	for i, h := range r.stops {
		if h == a {
			posA = i
		}
		if h == b {
			posB = i
		}
	}
	if posA < 0 || posB < 0 || posA >= posB {
		return 0
	}
	var total uint
	for i := posA; i < posB; i++ {
		from, to := r.stops[i], r.stops[i+1]
		for _, e := range g.stations[from].edges {
			if e.routeID == routeID && e.to == to {
				total += e.travelTime
				break
			}
		}
	}
	return total
}

// GetQuietTravelRoute delegates to routeplan.Compute with g itself as the
// view. Each lookup takes the read lock on its own; no lock is held across
// the whole computation, so events recorded meanwhile can be seen by later
// lookups.
func (g *Graph) GetQuietTravelRoute(start, end string, maxSlowdownPc, minQuietnessPc float64, maxNPaths int) routeplan.TravelRoute {
	return routeplan.Compute(g, start, end, maxSlowdownPc, minQuietnessPc, maxNPaths)
}

// HasStation, PassengerCount and Neighbors implement routeplan.NetworkView.

func (g *Graph) HasStation(id string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.stationIdx[id]
	return ok
}

func (g *Graph) PassengerCount(id string) int64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	idx, ok := g.stationIdx[id]
	if !ok {
		return 0
	}
	return g.stations[idx].passengerCount
}

func (g *Graph) Neighbors(id string) []routeplan.Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	idx, ok := g.stationIdx[id]
	if !ok {
		return nil
	}
	out := make([]routeplan.Edge, len(g.stations[idx].edges))
	for i, e := range g.stations[idx].edges {
		out[i] = routeplan.Edge{
			To:         g.stations[e.to].id,
			LineID:     e.lineID,
			RouteID:    e.routeID,
			TravelTime: e.travelTime,
		}
	}
	return out
}

// Station returns a snapshot of one station, or ok=false if unknown.
func (g *Graph) Station(id string) (Station, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	idx, ok := g.stationIdx[id]
	if !ok {
		return Station{}, false
	}
	n := g.stations[idx]
	return Station{ID: n.id, Name: n.name, PassengerCount: n.passengerCount}, true
}

// StationCount and LineCount support health/metrics reporting.
func (g *Graph) StationCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.stations)
}

func (g *Graph) LineCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.lines)
}
