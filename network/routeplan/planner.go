package routeplan

import "sort"

// kShortestPaths enumerates up to maxNPaths loopless paths from start to end
// by non-decreasing travel time (Yen's algorithm), breaking ties by
// lexicographic order of the path's station sequence.
func kShortestPaths(view NetworkView, start, end string, maxNPaths int) []path {
	if maxNPaths <= 0 {
		return nil
	}

	first, ok := shortestPath(view, start, end, nil, nil)
	if !ok {
		return nil
	}
	a := []path{first}

	type candidate struct {
		p path
	}
	var b []candidate
	seen := map[string]bool{first.key(): true}

	for len(a) < maxNPaths {
		prevPath := a[len(a)-1]
		for i := 0; i < len(prevPath.stations)-1; i++ {
			spurNode := prevPath.stations[i]
			rootStations := prevPath.stations[:i+1]

			excludedEdges := map[string]bool{}
			for _, p := range a {
				if sameRoot(p.stations, rootStations) {
					excludedEdges[edgeKey(p.stations[i], p.stations[i+1])] = true
				}
			}
			excludedNodes := map[string]bool{}
			for _, s := range rootStations[:len(rootStations)-1] {
				excludedNodes[s] = true
			}

			spur, ok := shortestPath(view, spurNode, end, excludedNodes, excludedEdges)
			if !ok {
				continue
			}

			totalStations := append(append([]string{}, rootStations[:len(rootStations)-1]...), spur.stations...)
			totalEdges := append(append([]Edge{}, prevPath.edges[:i]...), spur.edges...)
			var totalTime uint
			for _, e := range totalEdges {
				totalTime += e.TravelTime
			}
			cand := path{stations: totalStations, edges: totalEdges, time: totalTime}
			if !seen[cand.key()] {
				seen[cand.key()] = true
				b = append(b, candidate{p: cand})
			}
		}

		if len(b) == 0 {
			break
		}
		sort.Slice(b, func(i, j int) bool {
			if b[i].p.time != b[j].p.time {
				return b[i].p.time < b[j].p.time
			}
			return lexLess(b[i].p.stations, b[j].p.stations)
		})
		a = append(a, b[0].p)
		b = b[1:]
	}
	return a
}

func sameRoot(stations, root []string) bool {
	if len(stations) < len(root) {
		return false
	}
	for i, s := range root {
		if stations[i] != s {
			return false
		}
	}
	return true
}

func lexLess(a, b []string) bool {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

// crowding sums max(0, passengerCount) over p's interior stations (every
// station but the first and last), the convention this planner applies
// consistently everywhere crowding is computed.
func crowding(view NetworkView, p path) int64 {
	if len(p.stations) <= 2 {
		return 0
	}
	var total int64
	for _, s := range p.stations[1 : len(p.stations)-1] {
		if c := view.PassengerCount(s); c > 0 {
			total += c
		}
	}
	return total
}

// Compute implements §4.5: enumerate K shortest paths, then swap the
// time-optimal one for a quieter admissible alternative when one improves
// crowding by at least minQuietnessPc.
func Compute(view NetworkView, start, end string, maxSlowdownPc, minQuietnessPc float64, maxNPaths int) TravelRoute {
	if start == end || !view.HasStation(start) || !view.HasStation(end) {
		return TravelRoute{}
	}

	paths := kShortestPaths(view, start, end, maxNPaths)
	if len(paths) == 0 {
		return TravelRoute{}
	}

	p0 := paths[0]
	tStar := p0.time
	c0 := crowding(view, p0)
	limit := float64(tStar) * (1 + maxSlowdownPc)

	best := p0
	bestImprovement := 0.0
	for _, p := range paths[1:] {
		if float64(p.time) > limit {
			continue
		}
		ci := crowding(view, p)
		denom := c0
		if denom < 1 {
			denom = 1
		}
		improvement := float64(c0-ci) / float64(denom)
		if improvement > bestImprovement {
			bestImprovement = improvement
			best = p
		}
	}
	if bestImprovement < minQuietnessPc {
		best = p0
	}

	return TravelRoute{
		StartStationID:  start,
		EndStationID:    end,
		TotalTravelTime: best.time,
		Steps:           expandSteps(best),
	}
}

func expandSteps(p path) []Step {
	steps := make([]Step, 0, 2*len(p.stations))
	steps = append(steps, Step{Kind: StepVisit, StationID: p.stations[0]})
	var prevLine, prevRoute string
	for i, e := range p.edges {
		if i == 0 || e.LineID != prevLine || e.RouteID != prevRoute {
			steps = append(steps, Step{Kind: StepTransfer, LineID: e.LineID, RouteID: e.RouteID})
		}
		steps = append(steps, Step{Kind: StepVisit, StationID: p.stations[i+1]})
		prevLine, prevRoute = e.LineID, e.RouteID
	}
	return steps
}
