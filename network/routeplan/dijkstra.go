package routeplan

import "container/heap"

// path is an internal loopless candidate: stations[0..n] with edges[i]
// the concrete route/line/time chosen for the hop stations[i] -> stations[i+1].
type path struct {
	stations []string
	edges    []Edge
	time     uint
}

// key is a canonical string for de-duplicating candidate paths in Yen's
// algorithm's B set.
func (p *path) key() string {
	s := make([]byte, 0, 32*len(p.stations))
	for _, st := range p.stations {
		s = append(s, st...)
		s = append(s, '\x00')
	}
	return string(s)
}

// pqNode is one entry in the Dijkstra frontier, ordered by distance and,
// on ties, by station id, so the shortest path found is deterministic.
type pqNode struct {
	station string
	dist    uint
	prev    string
	edge    Edge
	hasEdge bool
}

type nodeHeap []pqNode

func (h nodeHeap) Len() int { return len(h) }
func (h nodeHeap) Less(i, j int) bool {
	if h[i].dist != h[j].dist {
		return h[i].dist < h[j].dist
	}
	return h[i].station < h[j].station
}
func (h nodeHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *nodeHeap) Push(x any)        { *h = append(*h, x.(pqNode)) }
func (h *nodeHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// shortestPath runs Dijkstra from start to end over view, ignoring any
// station in excludedNodes and any (from,to) hop in excludedEdges. Returns
// ok=false if no path exists under those exclusions.
func shortestPath(view NetworkView, start, end string, excludedNodes map[string]bool, excludedEdges map[string]bool) (path, bool) {
	dist := map[string]uint{start: 0}
	prevStation := map[string]string{}
	prevEdge := map[string]Edge{}
	visited := map[string]bool{}

	pq := &nodeHeap{{station: start, dist: 0}}
	heap.Init(pq)

	for pq.Len() > 0 {
		cur := heap.Pop(pq).(pqNode)
		if visited[cur.station] {
			continue
		}
		visited[cur.station] = true
		if cur.station == end {
			break
		}

		for _, e := range view.Neighbors(cur.station) {
			if excludedNodes[e.To] || visited[e.To] {
				continue
			}
			if excludedEdges[edgeKey(cur.station, e.To)] {
				continue
			}
			nd := dist[cur.station] + e.TravelTime
			if old, ok := dist[e.To]; !ok || nd < old {
				dist[e.To] = nd
				prevStation[e.To] = cur.station
				prevEdge[e.To] = e
				heap.Push(pq, pqNode{station: e.To, dist: nd})
			}
		}
	}

	if _, ok := dist[end]; !ok || !visited[end] {
		return path{}, false
	}

	var stations []string
	var edges []Edge
	for s := end; ; {
		stations = append([]string{s}, stations...)
		if s == start {
			break
		}
		e := prevEdge[s]
		edges = append([]Edge{e}, edges...)
		s = prevStation[s]
	}
	return path{stations: stations, edges: edges, time: dist[end]}, true
}

func edgeKey(from, to string) string { return from + "\x00" + to }
