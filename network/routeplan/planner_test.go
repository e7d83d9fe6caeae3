package routeplan_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/livetransit/network-monitor/network/routeplan"
)

// fakeView is a tiny adjacency-list NetworkView for exercising the planner
// without a full network.Graph.
type fakeView struct {
	passengers map[string]int64
	edges      map[string][]routeplan.Edge
}

func (f *fakeView) HasStation(id string) bool { _, ok := f.passengers[id]; return ok }
func (f *fakeView) PassengerCount(id string) int64 { return f.passengers[id] }
func (f *fakeView) Neighbors(id string) []routeplan.Edge { return f.edges[id] }

func newLinear(ids []string, crowd map[string]int64, t uint) *fakeView {
	v := &fakeView{passengers: map[string]int64{}, edges: map[string][]routeplan.Edge{}}
	for _, id := range ids {
		v.passengers[id] = crowd[id]
	}
	for i := 0; i < len(ids)-1; i++ {
		v.edges[ids[i]] = append(v.edges[ids[i]], routeplan.Edge{To: ids[i+1], LineID: "L1", RouteID: "R1", TravelTime: t})
		v.edges[ids[i+1]] = append(v.edges[ids[i+1]], routeplan.Edge{To: ids[i], LineID: "L1", RouteID: "R1", TravelTime: t})
	}
	return v
}

func TestComputeSameStationIsEmpty(t *testing.T) {
	v := newLinear([]string{"a", "b"}, nil, 5)
	r := routeplan.Compute(v, "a", "a", 0.1, 0.1, 20)
	assert.Equal(t, routeplan.TravelRoute{}, r)
}

func TestComputeUnknownStationIsEmpty(t *testing.T) {
	v := newLinear([]string{"a", "b"}, nil, 5)
	r := routeplan.Compute(v, "a", "z", 0.1, 0.1, 20)
	assert.Equal(t, routeplan.TravelRoute{}, r)
}

func TestComputeFastestPathWhenNoQuieterAlternative(t *testing.T) {
	v := newLinear([]string{"a", "b", "c"}, nil, 5)
	r := routeplan.Compute(v, "a", "c", 0.1, 0.1, 20)
	require.Equal(t, uint(10), r.TotalTravelTime)
	require.Len(t, r.Steps, 4) // visit a, transfer, visit b, visit c
	assert.Equal(t, routeplan.StepVisit, r.Steps[0].Kind)
	assert.Equal(t, "a", r.Steps[0].StationID)
	assert.Equal(t, routeplan.StepTransfer, r.Steps[1].Kind)
	assert.Equal(t, "L1", r.Steps[1].LineID)
}

// TestComputePrefersQuieterAdmissiblePath builds a diamond: a-b-d (crowded b,
// time 10) vs a-c-d (empty c, time 11). The quieter path is slower but within
// the 50% slowdown bound, so it should win.
func TestComputePrefersQuieterAdmissiblePath(t *testing.T) {
	v := &fakeView{
		passengers: map[string]int64{"a": 0, "b": 100, "c": 0, "d": 0},
		edges:      map[string][]routeplan.Edge{},
	}
	add := func(from, to string, tt uint) {
		v.edges[from] = append(v.edges[from], routeplan.Edge{To: to, LineID: "L1", RouteID: "R1", TravelTime: tt})
		v.edges[to] = append(v.edges[to], routeplan.Edge{To: from, LineID: "L1", RouteID: "R1", TravelTime: tt})
	}
	add("a", "b", 5)
	add("b", "d", 5)
	add("a", "c", 5)
	add("c", "d", 6)

	r := routeplan.Compute(v, "a", "d", 0.5, 0.01, 20)
	require.NotEmpty(t, r.Steps)
	stations := visitedStations(r.Steps)
	assert.Equal(t, []string{"a", "c", "d"}, stations)
}

func TestComputeKeepsFastestWhenSlowdownTooLarge(t *testing.T) {
	v := &fakeView{
		passengers: map[string]int64{"a": 0, "b": 50, "c": 0, "d": 0},
		edges:      map[string][]routeplan.Edge{},
	}
	add := func(from, to string, tt uint) {
		v.edges[from] = append(v.edges[from], routeplan.Edge{To: to, LineID: "L1", RouteID: "R1", TravelTime: tt})
		v.edges[to] = append(v.edges[to], routeplan.Edge{To: from, LineID: "L1", RouteID: "R1", TravelTime: tt})
	}
	add("a", "b", 1)
	add("b", "d", 1)
	add("a", "c", 10)
	add("c", "d", 10)

	r := routeplan.Compute(v, "a", "d", 0.1, 0.01, 20)
	assert.Equal(t, []string{"a", "b", "d"}, visitedStations(r.Steps))
}

func visitedStations(steps []routeplan.Step) []string {
	var out []string
	for _, s := range steps {
		if s.Kind == routeplan.StepVisit {
			out = append(out, s.StationID)
		}
	}
	return out
}
