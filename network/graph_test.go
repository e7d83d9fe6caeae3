package network_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/livetransit/network-monitor/network"
)

func threeStopLine(t *testing.T, g *network.Graph) {
	t.Helper()
	require.NoError(t, g.AddStation("a", "Alpha"))
	require.NoError(t, g.AddStation("b", "Bravo"))
	require.NoError(t, g.AddStation("c", "Charlie"))
	require.NoError(t, g.AddLine(network.LineInput{
		ID: "L1", Name: "Line One",
		Routes: []network.RouteInput{
			{ID: "R1", LineID: "L1", StartStationID: "a", EndStationID: "c", Stops: []string{"a", "b", "c"}},
		},
	}))
}

func TestAddStationRejectsDuplicate(t *testing.T) {
	g := network.New()
	require.NoError(t, g.AddStation("a", "Alpha"))
	err := g.AddStation("a", "Alpha Again")
	require.Error(t, err)
}

func TestAddLineRejectsUnknownStation(t *testing.T) {
	g := network.New()
	require.NoError(t, g.AddStation("a", "Alpha"))
	err := g.AddLine(network.LineInput{
		ID: "L1",
		Routes: []network.RouteInput{
			{ID: "R1", Stops: []string{"a", "ghost"}},
		},
	})
	require.Error(t, err)
	// all-or-nothing: the line must not have landed partially.
	_, rerr := g.GetRoutesServingStation("a")
	require.NoError(t, rerr)
	routes, _ := g.GetRoutesServingStation("a")
	assert.Empty(t, routes)
}

func TestPassengerCountTracksInOutDelta(t *testing.T) {
	g := network.New()
	require.NoError(t, g.AddStation("a", "Alpha"))

	events := []network.EventKind{network.In, network.In, network.Out, network.In}
	for _, k := range events {
		require.NoError(t, g.RecordPassengerEvent(network.PassengerEvent{StationID: "a", Kind: k}))
	}
	count, err := g.GetPassengerCount("a")
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}

func TestPassengerCountCanGoNegative(t *testing.T) {
	g := network.New()
	require.NoError(t, g.AddStation("a", "Alpha"))
	require.NoError(t, g.RecordPassengerEvent(network.PassengerEvent{StationID: "a", Kind: network.Out}))
	count, err := g.GetPassengerCount("a")
	require.NoError(t, err)
	assert.EqualValues(t, -1, count)
}

func TestRecordPassengerEventRejectsUnknownStation(t *testing.T) {
	g := network.New()
	err := g.RecordPassengerEvent(network.PassengerEvent{StationID: "ghost", Kind: network.In})
	require.Error(t, err)
}

func TestGetRoutesServingStationIncludesTerminals(t *testing.T) {
	g := network.New()
	threeStopLine(t, g)
	for _, id := range []string{"a", "b", "c"} {
		routes, err := g.GetRoutesServingStation(id)
		require.NoError(t, err)
		assert.Equal(t, []string{"R1"}, routes)
	}
}

func TestSetAndGetTravelTimeIsSymmetric(t *testing.T) {
	g := network.New()
	threeStopLine(t, g)
	require.NoError(t, g.SetTravelTime("a", "b", 7))
	assert.EqualValues(t, 7, g.GetTravelTime("a", "b"))
	assert.EqualValues(t, 7, g.GetTravelTime("b", "a"))
}

func TestSetTravelTimeFailsWithoutAdjacency(t *testing.T) {
	g := network.New()
	threeStopLine(t, g)
	err := g.SetTravelTime("a", "c", 5)
	require.Error(t, err)
}

func TestGetTravelTimeZeroForNonAdjacentOrSame(t *testing.T) {
	g := network.New()
	threeStopLine(t, g)
	assert.EqualValues(t, 0, g.GetTravelTime("a", "c"))
	assert.EqualValues(t, 0, g.GetTravelTime("a", "a"))
}

func TestGetRouteTravelTimeIsCumulative(t *testing.T) {
	g := network.New()
	threeStopLine(t, g)
	require.NoError(t, g.SetTravelTime("a", "b", 3))
	require.NoError(t, g.SetTravelTime("b", "c", 4))
	assert.EqualValues(t, 7, g.GetRouteTravelTime("L1", "R1", "a", "c"))
	assert.EqualValues(t, 4, g.GetRouteTravelTime("L1", "R1", "b", "c"))
}

func TestGetRouteTravelTimeZeroOutOfOrderOrSame(t *testing.T) {
	g := network.New()
	threeStopLine(t, g)
	require.NoError(t, g.SetTravelTime("a", "b", 3))
	require.NoError(t, g.SetTravelTime("b", "c", 4))
	assert.EqualValues(t, 0, g.GetRouteTravelTime("L1", "R1", "c", "a"))
	assert.EqualValues(t, 0, g.GetRouteTravelTime("L1", "R1", "a", "a"))
	assert.EqualValues(t, 0, g.GetRouteTravelTime("L1", "R1", "a", "ghost"))
}

func TestLoadHappyPathOrdersStationsLinesTravelTimes(t *testing.T) {
	doc := &network.Document{
		Stations: []network.DocStation{{StationID: "a", Name: "Alpha"}, {StationID: "b", Name: "Bravo"}},
		Lines: []network.DocLine{{
			LineID: "L1", Name: "Line One",
			Routes: []network.DocRoute{{RouteID: "R1", LineID: "L1", StartStationID: "a", EndStationID: "b", RouteStops: []string{"a", "b"}}},
		}},
		TravelTimes: []network.DocTravelTime{{StartStationID: "a", EndStationID: "b", TravelTime: 9}},
	}
	g, err := network.Load(doc)
	require.NoError(t, err)
	assert.EqualValues(t, 9, g.GetTravelTime("a", "b"))
}

func TestLoadFailsAtomicallyOnBadTravelTime(t *testing.T) {
	doc := &network.Document{
		Stations: []network.DocStation{{StationID: "a"}, {StationID: "b"}},
		Lines: []network.DocLine{{
			LineID: "L1",
			Routes: []network.DocRoute{{RouteID: "R1", LineID: "L1", RouteStops: []string{"a", "b"}}},
		}},
		TravelTimes: []network.DocTravelTime{{StartStationID: "a", EndStationID: "ghost", TravelTime: 9}},
	}
	g, err := network.Load(doc)
	require.Error(t, err)
	assert.Nil(t, g)
}
