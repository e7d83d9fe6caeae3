package network

// Document mirrors the network-layout JSON schema (§6): every station,
// then every line and its routes, then every direct travel-time record.
type Document struct {
	Stations    []DocStation    `json:"stations"`
	Lines       []DocLine       `json:"lines"`
	TravelTimes []DocTravelTime `json:"travel_times"`
}

type DocStation struct {
	StationID string `json:"station_id"`
	Name      string `json:"name"`
}

type DocRoute struct {
	RouteID        string   `json:"route_id"`
	Direction      string   `json:"direction"`
	LineID         string   `json:"line_id"`
	StartStationID string   `json:"start_station_id"`
	EndStationID   string   `json:"end_station_id"`
	RouteStops     []string `json:"route_stops"`
}

type DocLine struct {
	LineID string     `json:"line_id"`
	Name   string     `json:"name"`
	Routes []DocRoute `json:"routes"`
}

type DocTravelTime struct {
	StartStationID string `json:"start_station_id"`
	EndStationID   string `json:"end_station_id"`
	TravelTime     uint   `json:"travel_time"`
}

// Load builds a fresh Graph from doc, adding every station, then every
// line, then applying every travel time, in that order (§4.4). Any
// failure is fatal to the load: Load returns nil and the partially built
// graph is discarded, so no half-loaded state is ever observable by a
// caller.
func Load(doc *Document) (*Graph, error) {
	g := New()

	for _, s := range doc.Stations {
		if err := g.AddStation(s.StationID, s.Name); err != nil {
			return nil, err
		}
	}

	for _, l := range doc.Lines {
		routes := make([]RouteInput, len(l.Routes))
		for i, r := range l.Routes {
			routes[i] = RouteInput{
				ID:             r.RouteID,
				LineID:         r.LineID,
				Direction:      r.Direction,
				StartStationID: r.StartStationID,
				EndStationID:   r.EndStationID,
				Stops:          r.RouteStops,
			}
		}
		if err := g.AddLine(LineInput{ID: l.LineID, Name: l.Name, Routes: routes}); err != nil {
			return nil, err
		}
	}

	for _, tt := range doc.TravelTimes {
		if err := g.SetTravelTime(tt.StartStationID, tt.EndStationID, tt.TravelTime); err != nil {
			return nil, err
		}
	}

	return g, nil
}
