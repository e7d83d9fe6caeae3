package network

import (
	"fmt"

	"github.com/livetransit/network-monitor/cmn/cos"
)

// ErrAlreadyExists is returned by AddStation/AddLine when the id is taken.
type ErrAlreadyExists struct{ what string }

func newErrAlreadyExists(format string, a ...any) *ErrAlreadyExists {
	return &ErrAlreadyExists{fmt.Sprintf(format, a...)}
}

func (e *ErrAlreadyExists) Error() string { return e.what + " already exists" }

// ErrInvalidLine is returned by AddLine when a route references an unknown
// station, has fewer than two stops, or repeats a stop; the insert is
// all-or-nothing, so none of the line's routes land on failure.
type ErrInvalidLine struct{ reason string }

func (e *ErrInvalidLine) Error() string { return "invalid line: " + e.reason }

// ErrUnknownEventKind is returned by RecordPassengerEvent for any kind
// other than In/Out.
type ErrUnknownEventKind struct{}

func (*ErrUnknownEventKind) Error() string { return "unrecognized passenger event kind" }

// ErrNoSuchAdjacency is returned by SetTravelTime when stationA and
// stationB are not directly connected by any route.
type ErrNoSuchAdjacency struct{ a, b string }

func (e *ErrNoSuchAdjacency) Error() string {
	return fmt.Sprintf("no adjacency between %q and %q", e.a, e.b)
}

// newErrStationNotFound wraps cos.NewErrNotFound for the one entity kind
// every public Graph operation can fail to find.
func newErrStationNotFound(id string) error { return cos.NewErrNotFound("station %q", id) }
