package entities

import "fmt"

// Route represents a directed transport lane between two nodes
type Route struct {
	Origin      NodeID
	Destination NodeID
	Mode        StorageMode
	TransitDays int
	CostPerUnit float64
}

// String method for diagnostics
func (r Route) String() string {
	return fmt.Sprintf("%s->%s (%s, %dd)", r.Origin, r.Destination, r.Mode, r.TransitDays)
}

// ArrivalState returns the storage state a shipment on this route holds
// once it arrives at the destination. The state is fixed by the route
// mode and the destination's capabilities, never chosen by the solver:
// frozen transport into an ambient-only destination thaws on arrival.
func (r Route) ArrivalState(dest *Node) StorageMode {
	if r.Mode == Frozen && dest.SupportsMode(Frozen) {
		return Frozen
	}
	return Ambient
}

// Thaws reports whether arrivals on this route start the thawed-shelf-life
// clock at the destination.
func (r Route) Thaws(dest *Node) bool {
	return r.Mode == Frozen && !dest.SupportsMode(Frozen)
}
