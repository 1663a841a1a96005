package builder

import (
	"time"

	"coldplan/pkg/domain/entities"
)

// ProductionKey identifies a production decision.
type ProductionKey struct {
	Node    entities.NodeID
	Product entities.ProductID
	Date    time.Time
}

// NodeDateKey identifies per-day state at a manufacturing node.
type NodeDateKey struct {
	Node entities.NodeID
	Date time.Time
}

// TruckKey identifies one dated truck departure.
type TruckKey struct {
	ScheduleID string
	Date       time.Time
}

// TruckLoadKey identifies the pallet load of one product dropped at one
// stop of a dated truck departure.
type TruckLoadKey struct {
	ScheduleID string
	Date       time.Time
	Stop       entities.NodeID
	Product    entities.ProductID
}

// laneKey groups truck departures and shipments sharing an origin,
// drop-off, transport mode and arrival date.
type laneKey struct {
	Origin  entities.NodeID
	Dest    entities.NodeID
	Mode    entities.StorageMode
	Arrival time.Time
}
