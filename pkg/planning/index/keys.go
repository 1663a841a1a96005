package index

import (
	"time"

	"coldplan/pkg/domain/entities"
)

// DemandKey identifies demand for a product at a node on a date.
type DemandKey struct {
	Node    entities.NodeID
	Product entities.ProductID
	Date    time.Time
}

// ShipmentKey identifies a shipment cohort: units of one production
// date moving over one route and arriving on one date. Mode is the
// route's transport mode; the arrival state at the destination follows
// from the route and destination capabilities.
type ShipmentKey struct {
	Origin      entities.NodeID
	Dest        entities.NodeID
	Product     entities.ProductID
	ProdDate    time.Time
	ArrivalDate time.Time
	Mode        entities.StorageMode
}

// DepartureDate returns the departure date implied by the route transit.
func (k ShipmentKey) DepartureDate(transitDays int) time.Time {
	return entities.AddDays(k.ArrivalDate, -transitDays)
}

// DemandCohortKey identifies a cohort eligible to satisfy demand at a
// node on a date.
type DemandCohortKey struct {
	Node       entities.NodeID
	Product    entities.ProductID
	ProdDate   time.Time
	DemandDate time.Time
}

func lessDate(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	default:
		return 0
	}
}

// compareInventoryKeys orders dated cohort keys lexicographically by
// (node, product, prod date, current date, state).
func compareInventoryKeys(a, b entities.DatedCohortKey) int {
	if a.Node != b.Node {
		if a.Node < b.Node {
			return -1
		}
		return 1
	}
	if a.Product != b.Product {
		if a.Product < b.Product {
			return -1
		}
		return 1
	}
	if c := lessDate(a.ProdDate, b.ProdDate); c != 0 {
		return c
	}
	if c := lessDate(a.CurrDate, b.CurrDate); c != 0 {
		return c
	}
	return int(a.State) - int(b.State)
}

func compareShipmentKeys(a, b ShipmentKey) int {
	if a.Origin != b.Origin {
		if a.Origin < b.Origin {
			return -1
		}
		return 1
	}
	if a.Dest != b.Dest {
		if a.Dest < b.Dest {
			return -1
		}
		return 1
	}
	if a.Product != b.Product {
		if a.Product < b.Product {
			return -1
		}
		return 1
	}
	if c := lessDate(a.ProdDate, b.ProdDate); c != 0 {
		return c
	}
	if c := lessDate(a.ArrivalDate, b.ArrivalDate); c != 0 {
		return c
	}
	return int(a.Mode) - int(b.Mode)
}

func compareDemandCohortKeys(a, b DemandCohortKey) int {
	if a.Node != b.Node {
		if a.Node < b.Node {
			return -1
		}
		return 1
	}
	if a.Product != b.Product {
		if a.Product < b.Product {
			return -1
		}
		return 1
	}
	if c := lessDate(a.ProdDate, b.ProdDate); c != 0 {
		return c
	}
	return lessDate(a.DemandDate, b.DemandDate)
}

func compareDemandKeys(a, b DemandKey) int {
	if a.Node != b.Node {
		if a.Node < b.Node {
			return -1
		}
		return 1
	}
	if a.Product != b.Product {
		if a.Product < b.Product {
			return -1
		}
		return 1
	}
	return lessDate(a.Date, b.Date)
}
