package planning

import (
	"time"

	"coldplan/pkg/domain/entities"
)

// PlanInputs bundles the parsed domain objects a solve consumes.
type PlanInputs struct {
	Nodes          []*entities.Node
	Routes         []entities.Route
	Products       []*entities.Product
	Forecast       *entities.Forecast
	LaborCalendar  *entities.LaborCalendar
	TruckSchedules []*entities.TruckSchedule
	Costs          entities.CostStructure
	// InitialInventory is optional; nil means an empty network.
	InitialInventory *entities.InventorySnapshot
}

// NodeMap indexes nodes by ID.
func (in *PlanInputs) NodeMap() map[entities.NodeID]*entities.Node {
	m := make(map[entities.NodeID]*entities.Node, len(in.Nodes))
	for _, n := range in.Nodes {
		m[n.ID] = n
	}
	return m
}

// ProductMap indexes products by ID.
func (in *PlanInputs) ProductMap() map[entities.ProductID]*entities.Product {
	m := make(map[entities.ProductID]*entities.Product, len(in.Products))
	for _, p := range in.Products {
		m[p.ID] = p
	}
	return m
}

// ManufacturingNodes returns the nodes that can produce, in input order.
func (in *PlanInputs) ManufacturingNodes() []*entities.Node {
	var mfg []*entities.Node
	for _, n := range in.Nodes {
		if n.CanManufacture {
			mfg = append(mfg, n)
		}
	}
	return mfg
}

// MaxTransitDays returns the longest route transit in the network.
func (in *PlanInputs) MaxTransitDays() int {
	max := 0
	for _, r := range in.Routes {
		if r.TransitDays > max {
			max = r.TransitDays
		}
	}
	return max
}

// Validate performs the structural input checks that must pass before
// index construction: network integrity, labor coverage of the horizon,
// forecast containment, and snapshot consistency.
func (in *PlanInputs) Validate(start, end time.Time) error {
	if end.Before(start) {
		return NewInvalidInput("horizon end %s precedes start %s",
			end.Format("2006-01-02"), start.Format("2006-01-02"))
	}
	nodes := in.NodeMap()
	products := in.ProductMap()

	if len(in.ManufacturingNodes()) == 0 {
		return NewInvalidInput("network has no manufacturing node")
	}
	for _, r := range in.Routes {
		if _, ok := nodes[r.Origin]; !ok {
			return NewInvalidInput("route %s references unknown origin %q", r, r.Origin)
		}
		if _, ok := nodes[r.Destination]; !ok {
			return NewInvalidInput("route %s references unknown destination %q", r, r.Destination)
		}
		if r.TransitDays < 0 {
			return NewInvalidInput("route %s has negative transit days", r)
		}
	}
	if in.Forecast != nil {
		for _, e := range in.Forecast.Entries {
			if e.Quantity < 0 {
				return NewInvalidInput("forecast entry (%s, %s, %s) has negative quantity",
					e.Location, e.Product, e.Date.Format("2006-01-02"))
			}
			if e.Date.Before(start) || e.Date.After(end) {
				return NewInvalidInput("forecast entry (%s, %s, %s) lies outside the horizon",
					e.Location, e.Product, e.Date.Format("2006-01-02"))
			}
			if _, ok := nodes[e.Location]; !ok {
				return NewInvalidInput("forecast references unknown location %q", e.Location)
			}
			if _, ok := products[e.Product]; !ok {
				return NewInvalidInput("forecast references unknown product %q", e.Product)
			}
		}
	}
	if in.LaborCalendar == nil {
		return NewInvalidInput("labor calendar is required")
	}
	if err := in.LaborCalendar.CoversRange(start, end); err != nil {
		return NewInvalidInput("%v", err)
	}
	if in.InitialInventory != nil {
		if err := in.InitialInventory.Validate(nodes, products); err != nil {
			return NewInvalidInput("%v", err)
		}
	}
	for _, ts := range in.TruckSchedules {
		if _, ok := nodes[ts.Origin]; !ok {
			return NewInvalidInput("truck schedule %q references unknown origin %q", ts.ID, ts.Origin)
		}
		for _, stop := range ts.Stops() {
			if _, ok := nodes[stop]; !ok {
				return NewInvalidInput("truck schedule %q references unknown stop %q", ts.ID, stop)
			}
		}
	}
	return nil
}
