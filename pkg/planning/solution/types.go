// Package solution defines the typed, solver-independent result of a
// plan solve and the extractor that reads it off solver values. The
// caller owns the returned solution.
package solution

import (
	"time"

	"github.com/shopspring/decimal"

	"coldplan/pkg/domain/entities"
	"coldplan/pkg/planning/builder"
	"coldplan/pkg/planning/index"
)

// Epsilon is the output noise floor: solver values below it are
// rounded to zero and elided from mappings.
const Epsilon = 0.01

// ProductionBatch represents one day's production of one product
type ProductionBatch struct {
	Date     time.Time
	Product  entities.ProductID
	Node     entities.NodeID
	Quantity float64
}

// Shipment represents a planned movement between two nodes
type Shipment struct {
	Origin        entities.NodeID
	Destination   entities.NodeID
	Product       entities.ProductID
	ProdDate      time.Time
	DepartureDate time.Time
	ArrivalDate   time.Time
	Mode          entities.StorageMode
	Quantity      float64
}

// LaborUsage decomposes one day's worked hours into pay tiers
type LaborUsage struct {
	FixedHours    float64
	OvertimeHours float64
	NonFixedHours float64
	TotalHours    float64
	Cost          decimal.Decimal
}

// CostBreakdown decomposes the objective by component. Components sum
// to the reported objective within Epsilon.
type CostBreakdown struct {
	Labor      decimal.Decimal
	Production decimal.Decimal
	Transport  decimal.Decimal
	Storage    decimal.Decimal
	Truck      decimal.Decimal
	Shortage   decimal.Decimal
	// Staleness is the freshness-incentive penalty when enabled.
	Staleness decimal.Decimal
}

// Total sums all components.
func (c CostBreakdown) Total() decimal.Decimal {
	return c.Labor.Add(c.Production).Add(c.Transport).Add(c.Storage).
		Add(c.Truck).Add(c.Shortage).Add(c.Staleness)
}

// Diagnostics carries solver status and build warnings.
type Diagnostics struct {
	Termination  string
	Gap          float64
	SolveSeconds float64
	Warnings     []string
}

// Solution is the complete typed output of one solve.
type Solution struct {
	Start time.Time
	End   time.Time

	// ProductionByDateProduct maps production decisions; zeros elided.
	ProductionByDateProduct map[builder.ProductionKey]float64
	// ProductionBatches lists production ordered by date, node, then product.
	ProductionBatches []ProductionBatch
	Shipments         []Shipment
	// CohortInventory maps populated inventory cohorts; values below
	// Epsilon elided.
	CohortInventory map[entities.DatedCohortKey]float64
	// DemandConsumption maps cohort-level demand satisfaction.
	DemandConsumption map[index.DemandCohortKey]float64
	Shortages         map[index.DemandKey]float64
	LaborByDate       map[builder.NodeDateKey]LaborUsage

	Costs     CostBreakdown
	Objective float64

	Diagnostics Diagnostics
}

// TotalShortage sums unmet demand across the horizon.
func (s *Solution) TotalShortage() float64 {
	var total float64
	for _, q := range s.Shortages {
		total += q
	}
	return total
}

// TotalProduction sums produced units across the horizon.
func (s *Solution) TotalProduction() float64 {
	var total float64
	for _, b := range s.ProductionBatches {
		total += b.Quantity
	}
	return total
}

// CohortsAt returns the cohort inventory held at the end of the given
// date, keyed without the observation date. Used for rolling-horizon
// inventory handoff.
func (s *Solution) CohortsAt(date time.Time) map[entities.CohortKey]float64 {
	date = entities.Midnight(date)
	out := make(map[entities.CohortKey]float64)
	for k, q := range s.CohortInventory {
		if k.CurrDate.Equal(date) {
			out[k.Key()] += q
		}
	}
	return out
}

// Hints converts the solution into warm-start hints for an analogous
// model.
func (s *Solution) Hints() builder.Hints {
	h := builder.Hints{
		Production:      make(map[builder.ProductionKey]float64, len(s.ProductionByDateProduct)),
		InventoryCohort: make(map[entities.DatedCohortKey]float64, len(s.CohortInventory)),
		ShipmentCohort:  make(map[index.ShipmentKey]float64, len(s.Shipments)),
	}
	for k, q := range s.ProductionByDateProduct {
		h.Production[k] = q
	}
	for k, q := range s.CohortInventory {
		h.InventoryCohort[k] = q
	}
	for _, sh := range s.Shipments {
		h.ShipmentCohort[index.ShipmentKey{
			Origin: sh.Origin, Dest: sh.Destination, Product: sh.Product,
			ProdDate: sh.ProdDate, ArrivalDate: sh.ArrivalDate, Mode: sh.Mode,
		}] += sh.Quantity
	}
	return h
}
