// Package testing provides shared scenario fixtures for planner tests.
package testing

import (
	"time"

	"coldplan/pkg/domain/entities"
	"coldplan/pkg/planning"
)

// Monday is the fixture horizon anchor (a Monday).
var Monday = entities.Day(2025, time.June, 2)

// BuildLaborCalendar builds a calendar covering days consecutive days
// from start: 12h fixed weekdays at $50/$75, weekend 4h-minimum days at
// $100.
func BuildLaborCalendar(start time.Time, days int) *entities.LaborCalendar {
	var laborDays []entities.LaborDay
	for i := 0; i < days; i++ {
		d := entities.AddDays(start, i)
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			laborDays = append(laborDays, entities.DefaultWeekendLaborDay(d, 100))
		} else {
			laborDays = append(laborDays, entities.DefaultWeekdayLaborDay(d, 50, 75))
		}
	}
	return entities.NewLaborCalendar("test", laborDays)
}

// ManufacturingNode builds the standard fixture manufacturing site:
// 1400 units/hour, no startup/shutdown/changeover overhead.
func ManufacturingNode() *entities.Node {
	return &entities.Node{
		ID:             "6122",
		Name:           "Manufacturing",
		CanManufacture: true,
		StorageModes:   []entities.StorageMode{entities.Ambient},
		Manufacturing: &entities.ManufacturingCapability{
			ProductionRatePerHour: 1400,
		},
	}
}

// Breadroom builds an ambient-only demand node.
func Breadroom(id entities.NodeID) *entities.Node {
	return &entities.Node{
		ID:           id,
		Name:         "Breadroom " + string(id),
		HasDemand:    true,
		StorageModes: []entities.StorageMode{entities.Ambient},
	}
}

// FrozenStore builds a frozen storage hub with no demand and no truck
// schedule requirement.
func FrozenStore(id entities.NodeID) *entities.Node {
	return &entities.Node{
		ID:           id,
		Name:         "Cold Store " + string(id),
		StorageModes: []entities.StorageMode{entities.Frozen},
	}
}

// DefaultCosts returns the fixture cost structure. The shortage penalty
// dominates any feasible per-unit serving cost.
func DefaultCosts() entities.CostStructure {
	return entities.CostStructure{
		ProductionCostPerUnit:  0.8,
		Storage:                entities.StorageRates{AmbientUnitDayRate: 0.01, FrozenUnitDayRate: 0.005},
		ShortagePenaltyPerUnit: 1000,
	}
}

// BuildTwoNodeInputs builds the minimal network: manufacturing site and
// one breadroom one ambient transit day away, with a labor calendar
// covering days from Monday.
func BuildTwoNodeInputs(days int, forecast *entities.Forecast) *planning.PlanInputs {
	return &planning.PlanInputs{
		Nodes:         []*entities.Node{ManufacturingNode(), Breadroom("6103")},
		Routes:        []entities.Route{{Origin: "6122", Destination: "6103", Mode: entities.Ambient, TransitDays: 1, CostPerUnit: 0.05}},
		Products:      []*entities.Product{entities.NewProduct("WHITE", "White Loaf")},
		Forecast:      forecast,
		LaborCalendar: BuildLaborCalendar(Monday, days),
		Costs:         DefaultCosts(),
	}
}

// BuildFrozenThawInputs builds manufacturing -> frozen cold store ->
// ambient-only breadroom, with frozen transport on both legs so
// arrivals at the breadroom thaw.
func BuildFrozenThawInputs(days int, forecast *entities.Forecast) *planning.PlanInputs {
	return &planning.PlanInputs{
		Nodes: []*entities.Node{ManufacturingNode(), FrozenStore("LINEAGE"), Breadroom("6130")},
		Routes: []entities.Route{
			{Origin: "6122", Destination: "LINEAGE", Mode: entities.Frozen, TransitDays: 2, CostPerUnit: 0.03},
			{Origin: "LINEAGE", Destination: "6130", Mode: entities.Frozen, TransitDays: 1, CostPerUnit: 0.06},
		},
		Products:      []*entities.Product{entities.NewProduct("WHITE", "White Loaf")},
		Forecast:      forecast,
		LaborCalendar: BuildLaborCalendar(Monday, days),
		Costs:         DefaultCosts(),
	}
}

// SingleDemand builds a forecast with one entry.
func SingleDemand(location entities.NodeID, product entities.ProductID, date time.Time, qty float64) *entities.Forecast {
	return &entities.Forecast{
		Name: "test",
		Entries: []entities.ForecastEntry{
			{Location: location, Product: product, Date: date, Quantity: qty},
		},
	}
}
