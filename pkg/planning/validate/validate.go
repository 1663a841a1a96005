// Package validate re-verifies a plan solution against the model
// invariants: demand accounting, shelf life, cohort mass balance, truck
// capacity and the labor capacity equation. Used by tests and the
// validate command; a clean solver result produces no violations.
package validate

import (
	"fmt"
	"math"

	"coldplan/pkg/domain/entities"
	"coldplan/pkg/planning/index"
	"coldplan/pkg/planning/solution"
)

// Tolerance absorbs solver and float accumulation noise.
const Tolerance = 0.05

// Violation describes one failed invariant.
type Violation struct {
	Kind   string
	Detail string
}

// String method for diagnostics
func (v Violation) String() string {
	return v.Kind + ": " + v.Detail
}

// Check runs all invariant checks and returns the violations found.
func Check(ix *index.Index, sol *solution.Solution) []Violation {
	var out []Violation
	out = append(out, checkDemandAccounting(ix, sol)...)
	out = append(out, checkShelfLife(ix, sol)...)
	out = append(out, checkCohortBalance(ix, sol)...)
	out = append(out, checkTruckCapacity(ix, sol)...)
	out = append(out, checkLaborEquation(ix, sol)...)
	out = append(out, checkCostSum(sol)...)
	return out
}

// checkDemandAccounting verifies consumption plus shortage equals
// demand for every demand entry.
func checkDemandAccounting(ix *index.Index, sol *solution.Solution) []Violation {
	var out []Violation
	consumed := make(map[index.DemandKey]float64)
	for k, q := range sol.DemandConsumption {
		consumed[index.DemandKey{Node: k.Node, Product: k.Product, Date: k.DemandDate}] += q
	}
	for _, dk := range ix.DemandKeys {
		total := consumed[dk] + sol.Shortages[dk]
		if math.Abs(total-ix.Demand[dk]) > Tolerance {
			out = append(out, Violation{
				Kind: "demand_accounting",
				Detail: fmt.Sprintf("(%s, %s, %s): consumed+shortage %.3f != demand %.3f",
					dk.Node, dk.Product, dk.Date.Format("2006-01-02"), total, ix.Demand[dk]),
			})
		}
	}
	return out
}

// checkShelfLife verifies every populated cohort is within its
// state's age bound.
func checkShelfLife(ix *index.Index, sol *solution.Solution) []Violation {
	var out []Violation
	for k, q := range sol.CohortInventory {
		if q <= solution.Epsilon {
			continue
		}
		node := ix.Node(k.Node)
		product := ix.Product(k.Product)
		bound := ix.ShelfLifeBound(node, product, k.State)
		if k.AgeDays() > bound {
			out = append(out, Violation{
				Kind: "shelf_life",
				Detail: fmt.Sprintf("cohort (%s, %s, %s, %s, %s) age %d exceeds bound %d",
					k.Node, k.Product, k.ProdDate.Format("2006-01-02"),
					k.CurrDate.Format("2006-01-02"), k.State, k.AgeDays(), bound),
			})
		}
	}
	return out
}

// checkCohortBalance verifies day-over-day cohort deltas equal inflows
// minus outflows.
func checkCohortBalance(ix *index.Index, sol *solution.Solution) []Violation {
	var out []Violation

	arrivals := make(map[entities.DatedCohortKey]float64)
	departures := make(map[entities.DatedCohortKey]float64)
	for _, sh := range sol.Shipments {
		route, ok := routeOf(ix, sh)
		if !ok {
			out = append(out, Violation{Kind: "shipment_route", Detail: fmt.Sprintf("shipment %v has no route", sh)})
			continue
		}
		origin := ix.Node(sh.Origin)
		dest := ix.Node(sh.Destination)
		departures[entities.DatedCohortKey{
			Node: sh.Origin, Product: sh.Product, ProdDate: sh.ProdDate,
			CurrDate: sh.DepartureDate, State: ix.DepartureState(route, origin),
		}] += sh.Quantity
		arrivals[entities.DatedCohortKey{
			Node: sh.Destination, Product: sh.Product,
			ProdDate: ix.ArrivalProdDate(route, dest, sh.ProdDate, sh.ArrivalDate),
			CurrDate: sh.ArrivalDate, State: route.ArrivalState(dest),
		}] += sh.Quantity
	}

	production := make(map[entities.DatedCohortKey]float64)
	for _, b := range sol.ProductionBatches {
		node := ix.Node(b.Node)
		state := entities.Ambient
		if !node.SupportsMode(entities.Ambient) {
			state = entities.Frozen
		}
		production[entities.DatedCohortKey{
			Node: b.Node, Product: b.Product, ProdDate: b.Date, CurrDate: b.Date, State: state,
		}] += b.Quantity
	}

	consumption := make(map[entities.DatedCohortKey]float64)
	for k, q := range sol.DemandConsumption {
		node := ix.Node(k.Node)
		consumption[entities.DatedCohortKey{
			Node: k.Node, Product: k.Product, ProdDate: k.ProdDate,
			CurrDate: k.DemandDate, State: ix.ConsumptionState(node),
		}] += q
	}

	for _, k := range ix.InventoryKeys {
		prev := k
		prev.CurrDate = entities.AddDays(k.CurrDate, -1)
		delta := sol.CohortInventory[k] - sol.CohortInventory[prev]
		flow := production[k] + arrivals[k] + ix.InitialCohorts[k] - departures[k] - consumption[k]
		if math.Abs(delta-flow) > Tolerance {
			out = append(out, Violation{
				Kind: "cohort_balance",
				Detail: fmt.Sprintf("cohort (%s, %s, %s, %s, %s): delta %.3f != net flow %.3f",
					k.Node, k.Product, k.ProdDate.Format("2006-01-02"),
					k.CurrDate.Format("2006-01-02"), k.State, delta, flow),
			})
		}
	}
	return out
}

// checkTruckCapacity verifies lane-day shipment totals fit within the
// day's scheduled truck capacity at truck-bound origins.
func checkTruckCapacity(ix *index.Index, sol *solution.Solution) []Violation {
	var out []Violation
	totals := make(map[string]float64)
	capacity := make(map[string]float64)
	laneName := func(o, d entities.NodeID, m entities.StorageMode, date string) string {
		return fmt.Sprintf("%s->%s/%s@%s", o, d, m, date)
	}

	for _, sh := range sol.Shipments {
		if !ix.Node(sh.Origin).RequiresTrucks {
			continue
		}
		totals[laneName(sh.Origin, sh.Destination, sh.Mode, sh.DepartureDate.Format("2006-01-02"))] += sh.Quantity
	}
	for _, dep := range ix.TruckDepartures {
		capUnits := dep.Schedule.CapacityUnits
		if capUnits <= 0 {
			capUnits = entities.DefaultTruckCapacityUnits
		}
		for _, stop := range dep.Schedule.Stops() {
			capacity[laneName(dep.Schedule.Origin, stop, dep.Schedule.Mode,
				dep.DepartureDate.Format("2006-01-02"))] += capUnits
		}
	}
	for lane, total := range totals {
		if total > capacity[lane]+Tolerance {
			out = append(out, Violation{
				Kind:   "truck_capacity",
				Detail: fmt.Sprintf("lane %s carries %.1f units above scheduled capacity %.1f", lane, total, capacity[lane]),
			})
		}
	}
	return out
}

// checkLaborEquation verifies reported labor hours match the capacity
// equation and that pay tiers sum to the total.
func checkLaborEquation(ix *index.Index, sol *solution.Solution) []Violation {
	var out []Violation

	type nodeDay struct {
		Node entities.NodeID
		Day  string
	}
	unitsByDay := make(map[nodeDay]float64)
	runsByDay := make(map[nodeDay]int)
	for _, b := range sol.ProductionBatches {
		nd := nodeDay{Node: b.Node, Day: b.Date.Format("2006-01-02")}
		unitsByDay[nd] += b.Quantity
		runsByDay[nd]++
	}

	cal := ix.Inputs().LaborCalendar
	for ndk, usage := range sol.LaborByDate {
		node := ix.Node(ndk.Node)
		if node == nil || node.Manufacturing == nil {
			continue
		}
		mfg := node.Manufacturing
		day, _ := cal.Lookup(ndk.Date)
		nd := nodeDay{Node: ndk.Node, Day: ndk.Date.Format("2006-01-02")}
		want := unitsByDay[nd] / mfg.ProductionRatePerHour
		if runsByDay[nd] > 0 {
			want += mfg.StartupHours + mfg.ShutdownHours + mfg.ChangeoverHours*float64(runsByDay[nd])
		}
		if !day.IsFixedDay && runsByDay[nd] > 0 && day.MinimumHours > want {
			// weekend payment floor lifts hours above the requirement
			want = day.MinimumHours
		}
		if math.Abs(usage.TotalHours-want) > Tolerance {
			out = append(out, Violation{
				Kind: "labor_equation",
				Detail: fmt.Sprintf("(%s, %s): reported %.3f hours, capacity equation gives %.3f",
					ndk.Node, nd.Day, usage.TotalHours, want),
			})
		}
		tiers := usage.FixedHours + usage.OvertimeHours + usage.NonFixedHours
		if math.Abs(tiers-usage.TotalHours) > Tolerance {
			out = append(out, Violation{
				Kind: "labor_tiers",
				Detail: fmt.Sprintf("(%s, %s): tier sum %.3f != total %.3f",
					ndk.Node, nd.Day, tiers, usage.TotalHours),
			})
		}
	}
	return out
}

// checkCostSum verifies the cost breakdown matches the objective.
func checkCostSum(sol *solution.Solution) []Violation {
	total, _ := sol.Costs.Total().Float64()
	if math.Abs(total-sol.Objective) > Tolerance {
		return []Violation{{
			Kind:   "cost_breakdown",
			Detail: fmt.Sprintf("components sum to %.4f, objective is %.4f", total, sol.Objective),
		}}
	}
	return nil
}

func routeOf(ix *index.Index, sh solution.Shipment) (entities.Route, bool) {
	for _, r := range ix.Inputs().Routes {
		if r.Origin == sh.Origin && r.Destination == sh.Destination && r.Mode == sh.Mode {
			return r, true
		}
	}
	return entities.Route{}, false
}
