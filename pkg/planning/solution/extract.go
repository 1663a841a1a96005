package solution

import (
	"sort"

	"github.com/shopspring/decimal"

	"coldplan/pkg/domain/entities"
	"coldplan/pkg/planning"
	"coldplan/pkg/planning/builder"
	"coldplan/pkg/planning/index"
	"coldplan/pkg/planning/model"
	"coldplan/pkg/planning/solver"
)

func routeFor(ix *index.Index, origin, dest entities.NodeID, mode entities.StorageMode) (entities.Route, bool) {
	for _, r := range ix.Inputs().Routes {
		if r.Origin == origin && r.Destination == dest && r.Mode == mode {
			return r, true
		}
	}
	return entities.Route{}, false
}

func scheduleByID(ix *index.Index, id string) *entities.TruckSchedule {
	for _, ts := range ix.Inputs().TruckSchedules {
		if ts.ID == id {
			return ts
		}
	}
	return nil
}

// Extract reads solver values into a typed solution. The result must
// carry a usable primal; infeasible or empty results return the typed
// planner error instead.
func Extract(out *builder.Output, res *solver.Result) (*Solution, error) {
	switch {
	case res.Termination == solver.Infeasible:
		return nil, &planning.InfeasibleError{WindowIndex: -1}
	case res.Termination == solver.Unbounded:
		return nil, planning.NewSolverError("model unbounded")
	case !res.HasSolution:
		if res.Termination == solver.TimeLimit {
			return nil, planning.ErrTimeLimit
		}
		return nil, planning.NewSolverError("solver returned no solution (%s)", res.Termination)
	}

	ix := out.Index
	vars := out.Vars
	val := func(v model.VarID) float64 { return clean(res.Values[v]) }

	s := &Solution{
		Start:                   ix.Start,
		End:                     ix.End,
		ProductionByDateProduct: make(map[builder.ProductionKey]float64),
		CohortInventory:         make(map[entities.DatedCohortKey]float64),
		DemandConsumption:       make(map[index.DemandCohortKey]float64),
		Shortages:               make(map[index.DemandKey]float64),
		LaborByDate:             make(map[builder.NodeDateKey]LaborUsage),
		Objective:               res.Objective,
		Diagnostics: Diagnostics{
			Termination:  res.Termination.String(),
			Gap:          res.Gap,
			SolveSeconds: res.WallSeconds,
			Warnings:     append([]string(nil), ix.Warnings...),
		},
	}

	for k, v := range vars.Production {
		if q := val(v); q > 0 {
			s.ProductionByDateProduct[k] = q
			s.ProductionBatches = append(s.ProductionBatches, ProductionBatch{
				Date: k.Date, Product: k.Product, Node: k.Node, Quantity: q,
			})
		}
	}
	sort.Slice(s.ProductionBatches, func(i, j int) bool {
		a, b := s.ProductionBatches[i], s.ProductionBatches[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.Node != b.Node {
			return a.Node < b.Node
		}
		return a.Product < b.Product
	})

	for k, v := range vars.ShipmentCohort {
		q := val(v)
		if q <= 0 {
			continue
		}
		route, ok := routeFor(ix, k.Origin, k.Dest, k.Mode)
		if !ok {
			return nil, planning.NewSolverError("shipment %v lost its route during extraction", k)
		}
		s.Shipments = append(s.Shipments, Shipment{
			Origin: k.Origin, Destination: k.Dest, Product: k.Product,
			ProdDate:      k.ProdDate,
			DepartureDate: k.DepartureDate(route.TransitDays),
			ArrivalDate:   k.ArrivalDate,
			Mode:          k.Mode,
			Quantity:      q,
		})
	}
	sort.Slice(s.Shipments, func(i, j int) bool {
		a, b := s.Shipments[i], s.Shipments[j]
		if !a.DepartureDate.Equal(b.DepartureDate) {
			return a.DepartureDate.Before(b.DepartureDate)
		}
		if a.Origin != b.Origin {
			return a.Origin < b.Origin
		}
		if a.Destination != b.Destination {
			return a.Destination < b.Destination
		}
		return a.Product < b.Product
	})

	for k, v := range vars.InventoryCohort {
		if q := val(v); q > 0 {
			s.CohortInventory[k] = q
		}
	}
	for k, v := range vars.DemandFromCohort {
		if q := val(v); q > 0 {
			s.DemandConsumption[k] = q
		}
	}
	for k, v := range vars.Shortage {
		if q := val(v); q > 0 {
			s.Shortages[k] = q
		}
	}

	extractLabor(out, res, s)
	s.Costs = computeCosts(out, res, s)
	return s, nil
}

func extractLabor(out *builder.Output, res *solver.Result, s *Solution) {
	cal := out.Index.Inputs().LaborCalendar
	for ndk, v := range out.Vars.LaborHoursUsed {
		day, _ := cal.Lookup(ndk.Date)
		usage := LaborUsage{TotalHours: clean(res.Values[v])}
		if fv, ok := out.Vars.FixedHoursUsed[ndk]; ok {
			usage.FixedHours = clean(res.Values[fv])
		}
		if ov, ok := out.Vars.OvertimeHoursUsed[ndk]; ok {
			usage.OvertimeHours = clean(res.Values[ov])
		}
		if nv, ok := out.Vars.NonFixedHoursUsed[ndk]; ok {
			usage.NonFixedHours = clean(res.Values[nv])
		}
		cost := usage.FixedHours*day.RegularRate +
			usage.OvertimeHours*day.OvertimeRate +
			usage.NonFixedHours*day.NonFixedRate
		usage.Cost = decimal.NewFromFloat(cost).Round(4)
		if usage.TotalHours > 0 || usage.Cost.IsPositive() {
			s.LaborByDate[ndk] = usage
		}
	}
}

// computeCosts rebuilds the per-component cost decomposition from the
// extracted quantities, mirroring the objective terms.
func computeCosts(out *builder.Output, res *solver.Result, s *Solution) CostBreakdown {
	ix := out.Index
	costs := ix.Inputs().Costs
	var cb CostBreakdown

	var production float64
	for _, b := range s.ProductionBatches {
		production += b.Quantity * costs.ProductionCostPerUnit
	}
	cb.Production = decimal.NewFromFloat(production).Round(4)

	var labor decimal.Decimal
	for _, usage := range s.LaborByDate {
		labor = labor.Add(usage.Cost)
	}
	cb.Labor = labor

	var transport float64
	for _, sh := range s.Shipments {
		if route, ok := routeFor(ix, sh.Origin, sh.Destination, sh.Mode); ok {
			transport += sh.Quantity * route.CostPerUnit
		}
	}
	cb.Transport = decimal.NewFromFloat(transport).Round(4)

	var storage float64
	if len(out.Vars.PalletCount) > 0 {
		rate := costs.Storage.PalletDayRate + costs.Storage.FixedPerPallet
		for _, v := range out.Vars.PalletCount {
			storage += clean(res.Values[v]) * rate
		}
	} else {
		for k, q := range s.CohortInventory {
			storage += q * costs.Storage.UnitDayRate(k.State)
		}
	}
	cb.Storage = decimal.NewFromFloat(storage).Round(4)

	var truck float64
	for tk, v := range out.Vars.TruckUsed {
		if clean(res.Values[v]) > 0.5 {
			if sched := scheduleByID(ix, tk.ScheduleID); sched != nil {
				truck += sched.FixedCost
			}
		}
	}
	cb.Truck = decimal.NewFromFloat(truck).Round(4)

	var shortage float64
	for _, q := range s.Shortages {
		shortage += q * costs.ShortagePenaltyPerUnit
	}
	cb.Shortage = decimal.NewFromFloat(shortage).Round(4)

	if w := costs.FreshnessIncentiveWeight; w > 0 {
		var staleness float64
		for k, q := range s.DemandConsumption {
			product := ix.Product(k.Product)
			age := entities.DaysBetween(k.ProdDate, k.DemandDate)
			if age > product.AmbientShelfLifeDays {
				age = product.AmbientShelfLifeDays
			}
			if age < 0 {
				age = 0
			}
			staleness += q * w * float64(age)
		}
		cb.Staleness = decimal.NewFromFloat(staleness).Round(4)
	}
	return cb
}

// clean rounds solver fuzz below Epsilon toward zero.
func clean(v float64) float64 {
	if v < Epsilon && v > -Epsilon {
		return 0
	}
	return v
}
