package builder

import (
	"fmt"
	"sort"

	"coldplan/pkg/domain/entities"
	"coldplan/pkg/planning"
	"coldplan/pkg/planning/index"
	"coldplan/pkg/planning/model"
)

// addProductionLinkage ties production quantities to the run binaries:
// big-M activation, production-day envelope, and the distinct-product
// count used by the changeover term.
func (b *Builder) addProductionLinkage() error {
	cal := b.ix.Inputs().LaborCalendar
	for _, n := range b.manufacturingNodes() {
		if n.Manufacturing == nil {
			return planning.NewInvalidInput("manufacturing node %s has no production parameters", n.ID)
		}
		for _, d := range b.ix.Dates {
			day, _ := cal.Lookup(d)
			capUnits := b.dailyProductionCap(n, day)
			ndk := NodeDateKey{Node: n.ID, Date: d}
			ds := d.Format("2006-01-02")

			sumProduced := model.NewExpr()
			for _, p := range b.sortedProducts() {
				pk := ProductionKey{Node: n.ID, Product: p.ID, Date: d}
				prodVar := b.vars.Production[pk]
				binVar := b.vars.ProductProduced[pk]

				// production <= cap * product_produced
				link := model.NewExpr().Add(prodVar, 1).Add(binVar, -capUnits)
				b.m.AddConstraint(fmt.Sprintf("prod_link[%s,%s,%s]", n.ID, p.ID, ds), link, model.LessEq, 0)

				// production_day >= product_produced
				dayLB := model.NewExpr().Add(b.vars.ProductionDay[ndk], 1).Add(binVar, -1)
				b.m.AddConstraint(fmt.Sprintf("prod_day_lb[%s,%s,%s]", n.ID, p.ID, ds), dayLB, model.GreaterEq, 0)

				sumProduced.Add(binVar, 1)
			}

			// production_day <= sum of product binaries (tightening)
			dayUB := model.NewExpr().Add(b.vars.ProductionDay[ndk], 1)
			for _, t := range sumProduced.Terms() {
				dayUB.Add(t.Var, -t.Coef)
			}
			b.m.AddConstraint(fmt.Sprintf("prod_day_ub[%s,%s]", n.ID, ds), dayUB, model.LessEq, 0)

			// num_products_produced = sum of product binaries
			count := model.NewExpr().Add(b.vars.NumProductsProduced[ndk], 1)
			for _, t := range sumProduced.Terms() {
				count.Add(t.Var, -t.Coef)
			}
			b.m.AddConstraint(fmt.Sprintf("num_products[%s,%s]", n.ID, ds), count, model.Equal, 0)
		}
	}
	return nil
}

// addCohortBalance writes the per-cohort flow balance: today's level
// equals yesterday's level plus production birth and arrivals, minus
// departures and demand consumption. Initial inventory enters the
// first day's balance as a constant inflow.
func (b *Builder) addCohortBalance() {
	for _, k := range b.ix.InventoryKeys {
		expr := model.NewExpr().Add(b.vars.InventoryCohort[k], 1)

		// yesterday's level
		prevKey := k
		prevKey.CurrDate = entities.AddDays(k.CurrDate, -1)
		if prev, ok := b.vars.InventoryCohort[prevKey]; ok {
			expr.Add(prev, -1)
		}

		// production birth on the cohort's production date
		node := b.ix.Node(k.Node)
		if node.CanManufacture && k.ProdDate.Equal(k.CurrDate) && k.State == b.productionState(node) {
			if prodVar, ok := b.vars.Production[ProductionKey{Node: k.Node, Product: k.Product, Date: k.CurrDate}]; ok {
				expr.Add(prodVar, -1)
			}
		}

		for _, v := range b.arrivalsByCohort[k] {
			expr.Add(v, -1)
		}
		for _, v := range b.departuresByCohort[k] {
			expr.Add(v, 1)
		}

		if node.HasDemand && k.State == b.ix.ConsumptionState(node) {
			dk := index.DemandCohortKey{Node: k.Node, Product: k.Product, ProdDate: k.ProdDate, DemandDate: k.CurrDate}
			if dv, ok := b.vars.DemandFromCohort[dk]; ok {
				expr.Add(dv, 1)
			}
		}

		rhs := b.ix.InitialCohorts[k]
		b.m.AddConstraint(fmt.Sprintf("balance[%s,%s,%s,%s,%s]",
			k.Node, k.Product, k.ProdDate.Format("2006-01-02"), k.CurrDate.Format("2006-01-02"), k.State),
			expr, model.Equal, rhs)
	}
}

// productionState is the storage state newly produced units take.
func (b *Builder) productionState(n *entities.Node) entities.StorageMode {
	if n.SupportsMode(entities.Ambient) {
		return entities.Ambient
	}
	return entities.Frozen
}

// addStorageDelay forbids zero-residency flow-through at storage nodes
// without scheduled trucks: a cohort may only depart on a day if it was
// on hand at the end of the previous day.
func (b *Builder) addStorageDelay() {
	for _, depKey := range b.ix.InventoryKeys {
		departures := b.departuresByCohort[depKey]
		if len(departures) == 0 {
			continue
		}
		node := b.ix.Node(depKey.Node)
		if node.CanManufacture || node.RequiresTrucks {
			continue
		}
		expr := model.NewExpr()
		for _, v := range departures {
			expr.Add(v, 1)
		}
		prevKey := depKey
		prevKey.CurrDate = entities.AddDays(depKey.CurrDate, -1)
		if prev, ok := b.vars.InventoryCohort[prevKey]; ok {
			expr.Add(prev, -1)
		}
		rhs := 0.0
		if depKey.CurrDate.Equal(b.ix.Start) {
			rhs = b.ix.InitialCohorts[depKey]
		}
		b.m.AddConstraint(fmt.Sprintf("storage_delay[%s,%s,%s,%s,%s]",
			depKey.Node, depKey.Product, depKey.ProdDate.Format("2006-01-02"),
			depKey.CurrDate.Format("2006-01-02"), depKey.State),
			expr, model.LessEq, rhs)
	}
}

// addDemandSatisfaction writes demand accounting: cohort consumption
// plus shortage equals demand.
func (b *Builder) addDemandSatisfaction() {
	for _, dk := range b.ix.DemandKeys {
		expr := model.NewExpr()
		for _, v := range b.demandVarsByKey[dk] {
			expr.Add(v, 1)
		}
		if sv, ok := b.vars.Shortage[dk]; ok {
			expr.Add(sv, 1)
		}
		b.m.AddConstraint(fmt.Sprintf("demand[%s,%s,%s]", dk.Node, dk.Product, dk.Date.Format("2006-01-02")),
			expr, model.Equal, b.ix.Demand[dk])
	}
}

// addLaborConstraints writes the labor capacity equation and the
// pay-tier decomposition.
func (b *Builder) addLaborConstraints() error {
	cal := b.ix.Inputs().LaborCalendar
	for _, n := range b.manufacturingNodes() {
		mfg := n.Manufacturing
		if mfg.ProductionRatePerHour <= 0 {
			return planning.NewInvalidInput("manufacturing node %s has non-positive production rate", n.ID)
		}
		for _, d := range b.ix.Dates {
			day, _ := cal.Lookup(d)
			ndk := NodeDateKey{Node: n.ID, Date: d}
			ds := d.Format("2006-01-02")
			labor := b.vars.LaborHoursUsed[ndk]

			// labor = sum(production)/rate + (S+E-C)*production_day + C*sum(product_produced).
			// On non-fixed days the relation relaxes to >= so the
			// weekend payment minimum can lift hours above the
			// production requirement; minimization keeps them tight
			// otherwise.
			eq := model.NewExpr().Add(labor, 1)
			for _, p := range b.sortedProducts() {
				pk := ProductionKey{Node: n.ID, Product: p.ID, Date: d}
				eq.Add(b.vars.Production[pk], -1/mfg.ProductionRatePerHour)
				eq.Add(b.vars.ProductProduced[pk], -mfg.ChangeoverHours)
			}
			eq.Add(b.vars.ProductionDay[ndk], -(mfg.StartupHours + mfg.ShutdownHours - mfg.ChangeoverHours))
			sense := model.Equal
			if !day.IsFixedDay {
				sense = model.GreaterEq
			}
			b.m.AddConstraint(fmt.Sprintf("labor_eq[%s,%s]", n.ID, ds), eq, sense, 0)

			if day.IsFixedDay {
				// labor = fixed_used + overtime_used; caps are variable bounds
				tier := model.NewExpr().Add(labor, 1).
					Add(b.vars.FixedHoursUsed[ndk], -1).
					Add(b.vars.OvertimeHoursUsed[ndk], -1)
				b.m.AddConstraint(fmt.Sprintf("labor_tiers[%s,%s]", n.ID, ds), tier, model.Equal, 0)
			} else {
				tier := model.NewExpr().Add(labor, 1).Add(b.vars.NonFixedHoursUsed[ndk], -1)
				b.m.AddConstraint(fmt.Sprintf("labor_tiers[%s,%s]", n.ID, ds), tier, model.Equal, 0)

				occurs := b.vars.ProductionOccurs[ndk]
				// production_occurs >= production_day
				trig := model.NewExpr().Add(occurs, 1).Add(b.vars.ProductionDay[ndk], -1)
				b.m.AddConstraint(fmt.Sprintf("occurs_trigger[%s,%s]", n.ID, ds), trig, model.GreaterEq, 0)
				if day.MinimumHours > 0 {
					// non_fixed_used >= minimum_hours * production_occurs
					minPay := model.NewExpr().Add(b.vars.NonFixedHoursUsed[ndk], 1).Add(occurs, -day.MinimumHours)
					b.m.AddConstraint(fmt.Sprintf("weekend_minimum[%s,%s]", n.ID, ds), minPay, model.GreaterEq, 0)
				}
			}
		}
	}
	return nil
}

// addPalletConstraints rounds stored units up to whole pallet slots
// when storage is priced per pallet.
func (b *Builder) addPalletConstraints() {
	for k, palletVar := range b.vars.PalletCount {
		product := b.ix.Product(k.Product)
		upp := float64(product.UnitsPerPallet)
		expr := model.NewExpr().Add(palletVar, upp).Add(b.vars.InventoryCohort[k], -1)
		b.m.AddConstraint(fmt.Sprintf("pallet_ceil[%s,%s,%s,%s,%s]",
			k.Node, k.Product, k.ProdDate.Format("2006-01-02"), k.CurrDate.Format("2006-01-02"), k.State),
			expr, model.GreaterEq, 0)
	}
}

// laneTruck pairs a dated truck departure with its per-lane capacity.
type laneTruck struct {
	key      TruckKey
	schedule *entities.TruckSchedule
}

// addTruckConstraints couples shipments to dated truck departures. At
// origins that require trucks, lanes with no departure are closed;
// lanes with departures share the departures' unit capacity. Pallet
// tracking adds integer per-product loads and a pallet ceiling per
// truck.
func (b *Builder) addTruckConstraints() error {
	laneTrucks := make(map[laneKey][]laneTruck)
	for _, dep := range b.ix.TruckDepartures {
		for _, stop := range dep.Schedule.Stops() {
			route, ok := b.routeFor(dep.Schedule.Origin, stop, dep.Schedule.Mode)
			if !ok {
				return planning.NewInvalidInput(
					"truck schedule %q serves stop %s with no %s route from %s",
					dep.Schedule.ID, stop, dep.Schedule.Mode, dep.Schedule.Origin)
			}
			lane := laneKey{
				Origin:  dep.Schedule.Origin,
				Dest:    stop,
				Mode:    dep.Schedule.Mode,
				Arrival: entities.AddDays(dep.DepartureDate, route.TransitDays),
			}
			laneTrucks[lane] = append(laneTrucks[lane], laneTruck{
				key:      TruckKey{ScheduleID: dep.Schedule.ID, Date: dep.DepartureDate},
				schedule: dep.Schedule,
			})
		}
	}

	lanes := make([]laneKey, 0, len(b.shipmentsByLane))
	for lane := range b.shipmentsByLane {
		lanes = append(lanes, lane)
	}
	sort.Slice(lanes, func(i, j int) bool {
		a, c := lanes[i], lanes[j]
		if a.Origin != c.Origin {
			return a.Origin < c.Origin
		}
		if a.Dest != c.Dest {
			return a.Dest < c.Dest
		}
		if a.Mode != c.Mode {
			return a.Mode < c.Mode
		}
		return a.Arrival.Before(c.Arrival)
	})

	for _, lane := range lanes {
		shipKeys := b.shipmentsByLane[lane]
		origin := b.ix.Node(lane.Origin)
		trucks := laneTrucks[lane]
		if len(trucks) == 0 {
			if origin.RequiresTrucks {
				for _, sk := range shipKeys {
					b.m.FixVar(b.vars.ShipmentCohort[sk], 0)
				}
			}
			continue
		}

		laneName := fmt.Sprintf("%s,%s,%s,%s", lane.Origin, lane.Dest, lane.Mode, lane.Arrival.Format("2006-01-02"))

		// total units on the lane <= combined capacity of used trucks
		capExpr := model.NewExpr()
		for _, sk := range shipKeys {
			capExpr.Add(b.vars.ShipmentCohort[sk], 1)
		}
		for _, t := range trucks {
			capUnits := t.schedule.CapacityUnits
			if capUnits <= 0 {
				capUnits = entities.DefaultTruckCapacityUnits
			}
			capExpr.Add(b.vars.TruckUsed[t.key], -capUnits)
		}
		b.m.AddConstraint("truck_capacity["+laneName+"]", capExpr, model.LessEq, 0)

		if !b.cfg.UseTruckPalletTracking {
			continue
		}

		// per-product pallet loads cover the lane's units
		byProduct := make(map[entities.ProductID][]index.ShipmentKey)
		for _, sk := range shipKeys {
			byProduct[sk.Product] = append(byProduct[sk.Product], sk)
		}
		for _, p := range b.sortedProducts() {
			keys := byProduct[p.ID]
			if len(keys) == 0 {
				continue
			}
			expr := model.NewExpr()
			upp := float64(p.UnitsPerPallet)
			for _, t := range trucks {
				lk := TruckLoadKey{ScheduleID: t.key.ScheduleID, Date: t.key.Date, Stop: lane.Dest, Product: p.ID}
				if lv, ok := b.vars.TruckPalletLoad[lk]; ok {
					expr.Add(lv, upp)
				}
			}
			for _, sk := range keys {
				expr.Add(b.vars.ShipmentCohort[sk], -1)
			}
			b.m.AddConstraint(fmt.Sprintf("truck_pallet_cover[%s,%s]", laneName, p.ID), expr, model.GreaterEq, 0)
		}
	}

	// per-truck pallet ceiling across stops and products
	if b.cfg.UseTruckPalletTracking {
		for _, dep := range b.ix.TruckDepartures {
			tk := TruckKey{ScheduleID: dep.Schedule.ID, Date: dep.DepartureDate}
			palletCap := dep.Schedule.PalletCapacity
			if palletCap <= 0 {
				palletCap = entities.DefaultTruckPalletCapacity
			}
			expr := model.NewExpr()
			for _, stop := range dep.Schedule.Stops() {
				for _, p := range b.sortedProducts() {
					lk := TruckLoadKey{ScheduleID: tk.ScheduleID, Date: tk.Date, Stop: stop, Product: p.ID}
					if lv, ok := b.vars.TruckPalletLoad[lk]; ok {
						expr.Add(lv, 1)
					}
				}
			}
			expr.Add(b.vars.TruckUsed[tk], -float64(palletCap))
			b.m.AddConstraint(fmt.Sprintf("truck_pallet_cap[%s,%s]",
				tk.ScheduleID, tk.Date.Format("2006-01-02")), expr, model.LessEq, 0)
		}
	}
	return nil
}
