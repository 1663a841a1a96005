package builder

import (
	"coldplan/pkg/domain/entities"
	"coldplan/pkg/planning/model"
)

// setObjective assembles the minimization objective: production, labor,
// transport, storage, truck fixed costs, shortage penalty and the
// optional staleness penalty.
func (b *Builder) setObjective() {
	costs := b.ix.Inputs().Costs
	obj := model.NewExpr()

	// production cost
	if costs.ProductionCostPerUnit != 0 {
		for _, v := range b.vars.Production {
			obj.Add(v, costs.ProductionCostPerUnit)
		}
	}

	// labor cost by pay tier
	cal := b.ix.Inputs().LaborCalendar
	for ndk, v := range b.vars.FixedHoursUsed {
		day, _ := cal.Lookup(ndk.Date)
		obj.Add(v, day.RegularRate)
		obj.Add(b.vars.OvertimeHoursUsed[ndk], day.OvertimeRate)
	}
	for ndk, v := range b.vars.NonFixedHoursUsed {
		day, _ := cal.Lookup(ndk.Date)
		obj.Add(v, day.NonFixedRate)
	}

	// transport cost per route unit
	for k, v := range b.vars.ShipmentCohort {
		if route, ok := b.routeFor(k.Origin, k.Dest, k.Mode); ok {
			obj.Add(v, route.CostPerUnit)
		}
	}

	// storage cost: pallet pricing when tracked, unit-day rates otherwise
	if len(b.vars.PalletCount) > 0 {
		rate := costs.Storage.PalletDayRate + costs.Storage.FixedPerPallet
		for _, v := range b.vars.PalletCount {
			obj.Add(v, rate)
		}
	} else {
		for k, v := range b.vars.InventoryCohort {
			obj.Add(v, costs.Storage.UnitDayRate(k.State))
		}
	}

	// truck fixed cost
	for tk, v := range b.vars.TruckUsed {
		if sched := b.scheduleByID(tk.ScheduleID); sched != nil && sched.FixedCost != 0 {
			obj.Add(v, sched.FixedCost)
		}
	}

	// shortage penalty
	for _, v := range b.vars.Shortage {
		obj.Add(v, costs.ShortagePenaltyPerUnit)
	}

	// staleness penalty biases consumption toward fresher cohorts
	if w := costs.FreshnessIncentiveWeight; w > 0 {
		for k, v := range b.vars.DemandFromCohort {
			product := b.ix.Product(k.Product)
			age := entities.DaysBetween(k.ProdDate, k.DemandDate)
			if age > product.AmbientShelfLifeDays {
				age = product.AmbientShelfLifeDays
			}
			if age < 0 {
				age = 0
			}
			obj.Add(v, w*float64(age))
		}
	}

	b.m.SetObjective(obj)
}

func (b *Builder) scheduleByID(id string) *entities.TruckSchedule {
	for _, ts := range b.ix.Inputs().TruckSchedules {
		if ts.ID == id {
			return ts
		}
	}
	return nil
}
