package builder

import (
	"math"

	"coldplan/pkg/domain/entities"
	"coldplan/pkg/planning/index"
)

// Hints carries prior-solution values used to warm-start a solve. Keys
// follow the variable arenas; entries for tuples absent from the
// current model are ignored, so hints from a smaller or analogous
// model apply cleanly.
type Hints struct {
	Production      map[ProductionKey]float64
	InventoryCohort map[entities.DatedCohortKey]float64
	ShipmentCohort  map[index.ShipmentKey]float64
}

// ApplyWarmStart loads hint values into the model: continuous levels
// directly, run binaries from production positivity, and pallet counts
// from rounded-up inventory. Solvers that ignore hints are unaffected.
func (o *Output) ApplyWarmStart(h Hints) {
	dayActive := make(map[NodeDateKey]bool)
	for pk, qty := range h.Production {
		v, ok := o.Vars.Production[pk]
		if !ok {
			continue
		}
		o.Model.SetHint(v, qty)
		if bin, ok := o.Vars.ProductProduced[pk]; ok {
			if qty > 0 {
				o.Model.SetHint(bin, 1)
				dayActive[NodeDateKey{Node: pk.Node, Date: pk.Date}] = true
			} else {
				o.Model.SetHint(bin, 0)
			}
		}
	}
	if len(h.Production) > 0 {
		for ndk, v := range o.Vars.ProductionDay {
			if dayActive[ndk] {
				o.Model.SetHint(v, 1)
			} else {
				o.Model.SetHint(v, 0)
			}
		}
	}
	for k, qty := range h.InventoryCohort {
		v, ok := o.Vars.InventoryCohort[k]
		if !ok {
			continue
		}
		o.Model.SetHint(v, qty)
		if pv, ok := o.Vars.PalletCount[k]; ok {
			upp := float64(o.Index.Product(k.Product).UnitsPerPallet)
			o.Model.SetHint(pv, math.Ceil(qty/upp))
		}
	}
	for k, qty := range h.ShipmentCohort {
		if v, ok := o.Vars.ShipmentCohort[k]; ok {
			o.Model.SetHint(v, qty)
		}
	}
}
