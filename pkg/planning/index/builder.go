// Package index enumerates the sparse index sets a plan model is built
// over: horizon dates, demand, inventory cohorts, shipment cohorts and
// demand-satisfaction cohorts, with shelf-life pruning applied during
// construction.
package index

import (
	"fmt"
	"sort"
	"time"

	"coldplan/pkg/domain/entities"
	"coldplan/pkg/planning"
)

// unboundedShelfLife stands in for "no shelf-life enforcement"; any age
// representable inside a planning horizon passes.
const unboundedShelfLife = 1 << 20

// Index holds the enumerated index sets for one solve. Slices are
// sorted lexicographically so model builds are reproducible; the
// membership maps answer containment queries.
type Index struct {
	Start time.Time
	End   time.Time
	Dates []time.Time

	// ProdDateStart is the earliest production date indexed; the span
	// runs through End.
	ProdDateStart time.Time

	Demand     map[DemandKey]float64
	DemandKeys []DemandKey

	InventoryCohorts map[entities.DatedCohortKey]struct{}
	InventoryKeys    []entities.DatedCohortKey

	ShipmentCohorts map[ShipmentKey]struct{}
	ShipmentKeys    []ShipmentKey

	DemandCohorts    map[DemandCohortKey]struct{}
	DemandCohortKeys []DemandCohortKey

	// InitialCohorts carry snapshot quantities injected into the first
	// day's balance, keyed at CurrDate = Start.
	InitialCohorts map[entities.DatedCohortKey]float64

	TruckDepartures []entities.TruckDeparture

	Warnings []string

	inputs *planning.PlanInputs
	cfg    planning.PlanConfig
	nodes  map[entities.NodeID]*entities.Node
	prods  map[entities.ProductID]*entities.Product
	// thawFed marks ambient-only nodes reached exclusively over frozen
	// routes; their ambient cohorts run on the thawed shelf-life clock
	// and are keyed by thaw (arrival) date.
	thawFed map[entities.NodeID]bool
}

// Inputs returns the plan inputs the index was built from.
func (ix *Index) Inputs() *planning.PlanInputs { return ix.inputs }

// Config returns the configuration the index was built under.
func (ix *Index) Config() planning.PlanConfig { return ix.cfg }

// Node resolves a node by ID.
func (ix *Index) Node(id entities.NodeID) *entities.Node { return ix.nodes[id] }

// Product resolves a product by ID.
func (ix *Index) Product(id entities.ProductID) *entities.Product { return ix.prods[id] }

// ThawFed reports whether the node's ambient stock runs on the thawed
// shelf-life clock.
func (ix *Index) ThawFed(id entities.NodeID) bool { return ix.thawFed[id] }

// ConsumptionState returns the storage state demand at the node draws
// from: ambient when supported, frozen otherwise.
func (ix *Index) ConsumptionState(n *entities.Node) entities.StorageMode {
	if n.SupportsMode(entities.Ambient) {
		return entities.Ambient
	}
	return entities.Frozen
}

// ShelfLifeBound returns the maximum cohort age (in days, measured from
// the cohort key's production date) at a node in a state.
func (ix *Index) ShelfLifeBound(n *entities.Node, p *entities.Product, state entities.StorageMode) int {
	if !ix.cfg.EnforceShelfLife {
		return unboundedShelfLife
	}
	if state == entities.Frozen {
		return p.FrozenShelfLifeDays
	}
	if ix.thawFed[n.ID] {
		return p.ThawedShelfLifeDays
	}
	return p.AmbientShelfLifeDays
}

// ArrivalProdDate returns the production-date key an arriving shipment
// cohort takes at the destination. Frozen arrivals at ambient-only
// destinations thaw and are re-keyed to the arrival date, which starts
// the thawed shelf-life clock; all other arrivals keep the original
// production date.
func (ix *Index) ArrivalProdDate(route entities.Route, dest *entities.Node, prodDate, arrival time.Time) time.Time {
	if route.Thaws(dest) {
		return arrival
	}
	return prodDate
}

// DepartureState returns the state inventory leaves the origin in when
// loaded onto a route: the route's mode when the origin stores it,
// otherwise ambient (goods are frozen during loading).
func (ix *Index) DepartureState(route entities.Route, origin *entities.Node) entities.StorageMode {
	if origin.SupportsMode(route.Mode) {
		return route.Mode
	}
	return entities.Ambient
}

// Build enumerates the index sets for the horizon [start, end].
func Build(inputs *planning.PlanInputs, cfg planning.PlanConfig, start, end time.Time) (*Index, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	start, end = entities.Midnight(start), entities.Midnight(end)
	if err := inputs.Validate(start, end); err != nil {
		return nil, err
	}

	ix := &Index{
		Start:            start,
		End:              end,
		Dates:            entities.DateRange(start, end),
		Demand:           make(map[DemandKey]float64),
		InventoryCohorts: make(map[entities.DatedCohortKey]struct{}),
		ShipmentCohorts:  make(map[ShipmentKey]struct{}),
		DemandCohorts:    make(map[DemandCohortKey]struct{}),
		InitialCohorts:   make(map[entities.DatedCohortKey]float64),
		inputs:           inputs,
		cfg:              cfg,
		nodes:            inputs.NodeMap(),
		prods:            inputs.ProductMap(),
	}
	ix.classifyThawFedNodes()
	ix.buildProdDateSpan()
	ix.buildDemand()
	ix.buildInitialCohorts()
	ix.buildInventoryCohorts()
	ix.buildShipmentCohorts()
	ix.buildDemandCohorts()
	if cfg.FilterShipmentsByFreshness {
		ix.pruneShipmentsByFreshness()
	}
	ix.buildTruckDepartures()
	ix.sortKeys()
	ix.checkDemandReachability()
	return ix, nil
}

// classifyThawFedNodes marks ambient-only non-manufacturing nodes whose
// inbound routes are all frozen.
func (ix *Index) classifyThawFedNodes() {
	ix.thawFed = make(map[entities.NodeID]bool, len(ix.inputs.Nodes))
	for _, n := range ix.inputs.Nodes {
		if !n.AmbientOnly() || n.CanManufacture {
			continue
		}
		inbound := 0
		allFrozen := true
		for _, r := range ix.inputs.Routes {
			if r.Destination != n.ID {
				continue
			}
			inbound++
			if r.Mode != entities.Frozen {
				allFrozen = false
			}
		}
		ix.thawFed[n.ID] = inbound > 0 && allFrozen
	}
}

// buildProdDateSpan sets the earliest indexed production date:
// start - max transit, extended further back when the snapshot carries
// older synthetic production dates.
func (ix *Index) buildProdDateSpan() {
	ix.ProdDateStart = entities.AddDays(ix.Start, -ix.inputs.MaxTransitDays())
	if snap := ix.inputs.InitialInventory; snap != nil {
		if earliest, ok := snap.EarliestProdDate(); ok && earliest.Before(ix.ProdDateStart) {
			ix.ProdDateStart = earliest
		}
	}
}

func (ix *Index) buildDemand() {
	if ix.inputs.Forecast == nil {
		return
	}
	for _, e := range ix.inputs.Forecast.Entries {
		if e.Quantity <= 0 {
			continue
		}
		key := DemandKey{Node: e.Location, Product: e.Product, Date: entities.Midnight(e.Date)}
		ix.Demand[key] += e.Quantity
	}
}

// buildInitialCohorts injects snapshot quantities at the horizon start.
// Ages keep advancing between the snapshot date and the start; stock
// already past its shelf-life bound at the start is dropped with a
// warning.
func (ix *Index) buildInitialCohorts() {
	snap := ix.inputs.InitialInventory
	if snap == nil {
		return
	}
	for key, qty := range snap.ToCohorts() {
		if qty <= 0 {
			continue
		}
		node := ix.nodes[key.Node]
		product := ix.prods[key.Product]
		if !node.SupportsMode(key.State) {
			ix.Warnings = append(ix.Warnings, fmt.Sprintf(
				"initial inventory at %s in unsupported state %s dropped", key.Node, key.State))
			continue
		}
		age := entities.DaysBetween(key.ProdDate, ix.Start)
		if age > ix.ShelfLifeBound(node, product, key.State) {
			ix.Warnings = append(ix.Warnings, fmt.Sprintf(
				"initial inventory cohort (%s, %s, %s, %s) expired before horizon start",
				key.Node, key.Product, key.ProdDate.Format("2006-01-02"), key.State))
			continue
		}
		dated := entities.DatedCohortKey{
			Node: key.Node, Product: key.Product,
			ProdDate: key.ProdDate, CurrDate: ix.Start, State: key.State,
		}
		ix.InitialCohorts[dated] += qty
	}
}

// buildInventoryCohorts enumerates (node, product, prod date, current
// date, state) tuples whose age respects the state's shelf life.
func (ix *Index) buildInventoryCohorts() {
	for _, n := range ix.inputs.Nodes {
		for _, p := range ix.inputs.Products {
			for _, state := range []entities.StorageMode{entities.Ambient, entities.Frozen} {
				if !n.SupportsMode(state) {
					continue
				}
				bound := ix.ShelfLifeBound(n, p, state)
				for pd := ix.ProdDateStart; !pd.After(ix.End); pd = entities.AddDays(pd, 1) {
					first := ix.Start
					if pd.After(first) {
						first = pd
					}
					for cd := first; !cd.After(ix.End); cd = entities.AddDays(cd, 1) {
						if entities.DaysBetween(pd, cd) > bound {
							break
						}
						key := entities.DatedCohortKey{
							Node: n.ID, Product: p.ID, ProdDate: pd, CurrDate: cd, State: state,
						}
						ix.InventoryCohorts[key] = struct{}{}
					}
				}
			}
		}
	}
}

// buildShipmentCohorts enumerates shipments along routes. A shipment
// exists only when the departing cohort exists at the origin on the
// departure date and the arriving cohort exists at the destination on
// the arrival date.
func (ix *Index) buildShipmentCohorts() {
	for _, route := range ix.inputs.Routes {
		origin := ix.nodes[route.Origin]
		dest := ix.nodes[route.Destination]
		depState := ix.DepartureState(route, origin)
		arrState := route.ArrivalState(dest)
		for _, p := range ix.inputs.Products {
			firstArrival := entities.AddDays(ix.Start, route.TransitDays)
			for ad := firstArrival; !ad.After(ix.End); ad = entities.AddDays(ad, 1) {
				depDate := entities.AddDays(ad, -route.TransitDays)
				for pd := ix.ProdDateStart; !pd.After(depDate); pd = entities.AddDays(pd, 1) {
					depKey := entities.DatedCohortKey{
						Node: route.Origin, Product: p.ID, ProdDate: pd, CurrDate: depDate, State: depState,
					}
					if _, ok := ix.InventoryCohorts[depKey]; !ok {
						continue
					}
					arrKey := entities.DatedCohortKey{
						Node:     route.Destination,
						Product:  p.ID,
						ProdDate: ix.ArrivalProdDate(route, dest, pd, ad),
						CurrDate: ad,
						State:    arrState,
					}
					if _, ok := ix.InventoryCohorts[arrKey]; !ok {
						continue
					}
					ix.ShipmentCohorts[ShipmentKey{
						Origin: route.Origin, Dest: route.Destination, Product: p.ID,
						ProdDate: pd, ArrivalDate: ad, Mode: route.Mode,
					}] = struct{}{}
				}
			}
		}
	}
}

// buildDemandCohorts enumerates the cohorts allowed to satisfy each
// demand, honoring shelf life at the demand node and the optional
// freshness floor. Cohorts predating the horizon start are exempt from
// the floor so initial inventory drains first.
func (ix *Index) buildDemandCohorts() {
	for key := range ix.Demand {
		node := ix.nodes[key.Node]
		state := ix.ConsumptionState(node)
		for pd := ix.ProdDateStart; !pd.After(key.Date); pd = entities.AddDays(pd, 1) {
			invKey := entities.DatedCohortKey{
				Node: key.Node, Product: key.Product, ProdDate: pd, CurrDate: key.Date, State: state,
			}
			if _, ok := ix.InventoryCohorts[invKey]; !ok {
				continue
			}
			if ix.cfg.MinFreshnessDays > 0 && !pd.Before(ix.Start) {
				if entities.DaysBetween(pd, key.Date) < ix.cfg.MinFreshnessDays {
					continue
				}
			}
			ix.DemandCohorts[DemandCohortKey{
				Node: key.Node, Product: key.Product, ProdDate: pd, DemandDate: key.Date,
			}] = struct{}{}
		}
	}
}

// pruneShipmentsByFreshness drops shipment cohorts into terminal demand
// nodes whose arriving cohort can serve no demand on or after arrival.
// Pure model-size reduction; cohorts serving onward routes are kept.
func (ix *Index) pruneShipmentsByFreshness() {
	outbound := make(map[entities.NodeID]bool)
	for _, r := range ix.inputs.Routes {
		outbound[r.Origin] = true
	}
	for key := range ix.ShipmentCohorts {
		if outbound[key.Dest] {
			continue
		}
		dest := ix.nodes[key.Dest]
		if !dest.HasDemand {
			continue
		}
		route, ok := ix.routeFor(key.Origin, key.Dest, key.Mode)
		if !ok {
			continue
		}
		arrivalPD := ix.ArrivalProdDate(route, dest, key.ProdDate, key.ArrivalDate)
		usable := false
		for dd := key.ArrivalDate; !dd.After(ix.End); dd = entities.AddDays(dd, 1) {
			dk := DemandCohortKey{Node: key.Dest, Product: key.Product, ProdDate: arrivalPD, DemandDate: dd}
			if _, ok := ix.DemandCohorts[dk]; ok {
				usable = true
				break
			}
		}
		if !usable {
			delete(ix.ShipmentCohorts, key)
		}
	}
}

func (ix *Index) routeFor(origin, dest entities.NodeID, mode entities.StorageMode) (entities.Route, bool) {
	for _, r := range ix.inputs.Routes {
		if r.Origin == origin && r.Destination == dest && r.Mode == mode {
			return r, true
		}
	}
	return entities.Route{}, false
}

func (ix *Index) buildTruckDepartures() {
	for _, ts := range ix.inputs.TruckSchedules {
		ix.TruckDepartures = append(ix.TruckDepartures, ts.ExpandDepartures(ix.Start, ix.End)...)
	}
	sort.SliceStable(ix.TruckDepartures, func(i, j int) bool {
		a, b := ix.TruckDepartures[i], ix.TruckDepartures[j]
		if !a.DepartureDate.Equal(b.DepartureDate) {
			return a.DepartureDate.Before(b.DepartureDate)
		}
		return a.Schedule.ID < b.Schedule.ID
	})
}

func (ix *Index) sortKeys() {
	ix.DemandKeys = make([]DemandKey, 0, len(ix.Demand))
	for k := range ix.Demand {
		ix.DemandKeys = append(ix.DemandKeys, k)
	}
	sort.Slice(ix.DemandKeys, func(i, j int) bool {
		return compareDemandKeys(ix.DemandKeys[i], ix.DemandKeys[j]) < 0
	})

	ix.InventoryKeys = make([]entities.DatedCohortKey, 0, len(ix.InventoryCohorts))
	for k := range ix.InventoryCohorts {
		ix.InventoryKeys = append(ix.InventoryKeys, k)
	}
	sort.Slice(ix.InventoryKeys, func(i, j int) bool {
		return compareInventoryKeys(ix.InventoryKeys[i], ix.InventoryKeys[j]) < 0
	})

	ix.ShipmentKeys = make([]ShipmentKey, 0, len(ix.ShipmentCohorts))
	for k := range ix.ShipmentCohorts {
		ix.ShipmentKeys = append(ix.ShipmentKeys, k)
	}
	sort.Slice(ix.ShipmentKeys, func(i, j int) bool {
		return compareShipmentKeys(ix.ShipmentKeys[i], ix.ShipmentKeys[j]) < 0
	})

	ix.DemandCohortKeys = make([]DemandCohortKey, 0, len(ix.DemandCohorts))
	for k := range ix.DemandCohorts {
		ix.DemandCohortKeys = append(ix.DemandCohortKeys, k)
	}
	sort.Slice(ix.DemandCohortKeys, func(i, j int) bool {
		return compareDemandCohortKeys(ix.DemandCohortKeys[i], ix.DemandCohortKeys[j]) < 0
	})
}

// checkDemandReachability warns about demand no cohort can serve: a
// demand cohort only counts when stock can actually be available at
// the node by the demand date, through local production, initial
// inventory, or an inbound shipment arrival. The model is still built;
// the gap surfaces as shortage or infeasibility.
func (ix *Index) checkDemandReachability() {
	// earliest date each (node, product, prod-date) cohort can hold stock
	available := make(map[entities.CohortKey]time.Time)
	note := func(key entities.CohortKey, date time.Time) {
		if cur, ok := available[key]; !ok || date.Before(cur) {
			available[key] = date
		}
	}
	for k := range ix.InitialCohorts {
		note(k.Key(), ix.Start)
	}
	for _, n := range ix.inputs.Nodes {
		if !n.CanManufacture {
			continue
		}
		state := entities.Ambient
		if !n.SupportsMode(entities.Ambient) {
			state = entities.Frozen
		}
		for _, p := range ix.inputs.Products {
			for _, d := range ix.Dates {
				note(entities.CohortKey{Node: n.ID, Product: p.ID, ProdDate: d, State: state}, d)
			}
		}
	}
	for k := range ix.ShipmentCohorts {
		route, ok := ix.routeFor(k.Origin, k.Dest, k.Mode)
		if !ok {
			continue
		}
		dest := ix.nodes[k.Dest]
		note(entities.CohortKey{
			Node: k.Dest, Product: k.Product,
			ProdDate: ix.ArrivalProdDate(route, dest, k.ProdDate, k.ArrivalDate),
			State:    route.ArrivalState(dest),
		}, k.ArrivalDate)
	}

	for _, key := range ix.DemandKeys {
		node := ix.nodes[key.Node]
		state := ix.ConsumptionState(node)
		reachable := false
		for pd := ix.ProdDateStart; !pd.After(key.Date); pd = entities.AddDays(pd, 1) {
			if _, ok := ix.DemandCohorts[DemandCohortKey{
				Node: key.Node, Product: key.Product, ProdDate: pd, DemandDate: key.Date,
			}]; !ok {
				continue
			}
			at, ok := available[entities.CohortKey{Node: key.Node, Product: key.Product, ProdDate: pd, State: state}]
			if ok && !at.After(key.Date) {
				reachable = true
				break
			}
		}
		if !reachable {
			ix.Warnings = append(ix.Warnings, fmt.Sprintf(
				"demand (%s, %s, %s) cannot be served by any cohort within the horizon",
				key.Node, key.Product, key.Date.Format("2006-01-02")))
		}
	}
}
