// Package builder constructs the mixed-integer program for one planning
// horizon from the enumerated index sets: decision variables,
// constraints and the cost objective.
package builder

import (
	"fmt"
	"math"
	"sort"

	"coldplan/pkg/domain/entities"
	"coldplan/pkg/planning"
	"coldplan/pkg/planning/index"
	"coldplan/pkg/planning/model"
)

// Vars exposes the decision-variable arenas by tuple key. The extractor
// and warm-start logic read these; constraint code fills them.
type Vars struct {
	Production          map[ProductionKey]model.VarID
	ProductProduced     map[ProductionKey]model.VarID
	ProductionDay       map[NodeDateKey]model.VarID
	NumProductsProduced map[NodeDateKey]model.VarID

	InventoryCohort  map[entities.DatedCohortKey]model.VarID
	ShipmentCohort   map[index.ShipmentKey]model.VarID
	DemandFromCohort map[index.DemandCohortKey]model.VarID
	Shortage         map[index.DemandKey]model.VarID

	LaborHoursUsed    map[NodeDateKey]model.VarID
	FixedHoursUsed    map[NodeDateKey]model.VarID
	OvertimeHoursUsed map[NodeDateKey]model.VarID
	NonFixedHoursUsed map[NodeDateKey]model.VarID
	ProductionOccurs  map[NodeDateKey]model.VarID

	PalletCount     map[entities.DatedCohortKey]model.VarID
	TruckUsed       map[TruckKey]model.VarID
	TruckPalletLoad map[TruckLoadKey]model.VarID
}

func newVars() *Vars {
	return &Vars{
		Production:          make(map[ProductionKey]model.VarID),
		ProductProduced:     make(map[ProductionKey]model.VarID),
		ProductionDay:       make(map[NodeDateKey]model.VarID),
		NumProductsProduced: make(map[NodeDateKey]model.VarID),
		InventoryCohort:     make(map[entities.DatedCohortKey]model.VarID),
		ShipmentCohort:      make(map[index.ShipmentKey]model.VarID),
		DemandFromCohort:    make(map[index.DemandCohortKey]model.VarID),
		Shortage:            make(map[index.DemandKey]model.VarID),
		LaborHoursUsed:      make(map[NodeDateKey]model.VarID),
		FixedHoursUsed:      make(map[NodeDateKey]model.VarID),
		OvertimeHoursUsed:   make(map[NodeDateKey]model.VarID),
		NonFixedHoursUsed:   make(map[NodeDateKey]model.VarID),
		ProductionOccurs:    make(map[NodeDateKey]model.VarID),
		PalletCount:         make(map[entities.DatedCohortKey]model.VarID),
		TruckUsed:           make(map[TruckKey]model.VarID),
		TruckPalletLoad:     make(map[TruckLoadKey]model.VarID),
	}
}

// Output is the built model plus the variable arenas and the index it
// was built over.
type Output struct {
	Model *model.Model
	Vars  *Vars
	Index *index.Index
}

// Builder assembles the MIP. One builder per solve; not reusable.
type Builder struct {
	ix   *index.Index
	cfg  planning.PlanConfig
	m    *model.Model
	vars *Vars

	// arrivalsByCohort and departuresByCohort link shipment variables
	// into the balance equation of the inventory cohort they credit or
	// debit.
	arrivalsByCohort   map[entities.DatedCohortKey][]model.VarID
	departuresByCohort map[entities.DatedCohortKey][]model.VarID
	// shipmentsByLane groups shipment variables for truck coupling.
	shipmentsByLane map[laneKey][]index.ShipmentKey
	// demandVarsByKey groups consumption variables per demand.
	demandVarsByKey map[index.DemandKey][]model.VarID
}

// New creates a builder over an index.
func New(ix *index.Index) *Builder {
	return &Builder{
		ix:                 ix,
		cfg:                ix.Config(),
		m:                  model.New("coldplan"),
		vars:               newVars(),
		arrivalsByCohort:   make(map[entities.DatedCohortKey][]model.VarID),
		departuresByCohort: make(map[entities.DatedCohortKey][]model.VarID),
		shipmentsByLane:    make(map[laneKey][]index.ShipmentKey),
		demandVarsByKey:    make(map[index.DemandKey][]model.VarID),
	}
}

// Build declares all variables and constraints and sets the objective.
func (b *Builder) Build() (*Output, error) {
	b.addProductionVars()
	b.addInventoryVars()
	if err := b.addShipmentVars(); err != nil {
		return nil, err
	}
	b.addDemandVars()
	if err := b.addLaborVars(); err != nil {
		return nil, err
	}
	b.addTruckVars()

	if err := b.addProductionLinkage(); err != nil {
		return nil, err
	}
	b.addCohortBalance()
	b.addStorageDelay()
	b.addDemandSatisfaction()
	if err := b.addLaborConstraints(); err != nil {
		return nil, err
	}
	b.addPalletConstraints()
	if err := b.addTruckConstraints(); err != nil {
		return nil, err
	}
	b.setObjective()

	return &Output{Model: b.m, Vars: b.vars, Index: b.ix}, nil
}

// manufacturingNodes returns manufacturing nodes sorted by ID for
// deterministic variable ordering.
func (b *Builder) manufacturingNodes() []*entities.Node {
	nodes := b.ix.Inputs().ManufacturingNodes()
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	return nodes
}

// sortedProducts returns products sorted by ID.
func (b *Builder) sortedProducts() []*entities.Product {
	prods := make([]*entities.Product, len(b.ix.Inputs().Products))
	copy(prods, b.ix.Inputs().Products)
	sort.Slice(prods, func(i, j int) bool { return prods[i].ID < prods[j].ID })
	return prods
}

// dailyProductionCap returns the big-M bound on one day's production of
// one product at a node: the site rate across the day's maximum labor
// hours, tightened by an explicit daily capacity when configured.
func (b *Builder) dailyProductionCap(n *entities.Node, day entities.LaborDay) float64 {
	mfg := n.Manufacturing
	if mfg == nil {
		return 0
	}
	cap := mfg.ProductionRatePerHour * day.MaxHours
	if mfg.MaxDailyCapacityUnits > 0 && mfg.MaxDailyCapacityUnits < cap {
		cap = mfg.MaxDailyCapacityUnits
	}
	return cap
}

func (b *Builder) addProductionVars() {
	for _, n := range b.manufacturingNodes() {
		for _, d := range b.ix.Dates {
			ndk := NodeDateKey{Node: n.ID, Date: d}
			day, _ := b.ix.Inputs().LaborCalendar.Lookup(d)
			capUnits := b.dailyProductionCap(n, day)
			for _, p := range b.sortedProducts() {
				pk := ProductionKey{Node: n.ID, Product: p.ID, Date: d}
				b.vars.Production[pk] = b.m.AddVar(
					fmt.Sprintf("production[%s,%s,%s]", n.ID, p.ID, d.Format("2006-01-02")),
					model.Continuous, 0, capUnits)
				b.vars.ProductProduced[pk] = b.m.AddVar(
					fmt.Sprintf("product_produced[%s,%s,%s]", n.ID, p.ID, d.Format("2006-01-02")),
					model.Binary, 0, 1)
			}
			b.vars.ProductionDay[ndk] = b.m.AddVar(
				fmt.Sprintf("production_day[%s,%s]", n.ID, d.Format("2006-01-02")),
				model.Binary, 0, 1)
			b.vars.NumProductsProduced[ndk] = b.m.AddVar(
				fmt.Sprintf("num_products_produced[%s,%s]", n.ID, d.Format("2006-01-02")),
				model.Integer, 0, float64(len(b.ix.Inputs().Products)))
		}
	}
}

func (b *Builder) addInventoryVars() {
	usePallets := b.cfg.UsePalletTracking && b.ix.Inputs().Costs.Storage.UsesPalletPricing()
	for _, k := range b.ix.InventoryKeys {
		name := fmt.Sprintf("inventory[%s,%s,%s,%s,%s]",
			k.Node, k.Product, k.ProdDate.Format("2006-01-02"), k.CurrDate.Format("2006-01-02"), k.State)
		b.vars.InventoryCohort[k] = b.m.AddVar(name, model.Continuous, 0, math.Inf(1))
		if usePallets {
			b.vars.PalletCount[k] = b.m.AddVar("pallet_"+name, model.Integer, 0, math.Inf(1))
		}
	}
}

func (b *Builder) addShipmentVars() error {
	for _, k := range b.ix.ShipmentKeys {
		route, ok := b.routeFor(k.Origin, k.Dest, k.Mode)
		if !ok {
			return planning.NewInvalidInput("shipment cohort %v has no matching route", k)
		}
		v := b.m.AddVar(fmt.Sprintf("shipment[%s,%s,%s,%s,%s,%s]",
			k.Origin, k.Dest, k.Product, k.ProdDate.Format("2006-01-02"),
			k.ArrivalDate.Format("2006-01-02"), k.Mode),
			model.Continuous, 0, math.Inf(1))
		b.vars.ShipmentCohort[k] = v

		origin := b.ix.Node(k.Origin)
		dest := b.ix.Node(k.Dest)
		depDate := k.DepartureDate(route.TransitDays)

		depKey := entities.DatedCohortKey{
			Node: k.Origin, Product: k.Product, ProdDate: k.ProdDate,
			CurrDate: depDate, State: b.ix.DepartureState(route, origin),
		}
		b.departuresByCohort[depKey] = append(b.departuresByCohort[depKey], v)

		arrKey := entities.DatedCohortKey{
			Node: k.Dest, Product: k.Product,
			ProdDate: b.ix.ArrivalProdDate(route, dest, k.ProdDate, k.ArrivalDate),
			CurrDate: k.ArrivalDate, State: route.ArrivalState(dest),
		}
		b.arrivalsByCohort[arrKey] = append(b.arrivalsByCohort[arrKey], v)

		lane := laneKey{Origin: k.Origin, Dest: k.Dest, Mode: k.Mode, Arrival: k.ArrivalDate}
		b.shipmentsByLane[lane] = append(b.shipmentsByLane[lane], k)
	}
	return nil
}

func (b *Builder) addDemandVars() {
	for _, k := range b.ix.DemandCohortKeys {
		dk := index.DemandKey{Node: k.Node, Product: k.Product, Date: k.DemandDate}
		v := b.m.AddVar(
			fmt.Sprintf("demand_from_cohort[%s,%s,%s,%s]",
				k.Node, k.Product, k.ProdDate.Format("2006-01-02"), k.DemandDate.Format("2006-01-02")),
			model.Continuous, 0, b.ix.Demand[dk])
		b.vars.DemandFromCohort[k] = v
		b.demandVarsByKey[dk] = append(b.demandVarsByKey[dk], v)
	}
	if b.cfg.AllowShortages {
		for _, k := range b.ix.DemandKeys {
			b.vars.Shortage[k] = b.m.AddVar(
				fmt.Sprintf("shortage[%s,%s,%s]", k.Node, k.Product, k.Date.Format("2006-01-02")),
				model.Continuous, 0, b.ix.Demand[k])
		}
	}
}

func (b *Builder) addLaborVars() error {
	cal := b.ix.Inputs().LaborCalendar
	for _, n := range b.manufacturingNodes() {
		for _, d := range b.ix.Dates {
			day, ok := cal.Lookup(d)
			if !ok {
				return planning.NewInvalidInput("no labor day for %s", d.Format("2006-01-02"))
			}
			ndk := NodeDateKey{Node: n.ID, Date: d}
			ds := d.Format("2006-01-02")
			b.vars.LaborHoursUsed[ndk] = b.m.AddVar(
				fmt.Sprintf("labor_hours[%s,%s]", n.ID, ds), model.Continuous, 0, day.MaxHours)
			if day.IsFixedDay {
				b.vars.FixedHoursUsed[ndk] = b.m.AddVar(
					fmt.Sprintf("fixed_hours[%s,%s]", n.ID, ds), model.Continuous, 0, day.FixedHours)
				b.vars.OvertimeHoursUsed[ndk] = b.m.AddVar(
					fmt.Sprintf("overtime_hours[%s,%s]", n.ID, ds), model.Continuous, 0, day.OvertimeCapacity())
			} else {
				b.vars.NonFixedHoursUsed[ndk] = b.m.AddVar(
					fmt.Sprintf("non_fixed_hours[%s,%s]", n.ID, ds), model.Continuous, 0, day.MaxHours)
				b.vars.ProductionOccurs[ndk] = b.m.AddVar(
					fmt.Sprintf("production_occurs[%s,%s]", n.ID, ds), model.Binary, 0, 1)
			}
		}
	}
	return nil
}

func (b *Builder) addTruckVars() {
	for _, dep := range b.ix.TruckDepartures {
		tk := TruckKey{ScheduleID: dep.Schedule.ID, Date: dep.DepartureDate}
		b.vars.TruckUsed[tk] = b.m.AddVar(
			fmt.Sprintf("truck_used[%s,%s]", dep.Schedule.ID, dep.DepartureDate.Format("2006-01-02")),
			model.Binary, 0, 1)
		if !b.cfg.UseTruckPalletTracking {
			continue
		}
		palletCap := dep.Schedule.PalletCapacity
		if palletCap <= 0 {
			palletCap = entities.DefaultTruckPalletCapacity
		}
		for _, stop := range dep.Schedule.Stops() {
			for _, p := range b.sortedProducts() {
				lk := TruckLoadKey{
					ScheduleID: dep.Schedule.ID, Date: dep.DepartureDate, Stop: stop, Product: p.ID,
				}
				b.vars.TruckPalletLoad[lk] = b.m.AddVar(
					fmt.Sprintf("truck_pallets[%s,%s,%s,%s]",
						dep.Schedule.ID, dep.DepartureDate.Format("2006-01-02"), stop, p.ID),
					model.Integer, 0, float64(palletCap))
			}
		}
	}
}

func (b *Builder) routeFor(origin, dest entities.NodeID, mode entities.StorageMode) (entities.Route, bool) {
	for _, r := range b.ix.Inputs().Routes {
		if r.Origin == origin && r.Destination == dest && r.Mode == mode {
			return r, true
		}
	}
	return entities.Route{}, false
}
