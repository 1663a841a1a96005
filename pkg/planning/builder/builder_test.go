package builder

import (
	"math"
	"strings"
	"testing"
	"time"

	"coldplan/pkg/domain/entities"
	helpers "coldplan/pkg/infrastructure/testing"
	"coldplan/pkg/planning"
	"coldplan/pkg/planning/index"
	"coldplan/pkg/planning/model"
)

func buildTwoNode(t *testing.T, cfg planning.PlanConfig, days int, forecast *entities.Forecast) *Output {
	t.Helper()
	end := entities.AddDays(helpers.Monday, days-1)
	ix, err := index.Build(helpers.BuildTwoNodeInputs(days, forecast), cfg, helpers.Monday, end)
	if err != nil {
		t.Fatalf("index build failed: %v", err)
	}
	out, err := New(ix).Build()
	if err != nil {
		t.Fatalf("model build failed: %v", err)
	}
	return out
}

func TestBuild_VariableArenas(t *testing.T) {
	tue := entities.AddDays(helpers.Monday, 1)
	out := buildTwoNode(t, planning.DefaultPlanConfig(), 2, helpers.SingleDemand("6103", "WHITE", tue, 1000))

	if got := len(out.Vars.Production); got != 2 {
		t.Errorf("expected 2 production variables (one product, two days), got %d", got)
	}
	if got := len(out.Vars.InventoryCohort); got != len(out.Index.InventoryKeys) {
		t.Errorf("inventory variables (%d) must match index (%d)", got, len(out.Index.InventoryKeys))
	}
	if got := len(out.Vars.ShipmentCohort); got != 2 {
		t.Errorf("expected 2 shipment variables, got %d", got)
	}
	if got := len(out.Vars.DemandFromCohort); got != 3 {
		t.Errorf("expected 3 demand-from-cohort variables, got %d", got)
	}
	if got := len(out.Vars.Shortage); got != 1 {
		t.Errorf("expected 1 shortage variable, got %d", got)
	}

	// weekday production cap: rate 1400 * 14 max hours
	pk := ProductionKey{Node: "6122", Product: "WHITE", Date: helpers.Monday}
	_, ub := out.Model.Bounds(out.Vars.Production[pk])
	if ub != 1400*14 {
		t.Errorf("production upper bound = %f, want %f", ub, 1400.0*14)
	}

	if !out.Model.HasIntegers() {
		t.Error("model must carry the run binaries")
	}
}

func TestBuild_NoShortageVarsWhenDisallowed(t *testing.T) {
	tue := entities.AddDays(helpers.Monday, 1)
	cfg := planning.DefaultPlanConfig()
	cfg.AllowShortages = false
	out := buildTwoNode(t, cfg, 2, helpers.SingleDemand("6103", "WHITE", tue, 1000))
	if len(out.Vars.Shortage) != 0 {
		t.Errorf("shortage variables must be absent when disallowed, got %d", len(out.Vars.Shortage))
	}
}

func TestBuild_WeekendLaborRelaxation(t *testing.T) {
	// horizon includes Saturday (day 6)
	sat := entities.AddDays(helpers.Monday, 5)
	out := buildTwoNode(t, planning.DefaultPlanConfig(), 7, helpers.SingleDemand("6103", "WHITE", entities.AddDays(helpers.Monday, 6), 500))

	ndk := NodeDateKey{Node: "6122", Date: sat}
	if _, ok := out.Vars.ProductionOccurs[ndk]; !ok {
		t.Error("non-fixed day must carry a production_occurs binary")
	}
	if _, ok := out.Vars.NonFixedHoursUsed[ndk]; !ok {
		t.Error("non-fixed day must carry non-fixed hours")
	}
	if _, ok := out.Vars.FixedHoursUsed[ndk]; ok {
		t.Error("non-fixed day must not carry fixed hours")
	}

	var eqSense, weekendMin bool
	for _, c := range out.Model.Constraints() {
		if strings.HasPrefix(c.Name, "labor_eq[6122,"+sat.Format("2006-01-02")) {
			if c.Sense == model.GreaterEq {
				eqSense = true
			}
		}
		if strings.HasPrefix(c.Name, "weekend_minimum[6122,"+sat.Format("2006-01-02")) {
			weekendMin = true
		}
	}
	if !eqSense {
		t.Error("weekend capacity relation must be a lower bound, not an equality")
	}
	if !weekendMin {
		t.Error("missing weekend minimum-payment constraint")
	}
}

func TestBuild_TruckRequiredClosesUnscheduledLanes(t *testing.T) {
	tue := entities.AddDays(helpers.Monday, 1)
	inputs := helpers.BuildTwoNodeInputs(2, helpers.SingleDemand("6103", "WHITE", tue, 100))
	inputs.Nodes[0].RequiresTrucks = true

	ix, err := index.Build(inputs, planning.DefaultPlanConfig(), helpers.Monday, tue)
	if err != nil {
		t.Fatalf("index build failed: %v", err)
	}
	out, err := New(ix).Build()
	if err != nil {
		t.Fatalf("model build failed: %v", err)
	}
	for k, v := range out.Vars.ShipmentCohort {
		lb, ub := out.Model.Bounds(v)
		if lb != 0 || ub != 0 {
			t.Errorf("shipment %v must be fixed to zero without a scheduled truck", k)
		}
	}
}

func TestBuild_TruckCapacityConstraint(t *testing.T) {
	tue := entities.AddDays(helpers.Monday, 1)
	inputs := helpers.BuildTwoNodeInputs(2, helpers.SingleDemand("6103", "WHITE", tue, 100))
	inputs.Nodes[0].RequiresTrucks = true
	inputs.TruckSchedules = []*entities.TruckSchedule{{
		ID: "AM", Origin: "6122", Destination: "6103", Mode: entities.Ambient,
		DaysOfWeek:     []time.Weekday{time.Monday},
		CapacityUnits:  entities.DefaultTruckCapacityUnits,
		PalletCapacity: entities.DefaultTruckPalletCapacity,
	}}

	cfg := planning.DefaultPlanConfig()
	cfg.UseTruckPalletTracking = true
	ix, err := index.Build(inputs, cfg, helpers.Monday, tue)
	if err != nil {
		t.Fatalf("index build failed: %v", err)
	}
	out, err := New(ix).Build()
	if err != nil {
		t.Fatalf("model build failed: %v", err)
	}

	if got := len(out.Vars.TruckUsed); got != 1 {
		t.Fatalf("expected 1 truck_used binary, got %d", got)
	}
	if got := len(out.Vars.TruckPalletLoad); got != 1 {
		t.Fatalf("expected 1 truck pallet-load variable (one stop, one product), got %d", got)
	}

	var capacity, cover, palletCap bool
	for _, c := range out.Model.Constraints() {
		switch {
		case strings.HasPrefix(c.Name, "truck_capacity["):
			capacity = true
		case strings.HasPrefix(c.Name, "truck_pallet_cover["):
			cover = true
		case strings.HasPrefix(c.Name, "truck_pallet_cap["):
			palletCap = true
		}
	}
	if !capacity || !cover || !palletCap {
		t.Errorf("missing truck constraints: capacity=%t cover=%t palletCap=%t", capacity, cover, palletCap)
	}
}

func TestBuild_PalletStorageVars(t *testing.T) {
	tue := entities.AddDays(helpers.Monday, 1)
	inputs := helpers.BuildTwoNodeInputs(2, helpers.SingleDemand("6103", "WHITE", tue, 100))
	inputs.Costs.Storage = entities.StorageRates{PalletDayRate: 2, FixedPerPallet: 1}

	cfg := planning.DefaultPlanConfig()
	cfg.UsePalletTracking = true
	ix, err := index.Build(inputs, cfg, helpers.Monday, tue)
	if err != nil {
		t.Fatalf("index build failed: %v", err)
	}
	out, err := New(ix).Build()
	if err != nil {
		t.Fatalf("model build failed: %v", err)
	}

	if len(out.Vars.PalletCount) != len(out.Vars.InventoryCohort) {
		t.Errorf("pallet variables (%d) must cover every cohort (%d)",
			len(out.Vars.PalletCount), len(out.Vars.InventoryCohort))
	}
	for _, v := range out.Vars.PalletCount {
		if out.Model.VarTypeOf(v) != model.Integer {
			t.Fatal("pallet counts must be integer variables")
		}
	}
}

func TestBuild_StorageDelayAtColdStore(t *testing.T) {
	day20 := entities.AddDays(helpers.Monday, 19)
	inputs := helpers.BuildFrozenThawInputs(20, helpers.SingleDemand("6130", "WHITE", day20, 500))

	ix, err := index.Build(inputs, planning.DefaultPlanConfig(), helpers.Monday, day20)
	if err != nil {
		t.Fatalf("index build failed: %v", err)
	}
	out, err := New(ix).Build()
	if err != nil {
		t.Fatalf("model build failed: %v", err)
	}

	found := false
	for _, c := range out.Model.Constraints() {
		if strings.HasPrefix(c.Name, "storage_delay[LINEAGE,") {
			found = true
			break
		}
	}
	if !found {
		t.Error("cold store without trucks must carry storage-delay constraints")
	}

	// the manufacturing site ships same-day production and must not
	for _, c := range out.Model.Constraints() {
		if strings.HasPrefix(c.Name, "storage_delay[6122,") {
			t.Fatal("storage delay must not apply at the manufacturing site")
		}
	}
}

func TestApplyWarmStart(t *testing.T) {
	tue := entities.AddDays(helpers.Monday, 1)
	out := buildTwoNode(t, planning.DefaultPlanConfig(), 2, helpers.SingleDemand("6103", "WHITE", tue, 1000))

	pk := ProductionKey{Node: "6122", Product: "WHITE", Date: helpers.Monday}
	out.ApplyWarmStart(Hints{
		Production: map[ProductionKey]float64{pk: 1000},
	})

	hints := out.Model.Hints()
	if len(hints) == 0 {
		t.Fatal("expected warm-start hints on the model")
	}
	want := map[model.VarID]float64{
		out.Vars.Production[pk]:      1000,
		out.Vars.ProductProduced[pk]: 1,
		out.Vars.ProductionDay[NodeDateKey{Node: "6122", Date: helpers.Monday}]: 1,
		out.Vars.ProductionDay[NodeDateKey{Node: "6122", Date: tue}]:            0,
	}
	got := make(map[model.VarID]float64)
	for _, h := range hints {
		got[h.Var] = h.Coef
	}
	for v, val := range want {
		if math.Abs(got[v]-val) > 1e-9 {
			t.Errorf("hint for %s = %f, want %f", out.Model.VarName(v), got[v], val)
		}
	}
}
