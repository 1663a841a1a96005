package index

import (
	"errors"
	"strings"
	"testing"
	"time"

	"coldplan/pkg/domain/entities"
	helpers "coldplan/pkg/infrastructure/testing"
	"coldplan/pkg/planning"
)

func TestBuild_TwoNodeDemandAndCohorts(t *testing.T) {
	tue := entities.AddDays(helpers.Monday, 1)
	inputs := helpers.BuildTwoNodeInputs(2, helpers.SingleDemand("6103", "WHITE", tue, 1000))

	ix, err := Build(inputs, planning.DefaultPlanConfig(), helpers.Monday, tue)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if len(ix.Dates) != 2 {
		t.Errorf("expected 2 horizon dates, got %d", len(ix.Dates))
	}
	dk := DemandKey{Node: "6103", Product: "WHITE", Date: tue}
	if ix.Demand[dk] != 1000 {
		t.Errorf("demand = %f, want 1000", ix.Demand[dk])
	}

	// production-day cohort at the manufacturing site
	mfgCohort := entities.DatedCohortKey{
		Node: "6122", Product: "WHITE", ProdDate: helpers.Monday, CurrDate: helpers.Monday, State: entities.Ambient,
	}
	if _, ok := ix.InventoryCohorts[mfgCohort]; !ok {
		t.Error("missing same-day cohort at manufacturing site")
	}

	// shipment departing Monday arriving Tuesday
	sk := ShipmentKey{
		Origin: "6122", Dest: "6103", Product: "WHITE",
		ProdDate: helpers.Monday, ArrivalDate: tue, Mode: entities.Ambient,
	}
	if _, ok := ix.ShipmentCohorts[sk]; !ok {
		t.Error("missing Monday->Tuesday shipment cohort")
	}

	// the Monday cohort may serve Tuesday demand at the breadroom
	dc := DemandCohortKey{Node: "6103", Product: "WHITE", ProdDate: helpers.Monday, DemandDate: tue}
	if _, ok := ix.DemandCohorts[dc]; !ok {
		t.Error("missing demand cohort for Monday production")
	}
	if len(ix.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", ix.Warnings)
	}
}

func TestBuild_ShelfLifePrunesCohorts(t *testing.T) {
	days := 30
	end := entities.AddDays(helpers.Monday, days-1)
	inputs := helpers.BuildTwoNodeInputs(days, helpers.SingleDemand("6103", "WHITE", end, 320))

	ix, err := Build(inputs, planning.DefaultPlanConfig(), helpers.Monday, end)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	for k := range ix.InventoryCohorts {
		if k.State == entities.Ambient && k.AgeDays() > 17 {
			t.Fatalf("ambient cohort aged %d days survived pruning: %v", k.AgeDays(), k)
		}
	}

	// production on day 1 cannot serve day-30 demand: age would be 29
	stale := DemandCohortKey{Node: "6103", Product: "WHITE", ProdDate: helpers.Monday, DemandDate: end}
	if _, ok := ix.DemandCohorts[stale]; ok {
		t.Error("day-1 production must not be eligible for day-30 demand")
	}
	// production 16 days before demand still reaches it (1 transit + 15 resident days)
	fresh := DemandCohortKey{Node: "6103", Product: "WHITE", ProdDate: entities.AddDays(end, -16), DemandDate: end}
	if _, ok := ix.DemandCohorts[fresh]; !ok {
		t.Error("recent production should be eligible for day-30 demand")
	}
}

func TestBuild_ThawRedating(t *testing.T) {
	day20 := entities.AddDays(helpers.Monday, 19)
	inputs := helpers.BuildFrozenThawInputs(20, helpers.SingleDemand("6130", "WHITE", day20, 500))

	ix, err := Build(inputs, planning.DefaultPlanConfig(), helpers.Monday, day20)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if !ix.ThawFed("6130") {
		t.Fatal("breadroom fed only by frozen routes must be thaw-fed")
	}
	if ix.ThawFed("LINEAGE") {
		t.Error("frozen store must not be thaw-fed")
	}

	product := ix.Product("WHITE")
	node := ix.Node("6130")
	if bound := ix.ShelfLifeBound(node, product, entities.Ambient); bound != 14 {
		t.Errorf("thaw-fed ambient bound = %d, want 14", bound)
	}

	// a shipment arriving at the breadroom is re-keyed to its arrival date
	route := inputs.Routes[1]
	arrival := entities.AddDays(helpers.Monday, 5)
	prodDate := helpers.Monday
	if got := ix.ArrivalProdDate(route, node, prodDate, arrival); !got.Equal(arrival) {
		t.Errorf("thawed arrival should be keyed by arrival date, got %s", got.Format("2006-01-02"))
	}

	// frozen cohorts at the cold store keep the true production date
	frozenRoute := inputs.Routes[0]
	store := ix.Node("LINEAGE")
	if got := ix.ArrivalProdDate(frozenRoute, store, prodDate, arrival); !got.Equal(prodDate) {
		t.Errorf("frozen arrival should preserve production date, got %s", got.Format("2006-01-02"))
	}
}

func TestBuild_FreshnessFloor(t *testing.T) {
	day10 := entities.AddDays(helpers.Monday, 9)
	inputs := helpers.BuildTwoNodeInputs(10, helpers.SingleDemand("6103", "WHITE", day10, 500))

	cfg := planning.DefaultPlanConfig()
	cfg.MinFreshnessDays = 7
	ix, err := Build(inputs, cfg, helpers.Monday, day10)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	young := DemandCohortKey{Node: "6103", Product: "WHITE", ProdDate: entities.AddDays(day10, -2), DemandDate: day10}
	if _, ok := ix.DemandCohorts[young]; ok {
		t.Error("cohort younger than the freshness floor must not serve demand")
	}
	old := DemandCohortKey{Node: "6103", Product: "WHITE", ProdDate: entities.AddDays(day10, -8), DemandDate: day10}
	if _, ok := ix.DemandCohorts[old]; !ok {
		t.Error("cohort older than the freshness floor should serve demand")
	}
}

func TestBuild_InitialInventoryInjection(t *testing.T) {
	tue := entities.AddDays(helpers.Monday, 1)
	inputs := helpers.BuildTwoNodeInputs(2, helpers.SingleDemand("6103", "WHITE", tue, 100))
	inputs.InitialInventory = &entities.InventorySnapshot{
		SnapshotDate: helpers.Monday,
		Entries: []entities.InventoryEntry{
			{Node: "6103", Product: "WHITE", AgeDays: 3, State: entities.Ambient, Quantity: 200},
			{Node: "6103", Product: "WHITE", AgeDays: 25, State: entities.Ambient, Quantity: 50},
		},
	}

	ix, err := Build(inputs, planning.DefaultPlanConfig(), helpers.Monday, tue)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	injected := entities.DatedCohortKey{
		Node: "6103", Product: "WHITE",
		ProdDate: entities.AddDays(helpers.Monday, -3), CurrDate: helpers.Monday, State: entities.Ambient,
	}
	if got := ix.InitialCohorts[injected]; got != 200 {
		t.Errorf("injected cohort = %f, want 200", got)
	}

	// the 25-day-old stock is past ambient shelf life: dropped with a warning
	found := false
	for _, w := range ix.Warnings {
		if strings.Contains(w, "expired before horizon start") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected expired-inventory warning, got %v", ix.Warnings)
	}
}

func TestBuild_UnreachableDemandWarns(t *testing.T) {
	// demand on the first horizon day: transit takes one day and there
	// is no initial inventory, so nothing can reach it
	inputs := helpers.BuildTwoNodeInputs(2, helpers.SingleDemand("6103", "WHITE", helpers.Monday, 100))

	ix, err := Build(inputs, planning.DefaultPlanConfig(), helpers.Monday, entities.AddDays(helpers.Monday, 1))
	if err != nil {
		t.Fatalf("Build must still construct the model: %v", err)
	}
	found := false
	for _, w := range ix.Warnings {
		if strings.Contains(w, "cannot be served") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected unreachable-demand warning, got %v", ix.Warnings)
	}
}

func TestBuild_InvalidInputs(t *testing.T) {
	tue := entities.AddDays(helpers.Monday, 1)

	t.Run("forecast outside horizon", func(t *testing.T) {
		inputs := helpers.BuildTwoNodeInputs(2, helpers.SingleDemand("6103", "WHITE", entities.AddDays(helpers.Monday, 5), 10))
		_, err := Build(inputs, planning.DefaultPlanConfig(), helpers.Monday, tue)
		if !errors.Is(err, planning.ErrInvalidInput) {
			t.Errorf("expected invalid input, got %v", err)
		}
	})

	t.Run("missing labor day", func(t *testing.T) {
		inputs := helpers.BuildTwoNodeInputs(1, helpers.SingleDemand("6103", "WHITE", tue, 10))
		_, err := Build(inputs, planning.DefaultPlanConfig(), helpers.Monday, tue)
		if !errors.Is(err, planning.ErrInvalidInput) {
			t.Errorf("expected invalid input for uncovered labor day, got %v", err)
		}
	})

	t.Run("route to unknown node", func(t *testing.T) {
		inputs := helpers.BuildTwoNodeInputs(2, helpers.SingleDemand("6103", "WHITE", tue, 10))
		inputs.Routes = append(inputs.Routes, entities.Route{Origin: "6122", Destination: "NOWHERE", Mode: entities.Ambient})
		_, err := Build(inputs, planning.DefaultPlanConfig(), helpers.Monday, tue)
		if !errors.Is(err, planning.ErrInvalidInput) {
			t.Errorf("expected invalid input for unknown node, got %v", err)
		}
	})

	t.Run("negative quantity", func(t *testing.T) {
		inputs := helpers.BuildTwoNodeInputs(2, helpers.SingleDemand("6103", "WHITE", tue, -10))
		_, err := Build(inputs, planning.DefaultPlanConfig(), helpers.Monday, tue)
		if !errors.Is(err, planning.ErrInvalidInput) {
			t.Errorf("expected invalid input for negative quantity, got %v", err)
		}
	})
}

func TestBuild_DeterministicOrdering(t *testing.T) {
	tue := entities.AddDays(helpers.Monday, 1)
	inputs := helpers.BuildTwoNodeInputs(2, helpers.SingleDemand("6103", "WHITE", tue, 1000))

	first, err := Build(inputs, planning.DefaultPlanConfig(), helpers.Monday, tue)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	second, err := Build(inputs, planning.DefaultPlanConfig(), helpers.Monday, tue)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if len(first.InventoryKeys) != len(second.InventoryKeys) {
		t.Fatal("inventory key counts differ across builds")
	}
	for i := range first.InventoryKeys {
		if first.InventoryKeys[i] != second.InventoryKeys[i] {
			t.Fatalf("inventory key order differs at %d", i)
		}
	}
	for i := 1; i < len(first.InventoryKeys); i++ {
		if compareInventoryKeys(first.InventoryKeys[i-1], first.InventoryKeys[i]) >= 0 {
			t.Fatalf("inventory keys not strictly sorted at %d", i)
		}
	}
}

func TestBuild_TruckDeparturesExpanded(t *testing.T) {
	tue := entities.AddDays(helpers.Monday, 1)
	inputs := helpers.BuildTwoNodeInputs(2, helpers.SingleDemand("6103", "WHITE", tue, 100))
	inputs.TruckSchedules = []*entities.TruckSchedule{{
		ID: "AM", Origin: "6122", Destination: "6103", Mode: entities.Ambient,
		DaysOfWeek:    []time.Weekday{time.Monday},
		CapacityUnits: entities.DefaultTruckCapacityUnits,
	}}

	ix, err := Build(inputs, planning.DefaultPlanConfig(), helpers.Monday, tue)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(ix.TruckDepartures) != 1 {
		t.Fatalf("expected 1 truck departure, got %d", len(ix.TruckDepartures))
	}
	if !ix.TruckDepartures[0].DepartureDate.Equal(helpers.Monday) {
		t.Error("truck departure should fall on Monday")
	}
}
