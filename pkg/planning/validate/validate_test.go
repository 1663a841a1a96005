package validate

import (
	"testing"

	"coldplan/pkg/domain/entities"
	helpers "coldplan/pkg/infrastructure/testing"
	"coldplan/pkg/planning"
	"coldplan/pkg/planning/builder"
	"coldplan/pkg/planning/index"
	"coldplan/pkg/planning/solution"
	"coldplan/pkg/planning/solver"
)

// sanitySolution builds the two-node scenario and a hand-solved optimal
// solution for it: 1000 units produced Monday, shipped overnight,
// consumed Tuesday.
func sanitySolution(t *testing.T) (*index.Index, *solution.Solution) {
	t.Helper()
	tue := entities.AddDays(helpers.Monday, 1)
	inputs := helpers.BuildTwoNodeInputs(2, helpers.SingleDemand("6103", "WHITE", tue, 1000))

	ix, err := index.Build(inputs, planning.DefaultPlanConfig(), helpers.Monday, tue)
	if err != nil {
		t.Fatalf("index build failed: %v", err)
	}
	out, err := builder.New(ix).Build()
	if err != nil {
		t.Fatalf("model build failed: %v", err)
	}

	values := make([]float64, out.Model.NumVars())
	pk := builder.ProductionKey{Node: "6122", Product: "WHITE", Date: helpers.Monday}
	ndk := builder.NodeDateKey{Node: "6122", Date: helpers.Monday}
	values[out.Vars.Production[pk]] = 1000
	values[out.Vars.ProductProduced[pk]] = 1
	values[out.Vars.ProductionDay[ndk]] = 1
	values[out.Vars.NumProductsProduced[ndk]] = 1
	values[out.Vars.ShipmentCohort[index.ShipmentKey{
		Origin: "6122", Dest: "6103", Product: "WHITE",
		ProdDate: helpers.Monday, ArrivalDate: tue, Mode: entities.Ambient,
	}]] = 1000
	values[out.Vars.DemandFromCohort[index.DemandCohortKey{
		Node: "6103", Product: "WHITE", ProdDate: helpers.Monday, DemandDate: tue,
	}]] = 1000
	laborHours := 1000.0 / 1400.0
	values[out.Vars.LaborHoursUsed[ndk]] = laborHours
	values[out.Vars.FixedHoursUsed[ndk]] = laborHours

	res := &solver.Result{
		Termination: solver.Optimal,
		HasSolution: true,
		Objective:   1000*0.8 + laborHours*50 + 1000*0.05,
		Values:      values,
	}
	sol, err := solution.Extract(out, res)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	return ix, sol
}

func TestCheck_CleanSolution(t *testing.T) {
	ix, sol := sanitySolution(t)
	if violations := Check(ix, sol); len(violations) != 0 {
		t.Errorf("clean solution flagged: %v", violations)
	}
}

func TestCheck_DemandAccountingViolation(t *testing.T) {
	ix, sol := sanitySolution(t)
	sol.DemandConsumption = map[index.DemandCohortKey]float64{}
	if !hasKind(Check(ix, sol), "demand_accounting") {
		t.Error("dropped consumption must trip demand accounting")
	}
}

func TestCheck_ShelfLifeViolation(t *testing.T) {
	ix, sol := sanitySolution(t)
	tue := entities.AddDays(helpers.Monday, 1)
	sol.CohortInventory[entities.DatedCohortKey{
		Node: "6103", Product: "WHITE",
		ProdDate: entities.AddDays(helpers.Monday, -30), CurrDate: tue, State: entities.Ambient,
	}] = 50
	if !hasKind(Check(ix, sol), "shelf_life") {
		t.Error("over-age cohort must trip the shelf-life check")
	}
}

func TestCheck_LaborEquationViolation(t *testing.T) {
	ix, sol := sanitySolution(t)
	ndk := builder.NodeDateKey{Node: "6122", Date: helpers.Monday}
	usage := sol.LaborByDate[ndk]
	usage.TotalHours += 3
	usage.FixedHours += 3
	sol.LaborByDate[ndk] = usage
	if !hasKind(Check(ix, sol), "labor_equation") {
		t.Error("padded hours must trip the labor capacity equation")
	}
}

func TestCheck_CostSumViolation(t *testing.T) {
	ix, sol := sanitySolution(t)
	sol.Objective += 500
	if !hasKind(Check(ix, sol), "cost_breakdown") {
		t.Error("objective drift must trip the cost-sum check")
	}
}

func TestCheck_TruckCapacityViolation(t *testing.T) {
	tue := entities.AddDays(helpers.Monday, 1)
	inputs := helpers.BuildTwoNodeInputs(2, helpers.SingleDemand("6103", "WHITE", tue, 1000))
	inputs.Nodes[0].RequiresTrucks = true
	inputs.TruckSchedules = []*entities.TruckSchedule{{
		ID: "AM", Origin: "6122", Destination: "6103", Mode: entities.Ambient,
		CapacityUnits: 500,
	}}
	ix, err := index.Build(inputs, planning.DefaultPlanConfig(), helpers.Monday, tue)
	if err != nil {
		t.Fatalf("index build failed: %v", err)
	}

	sol := &solution.Solution{
		Start: helpers.Monday,
		End:   tue,
		Shipments: []solution.Shipment{{
			Origin: "6122", Destination: "6103", Product: "WHITE",
			ProdDate: helpers.Monday, DepartureDate: helpers.Monday, ArrivalDate: tue,
			Mode: entities.Ambient, Quantity: 900,
		}},
		Shortages:         map[index.DemandKey]float64{},
		DemandConsumption: map[index.DemandCohortKey]float64{},
		CohortInventory:   map[entities.DatedCohortKey]float64{},
		LaborByDate:       map[builder.NodeDateKey]solution.LaborUsage{},
	}
	if !hasKind(checkTruckCapacity(ix, sol), "truck_capacity") {
		t.Error("900 units on a 500-unit truck day must trip the capacity check")
	}
}

func hasKind(violations []Violation, kind string) bool {
	for _, v := range violations {
		if v.Kind == kind {
			return true
		}
	}
	return false
}
