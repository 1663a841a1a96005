package rolling

import (
	"context"
	"math"
	"os/exec"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"coldplan/pkg/domain/entities"
	helpers "coldplan/pkg/infrastructure/testing"
	"coldplan/pkg/planning"
	"coldplan/pkg/planning/builder"
)

// requireCBC skips solver-driven tests when the cbc binary is absent.
func requireCBC(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("cbc"); err != nil {
		t.Skip("cbc binary not installed")
	}
}

func solverPlanConfig() planning.PlanConfig {
	cfg := planning.DefaultPlanConfig()
	cfg.TimeLimit = time.Minute
	return cfg
}

func TestSolveMonolithic_SanityScenario(t *testing.T) {
	requireCBC(t)
	tue := entities.AddDays(helpers.Monday, 1)
	inputs := helpers.BuildTwoNodeInputs(2, helpers.SingleDemand("6103", "WHITE", tue, 1000))

	sol, err := SolveMonolithic(context.Background(), inputs, solverPlanConfig(), helpers.Monday, tue)
	if err != nil {
		t.Fatalf("solve failed: %v", err)
	}

	if sol.TotalShortage() != 0 {
		t.Errorf("expected no shortage, got %f", sol.TotalShortage())
	}
	if math.Abs(sol.TotalProduction()-1000) > 0.5 {
		t.Errorf("total production = %f, want 1000", sol.TotalProduction())
	}
	if len(sol.Shipments) == 0 {
		t.Fatal("expected a shipment")
	}
	if !sol.Shipments[0].DepartureDate.Equal(helpers.Monday) {
		t.Errorf("shipment should depart Monday, got %s", sol.Shipments[0].DepartureDate.Format("2006-01-02"))
	}
}

func TestSolveMonolithic_WeekendMinimumPayment(t *testing.T) {
	requireCBC(t)
	// demand only reachable from Saturday production: Sunday demand,
	// one-day transit, horizon starting Saturday
	sat := entities.AddDays(helpers.Monday, 5)
	sun := entities.AddDays(helpers.Monday, 6)
	inputs := helpers.BuildTwoNodeInputs(7, helpers.SingleDemand("6103", "WHITE", sun, 1400))

	sol, err := SolveMonolithic(context.Background(), inputs, solverPlanConfig(), sat, sun)
	if err != nil {
		t.Fatalf("solve failed: %v", err)
	}
	if sol.TotalShortage() != 0 {
		t.Fatalf("expected demand served from Saturday production, shortage %f", sol.TotalShortage())
	}

	usage, ok := sol.LaborByDate[builder.NodeDateKey{Node: "6122", Date: sat}]
	if !ok {
		t.Fatal("expected Saturday labor usage")
	}
	if usage.NonFixedHours < 4-0.01 {
		t.Errorf("Saturday hours = %f, weekend minimum is 4", usage.NonFixedHours)
	}
	cost, _ := usage.Cost.Float64()
	if cost < 400-0.5 {
		t.Errorf("Saturday labor cost = %f, want >= 400", cost)
	}
}

func TestRollingMatchesMonolithicEarlyDays(t *testing.T) {
	requireCBC(t)
	days := 28
	end := entities.AddDays(helpers.Monday, days-1)
	forecast := &entities.Forecast{Name: "f"}
	// zero-demand entry anchors the rolling horizon at Monday so the
	// first real demand day is reachable over the one-day transit
	forecast.Entries = append(forecast.Entries, entities.ForecastEntry{
		Location: "6103", Product: "WHITE", Date: helpers.Monday, Quantity: 0,
	})
	for i := 1; i < days; i++ {
		forecast.Entries = append(forecast.Entries, entities.ForecastEntry{
			Location: "6103", Product: "WHITE", Date: entities.AddDays(helpers.Monday, i), Quantity: 1000,
		})
	}
	inputs := helpers.BuildTwoNodeInputs(days, forecast)

	mono, err := SolveMonolithic(context.Background(), inputs, solverPlanConfig(), helpers.Monday, end)
	if err != nil {
		t.Fatalf("monolithic solve failed: %v", err)
	}

	cfg := DefaultConfig()
	cfg.WindowSizeDays = 14
	cfg.OverlapDays = 7
	cfg.TimeLimitPerWindow = time.Minute
	res, err := NewDriver(inputs, cfg, zerolog.Nop()).Solve(context.Background())
	if err != nil {
		t.Fatalf("rolling solve failed: %v", err)
	}
	if !res.AllFeasible {
		t.Fatalf("rolling windows failed: %v", res.InfeasibleWindows)
	}

	// committed production over the first week matches the monolithic
	// plan within cost degeneracy tolerance
	weekEnd := entities.AddDays(helpers.Monday, 6)
	var rollingWeek, monoWeek float64
	for _, b := range res.ProductionBatches {
		if !b.Date.After(weekEnd) {
			rollingWeek += b.Quantity
		}
	}
	for _, b := range mono.ProductionBatches {
		if !b.Date.After(weekEnd) {
			monoWeek += b.Quantity
		}
	}
	if math.Abs(rollingWeek-monoWeek) > 0.05*math.Max(rollingWeek, monoWeek) {
		t.Errorf("first-week production diverges: rolling %f vs monolithic %f", rollingWeek, monoWeek)
	}
}
