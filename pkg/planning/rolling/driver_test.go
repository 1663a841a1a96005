package rolling

import (
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"coldplan/pkg/domain/entities"
	helpers "coldplan/pkg/infrastructure/testing"
	"coldplan/pkg/planning/index"
	"coldplan/pkg/planning/solution"
	"coldplan/pkg/planning/timebucket"
)

func TestDisaggregateProduction(t *testing.T) {
	days := 14
	forecast := &entities.Forecast{Name: "f"}
	daily := []float64{0, 100, 150, 120, 90, 200, 0, 60, 80, 100, 40, 0, 0, 110}
	for i, q := range daily {
		if q > 0 {
			forecast.Entries = append(forecast.Entries, entities.ForecastEntry{
				Location: "6103", Product: "WHITE", Date: entities.AddDays(helpers.Monday, i), Quantity: q,
			})
		}
	}
	inputs := helpers.BuildTwoNodeInputs(days, forecast)

	cfg := DefaultConfig()
	granularity := timebucket.VariableGranularityConfig{
		NearTermDays:        7,
		NearTermGranularity: timebucket.Daily,
		FarTermGranularity:  timebucket.Weekly,
	}
	cfg.Granularity = &granularity
	d := NewDriver(inputs, cfg, zerolog.Nop())

	w := Window{Index: 0, Start: helpers.Monday, End: entities.AddDays(helpers.Monday, days-1), CommittedEnd: entities.AddDays(helpers.Monday, days-1)}

	// one batch dated at the far-term bucket's representative (day 8)
	weekTwoStart := entities.AddDays(helpers.Monday, 7)
	sol := &solution.Solution{
		ProductionBatches: []solution.ProductionBatch{
			{Date: entities.AddDays(helpers.Monday, 1), Product: "WHITE", Node: "6122", Quantity: 100},
			{Date: weekTwoStart, Product: "WHITE", Node: "6122", Quantity: 390},
		},
	}
	d.disaggregateProduction(sol, w, forecast)

	// daily batch untouched, bucketed batch spread over week two by demand
	var total float64
	byDate := make(map[string]float64)
	for _, b := range sol.ProductionBatches {
		byDate[b.Date.Format("2006-01-02")] += b.Quantity
		total += b.Quantity
	}
	if math.Abs(total-490) > 1e-6 {
		t.Errorf("disaggregation changed total production: %f", total)
	}
	// week-two demand is 60+80+100+40+0+0+110=390, so shares equal demand
	if got := byDate[entities.AddDays(helpers.Monday, 7).Format("2006-01-02")]; math.Abs(got-60) > 1e-6 {
		t.Errorf("day 8 share = %f, want 60", got)
	}
	if got := byDate[entities.AddDays(helpers.Monday, 13).Format("2006-01-02")]; math.Abs(got-110) > 1e-6 {
		t.Errorf("day 14 share = %f, want 110", got)
	}
}

func TestStitch_CommittedRegionOnly(t *testing.T) {
	inputs := helpers.BuildTwoNodeInputs(14, &entities.Forecast{Name: "f"})
	d := NewDriver(inputs, DefaultConfig(), zerolog.Nop())

	w := Window{
		Index:        0,
		Start:        helpers.Monday,
		End:          entities.AddDays(helpers.Monday, 13),
		CommittedEnd: entities.AddDays(helpers.Monday, 6),
	}
	sol := &solution.Solution{
		ProductionBatches: []solution.ProductionBatch{
			{Date: entities.AddDays(helpers.Monday, 2), Product: "WHITE", Node: "6122", Quantity: 500},
			{Date: entities.AddDays(helpers.Monday, 10), Product: "WHITE", Node: "6122", Quantity: 700},
		},
		Shipments: []solution.Shipment{
			{Origin: "6122", Destination: "6103", Product: "WHITE", DepartureDate: entities.AddDays(helpers.Monday, 3), ArrivalDate: entities.AddDays(helpers.Monday, 4), Quantity: 500},
			{Origin: "6122", Destination: "6103", Product: "WHITE", DepartureDate: entities.AddDays(helpers.Monday, 9), ArrivalDate: entities.AddDays(helpers.Monday, 10), Quantity: 700},
		},
		Shortages: map[index.DemandKey]float64{
			{Node: "6103", Product: "WHITE", Date: entities.AddDays(helpers.Monday, 5)}:  10,
			{Node: "6103", Product: "WHITE", Date: entities.AddDays(helpers.Monday, 12)}: 20,
		},
		Costs: solution.CostBreakdown{
			Transport: decimal.NewFromInt(100),
		},
	}

	res := &Result{Shortages: map[index.DemandKey]float64{}}
	d.stitch(res, w, sol)

	if len(res.ProductionBatches) != 1 {
		t.Errorf("only committed-region production should be stitched, got %d", len(res.ProductionBatches))
	}
	if len(res.Shipments) != 1 {
		t.Errorf("only committed-region shipments should be stitched, got %d", len(res.Shipments))
	}
	if len(res.Shortages) != 1 {
		t.Errorf("only committed-region shortages should be stitched, got %d", len(res.Shortages))
	}

	// transport attributed by committed-day ratio 7/14
	want := decimal.NewFromInt(50)
	if !res.Costs.Transport.Sub(want).Abs().LessThan(decimal.NewFromFloat(0.001)) {
		t.Errorf("transport attribution = %s, want %s", res.Costs.Transport, want)
	}
}
