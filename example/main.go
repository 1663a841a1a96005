// Command example builds a two-node bread network in code and solves a
// one-week plan, showing library usage without CSV scenario files.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"coldplan/pkg/domain/entities"
	"coldplan/pkg/planning"
	"coldplan/pkg/planning/rolling"
)

func main() {
	monday := entities.Day(2025, time.June, 2)

	manufacturing := &entities.Node{
		ID:             "6122",
		Name:           "Manufacturing Site",
		CanManufacture: true,
		StorageModes:   []entities.StorageMode{entities.Ambient},
		Manufacturing: &entities.ManufacturingCapability{
			ProductionRatePerHour: 1400,
			StartupHours:          0.5,
			ShutdownHours:         0.5,
			ChangeoverHours:       0.25,
		},
	}
	breadroom := &entities.Node{
		ID:           "6103",
		Name:         "Breadroom",
		HasDemand:    true,
		StorageModes: []entities.StorageMode{entities.Ambient},
	}

	product := entities.NewProduct("WHITE", "White Loaf")

	var laborDays []entities.LaborDay
	var forecast entities.Forecast
	forecast.Name = "example_week"
	for i := 0; i < 7; i++ {
		d := entities.AddDays(monday, i)
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			laborDays = append(laborDays, entities.DefaultWeekendLaborDay(d, 100))
		} else {
			laborDays = append(laborDays, entities.DefaultWeekdayLaborDay(d, 50, 75))
		}
		if i >= 1 {
			forecast.Entries = append(forecast.Entries, entities.ForecastEntry{
				Location: breadroom.ID, Product: product.ID, Date: d, Quantity: 2000,
			})
		}
	}

	inputs := &planning.PlanInputs{
		Nodes:         []*entities.Node{manufacturing, breadroom},
		Routes:        []entities.Route{{Origin: "6122", Destination: "6103", Mode: entities.Ambient, TransitDays: 1, CostPerUnit: 0.05}},
		Products:      []*entities.Product{product},
		Forecast:      &forecast,
		LaborCalendar: entities.NewLaborCalendar("example", laborDays),
		Costs: entities.CostStructure{
			ProductionCostPerUnit:  0.8,
			Storage:                entities.StorageRates{AmbientUnitDayRate: 0.01},
			ShortagePenaltyPerUnit: 1000,
		},
	}

	cfg := planning.DefaultPlanConfig()
	cfg.TimeLimit = time.Minute

	sol, err := rolling.SolveMonolithic(context.Background(), inputs, cfg,
		monday, entities.AddDays(monday, 6))
	if err != nil {
		fmt.Fprintf(os.Stderr, "solve failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("termination: %s, objective %.2f\n", sol.Diagnostics.Termination, sol.Objective)
	for _, b := range sol.ProductionBatches {
		fmt.Printf("produce %7.1f %s on %s\n", b.Quantity, b.Product, b.Date.Format("Mon 2006-01-02"))
	}
	for _, s := range sol.Shipments {
		fmt.Printf("ship    %7.1f %s %s -> %s, depart %s arrive %s\n",
			s.Quantity, s.Product, s.Origin, s.Destination,
			s.DepartureDate.Format("Mon"), s.ArrivalDate.Format("Mon"))
	}
}
