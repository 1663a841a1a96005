package planning

import (
	"errors"
	"testing"
	"time"

	"coldplan/pkg/domain/entities"
)

func testInputs() *PlanInputs {
	monday := entities.Day(2025, time.June, 2)
	var days []entities.LaborDay
	for i := 0; i < 7; i++ {
		days = append(days, entities.DefaultWeekdayLaborDay(entities.AddDays(monday, i), 50, 75))
	}
	return &PlanInputs{
		Nodes: []*entities.Node{
			{
				ID: "M", CanManufacture: true,
				StorageModes:  []entities.StorageMode{entities.Ambient},
				Manufacturing: &entities.ManufacturingCapability{ProductionRatePerHour: 1400},
			},
			{ID: "B", HasDemand: true, StorageModes: []entities.StorageMode{entities.Ambient}},
		},
		Routes:        []entities.Route{{Origin: "M", Destination: "B", Mode: entities.Ambient, TransitDays: 1}},
		Products:      []*entities.Product{entities.NewProduct("P", "Product")},
		Forecast:      &entities.Forecast{Name: "f"},
		LaborCalendar: entities.NewLaborCalendar("cal", days),
		Costs:         entities.CostStructure{ShortagePenaltyPerUnit: 1000},
	}
}

func TestPlanInputs_Validate(t *testing.T) {
	monday := entities.Day(2025, time.June, 2)
	end := entities.AddDays(monday, 6)

	if err := testInputs().Validate(monday, end); err != nil {
		t.Fatalf("valid inputs rejected: %v", err)
	}

	t.Run("inverted horizon", func(t *testing.T) {
		if err := testInputs().Validate(end, monday); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("expected invalid input, got %v", err)
		}
	})

	t.Run("no manufacturing node", func(t *testing.T) {
		in := testInputs()
		in.Nodes = in.Nodes[1:]
		if err := in.Validate(monday, end); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("expected invalid input, got %v", err)
		}
	})

	t.Run("negative transit", func(t *testing.T) {
		in := testInputs()
		in.Routes[0].TransitDays = -1
		if err := in.Validate(monday, end); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("expected invalid input, got %v", err)
		}
	})

	t.Run("unknown forecast location", func(t *testing.T) {
		in := testInputs()
		in.Forecast.Entries = []entities.ForecastEntry{{Location: "X", Product: "P", Date: monday, Quantity: 1}}
		if err := in.Validate(monday, end); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("expected invalid input, got %v", err)
		}
	})

	t.Run("missing labor calendar", func(t *testing.T) {
		in := testInputs()
		in.LaborCalendar = nil
		if err := in.Validate(monday, end); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("expected invalid input, got %v", err)
		}
	})

	t.Run("snapshot with unknown product", func(t *testing.T) {
		in := testInputs()
		in.InitialInventory = &entities.InventorySnapshot{
			SnapshotDate: monday,
			Entries:      []entities.InventoryEntry{{Node: "B", Product: "GHOST", AgeDays: 1, State: entities.Ambient, Quantity: 5}},
		}
		if err := in.Validate(monday, end); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("expected invalid input, got %v", err)
		}
	})

	t.Run("truck schedule unknown stop", func(t *testing.T) {
		in := testInputs()
		in.TruckSchedules = []*entities.TruckSchedule{{ID: "T", Origin: "M", Destination: "GHOST"}}
		if err := in.Validate(monday, end); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("expected invalid input, got %v", err)
		}
	})
}

func TestPlanConfig_Validate(t *testing.T) {
	cfg := DefaultPlanConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config rejected: %v", err)
	}

	cfg.UseBatchTracking = false
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidInput) {
		t.Error("pooled tracking must be rejected")
	}

	cfg = DefaultPlanConfig()
	cfg.MIPGap = -0.1
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidInput) {
		t.Error("negative gap must be rejected")
	}
}

func TestErrorTaxonomy(t *testing.T) {
	err := NewInvalidInput("detail %d", 7)
	if !errors.Is(err, ErrInvalidInput) {
		t.Error("NewInvalidInput must wrap ErrInvalidInput")
	}

	inf := &InfeasibleError{WindowIndex: 3}
	if !errors.Is(inf, ErrInfeasible) {
		t.Error("InfeasibleError must unwrap to ErrInfeasible")
	}
	if inf.Error() != "model infeasible in window 3" {
		t.Errorf("unexpected message %q", inf.Error())
	}
	mono := &InfeasibleError{WindowIndex: -1}
	if mono.Error() != "model infeasible" {
		t.Errorf("unexpected message %q", mono.Error())
	}
}
