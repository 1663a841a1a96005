// Package config loads planner configuration from a TOML file and maps
// it onto the engine's explicit configuration structs.
package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"

	"coldplan/pkg/domain/entities"
	"coldplan/pkg/planning"
	"coldplan/pkg/planning/rolling"
	"coldplan/pkg/planning/timebucket"
)

// File is the on-disk TOML layout.
type File struct {
	Planner     PlannerSection      `toml:"planner"`
	Granularity *GranularitySection `toml:"granularity"`
	Costs       CostsSection        `toml:"costs"`
}

// PlannerSection configures the solve and the rolling decomposition.
type PlannerSection struct {
	Solver                     string  `toml:"solver"`
	WindowSizeDays             int     `toml:"window_size_days"`
	OverlapDays                int     `toml:"overlap_days"`
	TimeLimitPerWindowSeconds  int     `toml:"time_limit_per_window_seconds"`
	MIPGap                     float64 `toml:"mip_gap"`
	AllowShortages             bool    `toml:"allow_shortages"`
	EnforceShelfLife           bool    `toml:"enforce_shelf_life"`
	UsePalletTracking          bool    `toml:"use_pallet_tracking"`
	UseTruckPalletTracking     bool    `toml:"use_truck_pallet_tracking"`
	FilterShipmentsByFreshness bool    `toml:"filter_shipments_by_freshness"`
	MinFreshnessDays           int     `toml:"min_freshness_days"`
	WarmStart                  bool    `toml:"warm_start"`
}

// GranularitySection configures optional temporal aggregation.
type GranularitySection struct {
	NearTermDays int    `toml:"near_term_days"`
	NearTerm     string `toml:"near_term"`
	FarTerm      string `toml:"far_term"`
}

// CostsSection configures the network cost structure.
type CostsSection struct {
	ProductionPerUnit      float64 `toml:"production_per_unit"`
	StorageAmbientUnitDay  float64 `toml:"storage_ambient_unit_day"`
	StorageFrozenUnitDay   float64 `toml:"storage_frozen_unit_day"`
	StoragePalletDay       float64 `toml:"storage_pallet_day"`
	StoragePalletFixed     float64 `toml:"storage_pallet_fixed"`
	ShortagePenaltyPerUnit float64 `toml:"shortage_penalty_per_unit"`
	FreshnessWeight        float64 `toml:"freshness_weight"`
}

// Default returns the configuration used when no file is given.
func Default() File {
	return File{
		Planner: PlannerSection{
			Solver:                    "cbc",
			WindowSizeDays:            28,
			OverlapDays:               7,
			TimeLimitPerWindowSeconds: 300,
			MIPGap:                    0.01,
			AllowShortages:            true,
			EnforceShelfLife:          true,
		},
		Costs: CostsSection{
			ProductionPerUnit:      0.8,
			StorageAmbientUnitDay:  0.01,
			StorageFrozenUnitDay:   0.005,
			ShortagePenaltyPerUnit: 1000,
		},
	}
}

// Load reads the TOML file at path; an empty path returns defaults.
func Load(path string) (File, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("loading config %s: %w", path, err)
	}
	return cfg, nil
}

// RollingConfig maps the file onto the rolling-horizon configuration.
func (f File) RollingConfig() (rolling.Config, error) {
	plan := planning.DefaultPlanConfig()
	plan.AllowShortages = f.Planner.AllowShortages
	plan.EnforceShelfLife = f.Planner.EnforceShelfLife
	plan.UsePalletTracking = f.Planner.UsePalletTracking
	plan.UseTruckPalletTracking = f.Planner.UseTruckPalletTracking
	plan.FilterShipmentsByFreshness = f.Planner.FilterShipmentsByFreshness
	plan.MinFreshnessDays = f.Planner.MinFreshnessDays
	plan.WarmStart = f.Planner.WarmStart
	if f.Planner.Solver != "" {
		plan.SolverName = f.Planner.Solver
	}
	if f.Planner.MIPGap > 0 {
		plan.MIPGap = f.Planner.MIPGap
	}

	cfg := rolling.Config{
		Plan:               plan,
		WindowSizeDays:     f.Planner.WindowSizeDays,
		OverlapDays:        f.Planner.OverlapDays,
		TimeLimitPerWindow: time.Duration(f.Planner.TimeLimitPerWindowSeconds) * time.Second,
	}
	if f.Granularity != nil {
		g, err := f.Granularity.parse()
		if err != nil {
			return cfg, err
		}
		cfg.Granularity = &g
	}
	return cfg, nil
}

// CostStructure maps the costs section onto the domain cost structure.
func (f File) CostStructure() entities.CostStructure {
	return entities.CostStructure{
		ProductionCostPerUnit: f.Costs.ProductionPerUnit,
		Storage: entities.StorageRates{
			AmbientUnitDayRate: f.Costs.StorageAmbientUnitDay,
			FrozenUnitDayRate:  f.Costs.StorageFrozenUnitDay,
			PalletDayRate:      f.Costs.StoragePalletDay,
			FixedPerPallet:     f.Costs.StoragePalletFixed,
		},
		ShortagePenaltyPerUnit:   f.Costs.ShortagePenaltyPerUnit,
		FreshnessIncentiveWeight: f.Costs.FreshnessWeight,
	}
}

func (g *GranularitySection) parse() (timebucket.VariableGranularityConfig, error) {
	cfg := timebucket.DefaultVariableGranularity()
	if g.NearTermDays > 0 {
		cfg.NearTermDays = g.NearTermDays
	}
	var err error
	if g.NearTerm != "" {
		if cfg.NearTermGranularity, err = parseGranularity(g.NearTerm); err != nil {
			return cfg, err
		}
	}
	if g.FarTerm != "" {
		if cfg.FarTermGranularity, err = parseGranularity(g.FarTerm); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

func parseGranularity(s string) (timebucket.Granularity, error) {
	switch s {
	case "daily":
		return timebucket.Daily, nil
	case "two_day":
		return timebucket.TwoDay, nil
	case "three_day":
		return timebucket.ThreeDay, nil
	case "weekly":
		return timebucket.Weekly, nil
	default:
		return timebucket.Daily, fmt.Errorf("unknown granularity %q", s)
	}
}
