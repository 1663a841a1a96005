package planning

import "time"

// PlanConfig holds configuration for a single optimization model build
// and solve. Zero value is not usable; start from DefaultPlanConfig.
type PlanConfig struct {
	// UseBatchTracking enables the cohort-indexed model. The pooled
	// fallback is not implemented; the flag is validated to true.
	UseBatchTracking bool
	// EnforceShelfLife bounds cohort ages by state shelf life. Disable
	// only for diagnostics.
	EnforceShelfLife bool
	// AllowShortages adds shortage variables with a penalty; otherwise
	// demand satisfaction is a hard equality.
	AllowShortages bool
	// UsePalletTracking adds integer pallet-count variables for storage
	// priced per pallet-day.
	UsePalletTracking bool
	// UseTruckPalletTracking adds integer per-product pallet loads on
	// truck departures.
	UseTruckPalletTracking bool
	// FilterShipmentsByFreshness prunes shipment cohorts too old for
	// any downstream demand. Pure model-size optimization.
	FilterShipmentsByFreshness bool
	// MinFreshnessDays is the optional freshness floor on demand
	// consumption (demand date minus production date must be at least
	// this many days); 0 disables. Cohorts predating the snapshot are
	// exempt so initial inventory drains first.
	MinFreshnessDays int

	// SolverName selects the backend ("cbc" or "highs").
	SolverName string
	// TimeLimit bounds a single solve; zero means no limit.
	TimeLimit time.Duration
	// MIPGap is the relative optimality gap tolerance.
	MIPGap float64
	// WarmStart passes hint values to solvers that accept them.
	WarmStart bool
}

// DefaultPlanConfig returns the standard planner configuration.
func DefaultPlanConfig() PlanConfig {
	return PlanConfig{
		UseBatchTracking: true,
		EnforceShelfLife: true,
		AllowShortages:   true,
		SolverName:       "cbc",
		TimeLimit:        5 * time.Minute,
		MIPGap:           0.01,
	}
}

// Validate rejects unsupported or inconsistent option combinations.
func (c PlanConfig) Validate() error {
	if !c.UseBatchTracking {
		return NewInvalidInput("pooled (non-cohort) inventory tracking is not supported")
	}
	if c.MIPGap < 0 {
		return NewInvalidInput("mip gap must be non-negative")
	}
	if c.MinFreshnessDays < 0 {
		return NewInvalidInput("minimum freshness days must be non-negative")
	}
	return nil
}
