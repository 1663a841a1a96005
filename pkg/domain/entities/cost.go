package entities

// StorageRates represents per-state storage pricing. Storage is priced
// either per unit-day or per pallet-day (with an optional fixed charge
// per pallet position); a positive PalletDayRate or FixedPerPallet
// selects pallet pricing.
type StorageRates struct {
	AmbientUnitDayRate float64
	FrozenUnitDayRate  float64
	PalletDayRate      float64
	FixedPerPallet     float64
}

// UsesPalletPricing reports whether storage cost is charged per pallet slot.
func (r StorageRates) UsesPalletPricing() bool {
	return r.PalletDayRate > 0 || r.FixedPerPallet > 0
}

// UnitDayRate returns the per-unit-day rate for a storage state.
func (r StorageRates) UnitDayRate(m StorageMode) float64 {
	if m == Frozen {
		return r.FrozenUnitDayRate
	}
	return r.AmbientUnitDayRate
}

// CostStructure represents the cost parameters of the network
type CostStructure struct {
	ProductionCostPerUnit float64
	Storage               StorageRates
	// ShortagePenaltyPerUnit must strictly exceed the worst feasible
	// per-unit cost of satisfying demand, so shortages are a last resort.
	ShortagePenaltyPerUnit float64
	// FreshnessIncentiveWeight is a small additive per-unit-per-day-of-age
	// penalty on demand consumption that biases toward fresher stock.
	FreshnessIncentiveWeight float64
}
