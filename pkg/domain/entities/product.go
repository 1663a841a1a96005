package entities

// ProductID represents a unique product identifier
type ProductID string

// Default shelf-life and packing parameters for the bread network.
const (
	DefaultUnitsPerPallet       = 320
	DefaultAmbientShelfLifeDays = 17
	DefaultFrozenShelfLifeDays  = 365
	DefaultThawedShelfLifeDays  = 14
	DefaultMinFreshnessDays     = 7
)

// Product represents a perishable SKU with its packing and shelf-life properties
type Product struct {
	ID                   ProductID
	Name                 string
	UnitsPerPallet       int
	AmbientShelfLifeDays int
	FrozenShelfLifeDays  int
	// ThawedShelfLifeDays is the remaining ambient life once a frozen
	// cohort arrives at an ambient-only destination.
	ThawedShelfLifeDays int
}

// NewProduct creates a product with the default packing and shelf-life parameters
func NewProduct(id ProductID, name string) *Product {
	return &Product{
		ID:                   id,
		Name:                 name,
		UnitsPerPallet:       DefaultUnitsPerPallet,
		AmbientShelfLifeDays: DefaultAmbientShelfLifeDays,
		FrozenShelfLifeDays:  DefaultFrozenShelfLifeDays,
		ThawedShelfLifeDays:  DefaultThawedShelfLifeDays,
	}
}

// PalletsFor returns the number of pallet slots needed for a unit
// quantity. A partial pallet occupies a full slot.
func (p *Product) PalletsFor(units float64) int {
	if units <= 0 {
		return 0
	}
	upp := p.UnitsPerPallet
	if upp <= 0 {
		upp = DefaultUnitsPerPallet
	}
	whole := int(units) / upp
	if float64(whole*upp) < units {
		whole++
	}
	return whole
}
