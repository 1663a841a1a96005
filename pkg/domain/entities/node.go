package entities

// NodeID represents a unique network node identifier
type NodeID string

// StorageMode represents a storage temperature state
type StorageMode int

const (
	Ambient StorageMode = iota
	Frozen
)

// String method for StorageMode enum
func (m StorageMode) String() string {
	switch m {
	case Ambient:
		return "ambient"
	case Frozen:
		return "frozen"
	default:
		return "unknown"
	}
}

// ParseStorageMode parses the textual form used in scenario files.
func ParseStorageMode(s string) (StorageMode, bool) {
	switch s {
	case "ambient":
		return Ambient, true
	case "frozen":
		return Frozen, true
	default:
		return Ambient, false
	}
}

// ManufacturingCapability holds production parameters for a manufacturing node
type ManufacturingCapability struct {
	// ProductionRatePerHour is units produced per labor hour.
	ProductionRatePerHour float64
	// StartupHours and ShutdownHours are paid once per production day.
	StartupHours  float64
	ShutdownHours float64
	// ChangeoverHours is paid per distinct product run on a day.
	ChangeoverHours float64
	// MaxDailyCapacityUnits caps daily output (0 = derived from labor).
	MaxDailyCapacityUnits float64
}

// LaborHoursFor returns the labor hours needed to produce the given
// units, excluding per-day startup/shutdown overhead.
func (m *ManufacturingCapability) LaborHoursFor(units float64) float64 {
	if units <= 0 || m.ProductionRatePerHour <= 0 {
		return 0
	}
	return units / m.ProductionRatePerHour
}

// UnitsProducible returns the units producible within the given labor
// hours after the per-day overhead is paid.
func (m *ManufacturingCapability) UnitsProducible(laborHours float64) float64 {
	overhead := m.StartupHours + m.ShutdownHours + m.ChangeoverHours
	if laborHours <= overhead {
		return 0
	}
	return (laborHours - overhead) * m.ProductionRatePerHour
}

// Node represents a location in the distribution network: the
// manufacturing site, a frozen/ambient hub, a breadroom, or an
// external cold store.
type Node struct {
	ID             NodeID
	Name           string
	CanManufacture bool
	HasDemand      bool
	// RequiresTrucks marks nodes whose outbound shipments must ride a
	// scheduled truck departure.
	RequiresTrucks bool
	StorageModes   []StorageMode
	Manufacturing  *ManufacturingCapability
}

// SupportsMode reports whether the node can store inventory in the given state.
func (n *Node) SupportsMode(m StorageMode) bool {
	for _, sm := range n.StorageModes {
		if sm == m {
			return true
		}
	}
	return false
}

// AmbientOnly reports whether the node stores ambient stock exclusively.
// Frozen arrivals at such a node thaw on arrival.
func (n *Node) AmbientOnly() bool {
	return n.SupportsMode(Ambient) && !n.SupportsMode(Frozen)
}
