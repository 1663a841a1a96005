package entities

import (
	"fmt"
	"time"
)

// CohortKey identifies an inventory cohort: stock at a node that
// originated from one production date and currently sits in one
// storage state.
type CohortKey struct {
	Node     NodeID
	Product  ProductID
	ProdDate time.Time
	State    StorageMode
}

// DatedCohortKey extends CohortKey with the observation date.
type DatedCohortKey struct {
	Node     NodeID
	Product  ProductID
	ProdDate time.Time
	CurrDate time.Time
	State    StorageMode
}

// Key drops the observation date.
func (k DatedCohortKey) Key() CohortKey {
	return CohortKey{Node: k.Node, Product: k.Product, ProdDate: k.ProdDate, State: k.State}
}

// AgeDays returns the cohort age at its observation date.
func (k DatedCohortKey) AgeDays() int {
	return DaysBetween(k.ProdDate, k.CurrDate)
}

// InventoryEntry represents one line of an inventory snapshot
type InventoryEntry struct {
	Node     NodeID
	Product  ProductID
	AgeDays  int
	State    StorageMode
	Quantity float64
}

// InventorySnapshot represents on-hand inventory observed on a date
type InventorySnapshot struct {
	SnapshotDate time.Time
	Entries      []InventoryEntry
}

// Validate checks snapshot entries against the known node and product sets.
func (s *InventorySnapshot) Validate(nodes map[NodeID]*Node, products map[ProductID]*Product) error {
	for i, e := range s.Entries {
		if _, ok := nodes[e.Node]; !ok {
			return fmt.Errorf("snapshot entry %d references unknown node %q", i, e.Node)
		}
		if _, ok := products[e.Product]; !ok {
			return fmt.Errorf("snapshot entry %d references unknown product %q", i, e.Product)
		}
		if e.AgeDays < 0 {
			return fmt.Errorf("snapshot entry %d has negative age %d", i, e.AgeDays)
		}
		if e.Quantity < 0 {
			return fmt.Errorf("snapshot entry %d has negative quantity %f", i, e.Quantity)
		}
	}
	return nil
}

// ToCohorts converts the snapshot to cohort quantities keyed by
// synthetic production date (snapshot date minus age).
func (s *InventorySnapshot) ToCohorts() map[CohortKey]float64 {
	cohorts := make(map[CohortKey]float64, len(s.Entries))
	for _, e := range s.Entries {
		key := CohortKey{
			Node:     e.Node,
			Product:  e.Product,
			ProdDate: AddDays(Midnight(s.SnapshotDate), -e.AgeDays),
			State:    e.State,
		}
		cohorts[key] += e.Quantity
	}
	return cohorts
}

// EarliestProdDate returns the earliest synthetic production date in the
// snapshot. ok is false when the snapshot is empty.
func (s *InventorySnapshot) EarliestProdDate() (time.Time, bool) {
	if len(s.Entries) == 0 {
		return time.Time{}, false
	}
	maxAge := 0
	for _, e := range s.Entries {
		if e.AgeDays > maxAge {
			maxAge = e.AgeDays
		}
	}
	return AddDays(Midnight(s.SnapshotDate), -maxAge), true
}
