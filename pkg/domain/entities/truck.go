package entities

import "time"

// Default truck capacity: 44 pallets of 320 units.
const (
	DefaultTruckPalletCapacity = 44
	DefaultTruckCapacityUnits  = DefaultTruckPalletCapacity * DefaultUnitsPerPallet
)

// TruckSchedule represents a recurring timetable entry for a truck lane
type TruckSchedule struct {
	ID          string
	Origin      NodeID
	Destination NodeID
	// IntermediateStops are additional drop-off nodes served by the
	// same departure before the primary destination.
	IntermediateStops []NodeID
	Mode              StorageMode
	// DaysOfWeek lists the weekdays the truck departs. Empty means daily.
	DaysOfWeek     []time.Weekday
	CapacityUnits  float64
	PalletCapacity int
	FixedCost      float64
}

// DepartsOn reports whether the schedule has a departure on the date.
func (s *TruckSchedule) DepartsOn(date time.Time) bool {
	if len(s.DaysOfWeek) == 0 {
		return true
	}
	wd := date.Weekday()
	for _, d := range s.DaysOfWeek {
		if d == wd {
			return true
		}
	}
	return false
}

// Stops returns every drop-off node served by a departure, intermediate
// stops first, primary destination last.
func (s *TruckSchedule) Stops() []NodeID {
	stops := make([]NodeID, 0, len(s.IntermediateStops)+1)
	stops = append(stops, s.IntermediateStops...)
	return append(stops, s.Destination)
}

// TruckDeparture represents one dated departure expanded from a schedule
type TruckDeparture struct {
	Schedule      *TruckSchedule
	DepartureDate time.Time
}

// ExpandDepartures enumerates dated departures for the schedule within
// [start, end] inclusive, in date order.
func (s *TruckSchedule) ExpandDepartures(start, end time.Time) []TruckDeparture {
	var deps []TruckDeparture
	for d := start; !d.After(end); d = AddDays(d, 1) {
		if s.DepartsOn(d) {
			deps = append(deps, TruckDeparture{Schedule: s, DepartureDate: d})
		}
	}
	return deps
}
