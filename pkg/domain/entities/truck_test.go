package entities

import (
	"testing"
	"time"
)

func TestTruckSchedule_ExpandDepartures(t *testing.T) {
	monday := Day(2025, time.June, 2)
	sched := &TruckSchedule{
		ID:          "AM-6104",
		Origin:      "6122",
		Destination: "6104",
		Mode:        Ambient,
		DaysOfWeek:  []time.Weekday{time.Monday, time.Wednesday, time.Friday},
	}

	deps := sched.ExpandDepartures(monday, AddDays(monday, 13))
	if len(deps) != 6 {
		t.Fatalf("expected 6 departures over two weeks, got %d", len(deps))
	}
	for _, dep := range deps {
		wd := dep.DepartureDate.Weekday()
		if wd != time.Monday && wd != time.Wednesday && wd != time.Friday {
			t.Errorf("unexpected departure on %s", wd)
		}
	}

	daily := &TruckSchedule{ID: "D", Origin: "6122", Destination: "6104", Mode: Ambient}
	if got := len(daily.ExpandDepartures(monday, AddDays(monday, 6))); got != 7 {
		t.Errorf("empty day set should mean daily departures, got %d", got)
	}
}

func TestTruckSchedule_Stops(t *testing.T) {
	sched := &TruckSchedule{
		Origin:            "6122",
		Destination:       "6110",
		IntermediateStops: []NodeID{"6104", "6125"},
	}
	stops := sched.Stops()
	if len(stops) != 3 {
		t.Fatalf("expected 3 stops, got %d", len(stops))
	}
	if stops[2] != "6110" {
		t.Errorf("primary destination must be last, got %s", stops[2])
	}
}

func TestDateRange(t *testing.T) {
	start := Day(2025, time.June, 2)
	dates := DateRange(start, AddDays(start, 3))
	if len(dates) != 4 {
		t.Fatalf("expected 4 dates, got %d", len(dates))
	}
	if DateRange(AddDays(start, 1), start) != nil {
		t.Error("inverted range should be empty")
	}
	if DaysBetween(start, AddDays(start, 9)) != 9 {
		t.Error("DaysBetween is inconsistent with AddDays")
	}
}
