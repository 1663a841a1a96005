package entities

import (
	"fmt"
	"time"
)

// LaborDay represents labor availability and rates for one calendar day
type LaborDay struct {
	Date time.Time
	// IsFixedDay marks weekdays where FixedHours are paid regardless of use.
	IsFixedDay bool
	FixedHours float64
	MaxHours   float64
	// RegularRate applies to fixed hours, OvertimeRate to hours beyond
	// them, NonFixedRate to weekend/holiday hours.
	RegularRate  float64
	OvertimeRate float64
	NonFixedRate float64
	// MinimumHours is the weekend payment floor when any production occurs.
	MinimumHours float64
}

// OvertimeCapacity returns the hours available beyond the fixed block.
func (d LaborDay) OvertimeCapacity() float64 {
	if !d.IsFixedDay {
		return 0
	}
	if d.MaxHours < d.FixedHours {
		return 0
	}
	return d.MaxHours - d.FixedHours
}

// LaborCalendar represents the labor days covering a planning horizon
type LaborCalendar struct {
	Name string
	days map[time.Time]LaborDay
}

// NewLaborCalendar creates a calendar from a list of labor days.
func NewLaborCalendar(name string, days []LaborDay) *LaborCalendar {
	cal := &LaborCalendar{Name: name, days: make(map[time.Time]LaborDay, len(days))}
	for _, d := range days {
		cal.days[Midnight(d.Date)] = d
	}
	return cal
}

// Lookup returns the labor day for a date.
func (c *LaborCalendar) Lookup(date time.Time) (LaborDay, bool) {
	d, ok := c.days[Midnight(date)]
	return d, ok
}

// CoversRange verifies every date in [start, end] has a labor day.
// Returns the first missing date on failure.
func (c *LaborCalendar) CoversRange(start, end time.Time) error {
	for d := start; !d.After(end); d = AddDays(d, 1) {
		if _, ok := c.days[Midnight(d)]; !ok {
			return fmt.Errorf("labor calendar %q has no entry for %s", c.Name, d.Format("2006-01-02"))
		}
	}
	return nil
}

// Len returns the number of calendar days.
func (c *LaborCalendar) Len() int {
	return len(c.days)
}

// DefaultWeekdayLaborDay builds the standard weekday labor profile.
func DefaultWeekdayLaborDay(date time.Time, regular, overtime float64) LaborDay {
	return LaborDay{
		Date:         Midnight(date),
		IsFixedDay:   true,
		FixedHours:   12,
		MaxHours:     14,
		RegularRate:  regular,
		OvertimeRate: overtime,
	}
}

// DefaultWeekendLaborDay builds the standard weekend labor profile with
// the 4-hour payment minimum.
func DefaultWeekendLaborDay(date time.Time, nonFixedRate float64) LaborDay {
	return LaborDay{
		Date:         Midnight(date),
		IsFixedDay:   false,
		MaxHours:     14,
		NonFixedRate: nonFixedRate,
		MinimumHours: 4,
	}
}
