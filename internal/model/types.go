// Package model defines shared data structures.
package model

import "time"

// Shift labels a sort window by the hour it was logged.
type Shift string

// Sort shifts. Twilight wraps midnight.
const (
	ShiftTwilight Shift = "twi"
	ShiftPreload  Shift = "pre"
	ShiftDay      Shift = "day"
	ShiftUnknown  Shift = ""
)

// Shifts lists the known shifts in display order.
var Shifts = []Shift{ShiftPreload, ShiftDay, ShiftTwilight}

// ShiftForHour classifies an hour of day into a sort shift.
// Hours outside [0, 24] are ShiftUnknown.
func ShiftForHour(hour int) Shift {
	switch {
	case hour < 0 || hour > 24:
		return ShiftUnknown
	case hour <= 3:
		return ShiftTwilight
	case hour <= 14:
		return ShiftPreload
	case hour <= 17:
		return ShiftDay
	default:
		return ShiftTwilight
	}
}

// ParseShift validates a shift label.
func ParseShift(s string) (Shift, bool) {
	switch Shift(s) {
	case ShiftTwilight, ShiftPreload, ShiftDay:
		return Shift(s), true
	}
	return ShiftUnknown, false
}

// Category groups counters into reject totals.
type Category string

// Reject categories.
const (
	CategoryOperational Category = "operational"
	CategoryISS         Category = "iss"
	CategoryScanTunnel  Category = "scan_tunnel"
	CategoryMechanical  Category = "mechanical"
)

// Categories lists reject categories in column order.
var Categories = []Category{CategoryOperational, CategoryISS, CategoryScanTunnel, CategoryMechanical}

// CounterValue holds one counter for both sorter subsystems.
type CounterValue struct {
	SS1   int
	SS2   int
	Total int
}

// Observation is one decoded sort event.
type Observation struct {
	Timestamp  time.Time
	SortID     string
	Shift      Shift
	Weekday    time.Weekday
	Volume     int
	Rejects    map[Category]int
	Counters   map[string]CounterValue
	StatusPath string
	GaugePath  string
}

// Reject returns the total for a category.
func (o Observation) Reject(c Category) int {
	return o.Rejects[c]
}

// TotalRejects sums every category total.
func (o Observation) TotalRejects() int {
	total := 0
	for _, c := range Categories {
		total += o.Rejects[c]
	}
	return total
}

// StatsConfig defines filters and options for stats output.
type StatsConfig struct {
	Shift       Shift
	Since       *time.Time
	Last        int
	CurveWindow int
	Counters    string
}

// ObservationAggregate summarizes a stored observation for reporting.
type ObservationAggregate struct {
	ObservationID int64
	Timestamp     time.Time
	SortID        string
	Shift         Shift
	Weekday       time.Weekday
	Volume        int
	Rejects       map[Category]int
}

// CounterAggregate aggregates one counter across observations.
type CounterAggregate struct {
	Counter  string
	Category Category
	SS1      int
	SS2      int
	Total    int
}

// Run records one dataset build.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Pattern    string
	Decoded    int
	Skipped    int
}
