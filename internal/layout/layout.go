// Package layout describes where the sorter reports keep their fields.
//
// A Layout is process-wide configuration: a table of byte spans inside the
// sorter status and sort gauge reports, one per header field and one per
// subsystem (ss1/ss2) for every reject counter. It is built once, validated
// once and then only read.
package layout

import (
	"fmt"
	"path/filepath"

	"github.com/verte-zerg/passdown/internal/model"
)

// Source names the report a span is read from.
type Source string

// Report sources.
const (
	SourceStatus Source = "status"
	SourceGauge  Source = "gauge"
)

// Span is a fixed byte range inside one report.
type Span struct {
	Source Source `yaml:"source" validate:"required,oneof=status gauge"`
	Offset int64  `yaml:"offset" validate:"gte=0"`
	Length int    `yaml:"length" validate:"gt=0"`
}

// End returns the first offset after the span.
func (s Span) End() int64 {
	return s.Offset + int64(s.Length)
}

func (s Span) String() string {
	return fmt.Sprintf("%s[%d:%d]", s.Source, s.Offset, s.End())
}

// CombineRule tells how the ss1 and ss2 values of a counter add up.
type CombineRule string

// Combine rules. CombineSS1Twice reproduces the sorter report history for
// iss_not_on_file, where ss1 was counted twice and ss2 never.
const (
	CombineSum      CombineRule = "sum"
	CombineSS1Twice CombineRule = "ss1-twice"
)

// CounterColumns names the output columns of a counter. An empty Total means
// the combined value is not emitted.
type CounterColumns struct {
	SS1   string `yaml:"ss1" validate:"required"`
	SS2   string `yaml:"ss2" validate:"required"`
	Total string `yaml:"total,omitempty"`
}

// Counter is a reject counter kept separately by both sorter subsystems.
type Counter struct {
	Name     string         `yaml:"name" validate:"required"`
	Category model.Category `yaml:"category" validate:"required,oneof=operational iss scan_tunnel mechanical"`
	SS1      Span           `yaml:"ss1"`
	SS2      Span           `yaml:"ss2"`
	Combine  CombineRule    `yaml:"combine,omitempty" validate:"omitempty,oneof=sum ss1-twice"`
	Columns  CounterColumns `yaml:"columns"`
}

// Combined applies the counter's combine rule.
func (c Counter) Combined(ss1, ss2 int) int {
	if c.Combine == CombineSS1Twice {
		return ss1 + ss1
	}
	return ss1 + ss2
}

// SortIDBasis selects what the sort identifier is cut from.
type SortIDBasis string

// Sort identifier bases.
const (
	SortIDFromPath SortIDBasis = "path"
	SortIDFromName SortIDBasis = "name"
)

// SortIDRule cuts the sort identifier out of a status file reference. The
// identifier is a fixed-width field of the report naming convention; with
// SortIDFromPath the offset counts from the start of the path exactly as it
// was discovered, with SortIDFromName from the start of the base name.
type SortIDRule struct {
	Basis  SortIDBasis `yaml:"basis" validate:"required,oneof=path name"`
	Offset int         `yaml:"offset" validate:"gte=0"`
	Width  int         `yaml:"width" validate:"gt=0"`
}

// Extract returns the identifier. ok is false when the reference is too short
// to hold the whole field; whatever part is available is still returned.
func (r SortIDRule) Extract(statusPath string) (string, bool) {
	ref := statusPath
	if r.Basis == SortIDFromName {
		ref = filepath.Base(statusPath)
	}
	start := r.Offset
	end := r.Offset + r.Width
	if start > len(ref) {
		start = len(ref)
	}
	if end > len(ref) {
		return ref[start:], false
	}
	return ref[start:end], true
}

// Layout is the full field table of a status/gauge report pair.
type Layout struct {
	// StatusSize and GaugeSize are the minimum report lengths the table assumes.
	StatusSize int64      `yaml:"status_size" validate:"gt=0"`
	GaugeSize  int64      `yaml:"gauge_size" validate:"gt=0"`
	Date       Span       `yaml:"date"`
	Time       Span       `yaml:"time"`
	Volume     Span       `yaml:"volume"`
	SortID     SortIDRule `yaml:"sort_id"`
	Counters   []Counter  `yaml:"counters" validate:"required,min=1,dive"`
}

// Counter looks a counter up by name.
func (l Layout) Counter(name string) (Counter, bool) {
	for _, c := range l.Counters {
		if c.Name == name {
			return c, true
		}
	}
	return Counter{}, false
}

// CountersIn returns the counters of one category in table order.
func (l Layout) CountersIn(cat model.Category) []Counter {
	var out []Counter
	for _, c := range l.Counters {
		if c.Category == cat {
			out = append(out, c)
		}
	}
	return out
}

// WithCombine returns a copy of the layout with the combine rule of one
// counter replaced.
func (l Layout) WithCombine(name string, rule CombineRule) (Layout, error) {
	if rule != CombineSum && rule != CombineSS1Twice {
		return Layout{}, fmt.Errorf("%w: unknown combine rule %q", ErrInvalidLayout, rule)
	}
	counters := make([]Counter, len(l.Counters))
	copy(counters, l.Counters)
	for i := range counters {
		if counters[i].Name == name {
			counters[i].Combine = rule
			l.Counters = counters
			return l, nil
		}
	}
	return Layout{}, fmt.Errorf("%w: no counter named %q", ErrInvalidLayout, name)
}

// WithSortID returns a copy of the layout using a different sort identifier rule.
func (l Layout) WithSortID(rule SortIDRule) Layout {
	l.SortID = rule
	return l
}

func (l Layout) sizeOf(src Source) int64 {
	if src == SourceGauge {
		return l.GaugeSize
	}
	return l.StatusSize
}
