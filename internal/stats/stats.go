// Package stats computes and renders reject statistics over stored sorts.
package stats

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/verte-zerg/passdown/internal/model"
)

var sparkRunes = []rune("▁▂▃▄▅▆▇█")

// RejectRate returns rejects as a percentage of volume.
func RejectRate(rejects, volume int) float64 {
	if volume <= 0 {
		return 0
	}
	return float64(rejects) / float64(volume) * 100
}

// MovingAverage computes a trailing mean over window values. The first points
// average over what is available so far.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 {
		copy(out, values)
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		n := i + 1
		if i >= window {
			sum -= values[i-window]
			n = window
		}
		out[i] = sum / float64(n)
	}
	return out
}

// Sparkline renders values as a single line of block characters.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	top := len(sparkRunes) - 1
	if hi-lo < 1e-9 {
		return strings.Repeat(string(sparkRunes[top/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		idx := int(math.Round((v - lo) / (hi - lo) * float64(top)))
		b.WriteRune(sparkRunes[max(0, min(top, idx))])
	}
	return b.String()
}

// Summary totals a set of observations.
type Summary struct {
	Observations int
	Volume       int
	Rejects      map[model.Category]int
	// First and Last bound the observation timestamps.
	First, Last string
}

// TotalRejects sums every category.
func (s Summary) TotalRejects() int {
	total := 0
	for _, cat := range model.Categories {
		total += s.Rejects[cat]
	}
	return total
}

// Summarize totals observations, which must be ordered by timestamp.
func Summarize(obs []model.ObservationAggregate) Summary {
	s := Summary{Rejects: map[model.Category]int{}}
	for _, o := range obs {
		s.Observations++
		s.Volume += o.Volume
		for _, cat := range model.Categories {
			s.Rejects[cat] += o.Rejects[cat]
		}
	}
	if len(obs) > 0 {
		s.First = obs[0].Timestamp.Format(timestampFormat)
		s.Last = obs[len(obs)-1].Timestamp.Format(timestampFormat)
	}
	return s
}

const timestampFormat = "2006-01-02 15:04"

// RenderSummary prints totals and reject rates for the observations.
func RenderSummary(w io.Writer, obs []model.ObservationAggregate) error {
	if len(obs) == 0 {
		_, err := fmt.Fprintln(w, "No sorts found.")
		return err
	}
	s := Summarize(obs)
	lines := []string{
		"Summary",
		fmt.Sprintf("Sorts: %d (%s to %s)", s.Observations, s.First, s.Last),
		fmt.Sprintf("Volume: %d", s.Volume),
		fmt.Sprintf("Rejects: %d (%s)", s.TotalRejects(), formatRate(RejectRate(s.TotalRejects(), s.Volume))),
	}
	for _, cat := range model.Categories {
		lines = append(lines, fmt.Sprintf("  %s: %d (%s)", categoryLabel(cat), s.Rejects[cat], formatRate(RejectRate(s.Rejects[cat], s.Volume))))
	}
	lines = append(lines, "")
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderCurves plots the reject rate of every category, smoothed over window
// sorts.
func RenderCurves(w io.Writer, obs []model.ObservationAggregate, window int, opts PlotOptions) error {
	if len(obs) == 0 {
		return nil
	}
	series := make([]Series, 0, len(model.Categories))
	for _, cat := range model.Categories {
		values := make([]float64, len(obs))
		for i, o := range obs {
			values[i] = RejectRate(o.Rejects[cat], o.Volume)
		}
		series = append(series, Series{Name: categoryLabel(cat), Values: MovingAverage(values, window)})
	}
	if opts.Title == "" {
		opts.Title = "Reject Rate (%)"
	}
	return Plot(w, series, opts)
}

// RenderCounterTable prints counter totals, highest first, with each
// counter's share of the volume.
func RenderCounterTable(w io.Writer, aggs []model.CounterAggregate, volume int) error {
	if len(aggs) == 0 {
		_, err := fmt.Fprintln(w, "No counters found.")
		return err
	}
	rows := make([][]string, 0, len(aggs))
	for _, agg := range SortCountersByTotal(aggs) {
		rows = append(rows, CounterRow(agg, volume))
	}
	return table{
		headers: CounterHeaders,
		rows:    rows,
		right:   map[int]bool{2: true, 3: true, 4: true, 5: true},
	}.render(w, "Counters")
}

// CounterHeaders names the columns of CounterRow.
var CounterHeaders = []string{"Counter", "Category", "SS1", "SS2", "Total", "Rate"}

// CounterRow formats one counter aggregate for a table.
func CounterRow(agg model.CounterAggregate, volume int) []string {
	return []string{
		agg.Counter,
		categoryLabel(agg.Category),
		fmt.Sprintf("%d", agg.SS1),
		fmt.Sprintf("%d", agg.SS2),
		fmt.Sprintf("%d", agg.Total),
		formatRate(RejectRate(agg.Total, volume)),
	}
}

// RenderCounterCurves plots ss1 and ss2 of each selected counter across the
// observations, smoothed over window sorts.
func RenderCounterCurves(w io.Writer, obs []model.ObservationAggregate, values map[int64]map[string]model.CounterValue, counters []string, window int, opts PlotOptions) error {
	if len(obs) == 0 || len(counters) == 0 {
		return nil
	}
	for _, name := range counters {
		ss1 := make([]float64, len(obs))
		ss2 := make([]float64, len(obs))
		total := make([]float64, len(obs))
		for i, o := range obs {
			v := values[o.ObservationID][name]
			ss1[i] = float64(v.SS1)
			ss2[i] = float64(v.SS2)
			total[i] = float64(v.Total)
		}
		if _, err := fmt.Fprintf(w, "%s  %s\n", name, Sparkline(MovingAverage(total, window))); err != nil {
			return err
		}
		plotOpts := opts
		plotOpts.Title = ""
		if err := Plot(w, []Series{
			{Name: "ss1", Values: MovingAverage(ss1, window)},
			{Name: "ss2", Values: MovingAverage(ss2, window)},
		}, plotOpts); err != nil {
			return err
		}
	}
	return nil
}

func formatRate(rate float64) string {
	return fmt.Sprintf("%.2f%%", rate)
}

func categoryLabel(cat model.Category) string {
	switch cat {
	case model.CategoryOperational:
		return "Operational"
	case model.CategoryISS:
		return "ISS"
	case model.CategoryScanTunnel:
		return "Scan Tunnel"
	case model.CategoryMechanical:
		return "Mechanical"
	}
	return string(cat)
}
