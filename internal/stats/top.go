package stats

import (
	"sort"

	"github.com/verte-zerg/passdown/internal/model"
)

// TopCounters returns the names of the n counters with the highest totals.
// Ties are broken by name.
func TopCounters(aggs []model.CounterAggregate, n int) []string {
	if n <= 0 || len(aggs) == 0 {
		return nil
	}
	sorted := SortCountersByTotal(aggs)
	n = min(n, len(sorted))
	out := make([]string, 0, n)
	for _, agg := range sorted[:n] {
		if agg.Total == 0 {
			break
		}
		out = append(out, agg.Counter)
	}
	return out
}

// SortCountersByTotal returns a copy of aggs ordered by descending total.
func SortCountersByTotal(aggs []model.CounterAggregate) []model.CounterAggregate {
	out := append([]model.CounterAggregate(nil), aggs...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total == out[j].Total {
			return out[i].Counter < out[j].Counter
		}
		return out[i].Total > out[j].Total
	})
	return out
}
