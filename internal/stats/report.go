package stats

import (
	"context"
	"io"
	"strings"

	"github.com/verte-zerg/passdown/internal/model"
	"github.com/verte-zerg/passdown/internal/store"
)

// DefaultTopCounters is how many counters are picked for curves when none are
// selected.
const DefaultTopCounters = 3

// Report contains precomputed data for stats rendering.
type Report struct {
	Observations      []model.ObservationAggregate
	WindowIDs         []int64
	CounterAggsAll    []model.CounterAggregate
	CounterAggsWindow []model.CounterAggregate
	// Counters are the counters plotted individually, with their values per
	// observation.
	Counters      []string
	CounterValues map[int64]map[string]model.CounterValue
}

// BuildReport loads and prepares data for stats rendering.
func BuildReport(ctx context.Context, st *store.Store, cfg model.StatsConfig) (Report, error) {
	obs, err := st.ListObservations(ctx, cfg)
	if err != nil {
		return Report{}, err
	}
	if cfg.Last > 0 && len(obs) > cfg.Last {
		obs = obs[len(obs)-cfg.Last:]
	}

	allIDs := ObservationIDs(obs)
	windowIDs := lastObservationIDs(obs, cfg.CurveWindow)
	aggsAll, err := st.ListCounterAggregates(ctx, allIDs)
	if err != nil {
		return Report{}, err
	}
	aggsWindow, err := st.ListCounterAggregates(ctx, windowIDs)
	if err != nil {
		return Report{}, err
	}

	counters := ParseCounters(cfg.Counters)
	if len(counters) == 0 {
		counters = TopCounters(aggsAll, DefaultTopCounters)
	}
	values, err := st.ListCounterValues(ctx, allIDs, counters)
	if err != nil {
		return Report{}, err
	}

	return Report{
		Observations:      obs,
		WindowIDs:         windowIDs,
		CounterAggsAll:    aggsAll,
		CounterAggsWindow: aggsWindow,
		Counters:          counters,
		CounterValues:     values,
	}, nil
}

// Volume sums the volume of the report's observations.
func (r Report) Volume() int {
	total := 0
	for _, o := range r.Observations {
		total += o.Volume
	}
	return total
}

// Render writes the full text report: summary, per-shift and per-weekday
// tables, counter totals and trend plots.
func (r Report) Render(w io.Writer, window int, opts PlotOptions) error {
	if err := RenderSummary(w, r.Observations); err != nil {
		return err
	}
	if len(r.Observations) == 0 {
		return nil
	}
	if err := RenderGroupTable(w, "By Shift", "Shift", GroupByShift(r.Observations)); err != nil {
		return err
	}
	if err := RenderGroupTable(w, "By Weekday", "Weekday", GroupByWeekday(r.Observations)); err != nil {
		return err
	}
	if err := RenderCounterTable(w, r.CounterAggsAll, r.Volume()); err != nil {
		return err
	}
	if err := RenderCurves(w, r.Observations, window, opts); err != nil {
		return err
	}
	return RenderCounterCurves(w, r.Observations, r.CounterValues, r.Counters, window, opts)
}

// ParseCounters splits a comma separated counter list.
func ParseCounters(input string) []string {
	var out []string
	for _, part := range strings.Split(input, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ObservationIDs returns the store IDs of obs in order.
func ObservationIDs(obs []model.ObservationAggregate) []int64 {
	ids := make([]int64, len(obs))
	for i, o := range obs {
		ids[i] = o.ObservationID
	}
	return ids
}

func lastObservationIDs(obs []model.ObservationAggregate, window int) []int64 {
	if window <= 0 || len(obs) <= window {
		return ObservationIDs(obs)
	}
	return ObservationIDs(obs[len(obs)-window:])
}
