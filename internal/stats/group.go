package stats

import (
	"fmt"
	"io"
	"time"

	"github.com/verte-zerg/passdown/internal/model"
)

// Group totals the observations sharing a shift or weekday.
type Group struct {
	Label        string
	Observations int
	Volume       int
	Rejects      map[model.Category]int
}

func (g *Group) add(o model.ObservationAggregate) {
	g.Observations++
	g.Volume += o.Volume
	for cat, n := range o.Rejects {
		g.Rejects[cat] += n
	}
}

// TotalRejects sums the category totals of the group.
func (g Group) TotalRejects() int {
	total := 0
	for _, cat := range model.Categories {
		total += g.Rejects[cat]
	}
	return total
}

// weekdays in report order, Monday first.
var weekdays = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

// GroupByShift totals observations per shift in display order. Shifts with no
// observations are left out.
func GroupByShift(obs []model.ObservationAggregate) []Group {
	keys := make([]string, len(model.Shifts))
	for i, s := range model.Shifts {
		keys[i] = string(s)
	}
	return groupBy(obs, keys, func(o model.ObservationAggregate) string { return string(o.Shift) })
}

// GroupByWeekday totals observations per weekday, Monday first. Days with no
// observations are left out.
func GroupByWeekday(obs []model.ObservationAggregate) []Group {
	keys := make([]string, len(weekdays))
	for i, d := range weekdays {
		keys[i] = d.String()
	}
	return groupBy(obs, keys, func(o model.ObservationAggregate) string { return o.Weekday.String() })
}

func groupBy(obs []model.ObservationAggregate, order []string, key func(model.ObservationAggregate) string) []Group {
	byKey := make(map[string]*Group, len(order))
	for _, o := range obs {
		k := key(o)
		g, ok := byKey[k]
		if !ok {
			g = &Group{Label: k, Rejects: map[model.Category]int{}}
			byKey[k] = g
		}
		g.add(o)
	}
	out := make([]Group, 0, len(byKey))
	for _, k := range order {
		if g, ok := byKey[k]; ok {
			out = append(out, *g)
		}
	}
	return out
}

// RenderGroupTable prints volume and reject rates per group.
func RenderGroupTable(w io.Writer, title, label string, groups []Group) error {
	if len(groups) == 0 {
		return nil
	}
	headers := []string{label, "Sorts", "Volume", "Rejects", "Rate"}
	for _, cat := range model.Categories {
		headers = append(headers, categoryLabel(cat))
	}
	rows := make([][]string, 0, len(groups))
	for _, g := range groups {
		row := []string{
			g.Label,
			fmt.Sprintf("%d", g.Observations),
			fmt.Sprintf("%d", g.Volume),
			fmt.Sprintf("%d", g.TotalRejects()),
			formatRate(RejectRate(g.TotalRejects(), g.Volume)),
		}
		for _, cat := range model.Categories {
			row = append(row, formatRate(RejectRate(g.Rejects[cat], g.Volume)))
		}
		rows = append(rows, row)
	}
	right := map[int]bool{}
	for i := 1; i < len(headers); i++ {
		right[i] = true
	}
	return table{headers: headers, rows: rows, right: right}.render(w, title)
}
