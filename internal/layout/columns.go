package layout

import "github.com/verte-zerg/passdown/internal/model"

// Fixed leading columns of the dataset.
const (
	ColumnTimestamp = "timestamp"
	ColumnSortID    = "sort_id"
	ColumnShift     = "sort"
	ColumnWeekday   = "weekday"
	ColumnVolume    = "volume"
)

// RejectColumn names the total column of a reject category.
func RejectColumn(cat model.Category) string {
	switch cat {
	case model.CategoryOperational:
		return "op_reject"
	case model.CategoryISS:
		return "iss_reject"
	case model.CategoryScanTunnel:
		return "scan_tunnel_reject"
	case model.CategoryMechanical:
		return "mechanical_reject"
	}
	return string(cat) + "_reject"
}

// Columns returns the dataset columns in output order: timestamp first, then
// the header fields, the category totals and the per-counter values.
func (l Layout) Columns() []string {
	cols := []string{ColumnTimestamp, ColumnSortID, ColumnShift, ColumnWeekday, ColumnVolume}
	for _, cat := range model.Categories {
		cols = append(cols, RejectColumn(cat))
	}
	for _, c := range l.Counters {
		cols = append(cols, c.Columns.SS1, c.Columns.SS2)
		if c.Columns.Total != "" {
			cols = append(cols, c.Columns.Total)
		}
	}
	return cols
}
