package layout

import "github.com/verte-zerg/passdown/internal/model"

// NotOnFile is the counter whose combined value historically counts ss1 twice.
const NotOnFile = "iss_not_on_file"

// Default returns the field table of the sorter status and sort gauge reports.
//
// Widths are kept as the reports were read historically, including the
// uneven no_read widths (6 and 7 bytes).
func Default() Layout {
	l := Layout{
		StatusSize: 7556,
		GaugeSize:  294,
		Date:       status(0, 10),
		Time:       status(80, 8),
		Volume:     Span{Source: SourceGauge, Offset: 288, Length: 6},
		SortID:     SortIDRule{Basis: SortIDFromPath, Offset: 39, Width: 7},
		Counters: []Counter{
			counter("lane_full", model.CategoryOperational, status(5898, 5), status(5905, 5)),

			counter(NotOnFile, model.CategoryISS, status(4999, 4), status(5005, 4)),
			counter("iss_alt_not_on_file", model.CategoryISS, status(5073, 5), status(5079, 5)),
			counter("iss_unassigned_dest", model.CategoryISS, status(5148, 5), status(5154, 5)),
			counter("iss_unassigned_nlpt", model.CategoryISS, status(5224, 5), status(5229, 5)),
			counter("iss_unassigned_trailer", model.CategoryISS, status(5298, 5), status(5304, 5)),
			counter("iss_no_response", model.CategoryISS, status(5749, 5), status(5754, 5)),
			counter("iss_late_response", model.CategoryISS, status(5824, 5), status(5829, 5)),
			counter("invalid_asgn_to_plc", model.CategoryISS, status(5673, 5), status(5679, 5)),
			counter("invalid_destination", model.CategoryISS, status(7023, 5), status(7029, 5)),

			counter("no_read", model.CategoryScanTunnel, status(5373, 6), status(5379, 7)),
			counter("multi_read", model.CategoryScanTunnel, status(5448, 5), status(5454, 5)),
			counter("bad_xmit", model.CategoryScanTunnel, status(7098, 5), status(7104, 5)),
			counter("no_xmit", model.CategoryScanTunnel, status(7174, 6), status(7180, 6)),

			counter("chute_jam", model.CategoryMechanical, status(5973, 5), status(5979, 5)),
			counter("chute_disabled", model.CategoryMechanical, status(6049, 5), status(6055, 5)),
			counter("diverter_fault", model.CategoryMechanical, status(6123, 5), status(6129, 5)),
			counter("divert_failed", model.CategoryMechanical, status(6198, 5), status(6204, 5)),
			counter("divert_inhibit", model.CategoryMechanical, status(6273, 5), status(6279, 5)),
			counter("gap_error", model.CategoryMechanical, status(6348, 5), status(6354, 5)),
			counter("lost_tracking", model.CategoryMechanical, status(6424, 5), status(6430, 5)),
			counter("sorter_not_at_speed", model.CategoryMechanical, status(6498, 5), status(6504, 5)),
			counter("secondary_no_show", model.CategoryMechanical, status(5598, 5), status(5604, 5)),
			counter("divert_out_position", model.CategoryMechanical, status(7473, 5), status(7479, 5)),
			counter("sorter_aux_mode", model.CategoryMechanical, status(7546, 4), status(7552, 4)),
		},
	}

	// Column names downstream consumers already depend on.
	for i := range l.Counters {
		c := &l.Counters[i]
		switch c.Name {
		case NotOnFile:
			c.Combine = CombineSS1Twice
		case "chute_disabled":
			c.Columns = CounterColumns{SS1: "ss1_chute_chute_disabled", SS2: "ss2_chute_disabled"}
		case "divert_failed":
			c.Columns.SS2 = "ss2_diver_failed"
		case "divert_out_position":
			c.Columns = CounterColumns{
				SS1:   "ss1_divert_out_of_position",
				SS2:   "ss2_divert_out_of_position",
				Total: "divert_out_of_position",
			}
		}
	}
	return l
}

func status(offset int64, length int) Span {
	return Span{Source: SourceStatus, Offset: offset, Length: length}
}

func counter(name string, cat model.Category, ss1, ss2 Span) Counter {
	return Counter{
		Name:     name,
		Category: cat,
		SS1:      ss1,
		SS2:      ss2,
		Combine:  CombineSum,
		Columns: CounterColumns{
			SS1:   "ss1_" + name,
			SS2:   "ss2_" + name,
			Total: name,
		},
	}
}
