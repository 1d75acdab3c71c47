package stats

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/passdown/internal/model"
)

func aggregate(id int64, ts time.Time, volume, op, mech int) model.ObservationAggregate {
	return model.ObservationAggregate{
		ObservationID: id,
		Timestamp:     ts,
		Shift:         model.ShiftForHour(ts.Hour()),
		Weekday:       ts.Weekday(),
		Volume:        volume,
		Rejects: map[model.Category]int{
			model.CategoryOperational: op,
			model.CategoryMechanical:  mech,
		},
	}
}

func TestRejectRate(t *testing.T) {
	if got := RejectRate(15, 1000); got != 1.5 {
		t.Fatalf("expected 1.5, got %v", got)
	}
	if got := RejectRate(3, 0); got != 0 {
		t.Fatalf("expected 0 for no volume, got %v", got)
	}
}

func TestMovingAverage(t *testing.T) {
	got := MovingAverage([]float64{1, 2, 3, 4}, 2)
	want := []float64{1, 1.5, 2.5, 3.5}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
	same := MovingAverage([]float64{4, 8}, 1)
	if same[0] != 4 || same[1] != 8 {
		t.Fatalf("expected window 1 to copy values, got %v", same)
	}
}

func TestSparkline(t *testing.T) {
	if got := Sparkline([]float64{0, 7}); got != "▁█" {
		t.Fatalf("unexpected sparkline: %q", got)
	}
	if got := Sparkline([]float64{2, 2}); got != "▄▄" {
		t.Fatalf("unexpected flat sparkline: %q", got)
	}
	if got := Sparkline(nil); got != "" {
		t.Fatalf("expected empty sparkline, got %q", got)
	}
}

func TestSummarize(t *testing.T) {
	obs := []model.ObservationAggregate{
		aggregate(1, time.Date(2024, 1, 14, 2, 30, 0, 0, time.UTC), 1000, 15, 5),
		aggregate(2, time.Date(2024, 1, 15, 16, 0, 0, 0, time.UTC), 3000, 5, 15),
	}
	s := Summarize(obs)
	if s.Observations != 2 || s.Volume != 4000 || s.TotalRejects() != 40 {
		t.Fatalf("unexpected summary: %+v", s)
	}
	if s.First != "2024-01-14 02:30" || s.Last != "2024-01-15 16:00" {
		t.Fatalf("unexpected period: %s to %s", s.First, s.Last)
	}

	var buf bytes.Buffer
	if err := RenderSummary(&buf, obs); err != nil {
		t.Fatalf("render summary: %v", err)
	}
	if !strings.Contains(buf.String(), "Rejects: 40 (1.00%)") {
		t.Fatalf("unexpected summary output:\n%s", buf.String())
	}
	if !strings.Contains(buf.String(), "Operational: 20 (0.50%)") {
		t.Fatalf("unexpected summary output:\n%s", buf.String())
	}
}

func TestGroupByShiftAndWeekday(t *testing.T) {
	obs := []model.ObservationAggregate{
		aggregate(1, time.Date(2024, 1, 14, 2, 30, 0, 0, time.UTC), 1000, 10, 0),
		aggregate(2, time.Date(2024, 1, 15, 16, 0, 0, 0, time.UTC), 2000, 20, 0),
		aggregate(3, time.Date(2024, 1, 15, 17, 0, 0, 0, time.UTC), 2000, 0, 4),
	}

	shifts := GroupByShift(obs)
	if len(shifts) != 2 || shifts[0].Label != "day" || shifts[1].Label != "twi" {
		t.Fatalf("unexpected shift groups: %+v", shifts)
	}
	if shifts[0].Observations != 2 || shifts[0].Volume != 4000 || shifts[0].TotalRejects() != 24 {
		t.Fatalf("unexpected day group: %+v", shifts[0])
	}

	days := GroupByWeekday(obs)
	if len(days) != 2 || days[0].Label != "Monday" || days[1].Label != "Sunday" {
		t.Fatalf("unexpected weekday groups: %+v", days)
	}

	var buf bytes.Buffer
	if err := RenderGroupTable(&buf, "By Shift", "Shift", shifts); err != nil {
		t.Fatalf("render groups: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 || lines[0] != "By Shift" || !strings.HasPrefix(lines[2], "day") {
		t.Fatalf("unexpected group table:\n%s", buf.String())
	}
}

func TestRenderCounterTable(t *testing.T) {
	var buf bytes.Buffer
	err := RenderCounterTable(&buf, []model.CounterAggregate{
		{Counter: "no_read", Category: model.CategoryScanTunnel, SS1: 1, SS2: 2, Total: 3},
		{Counter: "lane_full", Category: model.CategoryOperational, SS1: 10, SS2: 5, Total: 15},
	}, 1000)
	if err != nil {
		t.Fatalf("render counters: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[2], "lane_full") || !strings.HasSuffix(lines[2], "1.50%") {
		t.Fatalf("expected lane_full first, got %q", lines[2])
	}
}
