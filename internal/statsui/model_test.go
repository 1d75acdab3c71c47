package statsui

import (
	"testing"

	"github.com/verte-zerg/passdown/internal/model"
)

func TestParseFilters(t *testing.T) {
	base := model.StatsConfig{Counters: "lane_full", CurveWindow: 5}
	cfg, err := parseFilters(base, "twi", "2024-01-10", "20", "3")
	if err != nil {
		t.Fatalf("parseFilters: %v", err)
	}
	if cfg.Shift != model.ShiftTwilight {
		t.Fatalf("shift = %q", cfg.Shift)
	}
	if cfg.Since == nil || cfg.Since.Format(dateLayout) != "2024-01-10" {
		t.Fatalf("since = %v", cfg.Since)
	}
	if cfg.Last != 20 || cfg.CurveWindow != 3 {
		t.Fatalf("last=%d window=%d", cfg.Last, cfg.CurveWindow)
	}
	if cfg.Counters != "lane_full" {
		t.Fatalf("counters not kept: %q", cfg.Counters)
	}
}

func TestParseFiltersEmpty(t *testing.T) {
	cfg, err := parseFilters(model.StatsConfig{Shift: model.ShiftDay, Last: 4}, "", "", "", "")
	if err != nil {
		t.Fatalf("parseFilters: %v", err)
	}
	if cfg.Shift != "" || cfg.Since != nil || cfg.Last != 0 || cfg.CurveWindow != 1 {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestParseFiltersRejectsBadInput(t *testing.T) {
	base := model.StatsConfig{CurveWindow: 5}
	cases := [][4]string{
		{"night", "", "", ""},
		{"", "01/10/2024", "", ""},
		{"", "", "-1", ""},
		{"", "", "", "0"},
	}
	for _, c := range cases {
		cfg, err := parseFilters(base, c[0], c[1], c[2], c[3])
		if err == nil {
			t.Fatalf("expected error for %v", c)
		}
		if cfg.CurveWindow != 5 {
			t.Fatalf("cfg changed on error: %+v", cfg)
		}
	}
}

func TestCurveWindowSteps(t *testing.T) {
	cases := []struct {
		in, next, prev int
	}{
		{1, 5, 1},
		{5, 10, 1},
		{7, 10, 5},
		{10, 15, 5},
	}
	for _, c := range cases {
		if got := nextCurveWindow(c.in); got != c.next {
			t.Fatalf("next(%d) = %d, want %d", c.in, got, c.next)
		}
		if got := prevCurveWindow(c.in); got != c.prev {
			t.Fatalf("prev(%d) = %d, want %d", c.in, got, c.prev)
		}
	}
}
