// Package layouttest writes synthetic sorter reports for tests.
package layouttest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/verte-zerg/passdown/internal/layout"
)

const filler = '.'

// Record holds the values placed into a synthetic report pair.
type Record struct {
	Date     string
	Time     string
	Volume   int
	Counters map[string][2]int
}

// NewRecord returns a record with every counter of l set to zero.
func NewRecord(l layout.Layout, date, clock string) Record {
	rec := Record{Date: date, Time: clock, Counters: map[string][2]int{}}
	for _, c := range l.Counters {
		rec.Counters[c.Name] = [2]int{0, 0}
	}
	return rec
}

// Reports renders the status and gauge report bytes for rec.
func Reports(l layout.Layout, rec Record) (status, gauge []byte) {
	status = blank(l.StatusSize)
	gauge = blank(l.GaugeSize)
	put := func(span layout.Span, text string) {
		if span.Source == layout.SourceGauge {
			Overwrite(gauge, span, text)
			return
		}
		Overwrite(status, span, text)
	}
	put(l.Date, rec.Date)
	put(l.Time, rec.Time)
	put(l.Volume, Pad(rec.Volume, l.Volume.Length))
	for _, c := range l.Counters {
		vals := rec.Counters[c.Name]
		put(c.SS1, Pad(vals[0], c.SS1.Length))
		put(c.SS2, Pad(vals[1], c.SS2.Length))
	}
	return status, gauge
}

// Overwrite places text at the span, truncated or space-padded to its length.
func Overwrite(buf []byte, span layout.Span, text string) {
	if len(text) < span.Length {
		text += strings.Repeat(" ", span.Length-len(text))
	}
	copy(buf[span.Offset:span.End()], text[:span.Length])
}

// Pad renders n zero-padded to width.
func Pad(n, width int) string {
	return fmt.Sprintf("%0*d", width, n)
}

// StatusName builds a status report name following the hub naming convention.
func StatusName(sortID string) string {
	return sortID + "_SorterStatus.txt"
}

// GaugeName is the gauge counterpart of StatusName.
func GaugeName(sortID string) string {
	return sortID + "_SortGauge.txt"
}

// WritePair writes both reports of rec into dir and returns their paths.
func WritePair(t testing.TB, dir string, l layout.Layout, sortID string, rec Record) (statusPath, gaugePath string) {
	t.Helper()
	status, gauge := Reports(l, rec)
	statusPath = filepath.Join(dir, StatusName(sortID))
	gaugePath = filepath.Join(dir, GaugeName(sortID))
	if err := os.WriteFile(statusPath, status, 0o644); err != nil {
		t.Fatalf("write status report: %v", err)
	}
	if err := os.WriteFile(gaugePath, gauge, 0o644); err != nil {
		t.Fatalf("write gauge report: %v", err)
	}
	return statusPath, gaugePath
}

// NameLayout returns the default layout with the sort identifier cut from the
// first seven characters of the base name, matching StatusName.
func NameLayout() layout.Layout {
	return layout.Default().WithSortID(layout.SortIDRule{Basis: layout.SortIDFromName, Offset: 0, Width: 7})
}

func blank(size int64) []byte {
	buf := make([]byte, size)
	for i := range buf {
		buf[i] = filler
	}
	return buf
}
