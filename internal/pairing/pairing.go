// Package pairing matches sorter status reports with their gauge reports.
package pairing

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

const (
	statusMarker = "Status"
	// SorterStatus becomes SortGauge: "erStatus" is the part the names do not share.
	statusSuffix = "erStatus"
	gaugeSuffix  = "Gauge"
)

// Pair names the two reports written for one sort.
type Pair struct {
	Status string
	Gauge  string
}

// GaugePath derives the gauge report path from a status report path.
// Only the first occurrence is replaced.
func GaugePath(statusPath string) string {
	return strings.Replace(statusPath, statusSuffix, gaugeSuffix, 1)
}

// Pairs expands pattern and returns one pair per status report, sorted by
// status path. Files that are not status reports are ignored. The gauge file is
// not checked for existence.
func Pairs(pattern string) ([]Pair, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid input pattern %q: %w", pattern, err)
	}
	pairs := make([]Pair, 0, len(matches))
	for _, path := range matches {
		if !strings.Contains(path, statusMarker) {
			continue
		}
		pairs = append(pairs, Pair{Status: path, Gauge: GaugePath(path)})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Status < pairs[j].Status })
	return pairs, nil
}
