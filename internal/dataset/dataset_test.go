package dataset

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/passdown/internal/layout"
	"github.com/verte-zerg/passdown/internal/layout/layouttest"
	"github.com/verte-zerg/passdown/internal/pairing"
	"github.com/verte-zerg/passdown/internal/passdown"
)

func newAssembler(t *testing.T, workers int) (*Assembler, layout.Layout) {
	t.Helper()
	l := layouttest.NameLayout()
	dec, err := passdown.NewDecoder(l, nil)
	require.NoError(t, err)
	return NewAssembler(dec, workers, nil), l
}

func TestBuildSortsAndSkips(t *testing.T) {
	for _, workers := range []int{1, 4} {
		a, l := newAssembler(t, workers)
		dir := t.TempDir()

		late := layouttest.NewRecord(l, "03/02/2024", "16:00:00")
		late.Volume = 300
		layouttest.WritePair(t, dir, l, "AAA0001", late)

		early := layouttest.NewRecord(l, "03/02/2024", "01:15:00")
		early.Volume = 100
		early.Counters["lane_full"] = [2]int{1, 2}
		layouttest.WritePair(t, dir, l, "BBB0002", early)

		_, gauge := layouttest.WritePair(t, dir, l, "CCC0003", late)
		require.NoError(t, os.Remove(gauge))

		ds, err := a.Build(context.Background(), filepath.Join(dir, "*.txt"))
		require.NoError(t, err)
		require.Equal(t, 2, ds.Len())
		assert.Equal(t, "BBB0002", ds.Observations[0].SortID)
		assert.Equal(t, time.Date(2024, 3, 1, 1, 15, 0, 0, time.UTC), ds.Observations[0].Timestamp)
		assert.Equal(t, "AAA0001", ds.Observations[1].SortID)

		require.Len(t, ds.Skipped, 1)
		assert.Equal(t, filepath.Join(dir, "CCC0003_SorterStatus.txt"), ds.Skipped[0].Pair.Status)
		assert.Equal(t, "missing report", ds.Skipped[0].Reason)
	}
}

func TestBuildKeepsDuplicateTimestamps(t *testing.T) {
	a, l := newAssembler(t, 2)
	dir := t.TempDir()
	rec := layouttest.NewRecord(l, "03/02/2024", "09:00:00")
	layouttest.WritePair(t, dir, l, "BBB0002", rec)
	layouttest.WritePair(t, dir, l, "AAA0001", rec)

	ds, err := a.Build(context.Background(), filepath.Join(dir, "*.txt"))
	require.NoError(t, err)
	require.Equal(t, 2, ds.Len())
	assert.Equal(t, "AAA0001", ds.Observations[0].SortID)
	assert.Equal(t, "BBB0002", ds.Observations[1].SortID)
}

func TestBuildEmpty(t *testing.T) {
	a, l := newAssembler(t, 1)
	ds, err := a.Build(context.Background(), filepath.Join(t.TempDir(), "*.txt"))
	require.NoError(t, err)
	assert.Equal(t, 0, ds.Len())
	assert.Empty(t, ds.Skipped)
	assert.Equal(t, l.Columns(), ds.Columns)
}

func TestBuildAbortsOnMalformedReport(t *testing.T) {
	for _, workers := range []int{1, 3} {
		a, l := newAssembler(t, workers)
		dir := t.TempDir()
		layouttest.WritePair(t, dir, l, "AAA0001", layouttest.NewRecord(l, "03/02/2024", "09:00:00"))
		layouttest.WritePair(t, dir, l, "BBB0002", layouttest.NewRecord(l, "03/02/2024", "bad time"))

		ds, err := a.Build(context.Background(), filepath.Join(dir, "*.txt"))
		require.ErrorIs(t, err, passdown.ErrMalformedField)
		assert.Equal(t, 0, ds.Len())
		assert.Nil(t, ds.Columns)
	}
}

func TestBuildAbortsOnShortReport(t *testing.T) {
	a, l := newAssembler(t, 1)
	dir := t.TempDir()
	status, _ := layouttest.WritePair(t, dir, l, "AAA0001", layouttest.NewRecord(l, "03/02/2024", "09:00:00"))
	require.NoError(t, os.Truncate(status, 100))

	_, err := a.Build(context.Background(), filepath.Join(dir, "*.txt"))
	assert.ErrorIs(t, err, layout.ErrShortRecord)
}

func TestBuildCancelled(t *testing.T) {
	a, l := newAssembler(t, 1)
	dir := t.TempDir()
	layouttest.WritePair(t, dir, l, "AAA0001", layouttest.NewRecord(l, "03/02/2024", "09:00:00"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := a.Build(ctx, filepath.Join(dir, "*.txt"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDecodeOutcome(t *testing.T) {
	a, l := newAssembler(t, 1)
	dir := t.TempDir()
	status, gauge := layouttest.WritePair(t, dir, l, "AAA0001", layouttest.NewRecord(l, "03/02/2024", "09:00:00"))

	res := a.Decode(pairing.Pair{Status: status, Gauge: gauge})
	assert.Equal(t, Decoded, res.Outcome)

	res = a.Decode(pairing.Pair{Status: status, Gauge: gauge + ".missing"})
	assert.Equal(t, Skipped, res.Outcome)
	assert.Equal(t, "skipped", res.Outcome.String())

	require.NoError(t, os.WriteFile(gauge, []byte("short"), 0o644))
	res = a.Decode(pairing.Pair{Status: status, Gauge: gauge})
	assert.Equal(t, Failed, res.Outcome)
	assert.ErrorIs(t, res.Err, layout.ErrShortRecord)
}

func TestRecordFormatsRow(t *testing.T) {
	a, l := newAssembler(t, 1)
	dir := t.TempDir()
	rec := layouttest.NewRecord(l, "01/15/2024", "02:30:00")
	rec.Volume = 123
	rec.Counters["lane_full"] = [2]int{10, 5}
	layouttest.WritePair(t, dir, l, "HUB0042", rec)

	ds, err := a.Build(context.Background(), filepath.Join(dir, "*Status.txt"))
	require.NoError(t, err)
	require.Equal(t, 1, ds.Len())

	row := ds.Record(0)
	require.Len(t, row, len(ds.Columns))
	assert.Equal(t, []string{
		"2024-01-14 02:30:00", "HUB0042", "twi", "Sunday", "123",
		"15", "0", "0", "0",
		"10", "5", "15",
	}, row[:12])

	values := ds.Values(0)
	assert.Equal(t, 123, values[4])
}
