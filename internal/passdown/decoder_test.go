package passdown

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/passdown/internal/layout"
	"github.com/verte-zerg/passdown/internal/layout/layouttest"
	"github.com/verte-zerg/passdown/internal/model"
)

func newTestDecoder(t *testing.T, l layout.Layout) *Decoder {
	t.Helper()
	d, err := NewDecoder(l, nil)
	require.NoError(t, err)
	return d
}

func TestDecodeTwilightCarry(t *testing.T) {
	l := layouttest.NameLayout()
	rec := layouttest.NewRecord(l, "01/15/2024", "02:30:00")
	rec.Volume = 123
	rec.Counters["lane_full"] = [2]int{10, 5}
	statusPath, gaugePath := layouttest.WritePair(t, t.TempDir(), l, "HUB0042", rec)

	obs, err := newTestDecoder(t, l).Decode(statusPath, gaugePath)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, 1, 14, 2, 30, 0, 0, time.UTC), obs.Timestamp)
	assert.Equal(t, time.Sunday, obs.Weekday)
	assert.Equal(t, model.ShiftTwilight, obs.Shift)
	assert.Equal(t, "HUB0042", obs.SortID)
	assert.Equal(t, 123, obs.Volume)
	assert.Equal(t, model.CounterValue{SS1: 10, SS2: 5, Total: 15}, obs.Counters["lane_full"])
	assert.Equal(t, 15, obs.Reject(model.CategoryOperational))
	assert.Equal(t, statusPath, obs.StatusPath)
	assert.Equal(t, gaugePath, obs.GaugePath)
}

func TestDecodeKeepsDateAfterCarryHour(t *testing.T) {
	l := layouttest.NameLayout()
	rec := layouttest.NewRecord(l, "01/15/2024", "04:00:00")
	status, gauge := layouttest.Reports(l, rec)

	obs, err := newTestDecoder(t, l).DecodeReaders(bytes.NewReader(status), bytes.NewReader(gauge))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 15, 4, 0, 0, 0, time.UTC), obs.Timestamp)
	assert.Equal(t, time.Monday, obs.Weekday)
	assert.Equal(t, model.ShiftPreload, obs.Shift)
}

func TestCombine(t *testing.T) {
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		clock string
		want  time.Time
	}{
		{"00:00:00", time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)},
		{"03:59:59", time.Date(2024, 2, 29, 3, 59, 59, 0, time.UTC)},
		{"04:00:00", time.Date(2024, 3, 1, 4, 0, 0, 0, time.UTC)},
		{"23:10:05", time.Date(2024, 3, 1, 23, 10, 5, 0, time.UTC)},
	}
	for _, tc := range cases {
		clock, err := time.Parse(timeLayout, tc.clock)
		require.NoError(t, err)
		assert.Equal(t, tc.want, Combine(date, clock), tc.clock)
	}
}

func TestDecodeCategoryTotals(t *testing.T) {
	l := layouttest.NameLayout()
	rec := layouttest.NewRecord(l, "06/03/2024", "16:45:10")
	i := 1
	for _, c := range l.Counters {
		rec.Counters[c.Name] = [2]int{i, 2 * i}
		i++
	}
	status, gauge := layouttest.Reports(l, rec)

	obs, err := newTestDecoder(t, l).DecodeReaders(bytes.NewReader(status), bytes.NewReader(gauge))
	require.NoError(t, err)
	assert.Equal(t, model.ShiftDay, obs.Shift)

	for _, cat := range model.Categories {
		want := 0
		for _, c := range l.CountersIn(cat) {
			v := obs.Counters[c.Name]
			assert.Equal(t, rec.Counters[c.Name][0], v.SS1, c.Name)
			assert.Equal(t, rec.Counters[c.Name][1], v.SS2, c.Name)
			if c.Name == layout.NotOnFile {
				assert.Equal(t, 2*v.SS1, v.Total, "iss_not_on_file counts ss1 twice")
			} else {
				assert.Equal(t, v.SS1+v.SS2, v.Total, c.Name)
			}
			want += v.Total
		}
		assert.Equal(t, want, obs.Reject(cat), string(cat))
	}
}

func TestDecodeNotOnFileSumWhenConfigured(t *testing.T) {
	l, err := layouttest.NameLayout().WithCombine(layout.NotOnFile, layout.CombineSum)
	require.NoError(t, err)
	rec := layouttest.NewRecord(l, "06/03/2024", "10:00:00")
	rec.Counters[layout.NotOnFile] = [2]int{3, 40}
	status, gauge := layouttest.Reports(l, rec)

	obs, err := newTestDecoder(t, l).DecodeReaders(bytes.NewReader(status), bytes.NewReader(gauge))
	require.NoError(t, err)
	assert.Equal(t, 43, obs.Counters[layout.NotOnFile].Total)
	assert.Equal(t, 43, obs.Reject(model.CategoryISS))
}

func TestDecodeSpacePaddedCounts(t *testing.T) {
	l := layouttest.NameLayout()
	status, gauge := layouttest.Reports(l, layouttest.NewRecord(l, "06/03/2024", "10:00:00"))
	lane, _ := l.Counter("lane_full")
	layouttest.Overwrite(status, lane.SS1, "   42")
	layouttest.Overwrite(gauge, l.Volume, "  7   ")

	obs, err := newTestDecoder(t, l).DecodeReaders(bytes.NewReader(status), bytes.NewReader(gauge))
	require.NoError(t, err)
	assert.Equal(t, 42, obs.Counters["lane_full"].SS1)
	assert.Equal(t, 7, obs.Volume)
}

func TestDecodeMissingReport(t *testing.T) {
	l := layouttest.NameLayout()
	dir := t.TempDir()
	statusPath, gaugePath := layouttest.WritePair(t, dir, l, "HUB0042", layouttest.NewRecord(l, "06/03/2024", "10:00:00"))
	require.NoError(t, os.Remove(gaugePath))

	_, err := newTestDecoder(t, l).Decode(statusPath, gaugePath)
	assert.ErrorIs(t, err, fs.ErrNotExist)

	_, err = newTestDecoder(t, l).Decode(filepath.Join(dir, "nope_SorterStatus.txt"), gaugePath)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestDecodeMalformedCount(t *testing.T) {
	l := layouttest.NameLayout()
	status, gauge := layouttest.Reports(l, layouttest.NewRecord(l, "06/03/2024", "10:00:00"))
	jam, _ := l.Counter("chute_jam")
	layouttest.Overwrite(status, jam.SS2, "12a45")

	_, err := newTestDecoder(t, l).DecodeReaders(bytes.NewReader(status), bytes.NewReader(gauge))
	require.ErrorIs(t, err, ErrMalformedField)
	var fe *FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "ss2_chute_jam", fe.Field)
	assert.Equal(t, "12a45", fe.Raw)
	assert.Equal(t, jam.SS2, fe.Span)
}

func TestDecodeMalformedDate(t *testing.T) {
	l := layouttest.NameLayout()
	status, gauge := layouttest.Reports(l, layouttest.NewRecord(l, "2024-06-03", "10:00:00"))

	_, err := newTestDecoder(t, l).DecodeReaders(bytes.NewReader(status), bytes.NewReader(gauge))
	require.ErrorIs(t, err, ErrMalformedField)
	var fe *FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "date", fe.Field)
}

func TestDecodeTruncatedReport(t *testing.T) {
	l := layouttest.NameLayout()
	status, gauge := layouttest.Reports(l, layouttest.NewRecord(l, "06/03/2024", "10:00:00"))

	_, err := newTestDecoder(t, l).DecodeReaders(bytes.NewReader(status[:6000]), bytes.NewReader(gauge))
	require.ErrorIs(t, err, layout.ErrShortRecord)
	var fe *FieldError
	require.ErrorAs(t, err, &fe)
	assert.Greater(t, fe.Span.End(), int64(6000))
}

func TestNewDecoderRejectsInvalidLayout(t *testing.T) {
	l := layout.Default()
	l.GaugeSize = 10
	_, err := NewDecoder(l, nil)
	assert.ErrorIs(t, err, layout.ErrInvalidLayout)
}
