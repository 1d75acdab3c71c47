package layout

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/passdown/internal/model"
)

func TestDefaultLayoutIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestDefaultColumns(t *testing.T) {
	cols := Default().Columns()
	require.Len(t, cols, 83)
	assert.Equal(t, []string{
		"timestamp", "sort_id", "sort", "weekday", "volume",
		"op_reject", "iss_reject", "scan_tunnel_reject", "mechanical_reject",
		"ss1_lane_full", "ss2_lane_full", "lane_full",
	}, cols[:12])
	assert.Equal(t, []string{"ss1_sorter_aux_mode", "ss2_sorter_aux_mode", "sorter_aux_mode"}, cols[80:])

	joined := strings.Join(cols, ",")
	assert.Contains(t, joined, "chute_jam,ss1_chute_chute_disabled,ss2_chute_disabled,ss1_diverter_fault")
	assert.Contains(t, joined, "ss1_divert_failed,ss2_diver_failed,divert_failed")
	assert.Contains(t, joined, "ss1_divert_out_of_position,ss2_divert_out_of_position,divert_out_of_position")
	assert.NotContains(t, cols, "chute_disabled")
}

func TestNotOnFileCountsSS1Twice(t *testing.T) {
	c, ok := Default().Counter(NotOnFile)
	require.True(t, ok)
	assert.Equal(t, CombineSS1Twice, c.Combine)
	assert.Equal(t, 14, c.Combined(7, 100))

	fixed, err := Default().WithCombine(NotOnFile, CombineSum)
	require.NoError(t, err)
	c, _ = fixed.Counter(NotOnFile)
	assert.Equal(t, 107, c.Combined(7, 100))

	// The default table is not shared with the copy.
	c, _ = Default().Counter(NotOnFile)
	assert.Equal(t, CombineSS1Twice, c.Combine)
}

func TestWithCombineErrors(t *testing.T) {
	_, err := Default().WithCombine("missing", CombineSum)
	assert.ErrorIs(t, err, ErrInvalidLayout)
	_, err = Default().WithCombine(NotOnFile, CombineRule("double"))
	assert.ErrorIs(t, err, ErrInvalidLayout)
}

func TestCountersInCategory(t *testing.T) {
	l := Default()
	assert.Len(t, l.CountersIn(model.CategoryOperational), 1)
	assert.Len(t, l.CountersIn(model.CategoryISS), 9)
	assert.Len(t, l.CountersIn(model.CategoryScanTunnel), 4)
	assert.Len(t, l.CountersIn(model.CategoryMechanical), 11)
}

func TestValidateRejectsOverlap(t *testing.T) {
	l := Default()
	l.Counters[0].SS2 = Span{Source: SourceStatus, Offset: 5900, Length: 5}
	err := l.Validate()
	require.ErrorIs(t, err, ErrInvalidLayout)
	assert.Contains(t, err.Error(), "overlaps")
}

func TestValidateRejectsOutOfBounds(t *testing.T) {
	l := Default()
	l.Volume = Span{Source: SourceGauge, Offset: 290, Length: 6}
	err := l.Validate()
	require.ErrorIs(t, err, ErrInvalidLayout)
	assert.Contains(t, err.Error(), "past the gauge report size")
}

func TestValidateRejectsDuplicates(t *testing.T) {
	l := Default()
	dup := l.Counters[0]
	dup.SS1 = Span{Source: SourceStatus, Offset: 100, Length: 2}
	dup.SS2 = Span{Source: SourceStatus, Offset: 110, Length: 2}
	l.Counters = append(l.Counters, dup)
	err := l.Validate()
	require.ErrorIs(t, err, ErrInvalidLayout)
	assert.Contains(t, err.Error(), `duplicate counter "lane_full"`)
	assert.Contains(t, err.Error(), `duplicate column "ss1_lane_full"`)
}

func TestValidateRejectsBadFields(t *testing.T) {
	l := Default()
	l.Counters[3].Category = model.Category("electrical")
	assert.ErrorIs(t, l.Validate(), ErrInvalidLayout)

	l = Default()
	l.Time.Length = 0
	assert.ErrorIs(t, l.Validate(), ErrInvalidLayout)

	l = Default()
	l.Counters = nil
	assert.ErrorIs(t, l.Validate(), ErrInvalidLayout)
}

func TestSortIDRule(t *testing.T) {
	rule := Default().SortID
	path := "fxg-notebooks/sort_files/SorterStatus_HUB0042_20240115.txt"
	id, ok := rule.Extract(path)
	assert.True(t, ok)
	assert.Equal(t, path[39:46], id)

	id, ok = rule.Extract("short/SorterStatus.txt")
	assert.False(t, ok)
	assert.Equal(t, "", id)

	byName := SortIDRule{Basis: SortIDFromName, Offset: 0, Width: 7}
	id, ok = byName.Extract("/any/depth/HUB0042_SorterStatus.txt")
	assert.True(t, ok)
	assert.Equal(t, "HUB0042", id)

	id, ok = SortIDRule{Basis: SortIDFromName, Offset: 2, Width: 10}.Extract("dir/ABCDEF")
	assert.False(t, ok)
	assert.Equal(t, "CDEF", id)
}

func TestExtract(t *testing.T) {
	r := bytes.NewReader([]byte("01/15/2024......02:30:00"))
	got, err := Extract(r, Span{Source: SourceStatus, Offset: 16, Length: 8})
	require.NoError(t, err)
	assert.Equal(t, "02:30:00", got)

	// Position does not matter; each call seeks.
	got, err = Extract(r, Span{Source: SourceStatus, Offset: 0, Length: 10})
	require.NoError(t, err)
	assert.Equal(t, "01/15/2024", got)
}

func TestExtractShortRecord(t *testing.T) {
	r := bytes.NewReader([]byte("0123456789"))
	_, err := Extract(r, Span{Source: SourceStatus, Offset: 8, Length: 5})
	assert.ErrorIs(t, err, ErrShortRecord)

	_, err = Extract(r, Span{Source: SourceStatus, Offset: 40, Length: 2})
	assert.ErrorIs(t, err, ErrShortRecord)
}

func TestYAMLRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Dump(&buf, Default()))
	assert.Contains(t, buf.String(), "ss2_diver_failed")
	assert.Contains(t, buf.String(), "combine: ss1-twice")

	loaded, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, Default(), loaded)
}

func TestDecodeRejectsInvalid(t *testing.T) {
	_, err := Decode(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrInvalidLayout)

	_, err = Decode(strings.NewReader("status_size: 10\nunknown_key: 1\n"))
	assert.Error(t, err)

	doc := `status_size: 100
gauge_size: 10
date: {source: status, offset: 0, length: 10}
time: {source: status, offset: 80, length: 8}
volume: {source: gauge, offset: 0, length: 6}
sort_id: {basis: name, offset: 0, width: 7}
counters:
  - name: lane_full
    category: operational
    ss1: {source: status, offset: 20, length: 5}
    ss2: {source: status, offset: 22, length: 5}
    columns: {ss1: ss1_lane_full, ss2: ss2_lane_full, total: lane_full}
`
	_, err = Decode(strings.NewReader(doc))
	assert.ErrorIs(t, err, ErrInvalidLayout)
}
