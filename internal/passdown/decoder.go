// Package passdown decodes a sorter status/gauge report pair into one
// observation of a sort.
package passdown

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/verte-zerg/passdown/internal/layout"
	"github.com/verte-zerg/passdown/internal/model"
)

const (
	dateLayout = "01/02/2006"
	timeLayout = "15:04:05"

	// Sorts closing at or before this hour are logged against the next
	// calendar date but belong to the previous twilight shift.
	twilightCarryHour = 3
)

// ErrMalformedField marks a span that does not hold the expected value.
var ErrMalformedField = errors.New("malformed field")

// FieldError describes a field that could not be read or parsed.
type FieldError struct {
	Field string
	Span  layout.Span
	Raw   string
	Err   error
}

func (e *FieldError) Error() string {
	if e.Raw != "" {
		return fmt.Sprintf("field %s at %s (%q): %v", e.Field, e.Span, e.Raw, e.Err)
	}
	return fmt.Sprintf("field %s at %s: %v", e.Field, e.Span, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// Decoder reads report pairs with a validated layout.
type Decoder struct {
	layout layout.Layout
	logger *slog.Logger
}

// NewDecoder validates l and returns a decoder for it.
func NewDecoder(l layout.Layout, logger *slog.Logger) (*Decoder, error) {
	if err := l.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Decoder{layout: l, logger: logger}, nil
}

// Layout returns the field table the decoder reads with.
func (d *Decoder) Layout() layout.Layout {
	return d.layout
}

// Decode opens the status and gauge reports of one sort and decodes an
// observation. A missing report yields an error matching fs.ErrNotExist.
func (d *Decoder) Decode(statusPath, gaugePath string) (model.Observation, error) {
	status, err := os.Open(statusPath)
	if err != nil {
		return model.Observation{}, fmt.Errorf("failed to open status report: %w", err)
	}
	defer func() {
		if cerr := status.Close(); cerr != nil {
			// Best-effort close for read-only report.
			_ = cerr
		}
	}()
	gauge, err := os.Open(gaugePath)
	if err != nil {
		return model.Observation{}, fmt.Errorf("failed to open gauge report: %w", err)
	}
	defer func() {
		if cerr := gauge.Close(); cerr != nil {
			// Best-effort close for read-only report.
			_ = cerr
		}
	}()

	obs, err := d.DecodeReaders(status, gauge)
	if err != nil {
		return model.Observation{}, fmt.Errorf("%s: %w", statusPath, err)
	}

	sortID, ok := d.layout.SortID.Extract(statusPath)
	if !ok {
		d.logger.Warn("status report name too short for sort id",
			slog.String("path", statusPath),
			slog.Int("offset", d.layout.SortID.Offset),
			slog.Int("width", d.layout.SortID.Width))
	}
	obs.SortID = sortID
	obs.StatusPath = statusPath
	obs.GaugePath = gaugePath
	return obs, nil
}

// DecodeReaders decodes an observation from already opened reports. The sort
// identifier and paths are left empty.
func (d *Decoder) DecodeReaders(status, gauge io.ReadSeeker) (model.Observation, error) {
	r := reader{status: status, gauge: gauge}

	timestamp, err := r.timestamp(d.layout.Date, d.layout.Time)
	if err != nil {
		return model.Observation{}, err
	}
	volume, err := r.count("volume", d.layout.Volume)
	if err != nil {
		return model.Observation{}, err
	}

	obs := model.Observation{
		Timestamp: timestamp,
		Shift:     model.ShiftForHour(timestamp.Hour()),
		Weekday:   timestamp.Weekday(),
		Volume:    volume,
		Rejects:   make(map[model.Category]int, len(model.Categories)),
		Counters:  make(map[string]model.CounterValue, len(d.layout.Counters)),
	}
	for _, cat := range model.Categories {
		obs.Rejects[cat] = 0
	}
	for _, c := range d.layout.Counters {
		ss1, err := r.count("ss1_"+c.Name, c.SS1)
		if err != nil {
			return model.Observation{}, err
		}
		ss2, err := r.count("ss2_"+c.Name, c.SS2)
		if err != nil {
			return model.Observation{}, err
		}
		total := c.Combined(ss1, ss2)
		obs.Counters[c.Name] = model.CounterValue{SS1: ss1, SS2: ss2, Total: total}
		obs.Rejects[c.Category] += total
	}
	return obs, nil
}

type reader struct {
	status io.ReadSeeker
	gauge  io.ReadSeeker
}

func (r reader) text(field string, span layout.Span) (string, error) {
	src := r.status
	if span.Source == layout.SourceGauge {
		src = r.gauge
	}
	raw, err := layout.Extract(src, span)
	if err != nil {
		return "", &FieldError{Field: field, Span: span, Err: err}
	}
	return raw, nil
}

func (r reader) count(field string, span layout.Span) (int, error) {
	raw, err := r.text(field, span)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, &FieldError{Field: field, Span: span, Raw: raw, Err: fmt.Errorf("%w: not a decimal count", ErrMalformedField)}
	}
	return n, nil
}

func (r reader) timestamp(dateSpan, timeSpan layout.Span) (time.Time, error) {
	rawDate, err := r.text("date", dateSpan)
	if err != nil {
		return time.Time{}, err
	}
	date, err := time.Parse(dateLayout, rawDate)
	if err != nil {
		return time.Time{}, &FieldError{Field: "date", Span: dateSpan, Raw: rawDate, Err: fmt.Errorf("%w: %v", ErrMalformedField, err)}
	}
	rawTime, err := r.text("time", timeSpan)
	if err != nil {
		return time.Time{}, err
	}
	clock, err := time.Parse(timeLayout, rawTime)
	if err != nil {
		return time.Time{}, &FieldError{Field: "time", Span: timeSpan, Raw: rawTime, Err: fmt.Errorf("%w: %v", ErrMalformedField, err)}
	}
	return Combine(date, clock), nil
}

// Combine joins a report date and time of day. Times up to 03:59:59 move the
// date back one day so late twilight sorts stay with the shift they started in.
func Combine(date, clock time.Time) time.Time {
	if clock.Hour() <= twilightCarryHour {
		date = date.AddDate(0, 0, -1)
	}
	return time.Date(date.Year(), date.Month(), date.Day(),
		clock.Hour(), clock.Minute(), clock.Second(), 0, time.UTC)
}
