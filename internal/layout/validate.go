package layout

import (
	"errors"
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidLayout marks a field table that cannot be used for decoding.
var ErrInvalidLayout = errors.New("invalid layout")

var validate = validator.New()

type labeledSpan struct {
	label string
	span  Span
}

// Validate checks the table once before any report is read: every span is
// well formed, lies inside the declared report size and does not overlap
// another span of the same report; counter names and columns are unique.
func (l Layout) Validate() error {
	if err := validate.Struct(l); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidLayout, err)
	}

	var errs []error
	spans := l.spans()
	for _, ls := range spans {
		if size := l.sizeOf(ls.span.Source); ls.span.End() > size {
			errs = append(errs, fmt.Errorf("%s %s ends past the %s report size %d", ls.label, ls.span, ls.span.Source, size))
		}
	}
	errs = append(errs, overlaps(spans)...)

	names := map[string]struct{}{}
	for _, c := range l.Counters {
		if _, dup := names[c.Name]; dup {
			errs = append(errs, fmt.Errorf("duplicate counter %q", c.Name))
		}
		names[c.Name] = struct{}{}
	}
	columns := map[string]struct{}{}
	for _, col := range l.Columns() {
		if _, dup := columns[col]; dup {
			errs = append(errs, fmt.Errorf("duplicate column %q", col))
		}
		columns[col] = struct{}{}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidLayout, errors.Join(errs...))
	}
	return nil
}

func (l Layout) spans() []labeledSpan {
	spans := []labeledSpan{
		{label: "date", span: l.Date},
		{label: "time", span: l.Time},
		{label: "volume", span: l.Volume},
	}
	for _, c := range l.Counters {
		spans = append(spans,
			labeledSpan{label: "ss1_" + c.Name, span: c.SS1},
			labeledSpan{label: "ss2_" + c.Name, span: c.SS2},
		)
	}
	return spans
}

func overlaps(spans []labeledSpan) []error {
	sorted := make([]labeledSpan, len(spans))
	copy(sorted, spans)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].span.Source == sorted[j].span.Source {
			return sorted[i].span.Offset < sorted[j].span.Offset
		}
		return sorted[i].span.Source < sorted[j].span.Source
	})
	var errs []error
	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		if prev.span.Source != cur.span.Source {
			continue
		}
		if cur.span.Offset < prev.span.End() {
			errs = append(errs, fmt.Errorf("%s %s overlaps %s %s", cur.label, cur.span, prev.label, prev.span))
		}
	}
	return errs
}
