package layout

import (
	"errors"
	"fmt"
	"io"
)

// ErrShortRecord marks a report that ends before a span it should hold.
var ErrShortRecord = errors.New("report shorter than layout")

// Extract seeks r to the span offset and reads exactly span.Length bytes.
// It moves the read position of r, so a shared reader needs outside locking.
func Extract(r io.ReadSeeker, span Span) (string, error) {
	if _, err := r.Seek(span.Offset, io.SeekStart); err != nil {
		return "", fmt.Errorf("seek to %d: %w", span.Offset, err)
	}
	buf := make([]byte, span.Length)
	if _, err := io.ReadFull(r, buf); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return "", fmt.Errorf("%w: want %d bytes at %d", ErrShortRecord, span.Length, span.Offset)
		}
		return "", fmt.Errorf("read %d bytes at %d: %w", span.Length, span.Offset, err)
	}
	return string(buf), nil
}
