package export

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/verte-zerg/passdown/internal/dataset"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVOptions configures CSV output.
type CSVOptions struct {
	// BOM prefixes the file with a UTF-8 byte order mark for Excel.
	BOM bool
}

// CSV writes ds to path with a header row of the dataset columns.
func (w *Writer) CSV(ctx context.Context, path string, ds dataset.Dataset, opts CSVOptions) error {
	w.logger.InfoContext(ctx, "writing csv",
		"path", path,
		"rows", ds.Len(),
		"columns", len(ds.Columns))

	err := writeAtomic(ctx, path, func(out io.Writer) error {
		return encodeCSV(out, ds, opts)
	})
	if err != nil {
		return fmt.Errorf("export csv %s: %w", path, err)
	}
	return nil
}

func encodeCSV(out io.Writer, ds dataset.Dataset, opts CSVOptions) error {
	buf := bufio.NewWriter(out)
	if opts.BOM {
		if _, err := buf.Write(utf8BOM); err != nil {
			return fmt.Errorf("write BOM: %w", err)
		}
	}
	cw := csv.NewWriter(buf)
	if err := cw.Write(ds.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := 0; i < ds.Len(); i++ {
		if err := cw.Write(ds.Record(i)); err != nil {
			return fmt.Errorf("write record %d: %w", i, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	return buf.Flush()
}
