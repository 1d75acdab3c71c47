package export

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/verte-zerg/passdown/internal/dataset"
)

// SheetName is the worksheet holding the exported dataset.
const SheetName = "passdown"

// XLSX writes ds to path as a single worksheet with a frozen header row.
// Counts are stored as numbers.
func (w *Writer) XLSX(ctx context.Context, path string, ds dataset.Dataset) error {
	w.logger.InfoContext(ctx, "writing xlsx",
		"path", path,
		"rows", ds.Len(),
		"sheet", SheetName)

	f, err := buildWorkbook(ctx, ds)
	if err != nil {
		return fmt.Errorf("export xlsx %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			// Best-effort close; the workbook is already written.
			_ = cerr
		}
	}()

	err = writeAtomic(ctx, path, func(out io.Writer) error {
		return f.Write(out)
	})
	if err != nil {
		return fmt.Errorf("export xlsx %s: %w", path, err)
	}
	return nil
}

func buildWorkbook(ctx context.Context, ds dataset.Dataset) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		_ = f.Close()
		return nil, err
	}

	header := make([]any, len(ds.Columns))
	for i, c := range ds.Columns {
		header[i] = c
	}
	if err := setRow(f, 1, header); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("write header: %w", err)
	}
	for i := 0; i < ds.Len(); i++ {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				_ = f.Close()
				return nil, err
			}
		}
		if err := setRow(f, i+2, ds.Values(i)); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("write row %d: %w", i, err)
		}
	}

	err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("freeze header: %w", err)
	}
	return f, nil
}

func setRow(f *excelize.File, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(SheetName, cell, &values)
}
