// Package export writes assembled datasets to CSV and XLSX files.
package export

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// Writer exports datasets to files.
type Writer struct {
	logger *slog.Logger
}

// New returns a Writer logging to logger. A nil logger discards.
func New(logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Writer{logger: logger}
}

// writeAtomic writes path through a temporary file in the same directory, so
// readers never observe a partial export.
func writeAtomic(ctx context.Context, path string, write func(io.Writer) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			if cerr := tmp.Close(); cerr != nil {
				// Best-effort cleanup; the write error is reported.
				_ = cerr
			}
			if rerr := os.Remove(tmp.Name()); rerr != nil && !os.IsNotExist(rerr) {
				_ = rerr
			}
		}
	}()

	if err = write(tmp); err != nil {
		return err
	}
	if err = ctx.Err(); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", tmp.Name(), err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		if rerr := os.Remove(tmp.Name()); rerr != nil {
			_ = rerr
		}
		return fmt.Errorf("rename to %s: %w", path, err)
	}
	return nil
}
