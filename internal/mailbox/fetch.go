package mailbox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Counts summarizes a fetch.
type Counts struct {
	Scanned int
	Saved   int
	Present int
}

// Fetcher saves report attachments from a mailbox folder into Dir.
type Fetcher struct {
	Mailbox Mailbox
	Folder  string
	Dir     string
	Logger  *slog.Logger
}

// IsReportName reports whether name follows the report naming convention.
func IsReportName(name string) bool {
	return strings.HasSuffix(name, ".txt") &&
		(strings.Contains(name, "Status") || strings.Contains(name, "Gauge"))
}

// Fetch walks the folder and saves the first report attachment of every
// message unless a file of that name is already in Dir.
func (f *Fetcher) Fetch(ctx context.Context) (Counts, error) {
	logger := f.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	var counts Counts
	messages, err := f.Mailbox.Messages(ctx, f.Folder)
	if err != nil {
		return counts, fmt.Errorf("list %s: %w", f.Folder, err)
	}
	if err := os.MkdirAll(f.Dir, 0o755); err != nil {
		return counts, fmt.Errorf("create input directory: %w", err)
	}

	for _, msg := range messages {
		if err := ctx.Err(); err != nil {
			return counts, err
		}
		counts.Scanned++
		att := firstReport(msg)
		if att == nil {
			logger.DebugContext(ctx, "no report attachment", "message", msg.ID)
			continue
		}
		name := filepath.Base(att.Name())
		target := filepath.Join(f.Dir, name)
		if _, err := os.Stat(target); err == nil {
			counts.Present++
			continue
		} else if !errors.Is(err, fs.ErrNotExist) {
			return counts, fmt.Errorf("stat %s: %w", target, err)
		}
		if err := save(att, target); err != nil {
			return counts, fmt.Errorf("save %s from %s: %w", name, msg.ID, err)
		}
		counts.Saved++
		logger.DebugContext(ctx, "saved attachment", "message", msg.ID, "path", target)
	}

	logger.InfoContext(ctx, "fetch complete",
		"folder", f.Folder,
		"scanned", counts.Scanned,
		"saved", counts.Saved,
		"present", counts.Present)
	return counts, nil
}

func firstReport(msg Message) Attachment {
	for _, att := range msg.Attachments {
		name := filepath.Base(att.Name())
		if name == "." || name == ".." {
			continue
		}
		if IsReportName(name) {
			return att
		}
	}
	return nil
}

func save(att Attachment, target string) (err error) {
	src, err := att.Open()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			// Best-effort close of the attachment body.
			_ = cerr
		}
	}()

	tmp, err := os.CreateTemp(filepath.Dir(target), "."+filepath.Base(target)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()
	if _, err = io.Copy(tmp, src); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), target)
}
