package mailbox

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMailbox struct {
	messages []Message
	err      error
}

func (f fakeMailbox) Messages(_ context.Context, _ string) ([]Message, error) {
	return f.messages, f.err
}

func attachment(name, body string) Attachment {
	return memAttachment{name: name, data: []byte(body)}
}

func TestIsReportName(t *testing.T) {
	assert.True(t, IsReportName("HUB0042_SorterStatus.txt"))
	assert.True(t, IsReportName("HUB0042_SortGauge.txt"))
	assert.False(t, IsReportName("HUB0042_SorterStatus.pdf"))
	assert.False(t, IsReportName("notes.txt"))
}

func TestFetchSavesNewAttachments(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "A_SortGauge.txt"), []byte("old"), 0o644))

	mb := fakeMailbox{messages: []Message{
		{ID: "1", Attachments: []Attachment{attachment("logo.png", "x"), attachment("A_SorterStatus.txt", "status")}},
		{ID: "2", Attachments: []Attachment{attachment("A_SortGauge.txt", "new")}},
		{ID: "3"},
		{ID: "4", Attachments: []Attachment{attachment("B_SortGauge.txt", "gauge"), attachment("B_SorterStatus.txt", "ignored")}},
	}}
	f := &Fetcher{Mailbox: mb, Folder: "Oasis", Dir: dir}

	counts, err := f.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Counts{Scanned: 4, Saved: 2, Present: 1}, counts)

	data, err := os.ReadFile(filepath.Join(dir, "A_SorterStatus.txt"))
	require.NoError(t, err)
	assert.Equal(t, "status", string(data))

	data, err = os.ReadFile(filepath.Join(dir, "A_SortGauge.txt"))
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))

	_, err = os.Stat(filepath.Join(dir, "B_SorterStatus.txt"))
	assert.True(t, os.IsNotExist(err))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestFetchIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	mb := fakeMailbox{messages: []Message{
		{ID: "1", Attachments: []Attachment{attachment("A_SorterStatus.txt", "status")}},
	}}
	f := &Fetcher{Mailbox: mb, Folder: "Oasis", Dir: dir}

	_, err := f.Fetch(context.Background())
	require.NoError(t, err)
	counts, err := f.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Counts{Scanned: 1, Present: 1}, counts)
}

func TestFetchStripsDirectories(t *testing.T) {
	dir := t.TempDir()
	mb := fakeMailbox{messages: []Message{
		{ID: "1", Attachments: []Attachment{attachment("../../A_SorterStatus.txt", "status")}},
	}}
	f := &Fetcher{Mailbox: mb, Folder: "Oasis", Dir: dir}

	_, err := f.Fetch(context.Background())
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "A_SorterStatus.txt"))
	require.NoError(t, err)
}

func TestFetchListError(t *testing.T) {
	boom := errors.New("boom")
	f := &Fetcher{Mailbox: fakeMailbox{err: boom}, Folder: "Oasis", Dir: t.TempDir()}
	_, err := f.Fetch(context.Background())
	require.ErrorIs(t, err, boom)
}

const boundary = "frontier"

func writeEML(t *testing.T, path, id, name, body string) {
	t.Helper()
	encoded := base64.StdEncoding.EncodeToString([]byte(body))
	var lines []string
	for len(encoded) > 20 {
		lines = append(lines, encoded[:20])
		encoded = encoded[20:]
	}
	lines = append(lines, encoded)

	msg := strings.Join([]string{
		"From: sorter@example.com",
		"To: passdown@example.com",
		"Subject: Sorter reports",
		"Message-ID: <" + id + ">",
		"MIME-Version: 1.0",
		"Content-Type: multipart/mixed; boundary=" + boundary,
		"",
		"--" + boundary,
		"Content-Type: text/plain",
		"",
		"See attached.",
		"--" + boundary,
		"Content-Type: text/plain; name=\"" + name + "\"",
		"Content-Disposition: attachment; filename=\"" + name + "\"",
		"Content-Transfer-Encoding: base64",
		"",
		strings.Join(lines, "\r\n"),
		"--" + boundary + "--",
		"",
	}, "\r\n")
	require.NoError(t, os.WriteFile(path, []byte(msg), 0o644))
}

func TestDirMessages(t *testing.T) {
	root := t.TempDir()
	folder := filepath.Join(root, "Oasis")
	require.NoError(t, os.MkdirAll(folder, 0o755))
	body := strings.Repeat("01/15/2024 02:30:00 ", 4)
	writeEML(t, filepath.Join(folder, "002.eml"), "b@example.com", "HUB0042_SortGauge.txt", "gauge")
	writeEML(t, filepath.Join(folder, "001.eml"), "a@example.com", "HUB0042_SorterStatus.txt", body)
	require.NoError(t, os.WriteFile(filepath.Join(folder, "readme.md"), []byte("skip"), 0o644))

	msgs, err := Dir{Root: root}.Messages(context.Background(), "Oasis")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "a@example.com", msgs[0].ID)
	require.Len(t, msgs[0].Attachments, 1)
	assert.Equal(t, "HUB0042_SorterStatus.txt", msgs[0].Attachments[0].Name())

	rc, err := msgs[0].Attachments[0].Open()
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, body, string(data))
}

func TestDirFetchEndToEnd(t *testing.T) {
	root := t.TempDir()
	folder := filepath.Join(root, "Oasis")
	require.NoError(t, os.MkdirAll(folder, 0o755))
	writeEML(t, filepath.Join(folder, "001.eml"), "a@example.com", "HUB0042_SorterStatus.txt", "status")

	input := filepath.Join(t.TempDir(), "sort_files")
	f := &Fetcher{Mailbox: Dir{Root: root}, Folder: "Oasis", Dir: input}
	counts, err := f.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Counts{Scanned: 1, Saved: 1}, counts)

	data, err := os.ReadFile(filepath.Join(input, "HUB0042_SorterStatus.txt"))
	require.NoError(t, err)
	assert.Equal(t, "status", string(data))
}

func TestDirMissingFolder(t *testing.T) {
	_, err := Dir{Root: t.TempDir()}.Messages(context.Background(), "Oasis")
	require.ErrorIs(t, err, os.ErrNotExist)
}
