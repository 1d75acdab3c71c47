package mailbox

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Dir is a mailbox stored as exported .eml files, one directory per folder.
type Dir struct {
	Root string
}

// Messages parses every .eml file in Root/folder, ordered by file name.
func (d Dir) Messages(ctx context.Context, folder string) ([]Message, error) {
	dir := filepath.Join(d.Root, folder)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".eml") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	out := make([]Message, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		msg, err := readMessage(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		out = append(out, msg)
	}
	return out, nil
}

func readMessage(path string) (Message, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Message{}, err
	}
	m, err := mail.ReadMessage(bytes.NewReader(data))
	if err != nil {
		return Message{}, err
	}
	id := strings.Trim(m.Header.Get("Message-Id"), "<>")
	if id == "" {
		id = filepath.Base(path)
	}
	var atts []Attachment
	err = walkPart(m.Header.Get("Content-Type"), m.Header.Get("Content-Transfer-Encoding"), "", m.Body, &atts)
	if err != nil {
		return Message{}, err
	}
	return Message{ID: id, Attachments: atts}, nil
}

// walkPart collects named parts, descending into nested multiparts.
func walkPart(contentType, encoding, filename string, body io.Reader, atts *[]Attachment) error {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = "text/plain"
	}
	if strings.HasPrefix(mediaType, "multipart/") {
		mr := multipart.NewReader(body, params["boundary"])
		for {
			p, err := mr.NextPart()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return err
			}
			err = walkPart(p.Header.Get("Content-Type"), p.Header.Get("Content-Transfer-Encoding"), p.FileName(), p, atts)
			if err != nil {
				return err
			}
		}
	}
	if filename == "" {
		filename = params["name"]
	}
	if filename == "" {
		return nil
	}
	if strings.EqualFold(strings.TrimSpace(encoding), "base64") {
		body = base64.NewDecoder(base64.StdEncoding, body)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("attachment %s: %w", filename, err)
	}
	*atts = append(*atts, memAttachment{name: filename, data: data})
	return nil
}

type memAttachment struct {
	name string
	data []byte
}

func (a memAttachment) Name() string { return a.name }

func (a memAttachment) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(a.data)), nil
}
