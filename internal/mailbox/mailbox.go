// Package mailbox collects report attachments from a mail folder into the
// input directory.
package mailbox

import (
	"context"
	"io"
)

// Attachment is a file attached to a message.
type Attachment interface {
	Name() string
	Open() (io.ReadCloser, error)
}

// Message is one mail item.
type Message struct {
	ID          string
	Attachments []Attachment
}

// Mailbox lists the messages of a folder.
type Mailbox interface {
	Messages(ctx context.Context, folder string) ([]Message, error)
}
