package mailer

import (
	"context"
	"fmt"
)

// Message is a rendered e-mail ready for delivery.
type Message struct {
	Tags        map[string]string
	Subject     string
	HTML        string
	Text        string
	From        string
	ReplyTo     string
	To          []string
	Attachments []Attachment
}

// Attachment is a file sent along with a message.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Sender delivers messages. Implementations live in subpackages.
type Sender interface {
	Send(ctx context.Context, msg *Message) error
}

// Address formats a display name and address as "Name <email>".
func Address(name, email string) string {
	if name == "" {
		return email
	}
	return fmt.Sprintf("%s <%s>", name, email)
}
