package mailer

import (
	"context"
	"errors"
)

// Config holds mailer defaults.
type Config struct {
	FallbackSubject string `env:"MAILER_FALLBACK_SUBJECT" envDefault:"Notification"`
	Layout          string `env:"MAILER_LAYOUT" envDefault:"base.html"`
	From            string `env:"MAILER_FROM"`
}

// Params describes one templated message.
type Params struct {
	Data        any
	Tags        map[string]string
	To          string
	Template    string
	Locale      string
	Subject     string
	ReplyTo     string
	Attachments []Attachment
}

// Mailer renders templates and delivers them through a Sender.
type Mailer struct {
	sender   Sender
	renderer *Renderer
	cfg      Config
}

func New(sender Sender, renderer *Renderer, cfg Config) *Mailer {
	return &Mailer{sender: sender, renderer: renderer, cfg: cfg}
}

// Send renders p.Template and delivers it to p.To. An explicit p.Subject
// wins over the template's Subject.
func (m *Mailer) Send(ctx context.Context, p Params) error {
	if p.To == "" {
		return ErrNoRecipient
	}

	out, err := m.renderer.Render(m.cfg.Layout, p.Locale, p.Template, p.Data)
	if err != nil {
		return err
	}

	subject := p.Subject
	if subject == "" {
		subject = out.Subject
	}
	if subject == "" {
		subject = m.cfg.FallbackSubject
	}
	if subject == "" {
		return ErrNoSubject
	}

	msg := &Message{
		To:          []string{p.To},
		From:        m.cfg.From,
		ReplyTo:     p.ReplyTo,
		Subject:     subject,
		HTML:        out.HTML,
		Text:        out.Text,
		Attachments: p.Attachments,
		Tags:        p.Tags,
	}
	if err := m.sender.Send(ctx, msg); err != nil {
		return errors.Join(ErrSendFailed, err)
	}
	return nil
}
