package mailer

import (
	"context"
	"log/slog"
)

// LogSender writes messages to a logger instead of delivering them.
// It is the sender used when no provider is configured.
type LogSender struct {
	log *slog.Logger
}

func NewLogSender(log *slog.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(ctx context.Context, msg *Message) error {
	names := make([]string, len(msg.Attachments))
	for i, a := range msg.Attachments {
		names[i] = a.Filename
	}
	s.log.InfoContext(ctx, "email not delivered, no provider configured",
		slog.Any("to", msg.To),
		slog.String("subject", msg.Subject),
		slog.Any("attachments", names),
	)
	return nil
}
