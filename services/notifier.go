package services

import (
	"context"
	"fmt"
	"log/slog"
)

// LogNotificationSink writes verification codes to the log instead of an
// email provider. It stands in until an SMTP-backed sink is wired.
type LogNotificationSink struct {
	log *slog.Logger
}

func NewLogNotificationSink(log *slog.Logger) *LogNotificationSink {
	return &LogNotificationSink{log: log}
}

func (s *LogNotificationSink) SendVerificationCode(_ context.Context, email, code string) error {
	s.log.Info(fmt.Sprintf("Verification code for %s: %s", email, code))
	return nil
}
