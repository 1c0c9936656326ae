package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/mattkerbyy/bubbly/backend/pkg/logger"
)

// Mailer delivers account emails.
type Mailer interface {
	SendPasswordReset(ctx context.Context, email, resetLink string) error
}

// LogMailer writes reset links to the log instead of sending mail.
type LogMailer struct{}

func (LogMailer) SendPasswordReset(_ context.Context, email, resetLink string) error {
	logger.Info("password reset requested", zap.String("email", email), zap.String("link", resetLink))
	return nil
}
