package email

import (
	"context"
	"errors"
)

// Sender delivers transactional account emails.
type Sender interface {
	SendVerificationEmail(ctx context.Context, toEmail, toName, verifyLink string) error
	SendPasswordResetEmail(ctx context.Context, toEmail, toName, resetLink string) error
}

type disabledSender struct {
	reason string
}

func NewDisabledSender(reason string) Sender {
	return &disabledSender{reason: reason}
}

func (s *disabledSender) SendVerificationEmail(_ context.Context, _, _, _ string) error {
	return s.err()
}

func (s *disabledSender) SendPasswordResetEmail(_ context.Context, _, _, _ string) error {
	return s.err()
}

func (s *disabledSender) err() error {
	if s.reason == "" {
		return errors.New("email sender disabled")
	}
	return errors.New(s.reason)
}
