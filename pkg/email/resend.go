package email

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"
)

// ResendEmailService implements Sender using Resend
type ResendEmailService struct {
	client *resend.Client
	config *EmailConfig
	logger *zap.Logger
}

// NewResendEmailService creates a new Resend email service
func NewResendEmailService(config *EmailConfig, logger *zap.Logger) (*ResendEmailService, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("resend API key is required")
	}

	if config.FromEmail == "" {
		return nil, fmt.Errorf("from email is required")
	}

	client := resend.NewClient(config.APIKey)

	return &ResendEmailService{
		client: client,
		config: config,
		logger: logger.With(zap.String("component", "email.resend")),
	}, nil
}

// SendDownloadLink emails the public reel link
func (s *ResendEmailService) SendDownloadLink(ctx context.Context, to, downloadURL string) error {
	params := &resend.SendEmailRequest{
		From:    formatFrom(s.config),
		To:      []string{to},
		Subject: DownloadLinkSubject,
		Html:    DownloadLinkEmailTemplate(downloadURL),
		Text:    DownloadLinkText(downloadURL),
	}

	sent, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("failed to send download link email: %w", err)
	}

	s.logger.Info("download link email sent", zap.String("to", to), zap.String("id", sent.Id))
	return nil
}

func formatFrom(config *EmailConfig) string {
	if config.FromName == "" {
		return config.FromEmail
	}
	return fmt.Sprintf("%s <%s>", config.FromName, config.FromEmail)
}
