package email

import (
	"context"
	"time"
)

// Sender delivers the finished reel link to a guest
type Sender interface {
	SendDownloadLink(ctx context.Context, to, downloadURL string) error
}

// EmailConfig holds email service configuration
type EmailConfig struct {
	APIKey    string        // Resend API key
	FromEmail string        // sender address
	FromName  string        // sender display name
	BaseURL   string        // relay endpoint, used by the relay provider
	Timeout   time.Duration // relay HTTP request timeout
}

// DownloadLinkSubject is the subject line of the download email
const DownloadLinkSubject = "Your PhotoBooth Photos!"
