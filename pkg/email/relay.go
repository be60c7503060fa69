package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// RelayEmailService implements Sender by posting to an internal mail relay
type RelayEmailService struct {
	client     *http.Client
	serviceURL string
	config     *EmailConfig
	logger     *zap.Logger
}

// RelayEmailRequest is the body accepted by the relay
type RelayEmailRequest struct {
	Type        string `json:"type"` // always "reel_ready"
	To          string `json:"to"`
	From        string `json:"from,omitempty"`
	Subject     string `json:"subject"`
	DownloadURL string `json:"downloadUrl"`
	HTML        string `json:"html"`
	Text        string `json:"text"`
}

// RelayEmailResponse is what the relay answers with
type RelayEmailResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// NewRelayEmailService creates a new relay email service
func NewRelayEmailService(config *EmailConfig, logger *zap.Logger) (*RelayEmailService, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("email service URL is required")
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &RelayEmailService{
		client: &http.Client{
			Timeout: timeout,
		},
		serviceURL: config.BaseURL,
		config:     config,
		logger:     logger.With(zap.String("component", "email.relay")),
	}, nil
}

// SendDownloadLink asks the relay to deliver the reel link
func (s *RelayEmailService) SendDownloadLink(ctx context.Context, to, downloadURL string) error {
	req := &RelayEmailRequest{
		Type:        "reel_ready",
		To:          to,
		From:        s.config.FromEmail,
		Subject:     DownloadLinkSubject,
		DownloadURL: downloadURL,
		HTML:        DownloadLinkEmailTemplate(downloadURL),
		Text:        DownloadLinkText(downloadURL),
	}

	if err := s.send(ctx, req); err != nil {
		return fmt.Errorf("failed to send download link email: %w", err)
	}

	s.logger.Info("download link email relayed", zap.String("to", to))
	return nil
}

func (s *RelayEmailService) send(ctx context.Context, req *RelayEmailRequest) error {
	jsonData, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.serviceURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send email request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errorResp RelayEmailResponse
		if err := json.Unmarshal(body, &errorResp); err != nil || errorResp.Error == "" {
			return fmt.Errorf("email service returned status %d: %s", resp.StatusCode, string(body))
		}
		return fmt.Errorf("email service error: %s", errorResp.Error)
	}

	var successResp RelayEmailResponse
	if err := json.Unmarshal(body, &successResp); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if !successResp.Success {
		return fmt.Errorf("email service returned success=false: %s", successResp.Error)
	}

	return nil
}
