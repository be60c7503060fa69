// Package sms delivers reel links by text message through Twilio.
package sms

import (
	"context"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"
)

// Config holds Twilio credentials
type Config struct {
	AccountSID string
	AuthToken  string
	FromNumber string
}

type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// TwilioSender texts reel links through the Twilio Messages API
type TwilioSender struct {
	api    messageCreator
	from   string
	logger *zap.Logger
}

// NewTwilioSender creates a new Twilio-backed sender
func NewTwilioSender(cfg Config, logger *zap.Logger) (*TwilioSender, error) {
	if cfg.AccountSID == "" || cfg.AuthToken == "" {
		return nil, fmt.Errorf("twilio account sid and auth token are required")
	}
	if cfg.FromNumber == "" {
		return nil, fmt.Errorf("twilio from number is required")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})

	return newTwilioSender(client.Api, cfg.FromNumber, logger), nil
}

func newTwilioSender(api messageCreator, from string, logger *zap.Logger) *TwilioSender {
	return &TwilioSender{
		api:    api,
		from:   from,
		logger: logger.With(zap.String("component", "sms.twilio")),
	}
}

// Message is the text sent to guests
func Message(downloadURL string) string {
	return "Your PhotoBooth photos are ready! Download them here: " + downloadURL
}

// SendDownloadLink texts the public reel link. The Twilio client is not
// context aware, so cancellation abandons the call rather than aborting it.
func (s *TwilioSender) SendDownloadLink(ctx context.Context, to, downloadURL string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.from)
	params.SetBody(Message(downloadURL))

	type result struct {
		msg *twilioApi.ApiV2010Message
		err error
	}
	done := make(chan result, 1)
	go func() {
		msg, err := s.api.CreateMessage(params)
		done <- result{msg: msg, err: err}
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("failed to send sms: %w", ctx.Err())
	case r := <-done:
		if r.err != nil {
			return fmt.Errorf("failed to send sms: %w", r.err)
		}
		sid := ""
		if r.msg != nil && r.msg.Sid != nil {
			sid = *r.msg.Sid
		}
		s.logger.Info("download link sms sent", zap.String("to", to), zap.String("sid", sid))
		return nil
	}
}
