package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/mr1hm/go-flood-alerts/internal/config"
)

type SMS struct {
	To      string
	Message string
}

type SMSSender interface {
	Send(ctx context.Context, m SMS) error
}

type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// TwilioSender delivers SMS through the Twilio REST API.
type TwilioSender struct {
	api  messageCreator
	from string
}

func NewTwilioSender(cfg config.TwilioConfig) *TwilioSender {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return &TwilioSender{api: client.Api, from: cfg.FromNumber}
}

func (t *TwilioSender) Send(ctx context.Context, m SMS) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(m.To)
	params.SetFrom(t.from)
	params.SetBody(m.Message)

	resp, err := t.api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("error sending sms to %s: %w", m.To, err)
	}
	if resp != nil && resp.Sid != nil {
		slog.Debug("sms queued", "to", m.To, "sid", *resp.Sid)
	}
	return nil
}

// LogSMS only logs. Used when Twilio is not configured.
type LogSMS struct{}

func (LogSMS) Send(ctx context.Context, m SMS) error {
	slog.Info("sms not sent, no gateway configured", "to", m.To)
	return nil
}
