// ABOUTME: Outbound SMS delivery collaborators
// ABOUTME: Sender interface plus Twilio and log-only implementations

package delivery

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// OutgoingSMS is a message handed to the carrier.
type OutgoingSMS struct {
	To   string
	Body string
}

// Sender carries an SMS to the recipient. Implementations are not
// retried; a failed send is logged by the caller and dropped.
type Sender interface {
	Send(ctx context.Context, sms OutgoingSMS) error
}

// TwilioSender delivers messages through the Twilio REST API.
type TwilioSender struct {
	client *twilio.RestClient
	from   string
	logger *slog.Logger
}

// NewTwilioSender builds a sender for the given Twilio credentials
// and sending number.
func NewTwilioSender(accountSID, authToken, from string) (*TwilioSender, error) {
	if accountSID == "" || authToken == "" || from == "" {
		return nil, fmt.Errorf("twilio account_sid, auth_token and from number are required")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})

	return &TwilioSender{
		client: client,
		from:   from,
		logger: slog.Default().With("component", "delivery"),
	}, nil
}

// Send delivers one SMS.
func (t *TwilioSender) Send(ctx context.Context, sms OutgoingSMS) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(t.from)
	params.SetTo(sms.To)
	params.SetBody(sms.Body)

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("twilio send to %s: %w", sms.To, err)
	}

	sid := ""
	if resp.Sid != nil {
		sid = *resp.Sid
	}
	t.logger.Info("SMS delivered", "to", sms.To, "sid", sid)
	return nil
}

// LogSender writes outgoing messages to the log instead of a carrier.
// Used in development when no Twilio credentials are configured.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender builds a log-only sender.
func NewLogSender() *LogSender {
	return &LogSender{logger: slog.Default().With("component", "delivery")}
}

// Send logs the message and reports success.
func (l *LogSender) Send(ctx context.Context, sms OutgoingSMS) error {
	l.logger.Info("SMS delivery (log only)", "to", sms.To, "body", sms.Body)
	return nil
}
