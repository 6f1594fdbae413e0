package sms

import (
	"context"
	"fmt"

	"github.com/twilio/twilio-go"
	api "github.com/twilio/twilio-go/rest/api/v2010"
)

// TwilioAPI is the subset of the Twilio REST client used here.
type TwilioAPI interface {
	CreateMessage(params *api.CreateMessageParams) (*api.ApiV2010Message, error)
}

type TwilioProvider struct {
	api        TwilioAPI
	fromNumber string
}

func NewTwilioProvider(accountSID, authToken, fromNumber string) *TwilioProvider {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return NewTwilioProviderWithAPI(client.Api, fromNumber)
}

func NewTwilioProviderWithAPI(client TwilioAPI, fromNumber string) *TwilioProvider {
	return &TwilioProvider{api: client, fromNumber: fromNumber}
}

func (t *TwilioProvider) Name() string { return "twilio" }

// Send dispatches the message. The Twilio client is not context aware, so
// cancellation is only honoured before the request is made.
func (t *TwilioProvider) Send(ctx context.Context, message *Message) (*Receipt, error) {
	if err := message.validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	from := message.From
	if from == "" {
		from = t.fromNumber
	}

	params := &api.CreateMessageParams{}
	params.SetTo(message.To)
	params.SetFrom(from)
	params.SetBody(message.Body)

	resp, err := t.api.CreateMessage(params)
	if err != nil {
		return &Receipt{Status: "failed", Error: err.Error()}, fmt.Errorf("twilio: %w", err)
	}

	receipt := &Receipt{Status: "queued"}
	if resp.Sid != nil {
		receipt.MessageID = *resp.Sid
	}
	if resp.Status != nil {
		receipt.Status = string(*resp.Status)
	}
	return receipt, nil
}
