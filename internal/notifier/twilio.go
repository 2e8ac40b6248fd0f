package notifier

import (
	"context"
	"errors"
	"fmt"

	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

type messageCreator interface {
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
}

// Twilio sends the notification as a WhatsApp or SMS message to the operator.
type Twilio struct {
	api  messageCreator
	from string
	to   string
}

// NewTwilio addresses both numbers as "whatsapp:<number>" when channel is whatsapp.
func NewTwilio(accountSID, authToken, from, to, channel string) (*Twilio, error) {
	if accountSID == "" || authToken == "" || from == "" {
		return nil, errors.New("twilio: account sid, auth token and sender number are required")
	}
	if to == "" {
		return nil, errors.New("twilio: operator number is required")
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return newTwilio(client.Api, from, to, channel), nil
}

func newTwilio(api messageCreator, from, to, channel string) *Twilio {
	if channel == "whatsapp" {
		from, to = "whatsapp:"+from, "whatsapp:"+to
	}
	return &Twilio{api: api, from: from, to: to}
}

// Notify ignores ctx: the Twilio REST client has no context support.
func (t *Twilio) Notify(_ context.Context, ticketID, message string) error {
	params := &openapi.CreateMessageParams{}
	params.SetFrom(t.from)
	params.SetTo(t.to)
	params.SetBody(Body(ticketID, message))
	if _, err := t.api.CreateMessage(params); err != nil {
		return fmt.Errorf("twilio: send to %s: %w", t.to, err)
	}
	return nil
}
