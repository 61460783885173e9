package notify

import (
	"context"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// Twilio sends SMS through the Twilio Programmable Messaging API.
type Twilio struct {
	client *twilio.RestClient
	from   string
}

// NewTwilio constructs a Twilio notifier from an account SID, auth token,
// and the provisioned sending number.
func NewTwilio(accountSID, authToken, fromNumber string) *Twilio {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &Twilio{client: client, from: fromNumber}
}

// Send delivers one SMS. The twilio-go client manages its own request
// deadlines; ctx is accepted for interface symmetry and future use.
func (t *Twilio) Send(ctx context.Context, toPhone, body string) error {
	params := &twilioapi.CreateMessageParams{}
	params.SetTo(toPhone)
	params.SetFrom(t.from)
	params.SetBody(body)

	if _, err := t.client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("notify.Twilio.Send: %w", err)
	}
	return nil
}

// FromConfig selects the notifier for the given credentials. All three
// values must be present for the Twilio channel; otherwise the Disabled
// notifier is returned and alerts are recorded without delivery.
func FromConfig(accountSID, authToken, fromNumber string) Notifier {
	if accountSID == "" || authToken == "" || fromNumber == "" {
		return Disabled{}
	}
	return NewTwilio(accountSID, authToken, fromNumber)
}
