// Package notify delivers alert messages to tag owners over an external
// channel. Delivery is strictly best-effort: the alert pipeline records the
// alert first and treats any failure here as log-and-continue, never as a
// request failure.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/parkshield/backend/internal/domain"
)

// ErrUnavailable is returned by a Notifier whose channel is not provisioned
// (no credentials configured). This is a normal operating mode for local and
// dev environments, not an error condition worth more than an info log.
var ErrUnavailable = errors.New("notification channel not configured")

// Notifier sends a message body to a destination phone number.
// Implementations must not log the destination number.
type Notifier interface {
	Send(ctx context.Context, toPhone, body string) error
}

// Disabled is the Notifier used when no channel is configured.
// It reports ErrUnavailable immediately, without any network I/O.
type Disabled struct{}

// Send always returns ErrUnavailable.
func (Disabled) Send(ctx context.Context, toPhone, body string) error {
	return ErrUnavailable
}

// Body renders the SMS template for an alert:
//
//	[Car Alert] BLOCKING: Please move your car. Vehicle: KA-01-AB-1234
//
// An empty message falls back to "Alert received". The owner phone number is
// never part of the body.
func Body(kind domain.AlertKind, message, vehicleNumber string) string {
	if message == "" {
		message = "Alert received"
	}
	return fmt.Sprintf("[Car Alert] %s: %s. Vehicle: %s",
		strings.ToUpper(string(kind)), message, vehicleNumber)
}
