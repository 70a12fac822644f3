// Package notification sends operator alerts (currently e-mail via SMTP)
// for event bus events such as failed webhook deliveries.
package notification

import "context"

// Message is the content to be delivered by a Provider.
type Message struct {
	Subject string
	Body    string
	// To overrides the provider's default recipients when non-empty.
	To []string
}

// Provider is the interface for notification delivery backends.
type Provider interface {
	// Name returns the provider identifier (e.g. "smtp").
	Name() string
	// Send delivers the message using the provider's transport.
	Send(ctx context.Context, msg Message) error
}
