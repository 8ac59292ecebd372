// Package mailer defines the message type and the provider-agnostic interface
// used to hand transactional emails to a delivery API.
package mailer

import "context"

// Message is a single fully rendered email.
type Message struct {
	To      string // To is the recipient address.
	From    string // From is the sender address.
	ReplyTo string // ReplyTo is optional; replies go to From when empty.
	Subject string // Subject is the email subject line.
	HTML    string // HTML is the rendered HTML body.
}

// Receipt describes an accepted message.
type Receipt struct {
	MessageID string // MessageID is the provider's identifier, empty if none was returned.
}

// Sender is the abstraction for email delivery providers. Implementations
// make a single delivery attempt per call and never retry.
//
//go:generate mockgen -package mockmailer -source=interface.go -destination=mock/mockmailer.go *
type Sender interface {
	// Send hands msg to the provider and returns once it was accepted or rejected.
	Send(ctx context.Context, msg *Message) (Receipt, error)
}
