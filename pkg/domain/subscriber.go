package domain

import (
	"notify/pkg/serrors"
	"strings"
)

// Subscriber is the person asking to receive updates. It only lives for the
// duration of one request; nothing about it is stored.
type Subscriber struct {
	// Email is the address submitted by the subscriber.
	Email string `json:"email"`
}

// Validate checks the minimal shape of the address: it must be non-empty
// and contain an "@". Anything stricter is left to the delivery provider.
func (s Subscriber) Validate() error {
	if s.Email == "" {
		return serrors.With(serrors.ErrBadRequest, "email is required")
	}
	if !strings.Contains(s.Email, "@") {
		return serrors.With(serrors.ErrBadRequest, "email must contain @")
	}

	return nil
}
