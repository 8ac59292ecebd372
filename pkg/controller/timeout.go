package controller

import (
	"context"
	"net/http"
	"time"
)

// WithTimeout returns a middleware that bounds the request context by d.
// Handlers see the deadline through r.Context() and answer on their own, so
// the response keeps the headers and status set by the handler chain.
// A non-positive d disables the deadline.
func WithTimeout(d time.Duration, next http.Handler) http.Handler {
	if d <= 0 {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), d)
		defer cancel()

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
