package notifyhandler

import (
	"context"
	"net/http"
	"notify/pkg/logger"
	"notify/pkg/serrors"

	"go.uber.org/zap"
)

// Response messages. They are part of the public contract of the endpoint;
// provider and configuration details never reach the caller.
const (
	MessageSubscribed       = "Successfully subscribed"
	MessageMethodNotAllowed = "Method not allowed"
	MessageInvalidEmail     = "Invalid email address"
	MessageMisconfigured    = "Server configuration error"
	MessageFailed           = "Failed to process subscription. Please try again."
)

// ErrorStatus maps err to the status code and public message of the response.
func ErrorStatus(err error) (int, string) {
	switch serrors.KindOf(err) {
	case serrors.ErrMethodNotAllowed:
		return http.StatusMethodNotAllowed, MessageMethodNotAllowed
	case serrors.ErrBadRequest:
		return http.StatusBadRequest, MessageInvalidEmail
	case serrors.ErrMisconfigured:
		return http.StatusInternalServerError, MessageMisconfigured
	default:
		return http.StatusInternalServerError, MessageFailed
	}
}

// WriteError logs err and writes the matching error response. Client errors
// are logged at debug level, server errors with their full cause.
func WriteError(ctx context.Context, w http.ResponseWriter, err error) {
	status, message := ErrorStatus(err)
	if status >= http.StatusInternalServerError {
		logger.Error(ctx, "could not process subscription",
			zap.String("kind", serrors.KindOf(err).Error()),
			zap.Error(err))
	} else {
		logger.Debug(ctx, "rejected subscription request", zap.Int("status", status), zap.Error(err))
	}

	writeJSON(w, status, encodeError(message))
}

// Fail returns a handler answering every request with err. Entrypoints use it
// when they cannot even build the real handler.
func Fail(err error) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteError(r.Context(), w, err)
	})
}
