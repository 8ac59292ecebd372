package notifyhandler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"notify/internal/api/handler/notifyhandler"
	"notify/internal/config"
	"notify/internal/subscription"
	"notify/pkg/controller"
	"notify/pkg/logger"
	"notify/pkg/mailer"
	"notify/pkg/serrors"
	"strings"
	"testing"
	"time"

	mockmailer "notify/pkg/mailer/mock"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const (
	apiKey        = "SG.test-key"
	internalEmail = "contact@healthmatters.clinic"
	fromEmail     = "noreply@healthmatters.clinic"
)

func TestMain(m *testing.M) {
	// Initialize logger to avoid noisy nil loggers during tests
	logger.Setup(logger.DevelopmentEnvironment)
	m.Run()
}

type testEnv struct {
	sender   *mockmailer.MockSender
	handler  http.Handler
	keysUsed []string
}

func newTestEnv(t *testing.T, key string) *testEnv {
	t.Helper()

	ctrl := gomock.NewController(t)
	templates, err := subscription.ParseTemplates()
	require.NoError(t, err)

	env := &testEnv{sender: mockmailer.NewMockSender(ctrl)}
	h := notifyhandler.New(notifyhandler.Deps{
		NewSender: func(k string) mailer.Sender {
			env.keysUsed = append(env.keysUsed, k)

			return env.sender
		},
		Templates: templates,
	}, notifyhandler.Options{
		APIKey: key,
		Subscription: subscription.Options{
			From:              fromEmail,
			InternalRecipient: internalEmail,
			Source:            "2026 Updates Landing Page",
			Now:               func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) },
		},
	})
	env.handler = controller.WithCORS(h)

	return env
}

func (e *testEnv) do(method, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, "/api/notify", nil)
	} else {
		req = httptest.NewRequest(method, "/api/notify", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)

	return rec
}

func requireJSON(t *testing.T, rec *httptest.ResponseRecorder, status int, want map[string]any) {
	t.Helper()

	require.Equal(t, status, rec.Code)
	require.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, want, got)
}

func TestHandler_Preflight(t *testing.T) {
	env := newTestEnv(t, apiKey)

	rec := env.do(http.MethodOptions, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, rec.Body.Bytes())
	require.Equal(t, "GET,OPTIONS,PATCH,DELETE,POST,PUT", rec.Header().Get("Access-Control-Allow-Methods"))
	require.Empty(t, env.keysUsed)
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodHead} {
		t.Run(method, func(t *testing.T) {
			env := newTestEnv(t, apiKey)

			rec := env.do(method, "")
			require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
			if method != http.MethodHead {
				requireJSON(t, rec, http.StatusMethodNotAllowed, map[string]any{"error": "Method not allowed"})
			}
			require.Empty(t, env.keysUsed)
		})
	}
}

func TestHandler_InvalidEmail(t *testing.T) {
	bodies := []string{
		`{}`,
		`{"email": ""}`,
		`{"email": "not-an-email"}`,
		`{"email": 42}`,
		`{"email": null}`,
		`not json`,
		`[]`,
		``,
		`{"email": "user@example.com"}garbage`,
		`{"email": "user@example.com"} {}`,
		`{"email": "user@example.com"}}`,
	}
	for _, body := range bodies {
		t.Run(body, func(t *testing.T) {
			env := newTestEnv(t, apiKey)

			rec := env.do(http.MethodPost, body)
			requireJSON(t, rec, http.StatusBadRequest, map[string]any{"error": "Invalid email address"})
			require.Empty(t, env.keysUsed, "no delivery client may be built for invalid input")
		})
	}
}

func TestHandler_MissingAPIKey(t *testing.T) {
	env := newTestEnv(t, "")

	rec := env.do(http.MethodPost, `{"email": "user@example.com"}`)
	requireJSON(t, rec, http.StatusInternalServerError, map[string]any{"error": "Server configuration error"})
	require.Empty(t, env.keysUsed)
}

func TestHandler_InvalidEmailBeatsMissingAPIKey(t *testing.T) {
	env := newTestEnv(t, "")

	rec := env.do(http.MethodPost, `{"email": "nope"}`)
	requireJSON(t, rec, http.StatusBadRequest, map[string]any{"error": "Invalid email address"})
}

func TestHandler_Success(t *testing.T) {
	env := newTestEnv(t, apiKey)

	var sent []*mailer.Message
	env.sender.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, msg *mailer.Message) (mailer.Receipt, error) {
			sent = append(sent, msg)

			return mailer.Receipt{MessageID: "id"}, nil
		}).Times(2)

	rec := env.do(http.MethodPost, `{"email": "user@example.com", "source": "ignored"}`)
	requireJSON(t, rec, http.StatusOK, map[string]any{"success": true, "message": "Successfully subscribed"})

	require.Equal(t, []string{apiKey}, env.keysUsed)
	require.Len(t, sent, 2)
	require.Equal(t, internalEmail, sent[0].To)
	require.Equal(t, "user@example.com", sent[0].ReplyTo)
	require.Equal(t, fromEmail, sent[0].From)
	require.Equal(t, "user@example.com", sent[1].To)
	require.Equal(t, fromEmail, sent[1].From)
}

func TestHandler_TrailingWhitespaceAccepted(t *testing.T) {
	env := newTestEnv(t, apiKey)
	env.sender.EXPECT().Send(gomock.Any(), gomock.Any()).Return(mailer.Receipt{}, nil).Times(2)

	rec := env.do(http.MethodPost, "{\"email\": \"user@example.com\"}\r\n\t ")
	requireJSON(t, rec, http.StatusOK, map[string]any{"success": true, "message": "Successfully subscribed"})
}

func TestHandler_FirstSendFails(t *testing.T) {
	env := newTestEnv(t, apiKey)
	env.sender.EXPECT().Send(gomock.Any(), gomock.Any()).
		Return(mailer.Receipt{}, serrors.With(serrors.ErrUnauthorized, "The provided authorization grant is invalid")).
		Times(1)

	rec := env.do(http.MethodPost, `{"email": "user@example.com"}`)
	requireJSON(t, rec, http.StatusInternalServerError,
		map[string]any{"error": "Failed to process subscription. Please try again."})
	require.NotContains(t, rec.Body.String(), "authorization")
}

func TestHandler_SecondSendFails(t *testing.T) {
	env := newTestEnv(t, apiKey)
	gomock.InOrder(
		env.sender.EXPECT().Send(gomock.Any(), gomock.Any()).Return(mailer.Receipt{}, nil),
		env.sender.EXPECT().Send(gomock.Any(), gomock.Any()).Return(mailer.Receipt{}, errors.New("timeout")),
	)

	rec := env.do(http.MethodPost, `{"email": "user@example.com"}`)
	requireJSON(t, rec, http.StatusInternalServerError,
		map[string]any{"error": "Failed to process subscription. Please try again."})
}

func TestHandler_ProviderBadRequestIsNot400(t *testing.T) {
	env := newTestEnv(t, apiKey)
	env.sender.EXPECT().Send(gomock.Any(), gomock.Any()).
		Return(mailer.Receipt{}, serrors.With(serrors.ErrBadRequest, "does not contain a valid address"))

	rec := env.do(http.MethodPost, `{"email": "user@example"}`)
	requireJSON(t, rec, http.StatusInternalServerError,
		map[string]any{"error": "Failed to process subscription. Please try again."})
}

func TestHandler_NotIdempotent(t *testing.T) {
	env := newTestEnv(t, apiKey)
	env.sender.EXPECT().Send(gomock.Any(), gomock.Any()).Return(mailer.Receipt{}, nil).Times(4)

	for range 2 {
		rec := env.do(http.MethodPost, `{"email": "user@example.com"}`)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	require.Equal(t, []string{apiKey, apiKey}, env.keysUsed, "a delivery client is built per request")
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"method", serrors.KindOnly(serrors.ErrMethodNotAllowed), http.StatusMethodNotAllowed, notifyhandler.MessageMethodNotAllowed},
		{"bad request", serrors.With(serrors.ErrBadRequest, "x"), http.StatusBadRequest, notifyhandler.MessageInvalidEmail},
		{"misconfigured", serrors.KindOnly(serrors.ErrMisconfigured), http.StatusInternalServerError, notifyhandler.MessageMisconfigured},
		{"delivery", serrors.KindOnly(serrors.ErrDelivery), http.StatusInternalServerError, notifyhandler.MessageFailed},
		{"plain", errors.New("boom"), http.StatusInternalServerError, notifyhandler.MessageFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, message := notifyhandler.ErrorStatus(tt.err)
			require.Equal(t, tt.status, status)
			require.Equal(t, tt.message, message)
		})
	}
}

func TestFail(t *testing.T) {
	rec := httptest.NewRecorder()
	notifyhandler.Fail(serrors.With(serrors.ErrMisconfigured, "bad env")).
		ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/notify", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.JSONEq(t, `{"error":"Server configuration error"}`, rec.Body.String())
}

func TestNewOptionsAndDeps(t *testing.T) {
	cfg := &config.Config{}
	cfg.SendGrid.APIKey = apiKey
	cfg.SendGrid.FromEmail = fromEmail
	cfg.SendGrid.Timeout = time.Second
	cfg.Subscription.InternalEmail = internalEmail
	cfg.Subscription.TimeZone = "UTC"

	opts, err := notifyhandler.NewOptions(cfg)
	require.NoError(t, err)
	require.Equal(t, apiKey, opts.APIKey)
	require.Equal(t, internalEmail, opts.Subscription.InternalRecipient)

	deps, err := notifyhandler.NewDeps(cfg)
	require.NoError(t, err)
	require.NotNil(t, deps.Templates)
	require.NotNil(t, deps.NewSender(apiKey))
}
