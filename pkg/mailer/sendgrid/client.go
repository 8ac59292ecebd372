// Package sendgrid provides a mailer.Sender implementation backed by the
// SendGrid v3 Mail Send API.
package sendgrid

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"notify/pkg/mailer"
	"notify/pkg/metrics"
	"notify/pkg/serrors"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/jx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// DefaultBaseURL is the public SendGrid API host.
	DefaultBaseURL = "https://api.sendgrid.com"

	tracerName = "notify/pkg/mailer/sendgrid"
	// maxErrorBody bounds how much of an error response is kept for logging.
	maxErrorBody = 64 << 10
)

//nolint: gochecknoglobals
var requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "sendgrid_request_duration_seconds",
	Help:    "Latency of SendGrid Mail Send calls partitioned by response status.",
	Buckets: metrics.DefaultBuckets,
}, []string{"status"})

// Client talks to the SendGrid REST API and fulfills the mailer.Sender
// interface. It is safe for concurrent use.
type Client struct {
	httpClient *http.Client // httpClient performs HTTP requests to SendGrid
	baseURL    string       // baseURL is the API host without a trailing slash
	apiKey     string       // apiKey is sent as a bearer token
}

// Ensure Client conforms to the mailer.Sender interface at compile time.
var _ mailer.Sender = (*Client)(nil)

// New constructs a Client that uses the provided http.Client, API host and
// key. An empty baseURL selects DefaultBaseURL.
func New(httpClient *http.Client, baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
	}
}

// EncodeMessage builds the Mail Send request body for a single recipient
// with one HTML content part.
func EncodeMessage(msg *mailer.Message) []byte {
	address := func(e *jx.Encoder, email string) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("email", func(e *jx.Encoder) { e.Str(email) })
		})
	}

	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("personalizations", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				e.Obj(func(e *jx.Encoder) {
					e.Field("to", func(e *jx.Encoder) {
						e.Arr(func(e *jx.Encoder) { address(e, msg.To) })
					})
				})
			})
		})
		e.Field("from", func(e *jx.Encoder) { address(e, msg.From) })
		if msg.ReplyTo != "" {
			e.Field("reply_to", func(e *jx.Encoder) { address(e, msg.ReplyTo) })
		}
		e.Field("subject", func(e *jx.Encoder) { e.Str(msg.Subject) })
		e.Field("content", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				e.Obj(func(e *jx.Encoder) {
					e.Field("type", func(e *jx.Encoder) { e.Str("text/html") })
					e.Field("value", func(e *jx.Encoder) { e.Str(msg.HTML) })
				})
			})
		})
	})

	return e.Bytes()
}

// DecodeErrors extracts the human-readable messages from a SendGrid error
// body ({"errors":[{"message":...}]}). Bodies in any other shape are returned
// trimmed as-is.
func DecodeErrors(body []byte) string {
	var messages []string
	err := jx.DecodeBytes(body).Obj(func(d *jx.Decoder, key string) error {
		if key != "errors" {
			return d.Skip() //nolint: wrapcheck
		}

		return d.Arr(func(d *jx.Decoder) error { //nolint: wrapcheck
			return d.Obj(func(d *jx.Decoder, key string) error { //nolint: wrapcheck
				if key != "message" || d.Next() != jx.String {
					return d.Skip() //nolint: wrapcheck
				}
				m, err := d.Str()
				if err != nil {
					return err //nolint: wrapcheck
				}
				messages = append(messages, m)

				return nil
			})
		})
	})
	if err != nil || len(messages) == 0 {
		return strings.TrimSpace(string(body))
	}

	return strings.Join(messages, "; ")
}

// statusKind maps a non-2xx SendGrid status to a semantic error kind.
func statusKind(status int) serrors.Kind {
	switch {
	case status == http.StatusUnauthorized:
		return serrors.ErrUnauthorized
	case status == http.StatusForbidden:
		return serrors.ErrForbidden
	case status == http.StatusTooManyRequests:
		return serrors.ErrRateLimited
	case status >= http.StatusInternalServerError:
		return serrors.ErrUnavailable
	case status >= http.StatusBadRequest:
		return serrors.ErrBadRequest
	default:
		return serrors.ErrInternal
	}
}

// Send delivers msg through POST /v3/mail/send. It makes exactly one attempt;
// SendGrid answers 202 Accepted on success.
func (c *Client) Send(ctx context.Context, msg *mailer.Message) (mailer.Receipt, error) {
	// https://www.twilio.com/docs/sendgrid/api-reference/mail-send/mail-send
	ctx, span := otel.Tracer(tracerName).Start(ctx, "sendgrid.mail.send", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	start := time.Now()
	receipt, status, err := c.send(ctx, msg)

	label := "error"
	if status != 0 {
		label = strconv.Itoa(status)
		span.SetAttributes(attribute.Int("http.response.status_code", status))
	}
	requestDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "mail send failed")

		return mailer.Receipt{}, err
	}

	return receipt, nil
}

func (c *Client) send(ctx context.Context, msg *mailer.Message) (mailer.Receipt, int, error) {
	req, err := http.NewRequestWithContext(ctx,
		http.MethodPost,
		c.baseURL+"/v3/mail/send",
		bytes.NewReader(EncodeMessage(msg)))
	if err != nil {
		return mailer.Receipt{}, 0, fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) && urlErr.Timeout() {
			return mailer.Receipt{}, 0, serrors.Wrap(serrors.ErrTimeout, err, "could not send request")
		}

		return mailer.Receipt{}, 0, fmt.Errorf("could not send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)

		return mailer.Receipt{MessageID: resp.Header.Get("X-Message-Id")}, resp.StatusCode, nil
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return mailer.Receipt{}, resp.StatusCode, fmt.Errorf("could not read response body: %w", err)
	}

	return mailer.Receipt{}, resp.StatusCode, serrors.With(statusKind(resp.StatusCode),
		"sendgrid rejected message with status %d: %s", resp.StatusCode, DecodeErrors(b))
}
