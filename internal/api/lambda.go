package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"notify/internal/api/handler/notifyhandler"
	"notify/pkg/controller"
	"notify/pkg/serrors"
	"strings"

	"github.com/aws/aws-lambda-go/events"
)

// LambdaHandlerFunc is the signature accepted by lambda.Start for API Gateway
// proxy integrations.
type LambdaHandlerFunc func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)

// lambdaResponseWriter buffers a handler response so it can be returned as
// an APIGatewayProxyResponse.
type lambdaResponseWriter struct {
	header http.Header
	body   bytes.Buffer
	status int
}

func (w *lambdaResponseWriter) Header() http.Header {
	return w.header
}

func (w *lambdaResponseWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}

	return w.body.Write(b) //nolint: wrapcheck
}

func (w *lambdaResponseWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
}

// NewLambdaRequest converts an API Gateway proxy event into an *http.Request.
func NewLambdaRequest(ctx context.Context, event events.APIGatewayProxyRequest) (*http.Request, error) {
	body := []byte(event.Body)
	if event.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(event.Body)
		if err != nil {
			return nil, fmt.Errorf("could not decode request body: %w", err)
		}
		body = decoded
	}

	u := url.URL{Path: event.Path}
	query := url.Values{}
	for k, vs := range event.MultiValueQueryStringParameters {
		query[k] = append(query[k], vs...)
	}
	for k, v := range event.QueryStringParameters {
		if _, ok := query[k]; !ok {
			query.Set(k, v)
		}
	}
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, event.HTTPMethod, u.RequestURI(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("could not build request: %w", err)
	}
	for k, vs := range event.MultiValueHeaders {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	for k, v := range event.Headers {
		if req.Header.Get(k) == "" {
			req.Header.Set(k, v)
		}
	}
	req.Host = req.Header.Get("Host")
	req.RemoteAddr = event.RequestContext.Identity.SourceIP
	req.RequestURI = u.RequestURI()

	return req, nil
}

// NewLambdaHandler adapts handler to API Gateway proxy events. An event whose
// body cannot be decoded is answered with a 400 through the same middlewares
// instead of failing the invocation.
func NewLambdaHandler(handler http.Handler) LambdaHandlerFunc {
	return func(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		h := handler
		req, err := NewLambdaRequest(ctx, event)
		if err != nil {
			h = controller.WithLogger(controller.WithCORS(notifyhandler.Fail(
				serrors.Wrap(serrors.ErrBadRequest, err, "could not decode lambda event"))))
			req = bodylessRequest(ctx, event)
		}

		w := &lambdaResponseWriter{header: http.Header{}}
		h.ServeHTTP(w, req)
		if w.status == 0 {
			w.status = http.StatusOK
		}

		resp := events.APIGatewayProxyResponse{
			StatusCode:        w.status,
			Headers:           make(map[string]string, len(w.header)),
			MultiValueHeaders: make(map[string][]string, len(w.header)),
			Body:              w.body.String(),
		}
		for k, vs := range w.header {
			resp.Headers[k] = strings.Join(vs, ",")
			resp.MultiValueHeaders[k] = vs
		}

		return resp, nil
	}
}

// bodylessRequest keeps the method and path of an undecodable event so the
// middlewares still see a preflight as a preflight.
func bodylessRequest(ctx context.Context, event events.APIGatewayProxyRequest) *http.Request {
	req, err := http.NewRequestWithContext(ctx, event.HTTPMethod, (&url.URL{Path: event.Path}).RequestURI(), http.NoBody)
	if err != nil {
		req, _ = http.NewRequestWithContext(ctx, http.MethodPost, "/", http.NoBody)
	}

	return req
}
