package handler_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	handler "notify/api"

	"github.com/stretchr/testify/require"
)

func TestHandler(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")

	tests := []struct {
		name   string
		method string
		body   string
		apiKey string
		status int
		want   string
	}{
		{"preflight", http.MethodOptions, "", "SG.key", http.StatusOK, ""},
		{"get", http.MethodGet, "", "SG.key", http.StatusMethodNotAllowed, `{"error":"Method not allowed"}`},
		{"invalid email", http.MethodPost, `{"email":"x"}`, "SG.key", http.StatusBadRequest, `{"error":"Invalid email address"}`},
		{"missing key", http.MethodPost, `{"email":"a@b.co"}`, "", http.StatusInternalServerError, `{"error":"Server configuration error"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("SENDGRID_API_KEY", tt.apiKey)

			rec := httptest.NewRecorder()
			handler.Handler(rec, httptest.NewRequest(tt.method, "/api/notify", strings.NewReader(tt.body)))

			require.Equal(t, tt.status, rec.Code)
			require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
			if tt.want == "" {
				require.Empty(t, rec.Body.String())
			} else {
				require.JSONEq(t, tt.want, rec.Body.String())
			}
		})
	}
}
