package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// passHandler responds 200 "ok".
var passHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("ok")) //nolint:errcheck
})

func callWithKey(t *testing.T, h http.Handler, method, header, key string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, "/api/v1/status", nil)
	if key != "" {
		req.Header.Set(header, key)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		mode     string
		key      string // configured key
		sent     string // key sent by the caller
		header   string // header the caller uses
		method   string
		wantCode int
	}{
		{"mode none passes", "none", "secret", "", "x-api-key", http.MethodGet, http.StatusOK},
		{"empty key passes", "apikey", "", "", "x-api-key", http.MethodGet, http.StatusOK},
		{"correct key", "apikey", "supersecret", "supersecret", "x-api-key", http.MethodGet, http.StatusOK},
		{"wrong key", "apikey", "supersecret", "wrongkey", "x-api-key", http.MethodPost, http.StatusUnauthorized},
		{"missing key", "apikey", "supersecret", "", "x-api-key", http.MethodGet, http.StatusUnauthorized},
		{"wrong header", "apikey", "supersecret", "supersecret", "x-other", http.MethodGet, http.StatusUnauthorized},
		{"preflight", "apikey", "supersecret", "", "x-api-key", http.MethodOptions, http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := APIKey(tc.mode, "x-api-key", tc.key)(passHandler)
			rr := callWithKey(t, h, tc.method, tc.header, tc.sent)
			if rr.Code != tc.wantCode {
				t.Errorf("status: got %d, want %d", rr.Code, tc.wantCode)
			}
		})
	}
}

func TestAPIKey_HeaderCaseInsensitive(t *testing.T) {
	h := APIKey("apikey", "X-Scene-Key", "k")(passHandler)
	rr := callWithKey(t, h, http.MethodGet, "x-scene-key", "k")
	if rr.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200", rr.Code)
	}
}

func TestAPIKey_ErrorBody(t *testing.T) {
	h := APIKey("apikey", "x-api-key", "k")(passHandler)
	rr := callWithKey(t, h, http.MethodGet, "x-api-key", "bad")

	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want application/json", ct)
	}
	if !strings.Contains(rr.Body.String(), "invalid api key") {
		t.Errorf("body: got %q", rr.Body.String())
	}
}
