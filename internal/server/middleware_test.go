package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name          string
		header        string
		wantToken     string
		wantPresented bool
	}{
		{name: "missing header", header: "", wantToken: "", wantPresented: false},
		{name: "bearer", header: "Bearer abc123", wantToken: "abc123", wantPresented: true},
		{name: "lowercase scheme", header: "bearer abc123", wantToken: "abc123", wantPresented: true},
		{name: "extra whitespace", header: "Bearer  abc123", wantToken: "abc123", wantPresented: true},
		{name: "wrong scheme", header: "Basic dXNlcjpwYXNz", wantToken: "", wantPresented: true},
		{name: "scheme only", header: "Bearer", wantToken: "", wantPresented: true},
		{name: "empty token", header: "Bearer ", wantToken: "", wantPresented: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/mcp", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}

			token, presented := bearerToken(r)
			assert.Equal(t, tt.wantToken, token)
			assert.Equal(t, tt.wantPresented, presented)
		})
	}
}

func TestWithCORS_SetsHeaders(t *testing.T) {
	handler := withCORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/token", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "Authorization, Content-Type", rec.Header().Get("Access-Control-Allow-Headers"))
}

func TestWithCORS_PreflightShortCircuits(t *testing.T) {
	called := false
	handler := withCORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/token", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.False(t, called, "preflight must not reach the handler")
}

func TestStatusRecorder(t *testing.T) {
	rec := httptest.NewRecorder()
	wrapped := &statusRecorder{ResponseWriter: rec, status: http.StatusOK}

	wrapped.WriteHeader(http.StatusCreated)
	_, err := wrapped.Write([]byte("done"))
	require.NoError(t, err)

	assert.Equal(t, http.StatusCreated, wrapped.status)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "done", rec.Body.String())
}

func TestStatusRecorder_FlushPassesThrough(t *testing.T) {
	rec := httptest.NewRecorder()
	wrapped := &statusRecorder{ResponseWriter: rec, status: http.StatusOK}

	wrapped.Flush()
	assert.True(t, rec.Flushed)
}

func TestLogRequests_PassesThrough(t *testing.T) {
	handler := logRequests(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("ok"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
