package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vasapolrittideah/task-wand-api/shared/auth"
)

type stubVerifier struct {
	identity auth.Identity
	err      error
	got      string
}

func (s *stubVerifier) VerifyToken(token string) (auth.Identity, error) {
	s.got = token
	if token == "" {
		return auth.Identity{}, auth.ErrTokenMissing
	}
	return s.identity, s.err
}

func nopLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestAuthenticate_AttachesIdentity(t *testing.T) {
	verifier := &stubVerifier{identity: auth.Identity{ID: "u1", Username: "u1@mail.com"}}

	var got auth.Identity
	h := Authenticate(verifier, nopLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var ok bool
		got, ok = IdentityFromContext(r.Context())
		require.True(t, ok)
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/todos", nil)
	req.Header.Set("Authorization", "Bearer abc.def.ghi")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "abc.def.ghi", verifier.got)
	assert.Equal(t, "u1", got.ID)
}

func TestAuthenticate_Rejections(t *testing.T) {
	cases := []struct {
		name       string
		header     string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"missing header", "", nil, http.StatusUnauthorized, "Token is not provided"},
		{"wrong scheme", "Basic dXNlcjpwYXNz", nil, http.StatusUnauthorized, "Token is not provided"},
		{"bearer without token", "Bearer ", nil, http.StatusUnauthorized, "Token is not provided"},
		{"expired", "Bearer t", auth.ErrTokenExpired, http.StatusUnauthorized, "Token has expired"},
		{"invalid", "Bearer t", auth.ErrTokenInvalid, http.StatusUnauthorized, "Token is not valid"},
		{"internal", "Bearer t", auth.ErrTokenInternal, http.StatusInternalServerError, "Internal server error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			reached := false
			h := Authenticate(&stubVerifier{err: tc.err}, nopLogger())(
				http.HandlerFunc(func(http.ResponseWriter, *http.Request) { reached = true }),
			)

			req := httptest.NewRequest(http.MethodGet, "/todos", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			assert.False(t, reached)
			assert.Equal(t, tc.wantStatus, w.Code)
			body := decodeBody(t, w)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tc.wantMsg, body["message"])
		})
	}
}

func TestAuthenticate_WithRealTokens(t *testing.T) {
	jwtAuth := auth.NewJWTAuthenticator("secret", "task-wand-api")
	expired, err := jwtAuth.WithClock(func() time.Time { return time.Now().Add(-2 * time.Hour) }).
		IssueToken(auth.Identity{ID: "u1"})
	require.NoError(t, err)

	h := Authenticate(jwtAuth, nopLogger())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/todos", nil)
	req.Header.Set("Authorization", "bearer "+expired)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Token has expired", decodeBody(t, w)["message"])
}

func TestIdentityFromContext_Absent(t *testing.T) {
	_, ok := IdentityFromContext(httptest.NewRequest(http.MethodGet, "/", nil).Context())
	assert.False(t, ok)
}

func TestRateLimiter_AllowsBurstThenRejects(t *testing.T) {
	l := NewRateLimiter(1, 2)
	now := time.Date(2024, 5, 15, 10, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.2"))

	now = now.Add(time.Second)
	assert.True(t, l.Allow("10.0.0.1"))
}

func TestRateLimiter_CleanupForgetsIdleKeys(t *testing.T) {
	l := NewRateLimiter(1, 1)
	now := time.Date(2024, 5, 15, 10, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	l.Allow("10.0.0.1")
	now = now.Add(16 * time.Minute)
	l.Allow("10.0.0.2")
	l.Cleanup()

	assert.NotContains(t, l.entries, "10.0.0.1")
	assert.Contains(t, l.entries, "10.0.0.2")
}

func TestRateLimiter_Handler(t *testing.T) {
	l := NewRateLimiter(0.5, 1)
	h := l.Handler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/user/login", nil)
		req.RemoteAddr = "192.0.2.7:5555"
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusCreated, send().Code)

	w := send()
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "2", w.Header().Get("Retry-After"))
	assert.Equal(t, false, decodeBody(t, w)["success"])
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	h := RequestLogger(&logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodDelete, "/api/v1/todos/1", nil))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "DELETE", entry["method"])
	assert.Equal(t, "/api/v1/todos/1", entry["path"])
	assert.EqualValues(t, 500, entry["status"])
	assert.EqualValues(t, 4, entry["bytes"])
}
