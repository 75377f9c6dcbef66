package mw

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/weddingday/internal/logger"
)

var secret = []byte("test-secret")

func token(t *testing.T, sub, role string, key []byte, method jwt.SigningMethod) string {
	t.Helper()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func echoUser() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(UserID(r.Context())))
	})
}

func TestAuthenticate(t *testing.T) {
	log := logger.New("error", false)

	tests := []struct {
		name     string
		header   string
		required bool
		status   int
		body     string
	}{
		{name: "valid token", header: "Bearer " + token(t, "u1", "", secret, jwt.SigningMethodHS256), required: true, status: 200, body: "u1"},
		{name: "missing token required", required: true, status: 401},
		{name: "missing token optional", required: false, status: 200, body: ""},
		{name: "wrong key", header: "Bearer " + token(t, "u1", "", []byte("other"), jwt.SigningMethodHS256), status: 401},
		{name: "wrong algorithm", header: "Bearer " + token(t, "u1", "", secret, jwt.SigningMethodHS512), status: 401},
		{name: "no subject", header: "Bearer " + token(t, "", "", secret, jwt.SigningMethodHS256), status: 401},
		{name: "not bearer", header: "Basic abc", required: true, status: 401},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			Authenticate(secret, tt.required, log)(echoUser()).ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.status == 200 {
				assert.Equal(t, tt.body, rec.Body.String())
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	log := logger.New("error", false)
	h := Authenticate(secret, true, log)(RequireAdmin(log)(echoUser()))

	for role, want := range map[string]int{RoleAdmin: 200, "guest": 403} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token(t, "u1", role, secret, jwt.SigningMethodHS256))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, role)
	}

	rec := httptest.NewRecorder()
	RequireAdmin(log)(echoUser()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCronSecret(t *testing.T) {
	log := logger.New("error", false)
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	tests := []struct {
		name    string
		enforce bool
		secret  string
		header  string
		status  int
	}{
		{name: "matching secret", enforce: true, secret: "s3cret", header: "Bearer s3cret", status: 200},
		{name: "wrong secret", enforce: true, secret: "s3cret", header: "Bearer nope", status: 401},
		{name: "missing header", enforce: true, secret: "s3cret", status: 401},
		{name: "empty configured secret", enforce: true, secret: "", header: "Bearer ", status: 401},
		{name: "development skips check", enforce: false, secret: "s3cret", status: 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/cron/reminders", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			CronSecret(tt.secret, tt.enforce, log)(ok).ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestAllowOnlyCIDRS(t *testing.T) {
	log := logger.New("error", false)
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	h := AllowOnlyCIDRS([]string{"10.0.0.0/8", "192.168.1.7", "::1"}, true, log)(ok)

	tests := []struct {
		remote string
		xff    string
		status int
	}{
		{remote: "10.1.2.3:1234", status: 200},
		{remote: "192.168.1.7:80", status: 200},
		{remote: "192.168.1.8:80", status: 403},
		{remote: "[::1]:80", status: 200},
		{remote: "[::ffff:10.0.0.1]:80", status: 200},
		{remote: "127.0.0.1:80", xff: "10.9.9.9, 8.8.8.8", status: 200},
		{remote: "10.0.0.1:80", xff: "8.8.8.8", status: 403},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
		req.RemoteAddr = tt.remote
		if tt.xff != "" {
			req.Header.Set("X-Forwarded-For", tt.xff)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, tt.status, rec.Code, "%s xff=%q", tt.remote, tt.xff)
	}

	rec := httptest.NewRecorder()
	AllowOnlyCIDRS(nil, false, log)(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code, "empty list passes through")
}

func TestEnforceHost(t *testing.T) {
	log := logger.New("error", false)
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	h := EnforceHost([]string{"wedding.example", "*.admin.example"}, log)(ok)

	for host, want := range map[string]int{
		"wedding.example":      200,
		"WEDDING.example:8443": 200,
		"ops.admin.example":    200,
		"admin.example":        403,
		"evil.example":         403,
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Host = host
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, host)
	}
}

func TestRateLimitKeysByUser(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	h := RateLimit(RateLimitConfig{Burst: 1, RefillPerMin: 1})(ok)

	call := func(user string) int {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = "10.0.0.1:1"
		if user != "" {
			req = req.WithContext(WithClaims(req.Context(), &Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: user}}))
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, 200, call("alice"))
	assert.Equal(t, 429, call("alice"))
	assert.Equal(t, 200, call("bob"), "same IP, different user")
	assert.Equal(t, 200, call(""))
	assert.Equal(t, 429, call(""))
}

func TestRateLimitRefills(t *testing.T) {
	now := time.Date(2026, 6, 20, 12, 0, 0, 0, time.UTC)
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	h := RateLimit(RateLimitConfig{Burst: 2, RefillPerMin: 6, Now: func() time.Time { return now }})(ok)

	call := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.9:1"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, "1", call().Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, http.StatusOK, call().Code)

	rec := call()
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "10", rec.Header().Get("Retry-After"))

	now = now.Add(12 * time.Second)
	assert.Equal(t, http.StatusOK, call().Code)
	assert.Equal(t, http.StatusTooManyRequests, call().Code)
}

func TestLogKeepsWriterControllable(t *testing.T) {
	h := Log(logger.New("error", false))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		rc := http.NewResponseController(w)
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("data: x\n\n"))
		assert.NoError(t, rc.Flush(), "flush must reach the recorder through Unwrap")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/agenda/stream", nil))
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.True(t, rec.Flushed)
}
