package middleware

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/pkg/httpcontext"
	"github.com/fastygo/taskflow/usecase/auth"
)

const secret = "middleware-secret"

type sessionStore map[string]domain.Session

func (s sessionStore) CurrentSession(_ context.Context, id string) (*domain.Session, error) {
	session, ok := s[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return &session, nil
}

func sign(t *testing.T, key string, session *domain.Session) string {
	t.Helper()
	token, err := auth.SignToken(key, "test", session)
	require.NoError(t, err)
	return token
}

func run(sessions SessionChecker, authHeader string) (*fasthttp.RequestCtx, bool) {
	var rc fasthttp.RequestCtx
	if authHeader != "" {
		rc.Request.Header.Set("Authorization", authHeader)
	}
	rc.Request.Header.Set(httpcontext.HeaderUserID, "spoofed")

	called := false
	handler := JWTAuth(secret, sessions, nil, nil)(func(ctx *fasthttp.RequestCtx) {
		called = true
	})
	handler(&rc)
	return &rc, called
}

func TestJWTAuthAcceptsValidToken(t *testing.T) {
	session := domain.Session{ID: "s1", UserID: "u1", CreatedAt: time.Now(), ExpiresAt: time.Now().Add(time.Hour)}
	store := sessionStore{"s1": session}

	rc, called := run(store, "Bearer "+sign(t, secret, &session))
	require.True(t, called)
	assert.Equal(t, "u1", httpcontext.UserID(rc))
	assert.Equal(t, "s1", httpcontext.SessionID(rc))
}

func TestJWTAuthRejects(t *testing.T) {
	live := domain.Session{ID: "s1", UserID: "u1", CreatedAt: time.Now(), ExpiresAt: time.Now().Add(time.Hour)}
	revoked := domain.Session{ID: "gone", UserID: "u1", CreatedAt: time.Now(), ExpiresAt: time.Now().Add(time.Hour)}
	store := sessionStore{"s1": live}

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"user_id": "u1", "session_id": "s1"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"garbage", "Bearer not-a-token"},
		{"wrong secret", "Bearer " + sign(t, "other", &live)},
		{"revoked session", "Bearer " + sign(t, secret, &revoked)},
		{"alg none", "Bearer " + unsigned},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc, called := run(store, tt.header)
			assert.False(t, called)
			assert.Equal(t, http.StatusUnauthorized, rc.Response.StatusCode())
			assert.Contains(t, string(rc.Response.Body()), "UNAUTHORIZED")
		})
	}
}

func TestJWTAuthWithoutSessionCheck(t *testing.T) {
	session := domain.Session{ID: "s9", UserID: "u9", CreatedAt: time.Now(), ExpiresAt: time.Now().Add(time.Hour)}
	rc, called := run(nil, sign(t, secret, &session))
	require.True(t, called)
	assert.Equal(t, "u9", httpcontext.UserID(rc))
}
