package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suPer8Hu/chat-exchange/internal/auth"
	"github.com/suPer8Hu/chat-exchange/internal/logger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), Recovery())
	r.Use(mw...)
	r.GET("/whoami", func(c *gin.Context) {
		uid, _ := UserID(c)
		ctxUID, _ := auth.UserIDFromContext(c.Request.Context())
		c.String(http.StatusOK, uid+"|"+ctxUID)
	})
	r.GET("/panic", func(c *gin.Context) { panic("boom") })
	return r
}

func do(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRequired(t *testing.T) {
	r := newEngine(AuthRequired("secret"))

	t.Run("missing token", func(t *testing.T) {
		w := do(r, "/whoami", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), `"UNAUTHENTICATED"`)
	})

	t.Run("bad token", func(t *testing.T) {
		w := do(r, "/whoami", "not-a-jwt")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		tok, err := auth.SignToken("user-1", "secret", time.Minute)
		require.NoError(t, err)

		w := do(r, "/whoami", tok)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "user-1|user-1", w.Body.String())
		assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
	})
}

func TestRecovery(t *testing.T) {
	r := newEngine()
	w := do(r, "/panic", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"code":50000`)
}

type fakeLimiter struct {
	allow bool
	err   error
	keys  []string
}

func (l *fakeLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	l.keys = append(l.keys, key)
	return l.allow, l.err
}

func TestRateLimit(t *testing.T) {
	tok, err := auth.SignToken("user-1", "secret", time.Minute)
	require.NoError(t, err)

	t.Run("denied", func(t *testing.T) {
		l := &fakeLimiter{allow: false}
		r := newEngine(AuthRequired("secret"), RateLimit(l, "send", 1, time.Minute))

		w := do(r, "/whoami", tok)
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Contains(t, w.Body.String(), `"RATE_LIMITED"`)
		assert.Equal(t, []string{"send:user-1"}, l.keys)
	})

	t.Run("limiter failure fails open", func(t *testing.T) {
		l := &fakeLimiter{err: errors.New("redis: connection refused")}
		r := newEngine(AuthRequired("secret"), RateLimit(l, "send", 1, time.Minute))

		w := do(r, "/whoami", tok)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("disabled", func(t *testing.T) {
		r := newEngine(AuthRequired("secret"), RateLimit(nil, "send", 1, time.Minute))

		w := do(r, "/whoami", tok)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger.Replace(zap.New(core))
	t.Cleanup(func() { logger.Replace(zap.NewNop()) })

	tok, err := auth.SignToken("user-1", "secret", time.Minute)
	require.NoError(t, err)

	r := newEngine(Logger(), AuthRequired("secret"))
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set(RequestIDHeader, "rid-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "rid-42", fields["request_id"])
	assert.Equal(t, "user-1", fields["user_id"])
	assert.Equal(t, int64(http.StatusOK), fields["status"])
	assert.Equal(t, "/whoami", fields["path"])
}
