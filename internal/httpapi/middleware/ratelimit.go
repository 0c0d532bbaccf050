package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/chat-exchange/internal/common"
	"github.com/suPer8Hu/chat-exchange/internal/logger"
	"go.uber.org/zap"
)

type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// RateLimit caps requests per authenticated user. It must run after
// AuthRequired. If the limiter itself fails the request is let through.
func RateLimit(l Limiter, scope string, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, ok := UserID(c)
		if !ok || l == nil || limit <= 0 {
			c.Next()
			return
		}

		allowed, err := l.Allow(c.Request.Context(), scope+":"+uid, limit, window)
		if err != nil {
			logger.WithCtx(c.Request.Context()).Warn("rate limiter unavailable",
				zap.String("user_id", uid), zap.Error(err))
			c.Next()
			return
		}
		if !allowed {
			common.AbortFail(c, http.StatusTooManyRequests, 42901, "RATE_LIMITED", "too many requests")
			return
		}
		c.Next()
	}
}
