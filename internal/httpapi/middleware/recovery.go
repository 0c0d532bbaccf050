package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/chat-exchange/internal/common"
	"github.com/suPer8Hu/chat-exchange/internal/logger"
	"go.uber.org/zap"
)

func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.WithCtx(c.Request.Context()).Error("panic recovered",
					zap.Any("panic", r),
					zap.String("path", c.Request.URL.Path),
					zap.Stack("stack"),
				)
				common.AbortFail(c, http.StatusInternalServerError, 50000, "INTERNAL", "internal error")
			}
		}()
		c.Next()
	}
}
