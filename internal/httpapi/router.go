package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/chat-exchange/internal/common"
	"github.com/suPer8Hu/chat-exchange/internal/httpapi/handlers"
	"github.com/suPer8Hu/chat-exchange/internal/httpapi/middleware"
)

type RouterConfig struct {
	JWTSecret     string
	SendRateLimit int                // per user per minute; 0 disables
	Limiter       middleware.Limiter // optional
}

func NewRouter(cfg RouterConfig, h *handlers.Handler) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, 40400, "NOT_FOUND", "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, 40500, "METHOD_NOT_ALLOWED", "method not allowed")
	})

	r.GET("/ping", h.Ping)
	r.GET("/chat/models", h.ListModels)

	// Chat (JWT required)
	authGroup := r.Group("/")
	authGroup.Use(middleware.AuthRequired(cfg.JWTSecret))
	authGroup.POST("/chat/send",
		middleware.RateLimit(cfg.Limiter, "send", cfg.SendRateLimit, time.Minute),
		h.SendChat,
	)
	authGroup.GET("/chat/history", h.ChatHistory)
	authGroup.GET("/chat/usage", h.ChatUsage)
	return r
}
