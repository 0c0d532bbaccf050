package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/chat-exchange/internal/auth"
	"github.com/suPer8Hu/chat-exchange/internal/common"
)

const UserIDKey = "user_id"

// AuthRequired resolves the caller from a bearer identity token. Requests
// without a valid token stop here with UNAUTHENTICATED.
func AuthRequired(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(h, "Bearer ")
		token = strings.TrimSpace(token)
		if !ok || token == "" {
			common.AbortFail(c, http.StatusUnauthorized, 40101, "UNAUTHENTICATED", "unauthorized")
			return
		}

		uid, err := auth.ParseToken(token, secret)
		if err != nil {
			common.AbortFail(c, http.StatusUnauthorized, 40101, "UNAUTHENTICATED", "unauthorized")
			return
		}

		c.Set(UserIDKey, uid)
		c.Request = c.Request.WithContext(auth.WithUserID(c.Request.Context(), uid))
		c.Next()
	}
}

// UserID returns the identity AuthRequired resolved, if any.
func UserID(c *gin.Context) (string, bool) {
	v, ok := c.Get(UserIDKey)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}
