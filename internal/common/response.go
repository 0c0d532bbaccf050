package common

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "ok",
		"data":    data,
	})
}

// Fail writes the error envelope. reason is the stable machine-readable code
// (e.g. "UNAUTHENTICATED"); msg is safe for display.
func Fail(c *gin.Context, httpStatus int, code int, reason, msg string) {
	c.JSON(httpStatus, gin.H{
		"code":    code,
		"error":   reason,
		"message": msg,
		"data":    nil,
	})
}

// AbortFail is Fail for middleware: it also stops the handler chain.
func AbortFail(c *gin.Context, httpStatus int, code int, reason, msg string) {
	Fail(c, httpStatus, code, reason, msg)
	c.Abort()
}
