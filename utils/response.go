package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// Error writes the uniform failure envelope: status, a stable error
// identifier, and the numeric code matching the HTTP status.
func Error(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{
		"status": "error",
		"error":  message,
		"code":   code,
	})
}

func ErrorWithData(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, gin.H{
		"status": "error",
		"error":  message,
		"code":   code,
		"data":   data,
	})
}
