package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/bihari123/reelpick/utils"
)

func HealthCheck(c *gin.Context) {
	utils.Success(c, gin.H{
		"status":  "ok",
		"service": "reelpick",
	})
}
