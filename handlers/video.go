package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bihari123/reelpick/services"
	"github.com/bihari123/reelpick/utils"
)

func TrimVideo(c *gin.Context) {
	var in services.TrimInput
	if err := c.ShouldBindJSON(&in); err != nil {
		utils.Error(c, http.StatusBadRequest, services.ErrMsgInvalidRequestBody)
		return
	}

	if respondServiceError(c, getServices().Media.Trim(c.Request.Context(), in)) {
		return
	}
	c.Status(http.StatusOK)
}

func JoinVideos(c *gin.Context) {
	var in services.JoinInput
	if err := c.ShouldBindJSON(&in); err != nil {
		utils.Error(c, http.StatusBadRequest, services.ErrMsgJoinError)
		return
	}

	if respondServiceError(c, getServices().Media.Join(c.Request.Context(), in)) {
		return
	}
	c.Status(http.StatusOK)
}
