package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/bihari123/reelpick/services"
	"github.com/bihari123/reelpick/utils"
)

// InitializeUpload starts a new chunked upload session.
func InitializeUpload(c *gin.Context) {
	var in services.InitializeUploadInput
	if err := c.ShouldBindJSON(&in); err != nil {
		utils.Error(c, http.StatusBadRequest, services.ErrMsgInvalidRequestBody)
		return
	}

	out, err := getServices().Upload.Initialize(c.Request.Context(), in)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, out)
}

// UploadChunk ingests one raw chunk. File identity and chunk index travel in
// headers; the body is the chunk bytes.
func UploadChunk(c *gin.Context) {
	fileID := c.GetHeader("X-File-Id")
	if fileID == "" {
		utils.Error(c, http.StatusBadRequest, services.ErrMsgMissingFileID)
		return
	}
	indexHeader := c.GetHeader("X-Chunk-Index")
	if indexHeader == "" {
		utils.Error(c, http.StatusBadRequest, services.ErrMsgMissingChunkIndex)
		return
	}
	chunkIndex, err := strconv.Atoi(indexHeader)
	if err != nil || chunkIndex < 0 {
		utils.Error(c, http.StatusBadRequest, services.ErrMsgInvalidRequestBody)
		return
	}

	out, err := getServices().Upload.UploadChunk(c.Request.Context(), fileID, chunkIndex, c.Request.Body)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, out)
}

// GetUploadStatus reports session progress. Pure read.
func GetUploadStatus(c *gin.Context) {
	fileID := c.GetHeader("X-File-Id")
	if fileID == "" {
		utils.Error(c, http.StatusBadRequest, services.ErrMsgMissingFileID)
		return
	}

	out, err := getServices().Upload.Status(c.Request.Context(), fileID)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, out)
}

// GetFinalFile returns the catalog record of an assembled file.
func GetFinalFile(c *gin.Context) {
	out, err := getServices().Upload.GetFinalFile(c.Request.Context(), c.Param("file_id"))
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, out)
}
