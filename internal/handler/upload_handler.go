package handler

import (
	"net/http"

	"linkup-chat/internal/services"
	"linkup-chat/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

// UploadHandler handles attachment upload endpoints.
type UploadHandler struct {
	uploads *services.UploadService
}

// NewUploadHandler creates an upload handler.
func NewUploadHandler(uploads *services.UploadService) *UploadHandler {
	return &UploadHandler{uploads: uploads}
}

// Create issues a presigned PUT for one attachment and the public URL the
// message will carry.
func (h *UploadHandler) Create(c *gin.Context) {
	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	var req httpdto.CreateUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	res, err := h.uploads.CreatePresignedUpload(c.Request.Context(), services.PresignInput{
		UploaderID:  userID,
		FileName:    req.FileName,
		ContentType: req.ContentType,
		FileSize:    req.FileSize,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.CreateUploadResponse{
		UploadURL:     res.UploadURL,
		Headers:       res.Headers,
		AttachmentURL: res.AttachmentURL,
	}))
}
