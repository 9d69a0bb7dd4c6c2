package handlers

import (
	"io"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/leduongnhattt/Food-Delivery-App-sub002/internal/services"
	"github.com/leduongnhattt/Food-Delivery-App-sub002/pkg/logger"
	"github.com/leduongnhattt/Food-Delivery-App-sub002/pkg/response"
)

const maxImageSize = 5 << 20 // 5 MB

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

type UploadHandler struct {
	storage *services.StorageService
}

func NewUploadHandler(storage *services.StorageService) *UploadHandler {
	return &UploadHandler{storage: storage}
}

// UploadImage accepts a multipart image and returns its public URL.
// POST /api/uploads/image
func (h *UploadHandler) UploadImage(c *gin.Context) {
	if !h.storage.IsEnabled() {
		response.Error(c, response.NewBadRequest("image storage is not configured"))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "missing 'file' form field")
		return
	}
	if fileHeader.Size > maxImageSize {
		response.BadRequest(c, "image exceeds 5MB limit")
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if !allowedImageTypes[strings.ToLower(contentType)] {
		response.BadRequest(c, "only jpeg, png and webp images are allowed")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.ServerError(c, "failed to read upload")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxImageSize+1))
	if err != nil {
		response.ServerError(c, "failed to read upload")
		return
	}
	if len(data) > maxImageSize {
		response.BadRequest(c, "image exceeds 5MB limit")
		return
	}

	url, err := h.storage.UploadImage(c.Request.Context(), fileHeader.Filename, data, contentType)
	if err != nil {
		logger.Errorf("[Upload] Image upload failed: %v", err)
		response.Error(c, response.NewUpstreamError("image upload failed"))
		return
	}

	response.Success(c, gin.H{"url": url})
}
