package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

// 5MB cap on uploaded images
const maxMediaSize = 5 << 20

// UploadMedia accepts a multipart image upload and returns its public URL
// POST /api/media
func (h *Handlers) UploadMedia(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	if h.uploader == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "media_storage_not_configured"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_file", "message": err.Error()})
		return
	}
	if fileHeader.Size > maxMediaSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file_too_large", "max_bytes": maxMediaSize})
		return
	}
	if !isValidImageFile(fileHeader.Filename) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported_file_type"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed_to_read_file", "message": err.Error()})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxMediaSize))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed_to_read_file", "message": err.Error()})
		return
	}

	result, err := h.uploader.UploadMedia(c.Request.Context(), data, user.ID, fileHeader.Filename)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upload_failed", "message": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"url":  result.URL,
		"key":  result.Key,
		"size": result.Size,
	})
}

// UploadAvatar accepts a profile picture upload and sets it on the user
// POST /api/users/me/avatar
func (h *Handlers) UploadAvatar(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	if h.uploader == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "media_storage_not_configured"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_file", "message": err.Error()})
		return
	}
	if fileHeader.Size > maxMediaSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file_too_large", "max_bytes": maxMediaSize})
		return
	}
	if !isValidImageFile(fileHeader.Filename) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported_file_type"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed_to_read_file", "message": err.Error()})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxMediaSize))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed_to_read_file", "message": err.Error()})
		return
	}

	result, err := h.uploader.UploadAvatar(c.Request.Context(), data, user.ID, fileHeader.Filename)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upload_failed", "message": err.Error()})
		return
	}

	user.AvatarURL = result.URL
	if err := h.users.UpdateUser(c.Request.Context(), user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed_to_update_profile", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"avatar_url": result.URL})
}
