package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"wastemarket/mobile/internal/marketplace"
	"wastemarket/mobile/internal/models"
)

const uploadField = "image"

func (h HandlerSet) UploadImage(c *gin.Context) {
	user := currentUser(c)

	file, header, err := c.Request.FormFile(uploadField)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Success: false, Message: "No image provided"})
		return
	}
	defer file.Close()

	result, err := h.uploads.Upload(c.Request.Context(), marketplace.UploadInput{
		Uploader: user,
		File:     file,
		Header:   header.Header,
	})
	if err != nil {
		h.log.Warn().Err(err).Str("user_id", user.ID).Str("filename", header.Filename).Msg("upload rejected")
		h.fail(c, err)
		return
	}

	url := result.URL
	if url == "" {
		url = mediaURL(c, result.Key)
	}

	c.JSON(http.StatusOK, models.UploadResponse{
		Success:  true,
		Message:  "Image uploaded successfully",
		ImageURL: url,
	})
}

func (h HandlerSet) ServeMedia(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	if key == "" || strings.Contains(key, "..") {
		NotFound(c)
		return
	}

	obj, err := h.uploads.Open(c.Request.Context(), key)
	if err != nil {
		h.fail(c, err)
		return
	}
	defer obj.Body.Close()

	c.DataFromReader(http.StatusOK, obj.Size, obj.ContentType, obj.Body, map[string]string{
		"Cache-Control":          "public, max-age=31536000, immutable",
		"X-Content-Type-Options": "nosniff",
	})
}

// mediaURL addresses key through this API when the object store has no
// public URL of its own.
func mediaURL(c *gin.Context, key string) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + c.Request.Host + "/api/media/" + key
}
