package handler

import (
	"errors"
	"mime"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/flicky/agri-backoffice/internal/storage"
)

// MediaHandler streams uploaded objects back under their public URL.
type MediaHandler struct {
	objects storage.ObjectStorage
}

func NewMediaHandler(objects storage.ObjectStorage) *MediaHandler {
	return &MediaHandler{objects: objects}
}

func (h *MediaHandler) Serve(c *gin.Context) {
	objectPath := storage.CleanPath(c.Param("path"))
	if objectPath == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	obj, err := h.objects.Open(c.Request.Context(), objectPath)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		respondError(c, err)
		return
	}
	defer obj.Close()

	c.DataFromReader(http.StatusOK, obj.Size, servedType(obj.ContentType), obj, map[string]string{
		"Cache-Control":          "public, max-age=86400",
		"X-Content-Type-Options": "nosniff",
	})
}

// servedType passes raster image types through; anything else is served as
// a download so stored markup never renders on this origin.
func servedType(stored string) string {
	ct, _, err := mime.ParseMediaType(stored)
	if err == nil && strings.HasPrefix(ct, "image/") && ct != "image/svg+xml" {
		return ct
	}
	return "application/octet-stream"
}
