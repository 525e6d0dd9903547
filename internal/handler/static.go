package handler

import (
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
)

var mimeTypes = map[string]string{
	".html": "text/html",
	".js":   "application/javascript",
	".css":  "text/css",
	".json": "application/json",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".gif":  "image/gif",
	".svg":  "image/svg+xml",
	".ico":  "image/x-icon",
}

// ContentTypeFor returns the content type served for a file name.
func ContentTypeFor(name string) string {
	if ct, ok := mimeTypes[strings.ToLower(path.Ext(name))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// StaticHandler serves the front-end bundle from a directory.
type StaticHandler struct {
	files fs.FS
	index string
}

func NewStaticHandler(root, index string) *StaticHandler {
	return NewStaticHandlerFS(os.DirFS(root), index)
}

func NewStaticHandlerFS(files fs.FS, index string) *StaticHandler {
	return &StaticHandler{files: files, index: index}
}

func (h *StaticHandler) Serve(c *gin.Context) {
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	name, ok := h.resolve(c.Request.URL.Path)
	if !ok {
		h.notFound(c)
		return
	}

	body, err := fs.ReadFile(h.files, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			h.notFound(c)
			return
		}
		_ = c.Error(err)
		c.String(http.StatusInternalServerError, "Erreur serveur")
		return
	}
	c.Data(http.StatusOK, ContentTypeFor(name), body)
}

func (h *StaticHandler) notFound(c *gin.Context) {
	c.Data(http.StatusNotFound, "text/html", []byte("<h1>404 - Fichier non trouvé</h1>"))
}

// resolve maps a request path to a name inside the bundle. Paths with a ".."
// segment never resolve.
func (h *StaticHandler) resolve(urlPath string) (string, bool) {
	for _, seg := range strings.Split(urlPath, "/") {
		if seg == ".." {
			return "", false
		}
	}
	name := strings.TrimPrefix(path.Clean("/"+urlPath), "/")
	if name == "" {
		name = h.index
	}
	if !fs.ValidPath(name) {
		return "", false
	}
	return name, true
}
