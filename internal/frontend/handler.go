package frontend

import (
	"io/fs"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// NewStaticHandler serves the embedded stylesheet under prefix
func NewStaticHandler(staticFS fs.FS, prefix string) gin.HandlerFunc {
	fileServer := http.StripPrefix(prefix, http.FileServer(http.FS(staticFS)))

	return func(c *gin.Context) {
		name := strings.TrimPrefix(c.Request.URL.Path, prefix)
		name = strings.TrimPrefix(name, "/")
		if name == "" {
			c.AbortWithStatus(http.StatusNotFound)
			return
		}

		if _, err := fs.Stat(staticFS, name); err != nil {
			c.AbortWithStatus(http.StatusNotFound)
			return
		}

		c.Header("Cache-Control", "public, max-age=3600")
		fileServer.ServeHTTP(c.Writer, c.Request)
	}
}
