package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// DecompressRequest inflates gzip encoded request bodies. The inflated body is
// capped at limit bytes; reads past it fail. A non-positive limit disables the cap.
func DecompressRequest(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		encoding := strings.ToLower(c.GetHeader("Content-Encoding"))
		if !strings.Contains(encoding, "gzip") {
			c.Next()
			return
		}

		originalBody := c.Request.Body
		reader, err := gzip.NewReader(originalBody)
		if err != nil {
			abortJSON(c, http.StatusBadRequest, "malformed gzip body")
			return
		}
		defer reader.Close()
		defer originalBody.Close()

		var body io.ReadCloser = io.NopCloser(reader)
		if limit > 0 {
			body = http.MaxBytesReader(c.Writer, body, limit)
		}
		c.Request.Body = body
		c.Request.Header.Del("Content-Encoding")
		c.Request.ContentLength = -1
		c.Next()
	}
}

func abortJSON(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
