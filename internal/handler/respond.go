package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// jsonSuccess writes the AJAX envelope for a successful operation.
func jsonSuccess(c *gin.Context, data gin.H) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

// jsonError writes the AJAX envelope for a failed operation.
func jsonError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "data": gin.H{"message": message}})
}

// wantsJSON reports whether the client expects the AJAX envelope rather than
// a redirect-after-write response.
func wantsJSON(c *gin.Context) bool {
	if c.GetHeader("X-Requested-With") == "XMLHttpRequest" {
		return true
	}
	return strings.Contains(c.GetHeader("Accept"), "application/json")
}

// safeRedirectTarget constrains a redirect_to override to same-origin URLs:
// a relative path, or an absolute URL whose host matches the request's.
// Anything else falls back to fallback, closing the open-redirect hole.
func safeRedirectTarget(c *gin.Context, target, fallback string) string {
	if target == "" {
		return fallback
	}
	if strings.HasPrefix(target, "/") && !strings.HasPrefix(target, "//") {
		return target
	}
	for _, scheme := range []string{"https://", "http://"} {
		if rest, ok := strings.CutPrefix(target, scheme); ok {
			if host, _, _ := strings.Cut(rest, "/"); host == c.Request.Host {
				return target
			}
			return fallback
		}
	}
	return fallback
}

// referer returns the submitting page's URL, or "/" when the header is
// absent.
func referer(c *gin.Context) string {
	if ref := c.Request.Referer(); ref != "" {
		return ref
	}
	return "/"
}
