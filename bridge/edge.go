package bridge

import (
	"path"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/paperbridge/bookstore-go/utils"
)

// IdentityCookie carries the stable visitor identifier between requests
const IdentityCookie = "bookstore_uid"

var assetPrefixes = []string{"/media/", "/static/", "/assets/", "/_astro/"}

// isAssetPath reports whether a request path serves a static asset; such
// requests skip personalization entirely for latency
func isAssetPath(requestPath string) bool {
	for _, prefix := range assetPrefixes {
		if strings.HasPrefix(requestPath, prefix) {
			return true
		}
	}
	return path.Ext(requestPath) != ""
}

// EdgeMiddleware applies variant selection to inbound page requests.
// Personalization is strictly additive: on any failure the original request
// proceeds unmodified. Personalized responses are never cached.
func EdgeMiddleware(service *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if isAssetPath(c.Request.URL.Path) {
			c.Next()
			return
		}

		visitorID, err := c.Cookie(IdentityCookie)
		if err != nil || visitorID == "" {
			visitorID = utils.GenerateULID()
		}

		// Copy personalization identity onto the response
		c.SetCookie(IdentityCookie, visitorID, int((365 * 24 * time.Hour).Seconds()), "/", "", false, true)
		c.Header("Cache-Control", "no-store")

		if handle := service.GetInstance(); handle != nil {
			if variant, ok := service.GetVariant(c.Request.Context(), visitorID); ok {
				query := c.Request.URL.Query()
				query.Set("variant", variant)
				c.Request.URL.RawQuery = query.Encode()
			}
		}

		c.Set("visitorId", visitorID)
		c.Next()
	}
}

// VisitorID extracts the identity established by the edge middleware,
// falling back to the session header for API-only clients
func VisitorID(c *gin.Context) string {
	if id, exists := c.Get("visitorId"); exists {
		if visitorID, ok := id.(string); ok && visitorID != "" {
			return visitorID
		}
	}
	if visitorID, err := c.Cookie(IdentityCookie); err == nil && visitorID != "" {
		return visitorID
	}
	if visitorID := c.GetHeader("X-Bookstore-Visitor-ID"); visitorID != "" {
		return visitorID
	}
	return ""
}
