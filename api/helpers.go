package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/paperbridge/bookstore-go/models"
)

const appContextKey = "app"

// AppMiddleware attaches the service container to every request
func AppMiddleware(app *App) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(appContextKey, app)
		c.Next()
	}
}

// getApp retrieves the service container from the request context
func getApp(c *gin.Context) (*App, error) {
	value, exists := c.Get(appContextKey)
	if !exists {
		return nil, fmt.Errorf("app context missing")
	}
	app, ok := value.(*App)
	if !ok {
		return nil, fmt.Errorf("invalid app context")
	}
	return app, nil
}

// getSession resolves the session from the request header
func getSession(c *gin.Context, app *App) (*models.SessionData, error) {
	sessionID := c.GetHeader("X-Bookstore-Session-ID")
	if sessionID == "" {
		return nil, fmt.Errorf("missing X-Bookstore-Session-ID header")
	}
	session, exists := app.Sessions.GetSession(sessionID)
	if !exists {
		return nil, fmt.Errorf("session not found: %s", sessionID)
	}
	return session, nil
}
