package api

import (
	"net/http"
	"time"

	"leadharvest/internal/validation"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const userIDContextKey = "userID"

// UserAuthMiddleware resolves the caller from the X-User-ID header. Identity
// itself lives upstream; the orchestrator trusts the gateway that fronts it.
func UserAuthMiddleware(validator *validation.APIValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, result := validator.ValidateUUIDParam("X-User-ID", c.GetHeader("X-User-ID"))
		if !result.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":             "Missing or invalid X-User-ID header",
				"validation_errors": result.Errors,
			})
			c.Abort()
			return
		}

		c.Set(userIDContextKey, userID)
		c.Next()
	}
}

// CallerID returns the authenticated user set by UserAuthMiddleware.
func CallerID(c *gin.Context) uuid.UUID {
	if v, exists := c.Get(userIDContextKey); exists {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}

// SecurityHeadersMiddleware adds standard security and CORS headers.
func SecurityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-User-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// StandardErrorResponse fills in a body for error statuses written bare.
func StandardErrorResponse() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Status() >= 400 && !c.Writer.Written() {
			c.JSON(c.Writer.Status(), gin.H{
				"error":     "An error occurred",
				"timestamp": time.Now().UTC().Format(time.RFC3339),
				"path":      c.Request.URL.Path,
			})
		}
	}
}
