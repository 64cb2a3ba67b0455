package middleware

import (
	"net/http" // HTTP status codes
	"strings"  // String manipulation

	"reviewhub/internal/domain" // User model
	"reviewhub/internal/utils"  // JWT utility functions

	"github.com/gin-gonic/gin" // Gin web framework
	"gorm.io/gorm"             // GORM ORM library
)

// ContextUserKey is the gin context key holding the authenticated *domain.User
const ContextUserKey = "currentUser"

// RequireAuth validates the bearer token and loads the caller from the
// database. The role is read from the user row on every request, never
// from the token. Requests without valid credentials are rejected.
func RequireAuth(db *gorm.DB, secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := resolveUser(c, db, secret)
		if !ok {
			// Missing or invalid credentials on a protected route
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}
		c.Set(ContextUserKey, user) // Store the caller in context
		c.Next()                    // Proceed to the next handler
	}
}

// OptionalAuth loads the caller when a bearer token is present and leaves
// the request anonymous otherwise. A token that is present but invalid is
// still rejected.
func OptionalAuth(db *gorm.DB, secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		// No credentials at all: continue as an anonymous caller
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}
		user, ok := resolveUser(c, db, secret)
		if !ok {
			// Credentials were presented but do not validate
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		c.Set(ContextUserKey, user) // Store the caller in context
		c.Next()                    // Proceed to the next handler
	}
}

// resolveUser parses the bearer token and fetches the matching user row
func resolveUser(c *gin.Context, db *gorm.DB, secret string) (*domain.User, bool) {
	authHeader := c.GetHeader("Authorization") // Get Authorization header
	// Check if the Authorization header is present and properly formatted
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		return nil, false
	}
	tokenStr := strings.TrimPrefix(authHeader, "Bearer ") // Extract the token string
	claims, err := utils.ParseJWT(tokenStr, secret)       // Parse the JWT token
	if err != nil {
		return nil, false // Invalid or expired token
	}
	var user domain.User // Fetch user from database
	if err := db.First(&user, claims.UserID).Error; err != nil {
		return nil, false // Token subject no longer exists
	}
	return &user, true
}

// CurrentUser returns the authenticated caller from the gin context, or
// nil for an anonymous request
func CurrentUser(c *gin.Context) *domain.User {
	v, exists := c.Get(ContextUserKey)
	if !exists {
		return nil // Anonymous request
	}
	user, _ := v.(*domain.User)
	return user
}
