package api

import (
	"net/http" // HTTP status codes
	"time"     // Response timestamps

	"reviewhub/internal/domain"     // Domain models
	"reviewhub/internal/middleware" // Context helpers

	"github.com/gin-gonic/gin" // Gin web framework
)

// CategoryResponse is the public shape of a category
type CategoryResponse struct {
	Name string `json:"name"` // Display name
	Slug string `json:"slug"` // Unique slug
}

// GenreResponse is the public shape of a genre
type GenreResponse struct {
	Name string `json:"name"` // Display name
	Slug string `json:"slug"` // Unique slug
}

// TitleResponse is the public shape of a title; genres and category are
// expanded to full objects and rating is the rounded review average
type TitleResponse struct {
	ID          uint              `json:"id"`          // Title ID
	Name        string            `json:"name"`        // Display name
	Year        int               `json:"year"`        // Release year
	Rating      *int              `json:"rating"`      // Rounded average score, null without reviews
	Description string            `json:"description"` // Optional description
	Genre       []GenreResponse   `json:"genre"`       // Expanded genres
	Category    *CategoryResponse `json:"category"`    // Expanded category, null when unset
}

// ReviewResponse is the public shape of a review
type ReviewResponse struct {
	ID      uint      `json:"id"`       // Review ID
	Text    string    `json:"text"`     // Review body
	Author  string    `json:"author"`   // Author username
	Score   int       `json:"score"`    // Integer score in [1,10]
	PubDate time.Time `json:"pub_date"` // Creation timestamp
}

// CommentResponse is the public shape of a comment
type CommentResponse struct {
	ID      uint      `json:"id"`       // Comment ID
	Text    string    `json:"text"`     // Comment body
	Author  string    `json:"author"`   // Author username
	PubDate time.Time `json:"pub_date"` // Creation timestamp
}

// UserResponse is the shape of a user record for both the admin routes
// and the self-service profile route
type UserResponse struct {
	Username    string `json:"username"`     // Unique username
	Email       string `json:"email"`        // Unique email
	FirstName   string `json:"first_name"`   // Optional first name
	Bio         string `json:"bio"`          // Free-text biography
	Role        string `json:"role"`         // user, moderator or admin
	IsSuperuser bool   `json:"is_superuser"` // Platform-level flag
}

// newUserResponse maps a user row to its public shape
func newUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		Username:    u.Username,
		Email:       u.Email,
		FirstName:   u.FirstName,
		Bio:         u.Bio,
		Role:        u.Role,
		IsSuperuser: u.IsSuperuser,
	}
}

// newGenreResponses maps genre rows to their public shape
func newGenreResponses(genres []domain.Genre) []GenreResponse {
	resp := make([]GenreResponse, len(genres))
	for i, g := range genres {
		resp[i] = GenreResponse{Name: g.Name, Slug: g.Slug}
	}
	return resp
}

// fieldErrors is a per-field validation error payload, e.g.
// {"slug": ["Category with this slug already exists."]}
type fieldErrors map[string][]string

// validationFailed responds 400 with field-scoped error messages
func validationFailed(c *gin.Context, errs fieldErrors) {
	c.JSON(http.StatusBadRequest, errs)
}

// denied answers a permission failure: 401 for an anonymous caller,
// 403 for an authenticated caller with insufficient rights
func denied(c *gin.Context, u *domain.User) {
	if u == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}
	c.JSON(http.StatusForbidden, gin.H{"error": "Permission denied"})
}

// currentUser returns the authenticated caller or nil
func currentUser(c *gin.Context) *domain.User {
	return middleware.CurrentUser(c)
}
