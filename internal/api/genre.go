package api

import (
	"net/http" // HTTP status codes

	"reviewhub/internal/domain" // Domain models
	"reviewhub/internal/middleware"
	"reviewhub/internal/permissions" // Access policies

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// GenreRequest is the create payload for a genre
type GenreRequest struct {
	Name string `json:"name" binding:"required,max=256"` // Display name
	Slug string `json:"slug" binding:"required,max=50"`  // Unique slug
}

// ListGenresHandler returns genres, optionally filtered by a substring
// search on the name. Public.
func ListGenresHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := parsePage(c)                  // Pagination parameters
		query := db.Model(&domain.Genre{}) // Start building the query
		if search := c.Query("search"); search != "" {
			query = query.Where("name LIKE ?", "%"+search+"%") // Filter by name substring
		}
		var total int64 // Total genre count
		if err := query.Count(&total).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count genres"})
			return
		}
		var genres []domain.Genre // Page of genres
		if err := query.Order("id").Offset(p.Offset).Limit(p.PageSize).Find(&genres).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch genres"})
			return
		}
		c.JSON(http.StatusOK, paginated(newGenreResponses(genres), p, total)) // Return the page
	}
}

// CreateGenreHandler creates a genre. Admin or superuser only.
func CreateGenreHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := currentUser(c) // Caller, nil when anonymous
		if !permissions.AdminOrReadOnly(u, true) {
			denied(c, u) // 401 anonymous, 403 otherwise
			return
		}
		var req GenreRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		// Validate slug characters
		if !slugRe.MatchString(req.Slug) {
			validationFailed(c, fieldErrors{"slug": {"Enter a valid slug."}})
			return
		}
		genre := domain.Genre{Name: req.Name, Slug: req.Slug}
		// The unique index on slug is the authority for duplicates
		if err := db.Create(&genre).Error; err != nil {
			validationFailed(c, fieldErrors{"slug": {"Genre with this slug already exists."}})
			return
		}
		logrus.WithFields(logrus.Fields{
			"slug":       genre.Slug,                 // Genre slug
			"user_id":    u.ID,                       // Acting user
			"request_id": middleware.GetRequestID(c), // Request correlation id
		}).Info("Genre created")
		c.JSON(http.StatusCreated, GenreResponse{Name: genre.Name, Slug: genre.Slug})
	}
}

// DeleteGenreHandler deletes a genre by slug, detaching it from any titles.
// Admin or superuser only.
func DeleteGenreHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := currentUser(c) // Caller, nil when anonymous
		if !permissions.AdminOrReadOnly(u, true) {
			denied(c, u) // 401 anonymous, 403 otherwise
			return
		}
		var genre domain.Genre // Look up the genre by slug
		if err := db.Where("slug = ?", c.Param("slug")).First(&genre).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Genre not found"})
			return
		}
		// Remove join rows and delete in one transaction
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec("DELETE FROM title_genres WHERE genre_id = ?", genre.ID).Error; err != nil {
				return err // Return error to rollback
			}
			return tx.Delete(&genre).Error
		})
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"slug":       genre.Slug,                 // Genre slug
				"user_id":    u.ID,                       // Acting user
				"request_id": middleware.GetRequestID(c), // Request correlation id
				"error":      err.Error(),                // Error message
			}).Error("Genre delete failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete genre"})
			return
		}
		c.Status(http.StatusNoContent) // Deleted
	}
}
