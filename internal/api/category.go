package api

import (
	"net/http" // HTTP status codes
	"regexp"   // Slug validation

	"reviewhub/internal/domain" // Domain models
	"reviewhub/internal/middleware"
	"reviewhub/internal/permissions" // Access policies

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// CategoryRequest is the create payload for a category
type CategoryRequest struct {
	Name string `json:"name" binding:"required,max=256"` // Display name
	Slug string `json:"slug" binding:"required,max=50"`  // Unique slug
}

var slugRe = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`) // Allowed slug characters

// ListCategoriesHandler returns categories, optionally filtered by a
// substring search on the name. Public.
func ListCategoriesHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := parsePage(c)                     // Pagination parameters
		query := db.Model(&domain.Category{}) // Start building the query
		if search := c.Query("search"); search != "" {
			query = query.Where("name LIKE ?", "%"+search+"%") // Filter by name substring
		}
		var total int64 // Total category count
		if err := query.Count(&total).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count categories"})
			return
		}
		var categories []domain.Category // Page of categories
		if err := query.Order("id").Offset(p.Offset).Limit(p.PageSize).Find(&categories).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch categories"})
			return
		}
		// Map categories to response format
		resp := make([]CategoryResponse, len(categories))
		for i, cat := range categories {
			resp[i] = CategoryResponse{Name: cat.Name, Slug: cat.Slug}
		}
		c.JSON(http.StatusOK, paginated(resp, p, total)) // Return the page
	}
}

// CreateCategoryHandler creates a category. Admin or superuser only.
func CreateCategoryHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := currentUser(c) // Caller, nil when anonymous
		if !permissions.AdminOrReadOnly(u, true) {
			denied(c, u) // 401 anonymous, 403 otherwise
			return
		}
		var req CategoryRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		// Validate slug characters
		if !slugRe.MatchString(req.Slug) {
			validationFailed(c, fieldErrors{"slug": {"Enter a valid slug."}})
			return
		}
		category := domain.Category{Name: req.Name, Slug: req.Slug}
		// The unique index on slug is the authority for duplicates
		if err := db.Create(&category).Error; err != nil {
			validationFailed(c, fieldErrors{"slug": {"Category with this slug already exists."}})
			return
		}
		logrus.WithFields(logrus.Fields{
			"slug":       category.Slug,              // Category slug
			"user_id":    u.ID,                       // Acting user
			"request_id": middleware.GetRequestID(c), // Request correlation id
		}).Info("Category created")
		c.JSON(http.StatusCreated, CategoryResponse{Name: category.Name, Slug: category.Slug})
	}
}

// DeleteCategoryHandler deletes a category by slug. Referencing titles keep
// existing with a null category. Admin or superuser only.
func DeleteCategoryHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := currentUser(c) // Caller, nil when anonymous
		if !permissions.AdminOrReadOnly(u, true) {
			denied(c, u) // 401 anonymous, 403 otherwise
			return
		}
		var category domain.Category // Look up the category by slug
		if err := db.Where("slug = ?", c.Param("slug")).First(&category).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
			return
		}
		// Null out referencing titles and delete in one transaction
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&domain.Title{}).Where("category_id = ?", category.ID).Update("category_id", nil).Error; err != nil {
				return err // Return error to rollback
			}
			return tx.Delete(&category).Error
		})
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"slug":       category.Slug,              // Category slug
				"user_id":    u.ID,                       // Acting user
				"request_id": middleware.GetRequestID(c), // Request correlation id
				"error":      err.Error(),                // Error message
			}).Error("Category delete failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete category"})
			return
		}
		c.Status(http.StatusNoContent) // Deleted
	}
}
