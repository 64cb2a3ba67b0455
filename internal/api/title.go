package api

import (
	"context"  // Context for Redis operations
	"math"     // Rating rounding
	"net/http" // HTTP status codes
	"strconv"  // String conversion
	"time"     // Cache TTL and year validation

	"reviewhub/internal/domain" // Domain models
	"reviewhub/internal/middleware"
	"reviewhub/internal/permissions" // Access policies
	"reviewhub/internal/utils"       // Cache helpers

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"gorm.io/gorm"                 // GORM ORM library
)

// TitleRequest is the create payload for a title; genres and category are
// referenced by slug
type TitleRequest struct {
	Name        string   `json:"name" binding:"required,max=256"`  // Display name
	Year        int      `json:"year" binding:"required"`          // Release year
	Description string   `json:"description"`                      // Optional description
	Genre       []string `json:"genre" binding:"required,min=1"`   // Genre slugs, at least one
	Category    string   `json:"category"`                         // Category slug, optional
}

// TitleUpdateRequest is the partial-update payload for a title
type TitleUpdateRequest struct {
	Name        *string   `json:"name"`        // New name
	Year        *int      `json:"year"`        // New release year
	Description *string   `json:"description"` // New description
	Genre       *[]string `json:"genre"`       // Replacement genre slugs
	Category    *string   `json:"category"`    // New category slug, empty clears it
}

// titleCacheKey is the redis key for a cached title detail response
func titleCacheKey(id uint) string {
	return "title:" + strconv.Itoa(int(id))
}

// invalidateTitleCache drops the cached detail response for a title
func invalidateTitleCache(rdb *redis.Client, id uint) {
	_ = utils.DeleteCache(context.Background(), rdb, titleCacheKey(id))
}

// titleRatings returns the rounded average review score per title id;
// titles without reviews are absent from the map
func titleRatings(db *gorm.DB, ids []uint) (map[uint]int, error) {
	ratings := make(map[uint]int)
	if len(ids) == 0 {
		return ratings, nil
	}
	var rows []struct {
		TitleID uint    // Title the average belongs to
		Avg     float64 // Mean score over its reviews
	}
	err := db.Model(&domain.Review{}).
		Select("title_id, AVG(score) AS avg").
		Where("title_id IN ?", ids).
		Group("title_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		ratings[r.TitleID] = int(math.Round(r.Avg)) // Rounded in Go so every SQL dialect agrees
	}
	return ratings, nil
}

// newTitleResponse maps a title row (with preloaded relations) and its
// optional rating to the response shape
func newTitleResponse(t *domain.Title, rating *int) TitleResponse {
	resp := TitleResponse{
		ID:          t.ID,
		Name:        t.Name,
		Year:        t.Year,
		Rating:      rating,
		Description: t.Description,
		Genre:       newGenreResponses(t.Genres),
	}
	if t.Category != nil {
		resp.Category = &CategoryResponse{Name: t.Category.Name, Slug: t.Category.Slug}
	}
	return resp
}

// resolveGenres maps genre slugs to rows, failing when any slug is unknown
func resolveGenres(db *gorm.DB, slugs []string) ([]domain.Genre, bool) {
	var genres []domain.Genre
	if err := db.Where("slug IN ?", slugs).Find(&genres).Error; err != nil {
		return nil, false
	}
	// Every requested slug must resolve
	found := make(map[string]bool, len(genres))
	for _, g := range genres {
		found[g.Slug] = true
	}
	for _, s := range slugs {
		if !found[s] {
			return nil, false
		}
	}
	return genres, true
}

// ListTitlesHandler returns titles with expanded category/genres and the
// rating aggregate, filterable by name, year, genre slug and category
// slug. Public.
func ListTitlesHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := parsePage(c)                                          // Pagination parameters
		query := db.Model(&domain.Title{}).Select("titles.*")      // Start building the query
		if name := c.Query("name"); name != "" {
			query = query.Where("titles.name LIKE ?", "%"+name+"%") // Filter by name substring
		}
		if year := c.Query("year"); year != "" {
			query = query.Where("titles.year = ?", year) // Filter by exact year
		}
		if slug := c.Query("category"); slug != "" {
			// Filter by category slug
			query = query.Joins("JOIN categories ON categories.id = titles.category_id").
				Where("categories.slug = ?", slug)
		}
		if slug := c.Query("genre"); slug != "" {
			// Filter by genre slug through the join table
			query = query.Joins("JOIN title_genres ON title_genres.title_id = titles.id").
				Joins("JOIN genres ON genres.id = title_genres.genre_id").
				Where("genres.slug = ?", slug)
		}
		var total int64 // Total title count under the filters
		if err := query.Count(&total).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count titles"})
			return
		}
		var titles []domain.Title // Page of titles with relations
		if err := query.Preload("Category").Preload("Genres").
			Order("titles.id").Offset(p.Offset).Limit(p.PageSize).
			Find(&titles).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch titles"})
			return
		}
		// One grouped query for the page's rating aggregates
		ids := make([]uint, len(titles))
		for i, t := range titles {
			ids[i] = t.ID
		}
		ratings, err := titleRatings(db, ids)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to aggregate ratings"})
			return
		}
		resp := make([]TitleResponse, len(titles))
		for i := range titles {
			var rating *int
			if r, ok := ratings[titles[i].ID]; ok {
				rating = &r // Null stays null for reviewless titles
			}
			resp[i] = newTitleResponse(&titles[i], rating)
		}
		c.JSON(http.StatusOK, paginated(resp, p, total)) // Return the page
	}
}

// GetTitleHandler returns a single title with its rating, served from the
// redis cache when possible. Public.
func GetTitleHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("title_id")) // Parse the route id
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Title not found"})
			return
		}
		ctx := context.Background()         // Context for Redis operations
		cacheKey := titleCacheKey(uint(id)) // Cache key for this title
		var cached TitleResponse
		found, cacheErr := utils.GetCache(ctx, rdb, cacheKey, &cached)
		if cacheErr == nil && found {
			c.JSON(http.StatusOK, cached) // Serve from cache
			return
		}
		var title domain.Title // Fetch with relations
		if err := db.Preload("Category").Preload("Genres").First(&title, id).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Title not found"})
			return
		}
		ratings, err := titleRatings(db, []uint{title.ID})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to aggregate ratings"})
			return
		}
		var rating *int
		if r, ok := ratings[title.ID]; ok {
			rating = &r
		}
		resp := newTitleResponse(&title, rating)
		_ = utils.SetCache(ctx, rdb, cacheKey, resp, 60*time.Second) // Cache for 60 seconds
		c.JSON(http.StatusOK, resp)
	}
}

// CreateTitleHandler creates a title. Admin or superuser only.
func CreateTitleHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := currentUser(c) // Caller, nil when anonymous
		if !permissions.AdminOrReadOnly(u, true) {
			denied(c, u) // 401 anonymous, 403 otherwise
			return
		}
		var req TitleRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		// The release year must not be in the future
		if req.Year > time.Now().Year() {
			validationFailed(c, fieldErrors{"year": {"Year must not be in the future."}})
			return
		}
		genres, ok := resolveGenres(db, req.Genre) // Resolve genre slugs
		if !ok {
			validationFailed(c, fieldErrors{"genre": {"Unknown genre slug."}})
			return
		}
		title := domain.Title{
			Name:        req.Name,        // Display name
			Year:        req.Year,        // Release year
			Description: req.Description, // Optional description
			Genres:      genres,          // Resolved genre rows
		}
		if req.Category != "" {
			var category domain.Category // Resolve the category slug
			if err := db.Where("slug = ?", req.Category).First(&category).Error; err != nil {
				validationFailed(c, fieldErrors{"category": {"Unknown category slug."}})
				return
			}
			title.CategoryID = &category.ID
			title.Category = &category
		}
		// Create the title and its genre join rows
		if err := db.Create(&title).Error; err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id":    u.ID,                       // Acting user
				"request_id": middleware.GetRequestID(c), // Request correlation id
				"error":      err.Error(),                // Error message
			}).Error("Title create failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create title"})
			return
		}
		logrus.WithFields(logrus.Fields{
			"title_id":   title.ID,                   // New title
			"user_id":    u.ID,                       // Acting user
			"request_id": middleware.GetRequestID(c), // Request correlation id
		}).Info("Title created")
		c.JSON(http.StatusCreated, newTitleResponse(&title, nil)) // A fresh title has no reviews
	}
}

// UpdateTitleHandler partially updates a title. Admin or superuser only.
func UpdateTitleHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := currentUser(c) // Caller, nil when anonymous
		if !permissions.AdminOrReadOnly(u, true) {
			denied(c, u) // 401 anonymous, 403 otherwise
			return
		}
		var title domain.Title // Look up the target title
		if err := db.First(&title, c.Param("title_id")).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Title not found"})
			return
		}
		var req TitleUpdateRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		// The release year must not be in the future
		if req.Year != nil && *req.Year > time.Now().Year() {
			validationFailed(c, fieldErrors{"year": {"Year must not be in the future."}})
			return
		}
		updates := map[string]any{} // Scalar column updates
		if req.Name != nil {
			updates["name"] = *req.Name
		}
		if req.Year != nil {
			updates["year"] = *req.Year
		}
		if req.Description != nil {
			updates["description"] = *req.Description
		}
		var genres []domain.Genre // Replacement genres, when provided
		if req.Genre != nil {
			if len(*req.Genre) == 0 {
				validationFailed(c, fieldErrors{"genre": {"A title needs at least one genre."}})
				return
			}
			var ok bool
			if genres, ok = resolveGenres(db, *req.Genre); !ok {
				validationFailed(c, fieldErrors{"genre": {"Unknown genre slug."}})
				return
			}
		}
		if req.Category != nil {
			if *req.Category == "" {
				updates["category_id"] = nil // Clear the category
			} else {
				var category domain.Category // Resolve the new category slug
				if err := db.Where("slug = ?", *req.Category).First(&category).Error; err != nil {
					validationFailed(c, fieldErrors{"category": {"Unknown category slug."}})
					return
				}
				updates["category_id"] = category.ID
			}
		}
		// Apply scalar updates and the genre replacement atomically
		err := db.Transaction(func(tx *gorm.DB) error {
			if len(updates) > 0 {
				if err := tx.Model(&title).Updates(updates).Error; err != nil {
					return err // Return error to rollback
				}
			}
			if req.Genre != nil {
				if err := tx.Model(&title).Association("Genres").Replace(genres); err != nil {
					return err // Return error to rollback
				}
			}
			return nil // Commit transaction
		})
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"title_id":   title.ID,                   // Target title
				"user_id":    u.ID,                       // Acting user
				"request_id": middleware.GetRequestID(c), // Request correlation id
				"error":      err.Error(),                // Error message
			}).Error("Title update failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update title"})
			return
		}
		invalidateTitleCache(rdb, title.ID) // The cached detail is stale now
		// Re-read with relations for the response
		var updated domain.Title
		if err := db.Preload("Category").Preload("Genres").First(&updated, title.ID).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch title"})
			return
		}
		ratings, err := titleRatings(db, []uint{updated.ID})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to aggregate ratings"})
			return
		}
		var rating *int
		if r, ok := ratings[updated.ID]; ok {
			rating = &r
		}
		c.JSON(http.StatusOK, newTitleResponse(&updated, rating))
	}
}

// DeleteTitleHandler deletes a title with its reviews and, transitively,
// the comments on those reviews. Admin or superuser only.
func DeleteTitleHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := currentUser(c) // Caller, nil when anonymous
		if !permissions.AdminOrReadOnly(u, true) {
			denied(c, u) // 401 anonymous, 403 otherwise
			return
		}
		var title domain.Title // Look up the target title
		if err := db.First(&title, c.Param("title_id")).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Title not found"})
			return
		}
		// Cascade comments -> reviews -> join rows -> title in one transaction
		err := db.Transaction(func(tx *gorm.DB) error {
			var reviewIDs []uint // Reviews owned by this title
			if err := tx.Model(&domain.Review{}).Where("title_id = ?", title.ID).Pluck("id", &reviewIDs).Error; err != nil {
				return err // Return error to rollback
			}
			if len(reviewIDs) > 0 {
				if err := tx.Where("review_id IN ?", reviewIDs).Delete(&domain.Comment{}).Error; err != nil {
					return err // Return error to rollback
				}
			}
			if err := tx.Where("title_id = ?", title.ID).Delete(&domain.Review{}).Error; err != nil {
				return err // Return error to rollback
			}
			if err := tx.Exec("DELETE FROM title_genres WHERE title_id = ?", title.ID).Error; err != nil {
				return err // Return error to rollback
			}
			return tx.Delete(&title).Error
		})
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"title_id":   title.ID,                   // Target title
				"user_id":    u.ID,                       // Acting user
				"request_id": middleware.GetRequestID(c), // Request correlation id
				"error":      err.Error(),                // Error message
			}).Error("Title delete failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete title"})
			return
		}
		invalidateTitleCache(rdb, title.ID) // Drop the cached detail
		logrus.WithFields(logrus.Fields{
			"title_id":   title.ID,                   // Deleted title
			"user_id":    u.ID,                       // Acting user
			"request_id": middleware.GetRequestID(c), // Request correlation id
		}).Info("Title deleted")
		c.Status(http.StatusNoContent) // Deleted
	}
}
