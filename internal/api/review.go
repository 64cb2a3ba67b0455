package api

import (
	"net/http" // HTTP status codes

	"reviewhub/internal/domain" // Domain models
	"reviewhub/internal/middleware"
	"reviewhub/internal/permissions" // Access policies

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"gorm.io/gorm"                 // GORM ORM library
)

// ReviewRequest is the create payload for a review; author and title are
// server-assigned and cannot be set by the client
type ReviewRequest struct {
	Text  string `json:"text"`  // Review body
	Score int    `json:"score"` // Integer score in [1,10]
}

// ReviewUpdateRequest is the partial-update payload for a review
type ReviewUpdateRequest struct {
	Text  *string `json:"text"`  // New body
	Score *int    `json:"score"` // New score
}

// routeTitle resolves the title_id route parameter to a title row,
// answering 404 itself when the title is unknown
func routeTitle(c *gin.Context, db *gorm.DB) (*domain.Title, bool) {
	var title domain.Title
	if err := db.First(&title, c.Param("title_id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Title not found"})
		return nil, false
	}
	return &title, true
}

// routeReview resolves the review_id route parameter within the routed
// title, answering 404 itself when either is unknown or mismatched
func routeReview(c *gin.Context, db *gorm.DB) (*domain.Review, bool) {
	title, ok := routeTitle(c, db)
	if !ok {
		return nil, false
	}
	var review domain.Review
	err := db.Preload("Author").
		Where("id = ? AND title_id = ?", c.Param("review_id"), title.ID).
		First(&review).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Review not found"})
		return nil, false
	}
	return &review, true
}

// newReviewResponse maps a review row (with preloaded author) to the
// response shape
func newReviewResponse(r *domain.Review) ReviewResponse {
	return ReviewResponse{
		ID:      r.ID,
		Text:    r.Text,
		Author:  r.Author.Username,
		Score:   r.Score,
		PubDate: r.PubDate,
	}
}

// ListReviewsHandler returns the reviews of a title, newest first. Public.
func ListReviewsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		title, ok := routeTitle(c, db) // Scope to the routed title
		if !ok {
			return
		}
		p := parsePage(c) // Pagination parameters
		var total int64   // Total review count for the title
		if err := db.Model(&domain.Review{}).Where("title_id = ?", title.ID).Count(&total).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count reviews"})
			return
		}
		var reviews []domain.Review // Page of reviews
		err := db.Preload("Author").
			Where("title_id = ?", title.ID).
			Order("id DESC").Offset(p.Offset).Limit(p.PageSize).
			Find(&reviews).Error
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch reviews"})
			return
		}
		resp := make([]ReviewResponse, len(reviews))
		for i := range reviews {
			resp[i] = newReviewResponse(&reviews[i])
		}
		c.JSON(http.StatusOK, paginated(resp, p, total)) // Return the page
	}
}

// CreateReviewHandler posts a review on the routed title. Authenticated
// callers only; the author is fixed to the caller and one review per
// author per title is enforced by the store-level unique index.
func CreateReviewHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		title, ok := routeTitle(c, db) // Scope to the routed title
		if !ok {
			return
		}
		u := currentUser(c) // Caller, nil when anonymous
		if !permissions.AuthorModeratorOrReadOnly(u, true) {
			denied(c, u) // 401 anonymous
			return
		}
		var req ReviewRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		// Field-scoped validation
		errs := fieldErrors{}
		if req.Text == "" {
			errs["text"] = []string{"Text is required."}
		}
		if req.Score < 1 || req.Score > 10 {
			errs["score"] = []string{"Score must be an integer between 1 and 10."}
		}
		if len(errs) > 0 {
			validationFailed(c, errs)
			return
		}
		review := domain.Review{
			AuthorID: u.ID,      // Author fixed to the caller
			TitleID:  title.ID,  // Title fixed from the route
			Text:     req.Text,  // Review body
			Score:    req.Score, // Score
		}
		// The composite unique index is the authority for duplicates; a
		// second review by the same author on the same title fails here
		if err := db.Create(&review).Error; err != nil {
			validationFailed(c, fieldErrors{"title": {"You have already reviewed this title."}})
			return
		}
		review.Author = *u                  // For the response
		invalidateTitleCache(rdb, title.ID) // The title's rating changed
		logrus.WithFields(logrus.Fields{
			"review_id":  review.ID,                  // New review
			"title_id":   title.ID,                   // Reviewed title
			"user_id":    u.ID,                       // Author
			"request_id": middleware.GetRequestID(c), // Request correlation id
		}).Info("Review created")
		c.JSON(http.StatusCreated, newReviewResponse(&review))
	}
}

// GetReviewHandler returns a single review of the routed title. Public.
func GetReviewHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		review, ok := routeReview(c, db) // Scope to the routed title and review
		if !ok {
			return
		}
		c.JSON(http.StatusOK, newReviewResponse(review))
	}
}

// UpdateReviewHandler partially updates a review's text or score. Author,
// moderator, admin or superuser only; author and pub_date are immutable.
func UpdateReviewHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		review, ok := routeReview(c, db) // Scope to the routed title and review
		if !ok {
			return
		}
		u := currentUser(c) // Caller, nil when anonymous
		if !permissions.AuthorModeratorObject(u, review.AuthorID) {
			denied(c, u) // 401 anonymous, 403 otherwise
			return
		}
		var req ReviewUpdateRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		// Validate the score range on partial updates too
		if req.Score != nil && (*req.Score < 1 || *req.Score > 10) {
			validationFailed(c, fieldErrors{"score": {"Score must be an integer between 1 and 10."}})
			return
		}
		updates := map[string]any{} // Only text and score are writable
		if req.Text != nil {
			updates["text"] = *req.Text
		}
		if req.Score != nil {
			updates["score"] = *req.Score
		}
		if len(updates) > 0 {
			if err := db.Model(review).Updates(updates).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update review"})
				return
			}
			invalidateTitleCache(rdb, review.TitleID) // The title's rating may have changed
		}
		c.JSON(http.StatusOK, newReviewResponse(review))
	}
}

// DeleteReviewHandler deletes a review and its comments. Author,
// moderator, admin or superuser only.
func DeleteReviewHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		review, ok := routeReview(c, db) // Scope to the routed title and review
		if !ok {
			return
		}
		u := currentUser(c) // Caller, nil when anonymous
		if !permissions.AuthorModeratorObject(u, review.AuthorID) {
			denied(c, u) // 401 anonymous, 403 otherwise
			return
		}
		// Cascade comments -> review in one transaction
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("review_id = ?", review.ID).Delete(&domain.Comment{}).Error; err != nil {
				return err // Return error to rollback
			}
			return tx.Delete(review).Error
		})
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"review_id":  review.ID,                  // Target review
				"user_id":    u.ID,                       // Acting user
				"request_id": middleware.GetRequestID(c), // Request correlation id
				"error":      err.Error(),                // Error message
			}).Error("Review delete failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete review"})
			return
		}
		invalidateTitleCache(rdb, review.TitleID) // The title's rating changed
		logrus.WithFields(logrus.Fields{
			"review_id":  review.ID,                  // Deleted review
			"user_id":    u.ID,                       // Acting user
			"request_id": middleware.GetRequestID(c), // Request correlation id
		}).Info("Review deleted")
		c.Status(http.StatusNoContent) // Deleted
	}
}
