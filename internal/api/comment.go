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

// CommentRequest is the create payload for a comment; author and review
// are server-assigned and cannot be set by the client
type CommentRequest struct {
	Text string `json:"text" binding:"required"` // Comment body
}

// CommentUpdateRequest is the partial-update payload for a comment
type CommentUpdateRequest struct {
	Text *string `json:"text"` // New body
}

// routeComment resolves the comment_id route parameter within the routed
// title and review, answering 404 itself on any mismatch
func routeComment(c *gin.Context, db *gorm.DB) (*domain.Comment, bool) {
	review, ok := routeReview(c, db)
	if !ok {
		return nil, false
	}
	var comment domain.Comment
	err := db.Preload("Author").
		Where("id = ? AND review_id = ?", c.Param("comment_id"), review.ID).
		First(&comment).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Comment not found"})
		return nil, false
	}
	return &comment, true
}

// newCommentResponse maps a comment row (with preloaded author) to the
// response shape
func newCommentResponse(cm *domain.Comment) CommentResponse {
	return CommentResponse{
		ID:      cm.ID,
		Text:    cm.Text,
		Author:  cm.Author.Username,
		PubDate: cm.PubDate,
	}
}

// ListCommentsHandler returns the comments on a review, newest first. Public.
func ListCommentsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		review, ok := routeReview(c, db) // Scope to the routed title and review
		if !ok {
			return
		}
		p := parsePage(c) // Pagination parameters
		var total int64   // Total comment count for the review
		if err := db.Model(&domain.Comment{}).Where("review_id = ?", review.ID).Count(&total).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count comments"})
			return
		}
		var comments []domain.Comment // Page of comments
		err := db.Preload("Author").
			Where("review_id = ?", review.ID).
			Order("id DESC").Offset(p.Offset).Limit(p.PageSize).
			Find(&comments).Error
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch comments"})
			return
		}
		resp := make([]CommentResponse, len(comments))
		for i := range comments {
			resp[i] = newCommentResponse(&comments[i])
		}
		c.JSON(http.StatusOK, paginated(resp, p, total)) // Return the page
	}
}

// CreateCommentHandler posts a comment on the routed review.
// Authenticated callers only; the author is fixed to the caller.
func CreateCommentHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		review, ok := routeReview(c, db) // Scope to the routed title and review
		if !ok {
			return
		}
		u := currentUser(c) // Caller, nil when anonymous
		if !permissions.AuthorModeratorOrReadOnly(u, true) {
			denied(c, u) // 401 anonymous
			return
		}
		var req CommentRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			validationFailed(c, fieldErrors{"text": {"Text is required."}})
			return
		}
		comment := domain.Comment{
			AuthorID: u.ID,      // Author fixed to the caller
			ReviewID: review.ID, // Review fixed from the route
			Text:     req.Text,  // Comment body
		}
		if err := db.Create(&comment).Error; err != nil {
			logrus.WithFields(logrus.Fields{
				"review_id":  review.ID,                  // Parent review
				"user_id":    u.ID,                       // Author
				"request_id": middleware.GetRequestID(c), // Request correlation id
				"error":      err.Error(),                // Error message
			}).Error("Comment create failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create comment"})
			return
		}
		comment.Author = *u // For the response
		logrus.WithFields(logrus.Fields{
			"comment_id": comment.ID,                 // New comment
			"review_id":  review.ID,                  // Parent review
			"user_id":    u.ID,                       // Author
			"request_id": middleware.GetRequestID(c), // Request correlation id
		}).Info("Comment created")
		c.JSON(http.StatusCreated, newCommentResponse(&comment))
	}
}

// GetCommentHandler returns a single comment of the routed review. Public.
func GetCommentHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		comment, ok := routeComment(c, db) // Scope to the routed chain
		if !ok {
			return
		}
		c.JSON(http.StatusOK, newCommentResponse(comment))
	}
}

// UpdateCommentHandler partially updates a comment's text. Author,
// moderator, admin or superuser only.
func UpdateCommentHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		comment, ok := routeComment(c, db) // Scope to the routed chain
		if !ok {
			return
		}
		u := currentUser(c) // Caller, nil when anonymous
		if !permissions.AuthorModeratorObject(u, comment.AuthorID) {
			denied(c, u) // 401 anonymous, 403 otherwise
			return
		}
		var req CommentUpdateRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		if req.Text != nil {
			if err := db.Model(comment).Update("text", *req.Text).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update comment"})
				return
			}
		}
		c.JSON(http.StatusOK, newCommentResponse(comment))
	}
}

// DeleteCommentHandler deletes a comment. Author, moderator, admin or
// superuser only.
func DeleteCommentHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		comment, ok := routeComment(c, db) // Scope to the routed chain
		if !ok {
			return
		}
		u := currentUser(c) // Caller, nil when anonymous
		if !permissions.AuthorModeratorObject(u, comment.AuthorID) {
			denied(c, u) // 401 anonymous, 403 otherwise
			return
		}
		if err := db.Delete(comment).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete comment"})
			return
		}
		logrus.WithFields(logrus.Fields{
			"comment_id": comment.ID,                 // Deleted comment
			"user_id":    u.ID,                       // Acting user
			"request_id": middleware.GetRequestID(c), // Request correlation id
		}).Info("Comment deleted")
		c.Status(http.StatusNoContent) // Deleted
	}
}
