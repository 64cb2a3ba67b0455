package api

import (
	"time" // Lifetimes from config

	"reviewhub/internal/config"     // Application configuration
	"reviewhub/internal/mailer"     // Confirmation mail dispatch
	"reviewhub/internal/middleware" // Auth and request-id middleware

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"gorm.io/gorm"                 // GORM ORM library
)

// RegisterRoutes wires every endpoint onto the router. The whole /v1 tree
// runs behind OptionalAuth: handlers consult the permission predicates
// themselves, answering 401 for anonymous callers and 403 for
// authenticated callers with insufficient rights.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, rdb *redis.Client, mail mailer.Mailer, cfg *config.Config) {
	confirmationTTL := time.Duration(cfg.ConfirmationTTLHours) * time.Hour // Confirmation code lifetime
	tokenTTL := time.Duration(cfg.TokenTTLHours) * time.Hour               // Access token lifetime

	v1 := r.Group("/v1", middleware.RequestID(), middleware.OptionalAuth(db, cfg.JWTSecret))

	// Registration and token exchange (anonymous)
	auth := v1.Group("/auth")
	auth.POST("/signup/", SignupHandler(db, mail, cfg.ConfirmationSecret))
	auth.POST("/token/", TokenHandler(db, cfg.ConfirmationSecret, confirmationTTL, cfg.JWTSecret, tokenTTL))

	// Categories: public read, admin write, slug-keyed delete
	categories := v1.Group("/categories")
	categories.GET("/", ListCategoriesHandler(db))
	categories.POST("/", CreateCategoryHandler(db))
	categories.DELETE("/:slug/", DeleteCategoryHandler(db))

	// Genres: public read, admin write, slug-keyed delete
	genres := v1.Group("/genres")
	genres.GET("/", ListGenresHandler(db))
	genres.POST("/", CreateGenreHandler(db))
	genres.DELETE("/:slug/", DeleteGenreHandler(db))

	// Titles: public read, admin write
	titles := v1.Group("/titles")
	titles.GET("/", ListTitlesHandler(db))
	titles.POST("/", CreateTitleHandler(db))
	titles.GET("/:title_id/", GetTitleHandler(db, rdb))
	titles.PATCH("/:title_id/", UpdateTitleHandler(db, rdb))
	titles.DELETE("/:title_id/", DeleteTitleHandler(db, rdb))

	// Reviews, nested under a title
	reviews := titles.Group("/:title_id/reviews")
	reviews.GET("/", ListReviewsHandler(db))
	reviews.POST("/", CreateReviewHandler(db, rdb))
	reviews.GET("/:review_id/", GetReviewHandler(db))
	reviews.PATCH("/:review_id/", UpdateReviewHandler(db, rdb))
	reviews.DELETE("/:review_id/", DeleteReviewHandler(db, rdb))

	// Comments, nested under a review
	comments := reviews.Group("/:review_id/comments")
	comments.GET("/", ListCommentsHandler(db))
	comments.POST("/", CreateCommentHandler(db))
	comments.GET("/:comment_id/", GetCommentHandler(db))
	comments.PATCH("/:comment_id/", UpdateCommentHandler(db))
	comments.DELETE("/:comment_id/", DeleteCommentHandler(db))

	// Users: admin collection plus the "me" profile alias, both resolved
	// inside the handlers. Every route here needs an authenticated caller.
	users := v1.Group("/users", middleware.RequireAuth(db, cfg.JWTSecret))
	users.GET("/", ListUsersHandler(db))
	users.POST("/", CreateUserHandler(db))
	users.GET("/:username/", GetUserHandler(db))
	users.PATCH("/:username/", UpdateUserHandler(db))
	users.DELETE("/:username/", DeleteUserHandler(db))
}
