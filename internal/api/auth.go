package api

import (
	"errors"   // Error matching
	"net/http" // HTTP status codes
	"regexp"   // Input validation
	"time"     // Code and token lifetimes

	"reviewhub/internal/domain" // Domain models
	"reviewhub/internal/mailer" // Confirmation mail dispatch
	"reviewhub/internal/middleware"
	"reviewhub/internal/utils" // Token utility functions

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// SignupRequest is the registration payload
type SignupRequest struct {
	Username string `json:"username" binding:"required"` // Username must be provided
	Email    string `json:"email" binding:"required"`    // Email must be provided
}

// TokenRequest exchanges a confirmation code for an access token
type TokenRequest struct {
	Username         string `json:"username" binding:"required"`          // Username must be provided
	ConfirmationCode string `json:"confirmation_code" binding:"required"` // Code must be provided
}

// AuthResponse carries the issued access token
type AuthResponse struct {
	Token string `json:"token"` // Access token
}

var (
	usernameRe = regexp.MustCompile(`^[\w.@+-]+$`)                // Allowed username characters
	emailRe    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`) // Minimal email shape check
)

// validateSignup checks username/email shape constraints
func validateSignup(username, email string) fieldErrors {
	errs := fieldErrors{}
	if username == "me" {
		errs["username"] = append(errs["username"], "Username 'me' is reserved.")
	}
	if len(username) > 150 || !usernameRe.MatchString(username) {
		errs["username"] = append(errs["username"], "Enter a valid username of 150 characters or fewer.")
	}
	if len(email) > 254 || !emailRe.MatchString(email) {
		errs["email"] = append(errs["email"], "Enter a valid email address.")
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// SignupHandler registers a user (or re-registers the identical pair) and
// emails a confirmation code. No password is ever stored; the code is the
// proof of email ownership.
func SignupHandler(db *gorm.DB, mail mailer.Mailer, confirmationSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SignupRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		// Validate username and email shape
		if errs := validateSignup(req.Username, req.Email); errs != nil {
			validationFailed(c, errs)
			return
		}
		var byUsername, byEmail domain.User // Existing rows for either field
		usernameErr := db.Where("username = ?", req.Username).First(&byUsername).Error
		emailErr := db.Where("email = ?", req.Email).First(&byEmail).Error
		// A store fault is not "not taken"
		if (usernameErr != nil && !errors.Is(usernameErr, gorm.ErrRecordNotFound)) ||
			(emailErr != nil && !errors.Is(emailErr, gorm.ErrRecordNotFound)) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user"})
			return
		}
		usernameTaken := usernameErr == nil
		emailTaken := emailErr == nil
		var user domain.User // The row the code will be issued for
		switch {
		case usernameTaken && emailTaken && byUsername.ID == byEmail.ID:
			// The exact pair already exists: idempotent, re-issue a code
			user = byUsername
		case usernameTaken || emailTaken:
			// Exactly one field collides (or both collide on different rows)
			errs := fieldErrors{}
			if usernameTaken {
				errs["username"] = []string{"A user with that username already exists."}
			}
			if emailTaken {
				errs["email"] = []string{"A user with that email already exists."}
			}
			validationFailed(c, errs)
			return
		default:
			// Fresh pair: create the user; uniqueness is also enforced by the
			// store-level indexes, so a concurrent duplicate surfaces here
			user = domain.User{Username: req.Username, Email: req.Email, Role: domain.RoleUser}
			if err := db.Create(&user).Error; err != nil {
				validationFailed(c, fieldErrors{"username": {"A user with that username or email already exists."}})
				return
			}
			// Re-read the row so the code is bound to the timestamps as the
			// store keeps them, not to the in-memory precision of Create
			if err := db.First(&user, user.ID).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user"})
				return
			}
		}
		// Issue a confirmation code bound to the user's current state
		code := utils.GenerateConfirmationCode(&user, confirmationSecret, time.Now())
		// Dispatch is best-effort: log a failure, never fail the signup
		if err := mail.Send(user.Email, "registration", "Your confirmation code: "+code); err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id":    user.ID,                    // Recipient user ID
				"request_id": middleware.GetRequestID(c), // Request correlation id
				"error":      err.Error(),                // Error message
			}).Error("Failed to send confirmation email")
		}
		logrus.WithFields(logrus.Fields{
			"user_id":    user.ID,                    // User ID
			"username":   user.Username,              // Username
			"request_id": middleware.GetRequestID(c), // Request correlation id
		}).Info("Signup confirmation issued")
		// Echo the registered pair
		c.JSON(http.StatusOK, gin.H{"username": user.Username, "email": user.Email})
	}
}

// TokenHandler validates a confirmation code and issues an access token.
// The token carries identity only; role is re-checked from the database
// on every request.
func TokenHandler(db *gorm.DB, confirmationSecret string, confirmationTTL time.Duration, jwtSecret string, tokenTTL time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req TokenRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		var user domain.User // Look up the user by username
		if err := db.Where("username = ?", req.Username).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// Unknown username is 404, not 400
				c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user"})
			return
		}
		// Validate the code against the user's current state
		if !utils.CheckConfirmationCode(&user, req.ConfirmationCode, confirmationSecret, time.Now(), confirmationTTL) {
			validationFailed(c, fieldErrors{"confirmation_code": {"Invalid or expired confirmation code."}})
			return
		}
		// Issue the access token
		token, err := utils.GenerateJWT(user.ID, jwtSecret, tokenTTL)
		if err != nil {
			// If token generation fails, return internal server error
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
			return
		}
		// Return the token in the response
		c.JSON(http.StatusOK, AuthResponse{Token: token})
	}
}
