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

// UserCreateRequest is the admin payload for creating a user
type UserCreateRequest struct {
	Username    string `json:"username" binding:"required"` // Unique username
	Email       string `json:"email" binding:"required"`    // Unique email
	FirstName   string `json:"first_name"`                  // Optional first name
	Bio         string `json:"bio"`                         // Free-text biography
	Role        string `json:"role"`                        // Defaults to user
	IsSuperuser bool   `json:"is_superuser"`                // Platform-level flag
}

// UserUpdateRequest is the admin partial-update payload for a user
type UserUpdateRequest struct {
	Username    *string `json:"username"`     // New username
	Email       *string `json:"email"`        // New email
	FirstName   *string `json:"first_name"`   // New first name
	Bio         *string `json:"bio"`          // New biography
	Role        *string `json:"role"`         // New role
	IsSuperuser *bool   `json:"is_superuser"` // New superuser flag
}

// ProfileUpdateRequest is the self-service partial-update payload; role
// must not be writable here and is rejected when present
type ProfileUpdateRequest struct {
	Username  *string `json:"username"`   // New username
	Email     *string `json:"email"`      // New email
	FirstName *string `json:"first_name"` // New first name
	Bio       *string `json:"bio"`        // New biography
	Role      *string `json:"role"`       // Always rejected
}

// validRole reports whether a role value is one of the closed set
func validRole(role string) bool {
	return role == domain.RoleUser || role == domain.RoleModerator || role == domain.RoleAdmin
}

// ListUsersHandler returns all users, optionally filtered by a substring
// search on the username. Admin or superuser only.
func ListUsersHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := currentUser(c) // Caller, nil when anonymous
		if !permissions.AdminOrSuperuser(u) {
			denied(c, u) // 401 anonymous, 403 otherwise
			return
		}
		p := parsePage(c)                 // Pagination parameters
		query := db.Model(&domain.User{}) // Start building the query
		if search := c.Query("search"); search != "" {
			query = query.Where("username LIKE ?", "%"+search+"%") // Filter by username substring
		}
		var total int64 // Total user count
		if err := query.Count(&total).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count users"})
			return
		}
		var users []domain.User // Page of users
		if err := query.Order("id").Offset(p.Offset).Limit(p.PageSize).Find(&users).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
			return
		}
		resp := make([]UserResponse, len(users))
		for i := range users {
			resp[i] = newUserResponse(&users[i])
		}
		c.JSON(http.StatusOK, paginated(resp, p, total)) // Return the page
	}
}

// CreateUserHandler creates a user with an arbitrary role. Admin or
// superuser only.
func CreateUserHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := currentUser(c) // Caller, nil when anonymous
		if !permissions.AdminOrSuperuser(u) {
			denied(c, u) // 401 anonymous, 403 otherwise
			return
		}
		var req UserCreateRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		// Same shape constraints as signup
		if errs := validateSignup(req.Username, req.Email); errs != nil {
			validationFailed(c, errs)
			return
		}
		role := req.Role // Role defaults to user
		if role == "" {
			role = domain.RoleUser
		}
		if !validRole(role) {
			validationFailed(c, fieldErrors{"role": {"Role must be one of user, moderator, admin."}})
			return
		}
		user := domain.User{
			Username:    req.Username,    // Unique username
			Email:       req.Email,       // Unique email
			FirstName:   req.FirstName,   // Optional first name
			Bio:         req.Bio,         // Free-text biography
			Role:        role,            // Requested role
			IsSuperuser: req.IsSuperuser, // Platform-level flag
		}
		// The unique indexes are the authority for duplicates
		if err := db.Create(&user).Error; err != nil {
			validationFailed(c, fieldErrors{"username": {"A user with that username or email already exists."}})
			return
		}
		logrus.WithFields(logrus.Fields{
			"username":   user.Username,              // New user
			"role":       user.Role,                  // Assigned role
			"user_id":    u.ID,                       // Acting admin
			"request_id": middleware.GetRequestID(c), // Request correlation id
		}).Info("User created")
		c.JSON(http.StatusCreated, newUserResponse(&user))
	}
}

// GetUserHandler returns a user by username. The fixed alias "me" returns
// the caller's own record for any authenticated user; every other lookup
// is admin or superuser only.
func GetUserHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := currentUser(c) // Caller, nil when anonymous
		username := c.Param("username")
		if username == "me" {
			if u == nil {
				denied(c, nil) // 401: the profile route needs authentication
				return
			}
			c.JSON(http.StatusOK, newUserResponse(u))
			return
		}
		if !permissions.AdminOrSuperuser(u) {
			denied(c, u) // 401 anonymous, 403 otherwise
			return
		}
		var user domain.User // Look up by username
		if err := db.Where("username = ?", username).First(&user).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusOK, newUserResponse(&user))
	}
}

// UpdateUserHandler partially updates a user. Through the "me" alias any
// authenticated caller edits their own profile, but never their role;
// other usernames are admin or superuser only and may change the role.
func UpdateUserHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := currentUser(c) // Caller, nil when anonymous
		username := c.Param("username")
		if username == "me" {
			updateOwnProfile(c, db, u)
			return
		}
		if !permissions.AdminOrSuperuser(u) {
			denied(c, u) // 401 anonymous, 403 otherwise
			return
		}
		var user domain.User // Look up by username
		if err := db.Where("username = ?", username).First(&user).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		var req UserUpdateRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		if req.Role != nil && !validRole(*req.Role) {
			validationFailed(c, fieldErrors{"role": {"Role must be one of user, moderator, admin."}})
			return
		}
		updates := map[string]any{} // Column updates
		if req.Username != nil {
			updates["username"] = *req.Username
		}
		if req.Email != nil {
			updates["email"] = *req.Email
		}
		if req.FirstName != nil {
			updates["first_name"] = *req.FirstName
		}
		if req.Bio != nil {
			updates["bio"] = *req.Bio
		}
		if req.Role != nil {
			updates["role"] = *req.Role
		}
		if req.IsSuperuser != nil {
			updates["is_superuser"] = *req.IsSuperuser
		}
		if len(updates) > 0 {
			// The unique indexes catch username/email collisions
			if err := db.Model(&user).Updates(updates).Error; err != nil {
				validationFailed(c, fieldErrors{"username": {"A user with that username or email already exists."}})
				return
			}
		}
		logrus.WithFields(logrus.Fields{
			"username":   user.Username,              // Updated user
			"user_id":    u.ID,                       // Acting admin
			"request_id": middleware.GetRequestID(c), // Request correlation id
		}).Info("User updated")
		c.JSON(http.StatusOK, newUserResponse(&user))
	}
}

// updateOwnProfile handles PATCH on the "me" alias. Note that changing
// the profile invalidates any outstanding confirmation codes, since they
// are bound to the user's state fingerprint.
func updateOwnProfile(c *gin.Context, db *gorm.DB, u *domain.User) {
	if u == nil {
		denied(c, nil) // 401: the profile route needs authentication
		return
	}
	var req ProfileUpdateRequest // Bind JSON request to struct
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	// The self-service route must not permit role changes
	if req.Role != nil {
		validationFailed(c, fieldErrors{"role": {"Role cannot be changed through the profile route."}})
		return
	}
	updates := map[string]any{} // Column updates
	if req.Username != nil {
		updates["username"] = *req.Username
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.FirstName != nil {
		updates["first_name"] = *req.FirstName
	}
	if req.Bio != nil {
		updates["bio"] = *req.Bio
	}
	// Re-check the shape constraints for credential fields
	newUsername := u.Username
	if req.Username != nil {
		newUsername = *req.Username
	}
	newEmail := u.Email
	if req.Email != nil {
		newEmail = *req.Email
	}
	if errs := validateSignup(newUsername, newEmail); errs != nil {
		validationFailed(c, errs)
		return
	}
	if len(updates) > 0 {
		// The unique indexes catch username/email collisions
		if err := db.Model(u).Updates(updates).Error; err != nil {
			validationFailed(c, fieldErrors{"username": {"A user with that username or email already exists."}})
			return
		}
	}
	logrus.WithFields(logrus.Fields{
		"user_id":    u.ID,                       // Profile owner
		"request_id": middleware.GetRequestID(c), // Request correlation id
	}).Info("Profile updated")
	c.JSON(http.StatusOK, newUserResponse(u))
}

// DeleteUserHandler deletes a user with their reviews and comments. Admin
// or superuser only; the "me" alias does not support deletion.
func DeleteUserHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := currentUser(c) // Caller, nil when anonymous
		username := c.Param("username")
		if username == "me" {
			// The profile alias is read/update only
			c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
			return
		}
		if !permissions.AdminOrSuperuser(u) {
			denied(c, u) // 401 anonymous, 403 otherwise
			return
		}
		var user domain.User // Look up by username
		if err := db.Where("username = ?", username).First(&user).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		// Cascade the user's reviews (with their comments) and comments
		err := db.Transaction(func(tx *gorm.DB) error {
			var reviewIDs []uint // Reviews authored by this user
			if err := tx.Model(&domain.Review{}).Where("author_id = ?", user.ID).Pluck("id", &reviewIDs).Error; err != nil {
				return err // Return error to rollback
			}
			if len(reviewIDs) > 0 {
				if err := tx.Where("review_id IN ?", reviewIDs).Delete(&domain.Comment{}).Error; err != nil {
					return err // Return error to rollback
				}
			}
			if err := tx.Where("author_id = ?", user.ID).Delete(&domain.Comment{}).Error; err != nil {
				return err // Return error to rollback
			}
			if err := tx.Where("author_id = ?", user.ID).Delete(&domain.Review{}).Error; err != nil {
				return err // Return error to rollback
			}
			return tx.Delete(&user).Error
		})
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"username":   user.Username,              // Target user
				"user_id":    u.ID,                       // Acting admin
				"request_id": middleware.GetRequestID(c), // Request correlation id
				"error":      err.Error(),                // Error message
			}).Error("User delete failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete user"})
			return
		}
		logrus.WithFields(logrus.Fields{
			"username":   user.Username,              // Deleted user
			"user_id":    u.ID,                       // Acting admin
			"request_id": middleware.GetRequestID(c), // Request correlation id
		}).Info("User deleted")
		c.Status(http.StatusNoContent) // Deleted
	}
}
