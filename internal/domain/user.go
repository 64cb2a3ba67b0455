package domain

import "time"

// User roles
const (
	RoleUser      = "user"      // Default role
	RoleModerator = "moderator" // Can edit or delete any review or comment
	RoleAdmin     = "admin"     // Full access to every resource
)

// User Model
type User struct {
	ID          uint      `gorm:"primaryKey"`                    // Primary key
	Username    string    `gorm:"size:150;uniqueIndex;not null"` // Unique username (login handle)
	Email       string    `gorm:"size:254;uniqueIndex;not null"` // Unique email address
	FirstName   string    `gorm:"size:150"`                      // Optional first name
	Role        string    `gorm:"size:50;default:user"`          // Role: user, moderator or admin
	Bio         string    `gorm:"type:text"`                     // Free-text biography
	IsSuperuser bool      `gorm:"default:false"`                 // Platform-level flag, independent of role
	CreatedAt   time.Time // Timestamp of creation
	UpdatedAt   time.Time // Timestamp of last modification; feeds the confirmation code fingerprint
}

// IsAdmin reports whether the user's role is admin
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsModerator reports whether the user's role is moderator
func (u *User) IsModerator() bool {
	return u.Role == RoleModerator
}

// HasAdminRights reports admin-equivalence: admin role or the superuser flag
func (u *User) HasAdminRights() bool {
	return u.IsAdmin() || u.IsSuperuser
}
