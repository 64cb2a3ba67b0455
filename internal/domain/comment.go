package domain

import "time"

// Comment Model
type Comment struct {
	ID       uint      `gorm:"primaryKey"`                                    // Primary key
	AuthorID uint      `gorm:"not null;index"`                                // Foreign key to User
	Author   User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"` // Deleting a user deletes their comments
	ReviewID uint      `gorm:"not null;index"`                                // Foreign key to the parent Review
	Text     string    `gorm:"type:text;not null"`                            // Comment body
	PubDate  time.Time `gorm:"autoCreateTime"`                                // Server-assigned, immutable after creation
}
