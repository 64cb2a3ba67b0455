package domain

import "time"

// Review Model
type Review struct {
	ID       uint      `gorm:"primaryKey"`                                    // Primary key
	AuthorID uint      `gorm:"not null;uniqueIndex:idx_reviews_author_title"` // Foreign key to User
	Author   User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"` // Deleting a user deletes their reviews
	TitleID  uint      `gorm:"not null;uniqueIndex:idx_reviews_author_title"` // Foreign key to Title; pair is unique per author
	Text     string    `gorm:"type:text;not null"`                            // Review body
	Score    int       `gorm:"not null;check:score >= 1 AND score <= 10"`     // Integer score in [1,10]
	PubDate  time.Time `gorm:"autoCreateTime;index"`                          // Server-assigned, immutable after creation
	Comments []Comment `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"` // Deleting a review deletes its comments
}
