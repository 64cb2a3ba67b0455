package domain

// Category Model
type Category struct {
	ID   uint   `gorm:"primaryKey"`                   // Primary key
	Name string `gorm:"size:256;index;not null"`      // Display name
	Slug string `gorm:"size:50;uniqueIndex;not null"` // Unique URL-safe identifier
}
