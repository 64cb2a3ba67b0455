package domain

// Title Model
type Title struct {
	ID          uint      `gorm:"primaryKey"`              // Primary key
	Name        string    `gorm:"size:256;index;not null"` // Display name
	Year        int       `gorm:"index;not null"`          // Release year, never in the future
	Description string    `gorm:"type:text"`               // Optional description
	CategoryID  *uint     // Foreign key to Category, nullable
	Category    *Category `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"` // Deleting a category never deletes titles
	Genres      []Genre   `gorm:"many2many:title_genres;"`                        // Many-to-many with Genre
	Reviews     []Review  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`  // Deleting a title deletes its reviews
}
