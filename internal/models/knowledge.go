package models

import "time"

// AgileKnowledge is an article in the agile knowledge base.
type AgileKnowledge struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	Title     string `gorm:"size:128;not null"`
	Content   string `gorm:"type:text;not null"`
	Category  string `gorm:"size:64"`
	AuthorID  uint   `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Author User `gorm:"foreignKey:AuthorID"`
}
