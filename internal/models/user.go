package models

import "time"

// User is a registered account. The credential hash is opaque to this
// service; hashing itself happens upstream.
type User struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	Name       string `gorm:"size:64;uniqueIndex;not null"`
	Credential string `gorm:"size:128;not null"`
	Nickname   string `gorm:"size:64;not null"`
	Email      string `gorm:"size:128;not null"`
	CreatedAt  time.Time

	Roles     []UserRole `gorm:"foreignKey:UserID"`
	Estimates []Estimate `gorm:"foreignKey:UserID"`
}
