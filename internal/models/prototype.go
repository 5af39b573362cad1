package models

import "time"

// PrototypeImage records prototype artwork attached to a project tree node.
// Only the metadata lives here; byte storage is handled elsewhere.
type PrototypeImage struct {
	ID            uint   `gorm:"primaryKey;autoIncrement"`
	ProjectNodeID uint   `gorm:"not null;index"`
	Name          string `gorm:"size:128;not null"`
	Description   string `gorm:"type:text"`
	FilePath      string `gorm:"size:512;not null"`
	FileSize      *int64
	MimeType      string `gorm:"size:64"`
	Version       string `gorm:"size:32;default:1.0"`
	UploadedByID  uint   `gorm:"not null"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	ProjectNode ProjectInfo `gorm:"foreignKey:ProjectNodeID"`
	UploadedBy  User        `gorm:"foreignKey:UploadedByID"`
}
