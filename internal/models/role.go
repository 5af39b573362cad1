package models

import "time"

// Role is static reference data mapping a machine key (e.g. "admin", "PO")
// to a display name. The "admin" role is reserved: holders bypass per-feature
// grants entirely.
type Role struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	Name        string `gorm:"size:64;uniqueIndex;not null"`
	DisplayName string `gorm:"size:128;not null"`
	Description string `gorm:"type:text"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	UserRoles []UserRole        `gorm:"foreignKey:RoleID"`
	Grants    []RoleSystemFeature `gorm:"foreignKey:RoleID"`
}

// UserRole assigns a role to a user.
type UserRole struct {
	ID        uint `gorm:"primaryKey;autoIncrement"`
	UserID    uint `gorm:"not null;index"`
	RoleID    uint `gorm:"not null;index"`
	CreatedAt time.Time

	User User `gorm:"foreignKey:UserID"`
	Role Role `gorm:"foreignKey:RoleID"`
}

// RoleSystemFeature grants a role access to a system feature. A role's
// accessible set is the union of its grant rows.
type RoleSystemFeature struct {
	ID              uint `gorm:"primaryKey;autoIncrement"`
	RoleID          uint `gorm:"not null;index"`
	SystemFeatureID uint `gorm:"not null;index"`
	CreatedAt       time.Time

	Role          Role          `gorm:"foreignKey:RoleID"`
	SystemFeature SystemFeature `gorm:"foreignKey:SystemFeatureID"`
}
