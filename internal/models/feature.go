package models

import "time"

// SystemFeature is the smallest grantable unit of access, keyed by a route
// name shaped like "blueprint.endpoint". Public+enabled features bypass role
// checks; disabled features are unreachable outside the admin override.
type SystemFeature struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	Name        string `gorm:"size:128;not null"`
	Description string `gorm:"type:text"`
	RouteName   string `gorm:"size:128;uniqueIndex;not null"`
	IsEnabled   bool   `gorm:"default:true"`
	IsPublic    bool   `gorm:"default:false"`
	OrderNum    int    `gorm:"default:0"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
