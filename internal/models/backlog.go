package models

import "time"

// ProductBacklog is a requirement in the product backlog. RequirementCode is
// the human-readable "R_NNN" identifier generated at creation.
type ProductBacklog struct {
	ID              uint   `gorm:"primaryKey;autoIncrement"`
	RequirementCode string `gorm:"size:32;uniqueIndex"`
	Title           string `gorm:"size:256;not null"`
	Description     string `gorm:"type:text"`
	RequirementType string `gorm:"size:32"`
	CustomerOwnerID *uint
	Priority        string `gorm:"size:8;default:P3"`
	Status          string `gorm:"size:32;default:discussion;index"`
	Progress        string `gorm:"size:32;default:untouched"`
	ProjectID       *uint  `gorm:"index"`
	ProjectModuleID *uint
	AnalystID       *uint
	RelatedInfo     string `gorm:"type:text"`
	Tags            string `gorm:"size:256"`
	CreatedAt       time.Time
	UpdatedAt       time.Time

	CustomerOwner *User        `gorm:"foreignKey:CustomerOwnerID"`
	Analyst       *User        `gorm:"foreignKey:AnalystID"`
	Project       *ProjectInfo `gorm:"foreignKey:ProjectID"`
	ProjectModule *ProjectInfo `gorm:"foreignKey:ProjectModuleID"`
	Stories       []UserStory  `gorm:"foreignKey:ProductBacklogID"`
}
