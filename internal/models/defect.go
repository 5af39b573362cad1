package models

import "time"

// Defect is a tracked bug against a project. DefectCode is the "F_NNN"
// identifier generated at creation.
type Defect struct {
	ID            uint   `gorm:"primaryKey;autoIncrement"`
	DefectCode    string `gorm:"size:64;uniqueIndex"`
	Title         string `gorm:"size:256;not null"`
	ProjectID     uint   `gorm:"not null;index"`
	SprintID      *uint  `gorm:"index"`
	WorkItemType  string `gorm:"size:32;default:defect;not null"`
	Description   string `gorm:"type:text"`
	AssigneeID    *uint  `gorm:"index"`
	Priority      string `gorm:"size:8;default:P3"`
	IsOnline      bool   `gorm:"default:false"`
	Severity      string `gorm:"size:32;default:normal"`
	DefectType    string `gorm:"size:64;default:functional"`
	Status        string `gorm:"size:32;default:open;index"`
	ResolverID    *uint
	Resolution    string `gorm:"size:64"`
	DevTeam       string `gorm:"size:128"`
	Collaborators string `gorm:"size:256"`
	StartDate     *time.Time
	EndDate       *time.Time
	CreatedByID   uint `gorm:"not null"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Project   ProjectInfo `gorm:"foreignKey:ProjectID"`
	Sprint    *Sprint     `gorm:"foreignKey:SprintID"`
	Assignee  *User       `gorm:"foreignKey:AssigneeID"`
	Resolver  *User       `gorm:"foreignKey:ResolverID"`
	CreatedBy User        `gorm:"foreignKey:CreatedByID"`
}
