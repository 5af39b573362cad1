package models

import "time"

// Sprint is a fixed-window iteration for a project.
type Sprint struct {
	ID             uint      `gorm:"primaryKey;autoIncrement"`
	Name           string    `gorm:"size:128;not null"`
	StartDate      time.Time `gorm:"not null"`
	EndDate        time.Time `gorm:"not null"`
	Team           string    `gorm:"size:128"`
	ProductOwnerID *uint
	ScrumMasterID  *uint
	Status         string `gorm:"size:32;default:planned;index"`
	ProjectID      *uint  `gorm:"index"`
	CreatedAt      time.Time

	ProductOwner *User           `gorm:"foreignKey:ProductOwnerID"`
	ScrumMaster  *User           `gorm:"foreignKey:ScrumMasterID"`
	Project      *ProjectInfo    `gorm:"foreignKey:ProjectID"`
	Backlogs     []SprintBacklog `gorm:"foreignKey:SprintID"`
}

// SprintBacklog commits a user story to a sprint with its estimated points.
type SprintBacklog struct {
	ID          uint `gorm:"primaryKey;autoIncrement"`
	SprintID    uint `gorm:"not null;index"`
	UserStoryID uint `gorm:"not null;index"`
	StoryPoints *float64
	Status      string `gorm:"size:32;default:todo;index"`
	Priority    string `gorm:"size:8;default:P3"`
	AssigneeID  *uint
	CreatedAt   time.Time

	Sprint    Sprint    `gorm:"foreignKey:SprintID"`
	UserStory UserStory `gorm:"foreignKey:UserStoryID"`
	Assignee  *User     `gorm:"foreignKey:AssigneeID"`
}
