package models

import "time"

// Task is a unit of work split out of a user story. TaskCode is the
// "TA_<story code>_<seq>" identifier generated at creation.
type Task struct {
	ID              uint   `gorm:"primaryKey;autoIncrement"`
	TaskCode        string `gorm:"size:32;uniqueIndex"`
	UserStoryID     uint   `gorm:"not null;index"`
	Name            string `gorm:"size:256;not null"`
	Description     string `gorm:"type:text"`
	Status          string `gorm:"size:32;default:todo;index"`
	TaskType        string `gorm:"size:64"`
	Priority        string `gorm:"size:8;default:medium"`
	AssigneeID      *uint  `gorm:"index"`
	StartDate       *time.Time
	EndDate         *time.Time
	ActualStartDate *time.Time
	ActualEndDate   *time.Time
	EstimatedHours  *float64
	CreatedAt       time.Time
	UpdatedAt       time.Time
	CompletedAt     *time.Time

	UserStory UserStory `gorm:"foreignKey:UserStoryID"`
	Assignee  *User     `gorm:"foreignKey:AssigneeID"`
}
