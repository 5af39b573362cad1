package models

import "time"

// TestCase verifies a user story. CaseCode is the
// "<project short name>-<story code>-<seq>" identifier generated at creation.
type TestCase struct {
	ID            uint   `gorm:"primaryKey;autoIncrement"`
	CaseCode      string `gorm:"size:64;uniqueIndex"`
	ProjectID     uint   `gorm:"not null;index"`
	ProjectModule string `gorm:"size:256"`
	SprintID      *uint  `gorm:"index"`
	UserStoryID   *uint  `gorm:"index"`

	EditStatus      string `gorm:"size:32;default:new"`
	ExecutionStatus string `gorm:"size:32;default:todo;index"`
	TestResult      string `gorm:"size:32"`

	CaseType        string `gorm:"size:32"`
	FunctionPoint   string `gorm:"size:64"`
	Title           string `gorm:"size:256;not null"`
	Precondition    string `gorm:"type:text"`
	Steps           string `gorm:"type:text"`
	ExpectedResult  string `gorm:"type:text"`
	ActualResult    string `gorm:"type:text"`
	TestEnvironment string `gorm:"size:256"`

	Priority    string `gorm:"size:8;default:P3"`
	IsAutomated bool   `gorm:"default:false"`

	CreatedByID *uint
	TestedByID  *uint
	TestedAt    *time.Time
	Remarks     string `gorm:"type:text"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Project   ProjectInfo `gorm:"foreignKey:ProjectID"`
	Sprint    *Sprint     `gorm:"foreignKey:SprintID"`
	UserStory *UserStory  `gorm:"foreignKey:UserStoryID"`
	CreatedBy *User       `gorm:"foreignKey:CreatedByID"`
	TestedBy  *User       `gorm:"foreignKey:TestedByID"`
}
