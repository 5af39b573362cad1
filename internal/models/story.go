package models

import "time"

// UserStory belongs to a backlog requirement. StoryCode is the
// "US_<backlog>_<seq>" identifier generated at creation.
type UserStory struct {
	ID                 uint   `gorm:"primaryKey;autoIncrement"`
	StoryCode          string `gorm:"size:32;uniqueIndex"`
	ProductBacklogID   *uint  `gorm:"index"`
	Title              string `gorm:"size:256;not null"`
	Description        string `gorm:"type:text"`
	AcceptanceCriteria string `gorm:"type:text"`
	Effort             *float64
	Priority           string `gorm:"size:8;default:P3"`
	CreatedAt          time.Time

	ProductBacklog *ProductBacklog `gorm:"foreignKey:ProductBacklogID"`
	Tasks          []Task          `gorm:"foreignKey:UserStoryID"`
}
