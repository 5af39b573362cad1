package models

import "time"

// GameRound is one planning-poker round for a user story. A round is open
// until EndTime is set.
type GameRound struct {
	ID          uint  `gorm:"primaryKey;autoIncrement"`
	UserStoryID *uint `gorm:"index"`
	StartTime   time.Time
	EndTime     *time.Time

	UserStory *UserStory `gorm:"foreignKey:UserStoryID"`
	Estimates []Estimate `gorm:"foreignKey:RoundID"`
}

// Estimate is one player's card in a round.
type Estimate struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	UserID    uint   `gorm:"not null;index"`
	RoundID   uint   `gorm:"not null;index"`
	CardValue string `gorm:"size:16;not null"`
	CreatedAt time.Time

	User User `gorm:"foreignKey:UserID"`
}
