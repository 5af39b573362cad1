// Package poker runs planning-poker estimation rounds for user stories.
package poker

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/zulandar/sprintyard/internal/models"
	"gorm.io/gorm"
)

// Cards is the deck players pick from. The last three are non-numeric and
// stay out of the average.
var Cards = []string{"0", "1", "2", "3", "5", "8", "13", "21", "34", "55", "?", "∞", "coffee"}

var validCards = func() map[string]bool {
	m := make(map[string]bool, len(Cards))
	for _, c := range Cards {
		m[c] = true
	}
	return m
}()

// Stats summarizes a revealed round.
type Stats struct {
	Estimates   []models.Estimate
	Average     float64
	Consensus   bool
	ValueCounts map[string]int
}

// StartRound returns the story's open round, creating one if none exists.
// A story has at most one open round at a time.
func StartRound(db *gorm.DB, storyID uint) (*models.GameRound, error) {
	if err := db.First(&models.UserStory{}, storyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("poker: story not found: %d", storyID)
		}
		return nil, fmt.Errorf("poker: get story %d: %w", storyID, err)
	}

	var round models.GameRound
	err := db.Where("user_story_id = ? AND end_time IS NULL", storyID).First(&round).Error
	if err == nil {
		return &round, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("poker: find open round for story %d: %w", storyID, err)
	}

	round = models.GameRound{UserStoryID: &storyID, StartTime: time.Now()}
	if err := db.Create(&round).Error; err != nil {
		return nil, fmt.Errorf("poker: start round: %w", err)
	}
	return &round, nil
}

// OpenRound returns the story's open round, or nil when none exists.
func OpenRound(db *gorm.DB, storyID uint) (*models.GameRound, error) {
	var round models.GameRound
	err := db.Where("user_story_id = ? AND end_time IS NULL", storyID).First(&round).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("poker: find open round for story %d: %w", storyID, err)
	}
	return &round, nil
}

// SubmitEstimate records a player's card in an open round. Submitting again
// replaces the earlier card.
func SubmitEstimate(db *gorm.DB, roundID, userID uint, card string) (*models.Estimate, error) {
	if !validCards[card] {
		return nil, fmt.Errorf("poker: unknown card %q", card)
	}

	round, err := getRound(db, roundID)
	if err != nil {
		return nil, err
	}
	if round.EndTime != nil {
		return nil, fmt.Errorf("poker: round %d is closed", roundID)
	}

	var est models.Estimate
	err = db.Where("round_id = ? AND user_id = ?", roundID, userID).First(&est).Error
	switch {
	case err == nil:
		if err := db.Model(&est).Update("card_value", card).Error; err != nil {
			return nil, fmt.Errorf("poker: update estimate: %w", err)
		}
		est.CardValue = card
	case errors.Is(err, gorm.ErrRecordNotFound):
		est = models.Estimate{RoundID: roundID, UserID: userID, CardValue: card}
		if err := db.Create(&est).Error; err != nil {
			return nil, fmt.Errorf("poker: submit estimate: %w", err)
		}
	default:
		return nil, fmt.Errorf("poker: find estimate: %w", err)
	}
	return &est, nil
}

// Progress reports how many players have played in a round.
func Progress(db *gorm.DB, roundID uint) (played int64, total int64, err error) {
	if _, err := getRound(db, roundID); err != nil {
		return 0, 0, err
	}
	err = db.Model(&models.Estimate{}).Where("round_id = ?", roundID).Count(&played).Error
	if err != nil {
		return 0, 0, fmt.Errorf("poker: count estimates: %w", err)
	}
	if err := db.Model(&models.User{}).Count(&total).Error; err != nil {
		return 0, 0, fmt.Errorf("poker: count users: %w", err)
	}
	return played, total, nil
}

// Reveal closes an open round and returns its estimates with consensus
// stats. The average covers numeric cards only; consensus means everyone
// played the same card.
func Reveal(db *gorm.DB, roundID uint) (*Stats, error) {
	round, err := getRound(db, roundID)
	if err != nil {
		return nil, err
	}
	if round.EndTime != nil {
		return nil, fmt.Errorf("poker: round %d is already revealed", roundID)
	}

	var estimates []models.Estimate
	err = db.Where("round_id = ?", roundID).Order("created_at ASC, id ASC").Find(&estimates).Error
	if err != nil {
		return nil, fmt.Errorf("poker: load estimates: %w", err)
	}

	now := time.Now()
	if err := db.Model(round).Update("end_time", now).Error; err != nil {
		return nil, fmt.Errorf("poker: close round %d: %w", roundID, err)
	}

	return buildStats(estimates), nil
}

// NewRound closes the story's open round, if any, and opens a fresh one.
func NewRound(db *gorm.DB, storyID uint) (*models.GameRound, error) {
	now := time.Now()
	err := db.Model(&models.GameRound{}).
		Where("user_story_id = ? AND end_time IS NULL", storyID).
		Update("end_time", now).Error
	if err != nil {
		return nil, fmt.Errorf("poker: close open round for story %d: %w", storyID, err)
	}
	return StartRound(db, storyID)
}

func getRound(db *gorm.DB, roundID uint) (*models.GameRound, error) {
	var round models.GameRound
	if err := db.First(&round, roundID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("poker: round not found: %d", roundID)
		}
		return nil, fmt.Errorf("poker: get round %d: %w", roundID, err)
	}
	return &round, nil
}

func buildStats(estimates []models.Estimate) *Stats {
	stats := &Stats{
		Estimates:   estimates,
		ValueCounts: make(map[string]int),
	}

	var sum float64
	var numeric int
	for _, e := range estimates {
		stats.ValueCounts[e.CardValue]++
		if v, err := strconv.ParseFloat(e.CardValue, 64); err == nil {
			sum += v
			numeric++
		}
	}
	if numeric > 0 {
		stats.Average = sum / float64(numeric)
	}
	stats.Consensus = len(estimates) > 0 && len(stats.ValueCounts) == 1
	return stats
}
