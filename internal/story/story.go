// Package story provides user story lifecycle operations.
package story

import (
	"errors"
	"fmt"

	"github.com/zulandar/sprintyard/internal/ident"
	"github.com/zulandar/sprintyard/internal/models"
	"gorm.io/gorm"
)

// CreateOpts holds parameters for creating a user story.
type CreateOpts struct {
	ProductBacklogID   uint
	Title              string
	Description        string
	AcceptanceCriteria string
	Effort             *float64
	Priority           string // P0-P5, default P3
}

// ListFilters holds optional filters for listing stories.
type ListFilters struct {
	ProductBacklogID *uint
	Priority         string
}

// Create adds a story under a backlog requirement with a freshly generated
// "US_<backlog>_NNN" code.
func Create(db *gorm.DB, opts CreateOpts) (*models.UserStory, error) {
	if opts.Title == "" {
		return nil, fmt.Errorf("story: title is required")
	}
	if opts.Priority == "" {
		opts.Priority = "P3"
	}
	if !models.ValidPriority(opts.Priority) {
		return nil, fmt.Errorf("story: unknown priority %q", opts.Priority)
	}

	var parent models.ProductBacklog
	if err := db.First(&parent, opts.ProductBacklogID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("story: backlog item not found: %d", opts.ProductBacklogID)
		}
		return nil, fmt.Errorf("story: check backlog item %d: %w", opts.ProductBacklogID, err)
	}

	s := models.UserStory{
		ProductBacklogID:   &parent.ID,
		Title:              opts.Title,
		Description:        opts.Description,
		AcceptanceCriteria: opts.AcceptanceCriteria,
		Effort:             opts.Effort,
		Priority:           opts.Priority,
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		code, err := ident.NextStoryCode(tx, parent.ID)
		if err != nil {
			return err
		}
		s.StoryCode = code
		if err := tx.Create(&s).Error; err != nil {
			return fmt.Errorf("story: create: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Get retrieves a story by ID with its tasks preloaded.
func Get(db *gorm.DB, id uint) (*models.UserStory, error) {
	var s models.UserStory
	if err := db.Preload("Tasks").First(&s, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("story: not found: %d", id)
		}
		return nil, fmt.Errorf("story: get %d: %w", id, err)
	}
	return &s, nil
}

// GetByCode retrieves a story by its "US_NNN_NNN" code.
func GetByCode(db *gorm.DB, code string) (*models.UserStory, error) {
	var s models.UserStory
	if err := db.Where("story_code = ?", code).First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("story: not found: %s", code)
		}
		return nil, fmt.Errorf("story: get %s: %w", code, err)
	}
	return &s, nil
}

// List returns stories matching the filters, newest first.
func List(db *gorm.DB, filters ListFilters) ([]models.UserStory, error) {
	q := db.Model(&models.UserStory{})
	if filters.ProductBacklogID != nil {
		q = q.Where("product_backlog_id = ?", *filters.ProductBacklogID)
	}
	if filters.Priority != "" {
		q = q.Where("priority = ?", filters.Priority)
	}

	var stories []models.UserStory
	if err := q.Order("created_at DESC, id DESC").Find(&stories).Error; err != nil {
		return nil, fmt.Errorf("story: list: %w", err)
	}
	return stories, nil
}

// Update modifies story fields. The generated code is immutable.
func Update(db *gorm.DB, id uint, updates map[string]interface{}) error {
	if _, ok := updates["story_code"]; ok {
		return fmt.Errorf("story: the story code cannot be changed")
	}
	if p, ok := updates["priority"].(string); ok && !models.ValidPriority(p) {
		return fmt.Errorf("story: unknown priority %q", p)
	}

	result := db.Model(&models.UserStory{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("story: update %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("story: not found: %d", id)
	}
	return nil
}

// Delete removes a story. Stories with tasks cannot be deleted.
func Delete(db *gorm.DB, id uint) error {
	var s models.UserStory
	if err := db.First(&s, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("story: not found: %d", id)
		}
		return fmt.Errorf("story: get %d for delete: %w", id, err)
	}

	var tasks int64
	if err := db.Model(&models.Task{}).Where("user_story_id = ?", id).Count(&tasks).Error; err != nil {
		return fmt.Errorf("story: count tasks of %d: %w", id, err)
	}
	if tasks > 0 {
		return fmt.Errorf("story: story %d has %d tasks; delete them first", id, tasks)
	}

	if err := db.Delete(&models.UserStory{}, id).Error; err != nil {
		return fmt.Errorf("story: delete %d: %w", id, err)
	}
	return nil
}
