// Package sprint manages iteration windows and their committed stories.
package sprint

import (
	"errors"
	"fmt"
	"time"

	"github.com/zulandar/sprintyard/internal/models"
	"gorm.io/gorm"
)

// Sprint statuses.
const (
	StatusPlanned   = "planned"
	StatusActive    = "active"
	StatusCompleted = "completed"
)

// ValidTransitions defines allowed sprint status transitions.
var ValidTransitions = map[string][]string{
	StatusPlanned:   {StatusActive},
	StatusActive:    {StatusCompleted},
	StatusCompleted: {},
}

// Sprint backlog item statuses, the kanban columns.
var itemStatuses = map[string]bool{
	"todo":    true,
	"doing":   true,
	"testing": true,
	"done":    true,
}

// CreateOpts holds parameters for creating a sprint.
type CreateOpts struct {
	Name           string
	StartDate      time.Time
	EndDate        time.Time
	Team           string
	ProductOwnerID *uint
	ScrumMasterID  *uint
	ProjectID      *uint
}

// ListFilters holds optional filters for listing sprints.
type ListFilters struct {
	ProjectID *uint
	Status    string
}

// Create adds a sprint in the planned state.
func Create(db *gorm.DB, opts CreateOpts) (*models.Sprint, error) {
	if opts.Name == "" {
		return nil, fmt.Errorf("sprint: name is required")
	}
	if opts.StartDate.IsZero() || opts.EndDate.IsZero() {
		return nil, fmt.Errorf("sprint: start and end dates are required")
	}
	if opts.EndDate.Before(opts.StartDate) {
		return nil, fmt.Errorf("sprint: end date precedes start date")
	}

	sp := models.Sprint{
		Name:           opts.Name,
		StartDate:      opts.StartDate,
		EndDate:        opts.EndDate,
		Team:           opts.Team,
		ProductOwnerID: opts.ProductOwnerID,
		ScrumMasterID:  opts.ScrumMasterID,
		ProjectID:      opts.ProjectID,
		Status:         StatusPlanned,
	}
	if err := db.Create(&sp).Error; err != nil {
		return nil, fmt.Errorf("sprint: create: %w", err)
	}
	return &sp, nil
}

// Get retrieves a sprint with its backlog items and their stories.
func Get(db *gorm.DB, id uint) (*models.Sprint, error) {
	var sp models.Sprint
	err := db.Preload("Backlogs").Preload("Backlogs.UserStory").First(&sp, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("sprint: not found: %d", id)
		}
		return nil, fmt.Errorf("sprint: get %d: %w", id, err)
	}
	return &sp, nil
}

// List returns sprints matching the filters, newest start first.
func List(db *gorm.DB, filters ListFilters) ([]models.Sprint, error) {
	q := db.Model(&models.Sprint{})
	if filters.ProjectID != nil {
		q = q.Where("project_id = ?", *filters.ProjectID)
	}
	if filters.Status != "" {
		q = q.Where("status = ?", filters.Status)
	}

	var sprints []models.Sprint
	if err := q.Order("start_date DESC, id DESC").Find(&sprints).Error; err != nil {
		return nil, fmt.Errorf("sprint: list: %w", err)
	}
	return sprints, nil
}

// Update modifies sprint fields. Direct status edits must still follow the
// planned/active/completed transitions; Start and Complete are the normal way.
func Update(db *gorm.DB, id uint, updates map[string]interface{}) error {
	var sp models.Sprint
	if err := db.First(&sp, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("sprint: not found: %d", id)
		}
		return fmt.Errorf("sprint: get %d for update: %w", id, err)
	}

	if newStatus, ok := updates["status"].(string); ok && newStatus != sp.Status {
		if !isValidTransition(sp.Status, newStatus) {
			return fmt.Errorf("sprint: invalid status transition from %q to %q; valid transitions: %v",
				sp.Status, newStatus, ValidTransitions[sp.Status])
		}
	}

	if err := db.Model(&models.Sprint{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return fmt.Errorf("sprint: update %d: %w", id, err)
	}
	return nil
}

// Start moves a planned sprint to active.
func Start(db *gorm.DB, id uint) (*models.Sprint, error) {
	return transition(db, id, StatusActive)
}

// Complete moves an active sprint to completed.
func Complete(db *gorm.DB, id uint) (*models.Sprint, error) {
	return transition(db, id, StatusCompleted)
}

func transition(db *gorm.DB, id uint, to string) (*models.Sprint, error) {
	var sp models.Sprint
	if err := db.First(&sp, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("sprint: not found: %d", id)
		}
		return nil, fmt.Errorf("sprint: get %d: %w", id, err)
	}
	if !isValidTransition(sp.Status, to) {
		return nil, fmt.Errorf("sprint: invalid status transition from %q to %q; valid transitions: %v",
			sp.Status, to, ValidTransitions[sp.Status])
	}
	if err := db.Model(&sp).Update("status", to).Error; err != nil {
		return nil, fmt.Errorf("sprint: update %d: %w", id, err)
	}
	sp.Status = to
	return &sp, nil
}

// Delete removes a sprint and its backlog commitments.
func Delete(db *gorm.DB, id uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&models.Sprint{}, id)
		if result.Error != nil {
			return fmt.Errorf("sprint: delete %d: %w", id, result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("sprint: not found: %d", id)
		}
		err := tx.Where("sprint_id = ?", id).Delete(&models.SprintBacklog{}).Error
		if err != nil {
			return fmt.Errorf("sprint: delete backlog of %d: %w", id, err)
		}
		return nil
	})
}

// ItemOpts holds parameters for committing a story to a sprint.
type ItemOpts struct {
	StoryPoints *float64
	Priority    string
	AssigneeID  *uint
}

// AddStory commits a story to a sprint. A story can appear in a given
// sprint at most once.
func AddStory(db *gorm.DB, sprintID, storyID uint, opts ItemOpts) (*models.SprintBacklog, error) {
	if err := db.First(&models.Sprint{}, sprintID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("sprint: not found: %d", sprintID)
		}
		return nil, fmt.Errorf("sprint: get %d: %w", sprintID, err)
	}
	if err := db.First(&models.UserStory{}, storyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("sprint: story not found: %d", storyID)
		}
		return nil, fmt.Errorf("sprint: get story %d: %w", storyID, err)
	}

	var count int64
	err := db.Model(&models.SprintBacklog{}).
		Where("sprint_id = ? AND user_story_id = ?", sprintID, storyID).
		Count(&count).Error
	if err != nil {
		return nil, fmt.Errorf("sprint: check membership: %w", err)
	}
	if count > 0 {
		return nil, fmt.Errorf("sprint: story %d already committed to sprint %d", storyID, sprintID)
	}

	if opts.Priority == "" {
		opts.Priority = "P3"
	}
	if !models.ValidPriority(opts.Priority) {
		return nil, fmt.Errorf("sprint: unknown priority %q", opts.Priority)
	}

	item := models.SprintBacklog{
		SprintID:    sprintID,
		UserStoryID: storyID,
		StoryPoints: opts.StoryPoints,
		Status:      "todo",
		Priority:    opts.Priority,
		AssigneeID:  opts.AssigneeID,
	}
	if err := db.Create(&item).Error; err != nil {
		return nil, fmt.Errorf("sprint: add story: %w", err)
	}
	return &item, nil
}

// UpdateItem modifies a sprint backlog item. Item statuses are free to move
// between the kanban columns in any direction.
func UpdateItem(db *gorm.DB, itemID uint, updates map[string]interface{}) error {
	if s, ok := updates["status"].(string); ok && !itemStatuses[s] {
		return fmt.Errorf("sprint: unknown item status %q", s)
	}
	if p, ok := updates["priority"].(string); ok && !models.ValidPriority(p) {
		return fmt.Errorf("sprint: unknown priority %q", p)
	}

	result := db.Model(&models.SprintBacklog{}).Where("id = ?", itemID).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("sprint: update item %d: %w", itemID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("sprint: item not found: %d", itemID)
	}
	return nil
}

// RemoveStory drops a story from a sprint.
func RemoveStory(db *gorm.DB, sprintID, storyID uint) error {
	result := db.Where("sprint_id = ? AND user_story_id = ?", sprintID, storyID).
		Delete(&models.SprintBacklog{})
	if result.Error != nil {
		return fmt.Errorf("sprint: remove story: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("sprint: story %d not in sprint %d", storyID, sprintID)
	}
	return nil
}

// isValidTransition checks whether a sprint status transition is allowed.
func isValidTransition(from, to string) bool {
	for _, v := range ValidTransitions[from] {
		if v == to {
			return true
		}
	}
	return false
}
