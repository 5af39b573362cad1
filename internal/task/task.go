// Package task provides task lifecycle operations.
package task

import (
	"errors"
	"fmt"
	"time"

	"github.com/zulandar/sprintyard/internal/ident"
	"github.com/zulandar/sprintyard/internal/models"
	"gorm.io/gorm"
)

// Task statuses.
const (
	StatusTodo    = "todo"
	StatusDoing   = "doing"
	StatusDone    = "done"
	StatusBlocked = "blocked"
)

// ValidTransitions maps each task status to its valid next statuses.
// The special case "any → blocked" is handled in isValidTransition.
var ValidTransitions = map[string][]string{
	StatusTodo:    {StatusDoing},
	StatusDoing:   {StatusDone, StatusTodo},
	StatusDone:    {},
	StatusBlocked: {StatusTodo, StatusDoing},
}

// CreateOpts holds parameters for creating a task.
type CreateOpts struct {
	UserStoryID    uint
	Name           string
	Description    string
	TaskType       string
	Priority       string // high, medium, low; default medium
	AssigneeID     *uint
	StartDate      *time.Time
	EndDate        *time.Time
	EstimatedHours *float64
}

// ListFilters holds optional filters for listing tasks.
type ListFilters struct {
	UserStoryID *uint
	Status      string
	AssigneeID  *uint
}

// Create adds a task under a story with a freshly generated
// "TA_<story code>_NNN" code.
func Create(db *gorm.DB, opts CreateOpts) (*models.Task, error) {
	if opts.Name == "" {
		return nil, fmt.Errorf("task: name is required")
	}
	if opts.Priority == "" {
		opts.Priority = "medium"
	}
	if !models.ValidTaskPriority(opts.Priority) {
		return nil, fmt.Errorf("task: unknown priority %q", opts.Priority)
	}
	if opts.StartDate != nil && opts.EndDate != nil && opts.EndDate.Before(*opts.StartDate) {
		return nil, fmt.Errorf("task: end date precedes start date")
	}

	tk := models.Task{
		UserStoryID:    opts.UserStoryID,
		Name:           opts.Name,
		Description:    opts.Description,
		Status:         StatusTodo,
		TaskType:       opts.TaskType,
		Priority:       opts.Priority,
		AssigneeID:     opts.AssigneeID,
		StartDate:      opts.StartDate,
		EndDate:        opts.EndDate,
		EstimatedHours: opts.EstimatedHours,
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		code, err := ident.NextTaskCode(tx, opts.UserStoryID)
		if err != nil {
			return err
		}
		tk.TaskCode = code
		if err := tx.Create(&tk).Error; err != nil {
			return fmt.Errorf("task: create: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &tk, nil
}

// Get retrieves a task by ID.
func Get(db *gorm.DB, id uint) (*models.Task, error) {
	var tk models.Task
	if err := db.First(&tk, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("task: not found: %d", id)
		}
		return nil, fmt.Errorf("task: get %d: %w", id, err)
	}
	return &tk, nil
}

// List returns tasks matching the filters.
func List(db *gorm.DB, filters ListFilters) ([]models.Task, error) {
	q := db.Model(&models.Task{})
	if filters.UserStoryID != nil {
		q = q.Where("user_story_id = ?", *filters.UserStoryID)
	}
	if filters.Status != "" {
		q = q.Where("status = ?", filters.Status)
	}
	if filters.AssigneeID != nil {
		q = q.Where("assignee_id = ?", *filters.AssigneeID)
	}

	var tasks []models.Task
	if err := q.Order("created_at ASC, id ASC").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("task: list: %w", err)
	}
	return tasks, nil
}

// Update modifies task fields. Status transitions are validated; moving to
// doing stamps the actual start, moving to done stamps completion.
func Update(db *gorm.DB, id uint, updates map[string]interface{}) error {
	var tk models.Task
	if err := db.First(&tk, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("task: not found: %d", id)
		}
		return fmt.Errorf("task: get %d for update: %w", id, err)
	}

	if newStatus, ok := updates["status"].(string); ok && newStatus != tk.Status {
		if !isValidTransition(tk.Status, newStatus) {
			return fmt.Errorf("task: invalid status transition from %q to %q; valid transitions: %v",
				tk.Status, newStatus, ValidTransitions[tk.Status])
		}
		now := time.Now()
		if newStatus == StatusDoing && tk.ActualStartDate == nil {
			updates["actual_start_date"] = now
		}
		if newStatus == StatusDone {
			if _, ok := updates["actual_end_date"]; !ok {
				updates["actual_end_date"] = now
			}
			if _, ok := updates["completed_at"]; !ok {
				updates["completed_at"] = now
			}
		}
	}
	if p, ok := updates["priority"].(string); ok && !models.ValidTaskPriority(p) {
		return fmt.Errorf("task: unknown priority %q", p)
	}

	if err := db.Model(&models.Task{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return fmt.Errorf("task: update %d: %w", id, err)
	}
	return nil
}

// Delete removes a task.
func Delete(db *gorm.DB, id uint) error {
	result := db.Delete(&models.Task{}, id)
	if result.Error != nil {
		return fmt.Errorf("task: delete %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("task: not found: %d", id)
	}
	return nil
}

// isValidTransition checks whether a status transition is allowed.
func isValidTransition(from, to string) bool {
	if to == StatusBlocked {
		return from != StatusDone
	}
	for _, v := range ValidTransitions[from] {
		if v == to {
			return true
		}
	}
	return false
}
