// Package backlog provides product backlog lifecycle operations.
package backlog

import (
	"errors"
	"fmt"

	"github.com/zulandar/sprintyard/internal/ident"
	"github.com/zulandar/sprintyard/internal/models"
	"gorm.io/gorm"
)

// Requirement statuses.
const (
	StatusDiscussion = "discussion" // raised, awaiting refinement
	StatusClarified  = "clarified"  // understood and accepted
	StatusCommitted  = "committed"  // pulled into a sprint
	StatusDone       = "done"
)

// ValidTransitions maps each requirement status to its valid next statuses.
var ValidTransitions = map[string][]string{
	StatusDiscussion: {StatusClarified},
	StatusClarified:  {StatusCommitted, StatusDiscussion},
	StatusCommitted:  {StatusDone, StatusClarified},
	StatusDone:       {},
}

// Progress stages for requirement execution.
const (
	ProgressUntouched  = "untouched"
	ProgressAnalyzing  = "analyzing"
	ProgressConfirmed  = "confirmed"
	ProgressDeveloping = "developing"
	ProgressTesting    = "testing"
	ProgressAccepting  = "accepting"
	ProgressReleased   = "released"
)

// progressOrder is the execution pipeline; transitions move one stage in
// either direction.
var progressOrder = []string{
	ProgressUntouched, ProgressAnalyzing, ProgressConfirmed,
	ProgressDeveloping, ProgressTesting, ProgressAccepting, ProgressReleased,
}

// CreateOpts holds parameters for creating a backlog requirement.
type CreateOpts struct {
	Title           string
	Description     string
	RequirementType string
	CustomerOwnerID *uint
	Priority        string // P0-P5, default P3
	ProjectID       *uint
	ProjectModuleID *uint
	AnalystID       *uint
	RelatedInfo     string
	Tags            string
}

// ListFilters holds optional filters for listing requirements.
type ListFilters struct {
	ProjectID *uint
	Status    string
	Priority  string
	AnalystID *uint
}

// Create adds a requirement with a freshly generated "R_NNN" code. Code
// generation and the insert run in one transaction.
func Create(db *gorm.DB, opts CreateOpts) (*models.ProductBacklog, error) {
	if opts.Title == "" {
		return nil, fmt.Errorf("backlog: title is required")
	}
	if opts.Priority == "" {
		opts.Priority = "P3"
	}
	if !models.ValidPriority(opts.Priority) {
		return nil, fmt.Errorf("backlog: unknown priority %q", opts.Priority)
	}

	item := models.ProductBacklog{
		Title:           opts.Title,
		Description:     opts.Description,
		RequirementType: opts.RequirementType,
		CustomerOwnerID: opts.CustomerOwnerID,
		Priority:        opts.Priority,
		Status:          StatusDiscussion,
		Progress:        ProgressUntouched,
		ProjectID:       opts.ProjectID,
		ProjectModuleID: opts.ProjectModuleID,
		AnalystID:       opts.AnalystID,
		RelatedInfo:     opts.RelatedInfo,
		Tags:            opts.Tags,
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		code, err := ident.NextRequirementCode(tx)
		if err != nil {
			return err
		}
		item.RequirementCode = code
		if err := tx.Create(&item).Error; err != nil {
			return fmt.Errorf("backlog: create: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Get retrieves a requirement by ID with its stories preloaded.
func Get(db *gorm.DB, id uint) (*models.ProductBacklog, error) {
	var item models.ProductBacklog
	if err := db.Preload("Stories").First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("backlog: not found: %d", id)
		}
		return nil, fmt.Errorf("backlog: get %d: %w", id, err)
	}
	return &item, nil
}

// List returns requirements matching the filters, newest first.
func List(db *gorm.DB, filters ListFilters) ([]models.ProductBacklog, error) {
	q := db.Model(&models.ProductBacklog{})
	if filters.ProjectID != nil {
		q = q.Where("project_id = ?", *filters.ProjectID)
	}
	if filters.Status != "" {
		q = q.Where("status = ?", filters.Status)
	}
	if filters.Priority != "" {
		q = q.Where("priority = ?", filters.Priority)
	}
	if filters.AnalystID != nil {
		q = q.Where("analyst_id = ?", *filters.AnalystID)
	}

	var items []models.ProductBacklog
	if err := q.Order("created_at DESC, id DESC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("backlog: list: %w", err)
	}
	return items, nil
}

// Update modifies requirement fields. Status and progress changes are
// validated against their transition tables.
func Update(db *gorm.DB, id uint, updates map[string]interface{}) error {
	var item models.ProductBacklog
	if err := db.First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("backlog: not found: %d", id)
		}
		return fmt.Errorf("backlog: get %d for update: %w", id, err)
	}

	if newStatus, ok := updates["status"].(string); ok && newStatus != item.Status {
		if !isValidTransition(item.Status, newStatus) {
			return fmt.Errorf("backlog: invalid status transition from %q to %q; valid transitions: %v",
				item.Status, newStatus, ValidTransitions[item.Status])
		}
	}
	if newProgress, ok := updates["progress"].(string); ok && newProgress != item.Progress {
		if !isValidProgress(item.Progress, newProgress) {
			return fmt.Errorf("backlog: invalid progress change from %q to %q", item.Progress, newProgress)
		}
	}
	if p, ok := updates["priority"].(string); ok && !models.ValidPriority(p) {
		return fmt.Errorf("backlog: unknown priority %q", p)
	}

	if err := db.Model(&models.ProductBacklog{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return fmt.Errorf("backlog: update %d: %w", id, err)
	}
	return nil
}

// Delete removes a requirement. Requirements with stories cannot be deleted.
func Delete(db *gorm.DB, id uint) error {
	var item models.ProductBacklog
	if err := db.First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("backlog: not found: %d", id)
		}
		return fmt.Errorf("backlog: get %d for delete: %w", id, err)
	}

	var stories int64
	if err := db.Model(&models.UserStory{}).Where("product_backlog_id = ?", id).Count(&stories).Error; err != nil {
		return fmt.Errorf("backlog: count stories of %d: %w", id, err)
	}
	if stories > 0 {
		return fmt.Errorf("backlog: requirement %d has %d stories; delete them first", id, stories)
	}

	if err := db.Delete(&models.ProductBacklog{}, id).Error; err != nil {
		return fmt.Errorf("backlog: delete %d: %w", id, err)
	}
	return nil
}

// isValidTransition checks the status transition table.
func isValidTransition(from, to string) bool {
	for _, v := range ValidTransitions[from] {
		if v == to {
			return true
		}
	}
	return false
}

// isValidProgress allows moving one stage forward or back in the pipeline.
func isValidProgress(from, to string) bool {
	fi, ti := -1, -1
	for i, p := range progressOrder {
		if p == from {
			fi = i
		}
		if p == to {
			ti = i
		}
	}
	if fi == -1 || ti == -1 {
		return false
	}
	return ti == fi+1 || ti == fi-1
}
