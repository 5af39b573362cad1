// Package defect manages bug records and their fix/verify lifecycle.
package defect

import (
	"errors"
	"fmt"
	"time"

	"github.com/zulandar/sprintyard/internal/ident"
	"github.com/zulandar/sprintyard/internal/models"
	"gorm.io/gorm"
)

// Defect statuses.
const (
	StatusOpen     = "open"
	StatusFixing   = "fixing"
	StatusResolved = "resolved"
	StatusVerified = "verified"
	StatusClosed   = "closed"
	StatusReopened = "reopened"
)

// ValidTransitions defines allowed defect status transitions. A defect only
// closes after a tester verifies the fix; anything past resolved can bounce
// back to reopened.
var ValidTransitions = map[string][]string{
	StatusOpen:     {StatusFixing},
	StatusFixing:   {StatusResolved},
	StatusResolved: {StatusVerified, StatusReopened},
	StatusVerified: {StatusClosed, StatusReopened},
	StatusClosed:   {StatusReopened},
	StatusReopened: {StatusFixing},
}

var severities = map[string]bool{
	"critical": true,
	"major":    true,
	"normal":   true,
	"minor":    true,
}

var defectTypes = map[string]bool{
	"functional":    true,
	"ui":            true,
	"performance":   true,
	"compatibility": true,
	"security":      true,
	"data":          true,
	"other":         true,
}

// CreateOpts holds parameters for creating a defect.
type CreateOpts struct {
	Title       string
	ProjectID   uint
	SprintID    *uint
	Description string
	AssigneeID  *uint
	Priority    string
	IsOnline    bool
	Severity    string
	DefectType  string
	DevTeam     string
	StartDate   *time.Time
	EndDate     *time.Time
	CreatedByID uint
}

// ListFilters holds optional filters for listing defects.
type ListFilters struct {
	ProjectID  *uint
	SprintID   *uint
	AssigneeID *uint
	Status     string
	Severity   string
	IsOnline   *bool
}

// Create adds a defect in the open state with a fresh "F_NNN" code.
func Create(db *gorm.DB, opts CreateOpts) (*models.Defect, error) {
	if opts.Title == "" {
		return nil, fmt.Errorf("defect: title is required")
	}
	if opts.CreatedByID == 0 {
		return nil, fmt.Errorf("defect: reporter is required")
	}
	if opts.Priority == "" {
		opts.Priority = "P3"
	}
	if !models.ValidPriority(opts.Priority) {
		return nil, fmt.Errorf("defect: unknown priority %q", opts.Priority)
	}
	if opts.Severity == "" {
		opts.Severity = "normal"
	}
	if !severities[opts.Severity] {
		return nil, fmt.Errorf("defect: unknown severity %q", opts.Severity)
	}
	if opts.DefectType == "" {
		opts.DefectType = "functional"
	}
	if !defectTypes[opts.DefectType] {
		return nil, fmt.Errorf("defect: unknown defect type %q", opts.DefectType)
	}
	if err := db.First(&models.ProjectInfo{}, opts.ProjectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("defect: project not found: %d", opts.ProjectID)
		}
		return nil, fmt.Errorf("defect: get project %d: %w", opts.ProjectID, err)
	}

	d := models.Defect{
		Title:        opts.Title,
		ProjectID:    opts.ProjectID,
		SprintID:     opts.SprintID,
		WorkItemType: "defect",
		Description:  opts.Description,
		AssigneeID:   opts.AssigneeID,
		Priority:     opts.Priority,
		IsOnline:     opts.IsOnline,
		Severity:     opts.Severity,
		DefectType:   opts.DefectType,
		Status:       StatusOpen,
		DevTeam:      opts.DevTeam,
		StartDate:    opts.StartDate,
		EndDate:      opts.EndDate,
		CreatedByID:  opts.CreatedByID,
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		code, err := ident.NextDefectCode(tx)
		if err != nil {
			return err
		}
		d.DefectCode = code
		if err := tx.Create(&d).Error; err != nil {
			return fmt.Errorf("defect: create: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Get retrieves a defect by ID.
func Get(db *gorm.DB, id uint) (*models.Defect, error) {
	var d models.Defect
	if err := db.First(&d, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("defect: not found: %d", id)
		}
		return nil, fmt.Errorf("defect: get %d: %w", id, err)
	}
	return &d, nil
}

// List returns defects matching the filters, newest first.
func List(db *gorm.DB, filters ListFilters) ([]models.Defect, error) {
	q := db.Model(&models.Defect{})
	if filters.ProjectID != nil {
		q = q.Where("project_id = ?", *filters.ProjectID)
	}
	if filters.SprintID != nil {
		q = q.Where("sprint_id = ?", *filters.SprintID)
	}
	if filters.AssigneeID != nil {
		q = q.Where("assignee_id = ?", *filters.AssigneeID)
	}
	if filters.Status != "" {
		q = q.Where("status = ?", filters.Status)
	}
	if filters.Severity != "" {
		q = q.Where("severity = ?", filters.Severity)
	}
	if filters.IsOnline != nil {
		q = q.Where("is_online = ?", *filters.IsOnline)
	}

	var defects []models.Defect
	if err := q.Order("created_at DESC, id DESC").Find(&defects).Error; err != nil {
		return nil, fmt.Errorf("defect: list: %w", err)
	}
	return defects, nil
}

// Update modifies defect fields. Status moves must follow the lifecycle and
// the defect code is immutable.
func Update(db *gorm.DB, id uint, updates map[string]interface{}) error {
	if _, ok := updates["defect_code"]; ok {
		return fmt.Errorf("defect: defect code is immutable")
	}

	var d models.Defect
	if err := db.First(&d, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("defect: not found: %d", id)
		}
		return fmt.Errorf("defect: get %d for update: %w", id, err)
	}

	if newStatus, ok := updates["status"].(string); ok && newStatus != d.Status {
		if !isValidTransition(d.Status, newStatus) {
			return fmt.Errorf("defect: invalid status transition from %q to %q; valid transitions: %v",
				d.Status, newStatus, ValidTransitions[d.Status])
		}
	}
	if s, ok := updates["severity"].(string); ok && !severities[s] {
		return fmt.Errorf("defect: unknown severity %q", s)
	}
	if dt, ok := updates["defect_type"].(string); ok && !defectTypes[dt] {
		return fmt.Errorf("defect: unknown defect type %q", dt)
	}
	if p, ok := updates["priority"].(string); ok && !models.ValidPriority(p) {
		return fmt.Errorf("defect: unknown priority %q", p)
	}

	if err := db.Model(&models.Defect{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return fmt.Errorf("defect: update %d: %w", id, err)
	}
	return nil
}

// Resolve marks a fixing defect resolved, recording who fixed it and how.
func Resolve(db *gorm.DB, id uint, resolverID uint, resolution string) error {
	if resolution == "" {
		return fmt.Errorf("defect: resolution is required")
	}
	now := time.Now()
	return Update(db, id, map[string]interface{}{
		"status":      StatusResolved,
		"resolver_id": resolverID,
		"resolution":  resolution,
		"end_date":    now,
	})
}

// Close closes a verified defect.
func Close(db *gorm.DB, id uint) error {
	return Update(db, id, map[string]interface{}{"status": StatusClosed})
}

// Reopen sends a resolved, verified or closed defect back for another fix.
func Reopen(db *gorm.DB, id uint) error {
	return Update(db, id, map[string]interface{}{"status": StatusReopened})
}

// Delete removes a defect.
func Delete(db *gorm.DB, id uint) error {
	result := db.Delete(&models.Defect{}, id)
	if result.Error != nil {
		return fmt.Errorf("defect: delete %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("defect: not found: %d", id)
	}
	return nil
}

// isValidTransition checks whether a defect status transition is allowed.
func isValidTransition(from, to string) bool {
	for _, v := range ValidTransitions[from] {
		if v == to {
			return true
		}
	}
	return false
}
