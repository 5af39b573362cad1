// Package testcase manages test cases and their execution results.
package testcase

import (
	"errors"
	"fmt"
	"time"

	"github.com/zulandar/sprintyard/internal/ident"
	"github.com/zulandar/sprintyard/internal/models"
	"gorm.io/gorm"
)

// Edit statuses track whether a case definition is current.
const (
	EditNew      = "new"
	EditModified = "modified"
	EditObsolete = "obsolete"
)

// Execution statuses.
const (
	ExecTodo  = "todo"
	ExecDoing = "doing"
	ExecDone  = "done"
)

// Test results.
const (
	ResultPass      = "pass"
	ResultFail      = "fail"
	ResultBlocked   = "blocked"
	ResultCancelled = "cancelled"
)

var editStatuses = map[string]bool{EditNew: true, EditModified: true, EditObsolete: true}
var execStatuses = map[string]bool{ExecTodo: true, ExecDoing: true, ExecDone: true}
var results = map[string]bool{ResultPass: true, ResultFail: true, ResultBlocked: true, ResultCancelled: true}

// CreateOpts holds parameters for creating a test case.
type CreateOpts struct {
	ProjectID       uint
	UserStoryID     uint
	SprintID        *uint
	ProjectModule   string
	CaseType        string
	FunctionPoint   string
	Title           string
	Precondition    string
	Steps           string
	ExpectedResult  string
	TestEnvironment string
	Priority        string
	IsAutomated     bool
	CreatedByID     *uint
}

// ListFilters holds optional filters for listing test cases.
type ListFilters struct {
	ProjectID       *uint
	UserStoryID     *uint
	SprintID        *uint
	ExecutionStatus string
	TestResult      string
}

// Create adds a test case. The case code is scoped by the owning project's
// short name and the story's code, so the story must hang off a project root
// that has one.
func Create(db *gorm.DB, opts CreateOpts) (*models.TestCase, error) {
	if opts.Title == "" {
		return nil, fmt.Errorf("testcase: title is required")
	}
	if opts.Priority == "" {
		opts.Priority = "P3"
	}
	if !models.ValidPriority(opts.Priority) {
		return nil, fmt.Errorf("testcase: unknown priority %q", opts.Priority)
	}

	var project models.ProjectInfo
	if err := db.First(&project, opts.ProjectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("testcase: project not found: %d", opts.ProjectID)
		}
		return nil, fmt.Errorf("testcase: get project %d: %w", opts.ProjectID, err)
	}

	tc := models.TestCase{
		ProjectID:       opts.ProjectID,
		UserStoryID:     &opts.UserStoryID,
		SprintID:        opts.SprintID,
		ProjectModule:   opts.ProjectModule,
		EditStatus:      EditNew,
		ExecutionStatus: ExecTodo,
		CaseType:        opts.CaseType,
		FunctionPoint:   opts.FunctionPoint,
		Title:           opts.Title,
		Precondition:    opts.Precondition,
		Steps:           opts.Steps,
		ExpectedResult:  opts.ExpectedResult,
		TestEnvironment: opts.TestEnvironment,
		Priority:        opts.Priority,
		IsAutomated:     opts.IsAutomated,
		CreatedByID:     opts.CreatedByID,
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		code, err := ident.NextCaseCode(tx, project.ShortName, opts.UserStoryID)
		if err != nil {
			return err
		}
		tc.CaseCode = code
		if err := tx.Create(&tc).Error; err != nil {
			return fmt.Errorf("testcase: create: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &tc, nil
}

// Get retrieves a test case by ID.
func Get(db *gorm.DB, id uint) (*models.TestCase, error) {
	var tc models.TestCase
	if err := db.First(&tc, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("testcase: not found: %d", id)
		}
		return nil, fmt.Errorf("testcase: get %d: %w", id, err)
	}
	return &tc, nil
}

// List returns test cases matching the filters.
func List(db *gorm.DB, filters ListFilters) ([]models.TestCase, error) {
	q := db.Model(&models.TestCase{})
	if filters.ProjectID != nil {
		q = q.Where("project_id = ?", *filters.ProjectID)
	}
	if filters.UserStoryID != nil {
		q = q.Where("user_story_id = ?", *filters.UserStoryID)
	}
	if filters.SprintID != nil {
		q = q.Where("sprint_id = ?", *filters.SprintID)
	}
	if filters.ExecutionStatus != "" {
		q = q.Where("execution_status = ?", filters.ExecutionStatus)
	}
	if filters.TestResult != "" {
		q = q.Where("test_result = ?", filters.TestResult)
	}

	var cases []models.TestCase
	if err := q.Order("case_code ASC").Find(&cases).Error; err != nil {
		return nil, fmt.Errorf("testcase: list: %w", err)
	}
	return cases, nil
}

// Update modifies test case fields. Editing the definition of an existing
// case flips its edit status to modified unless the caller sets it
// explicitly. The case code never changes.
func Update(db *gorm.DB, id uint, updates map[string]interface{}) error {
	if _, ok := updates["case_code"]; ok {
		return fmt.Errorf("testcase: case code is immutable")
	}
	if s, ok := updates["edit_status"].(string); ok && !editStatuses[s] {
		return fmt.Errorf("testcase: unknown edit status %q", s)
	}
	if s, ok := updates["execution_status"].(string); ok && !execStatuses[s] {
		return fmt.Errorf("testcase: unknown execution status %q", s)
	}
	if r, ok := updates["test_result"].(string); ok && r != "" && !results[r] {
		return fmt.Errorf("testcase: unknown test result %q", r)
	}
	if p, ok := updates["priority"].(string); ok && !models.ValidPriority(p) {
		return fmt.Errorf("testcase: unknown priority %q", p)
	}
	if _, ok := updates["edit_status"]; !ok {
		updates["edit_status"] = EditModified
	}

	result := db.Model(&models.TestCase{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("testcase: update %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("testcase: not found: %d", id)
	}
	return nil
}

// RecordResult records an execution outcome, stamping the tester and time
// and marking execution done.
func RecordResult(db *gorm.DB, id uint, result, actualResult string, testerID *uint) error {
	if !results[result] {
		return fmt.Errorf("testcase: unknown test result %q", result)
	}

	updates := map[string]interface{}{
		"test_result":      result,
		"actual_result":    actualResult,
		"execution_status": ExecDone,
		"tested_by_id":     testerID,
		"tested_at":        time.Now(),
	}
	res := db.Model(&models.TestCase{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("testcase: record result %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("testcase: not found: %d", id)
	}
	return nil
}

// Delete removes a test case.
func Delete(db *gorm.DB, id uint) error {
	result := db.Delete(&models.TestCase{}, id)
	if result.Error != nil {
		return fmt.Errorf("testcase: delete %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("testcase: not found: %d", id)
	}
	return nil
}
