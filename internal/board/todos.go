package board

import (
	"fmt"
	"time"

	"github.com/zulandar/sprintyard/internal/access"
	"github.com/zulandar/sprintyard/internal/defect"
	"github.com/zulandar/sprintyard/internal/models"
	"github.com/zulandar/sprintyard/internal/sprint"
	"github.com/zulandar/sprintyard/internal/task"
	"gorm.io/gorm"
)

// Todo is one entry on a user's todo list.
type Todo struct {
	Type      string     `json:"type"` // task, defect, sprint, user
	Priority  string     `json:"priority"`
	Title     string     `json:"title"`
	Detail    string     `json:"detail"`
	DueDate   *time.Time `json:"due_date,omitempty"`
	RelatedID uint       `json:"related_id"`
}

// UserTodos aggregates what a user should look at, conditioned on their
// roles: developers see due tasks and defects to fix, testers see resolved
// defects to verify, POs and SMs see sprint alerts, and admins see all of
// that plus users left without a role.
func UserTodos(db *gorm.DB, userID uint, now time.Time) ([]Todo, error) {
	roles, err := access.UserRoles(db, userID)
	if err != nil {
		return nil, err
	}
	has := make(map[string]bool, len(roles))
	for _, r := range roles {
		has[r.Name] = true
	}
	admin := has[access.AdminRole]

	var todos []Todo
	if admin || has["developer"] {
		due, err := dueTasks(db, userID, now)
		if err != nil {
			return nil, err
		}
		todos = append(todos, due...)

		fix, err := defectsToFix(db, userID)
		if err != nil {
			return nil, err
		}
		todos = append(todos, fix...)
	}
	if admin || has["test"] {
		verify, err := defectsToVerify(db, userID)
		if err != nil {
			return nil, err
		}
		todos = append(todos, verify...)
	}
	if admin || has["PO"] || has["SM"] {
		alerts, err := sprintAlerts(db, userID, now)
		if err != nil {
			return nil, err
		}
		todos = append(todos, alerts...)
	}
	if admin {
		orphans, err := usersWithoutRoles(db)
		if err != nil {
			return nil, err
		}
		todos = append(todos, orphans...)
	}
	return todos, nil
}

// dueTasks surfaces the user's unfinished tasks that are overdue or due
// within a day.
func dueTasks(db *gorm.DB, userID uint, now time.Time) ([]Todo, error) {
	soon := now.AddDate(0, 0, 1)
	var tasks []models.Task
	err := db.Where("assignee_id = ? AND status <> ? AND end_date IS NOT NULL AND end_date <= ?",
		userID, task.StatusDone, soon).
		Order("end_date ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("board: due tasks: %w", err)
	}

	var todos []Todo
	for _, t := range tasks {
		due := *t.EndDate
		if due.Before(now) {
			todos = append(todos, Todo{
				Type: "task", Priority: "high",
				Title:   fmt.Sprintf("Overdue task: %s", t.Name),
				Detail:  fmt.Sprintf("%s was due %s", t.TaskCode, due.Format("2006-01-02")),
				DueDate: t.EndDate, RelatedID: t.ID,
			})
		} else {
			todos = append(todos, Todo{
				Type: "task", Priority: "medium",
				Title:   fmt.Sprintf("Task due soon: %s", t.Name),
				Detail:  fmt.Sprintf("%s is due %s", t.TaskCode, due.Format("2006-01-02")),
				DueDate: t.EndDate, RelatedID: t.ID,
			})
		}
	}
	return todos, nil
}

// defectsToFix surfaces open or reopened defects assigned to the user.
func defectsToFix(db *gorm.DB, userID uint) ([]Todo, error) {
	var defects []models.Defect
	err := db.Where("assignee_id = ? AND status IN ?",
		userID, []string{defect.StatusOpen, defect.StatusReopened}).
		Find(&defects).Error
	if err != nil {
		return nil, fmt.Errorf("board: defects to fix: %w", err)
	}

	var todos []Todo
	for _, d := range defects {
		todos = append(todos, Todo{
			Type: "defect", Priority: "high",
			Title:     fmt.Sprintf("Defect to fix: %s", d.Title),
			Detail:    fmt.Sprintf("%s is %s and assigned to you", d.DefectCode, d.Status),
			RelatedID: d.ID,
		})
	}
	return todos, nil
}

// defectsToVerify surfaces resolved defects waiting on the tester.
func defectsToVerify(db *gorm.DB, userID uint) ([]Todo, error) {
	var defects []models.Defect
	err := db.Where("assignee_id = ? AND status = ?", userID, defect.StatusResolved).
		Find(&defects).Error
	if err != nil {
		return nil, fmt.Errorf("board: defects to verify: %w", err)
	}

	var todos []Todo
	for _, d := range defects {
		todos = append(todos, Todo{
			Type: "defect", Priority: "medium",
			Title:     fmt.Sprintf("Defect to verify: %s", d.Title),
			Detail:    fmt.Sprintf("%s is resolved and waiting for verification", d.DefectCode),
			RelatedID: d.ID,
		})
	}
	return todos, nil
}

// sprintAlerts surfaces the user's sprints that need a status move: planned
// ones whose window has started and active ones past their end date.
func sprintAlerts(db *gorm.DB, userID uint, now time.Time) ([]Todo, error) {
	var sprints []models.Sprint
	err := db.Where("product_owner_id = ? OR scrum_master_id = ?", userID, userID).
		Find(&sprints).Error
	if err != nil {
		return nil, fmt.Errorf("board: sprint alerts: %w", err)
	}

	var todos []Todo
	for _, sp := range sprints {
		switch sp.Status {
		case sprint.StatusPlanned:
			if !sp.StartDate.After(now) {
				start := sp.StartDate
				todos = append(todos, Todo{
					Type: "sprint", Priority: "medium",
					Title:   fmt.Sprintf("Sprint should have started: %s", sp.Name),
					Detail:  fmt.Sprintf("%s was planned to start %s", sp.Name, start.Format("2006-01-02")),
					DueDate: &start, RelatedID: sp.ID,
				})
			}
		case sprint.StatusActive:
			if sp.EndDate.Before(now) {
				end := sp.EndDate
				todos = append(todos, Todo{
					Type: "sprint", Priority: "high",
					Title:   fmt.Sprintf("Sprint overdue: %s", sp.Name),
					Detail:  fmt.Sprintf("%s ended %s but is still active", sp.Name, end.Format("2006-01-02")),
					DueDate: &end, RelatedID: sp.ID,
				})
			}
		}
	}
	return todos, nil
}

// usersWithoutRoles surfaces accounts nobody has assigned a role yet.
func usersWithoutRoles(db *gorm.DB) ([]Todo, error) {
	var users []models.User
	err := db.Where("id NOT IN (?)", db.Model(&models.UserRole{}).Select("user_id")).
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("board: users without roles: %w", err)
	}

	var todos []Todo
	for _, u := range users {
		todos = append(todos, Todo{
			Type: "user", Priority: "low",
			Title:     fmt.Sprintf("User has no role: %s", u.Name),
			Detail:    fmt.Sprintf("%s cannot reach any gated feature until a role is assigned", u.Name),
			RelatedID: u.ID,
		})
	}
	return todos, nil
}
