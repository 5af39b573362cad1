package board

import (
	"testing"
	"time"

	"github.com/zulandar/sprintyard/internal/access"
	"github.com/zulandar/sprintyard/internal/defect"
	"github.com/zulandar/sprintyard/internal/models"
	"github.com/zulandar/sprintyard/internal/sprint"
	"github.com/zulandar/sprintyard/internal/task"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	err = db.AutoMigrate(
		&models.User{}, &models.Role{}, &models.UserRole{},
		&models.SystemFeature{}, &models.RoleSystemFeature{},
		&models.ProjectInfo{}, &models.UserStory{}, &models.Task{},
		&models.Sprint{}, &models.SprintBacklog{}, &models.Defect{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// seedSprint builds an active two-week sprint with one committed 10-point
// story carrying two tasks.
func seedSprint(t *testing.T, db *gorm.DB, start time.Time) (*models.Sprint, *models.UserStory, []*models.Task) {
	t.Helper()
	sp, err := sprint.Create(db, sprint.CreateOpts{
		Name: "Sprint 1", StartDate: start, EndDate: start.AddDate(0, 0, 13),
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := sprint.Start(db, sp.ID); err != nil {
		t.Fatal(err)
	}

	story := &models.UserStory{Title: "checkout", StoryCode: "US_001_001"}
	if err := db.Create(story).Error; err != nil {
		t.Fatal(err)
	}
	pts := 10.0
	if _, err := sprint.AddStory(db, sp.ID, story.ID, sprint.ItemOpts{StoryPoints: &pts}); err != nil {
		t.Fatal(err)
	}

	var tasks []*models.Task
	for _, name := range []string{"backend", "frontend"} {
		tk, err := task.Create(db, task.CreateOpts{UserStoryID: story.ID, Name: name})
		if err != nil {
			t.Fatal(err)
		}
		tasks = append(tasks, tk)
	}
	return sp, story, tasks
}

func TestKanban(t *testing.T) {
	db := openTestDB(t)
	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	sp, _, tasks := seedSprint(t, db, start)

	task.Update(db, tasks[0].ID, map[string]interface{}{"status": task.StatusDoing})

	snap, err := Kanban(db, sp.ID)
	if err != nil {
		t.Fatalf("Kanban: %v", err)
	}
	if len(snap.Columns) != 4 {
		t.Fatalf("%d columns", len(snap.Columns))
	}
	byStatus := make(map[string]int)
	for _, c := range snap.Columns {
		byStatus[c.Status] = len(c.Tasks)
	}
	if byStatus[task.StatusTodo] != 1 || byStatus[task.StatusDoing] != 1 {
		t.Errorf("column sizes: %v", byStatus)
	}
	if len(snap.Stories) != 1 || len(snap.Stories[0].Tasks) != 2 {
		t.Errorf("story lanes: %+v", snap.Stories)
	}

	if _, err := Kanban(db, 404); err == nil {
		t.Error("snapshot of missing sprint succeeded")
	}
}

func TestBurndown(t *testing.T) {
	db := openTestDB(t)
	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	sp, _, tasks := seedSprint(t, db, start)

	// Finish one of the two tasks on day three.
	task.Update(db, tasks[0].ID, map[string]interface{}{"status": task.StatusDoing})
	task.Update(db, tasks[0].ID, map[string]interface{}{
		"status":       task.StatusDone,
		"completed_at": start.AddDate(0, 0, 2),
	})

	series, err := Burndown(db, sp.ID)
	if err != nil {
		t.Fatalf("Burndown: %v", err)
	}
	if len(series) != 14 {
		t.Fatalf("%d points, want 14", len(series))
	}
	if series[0].Ideal != 10 {
		t.Errorf("day 0 ideal = %v", series[0].Ideal)
	}
	if series[0].Remaining != 10 {
		t.Errorf("day 0 remaining = %v", series[0].Remaining)
	}
	// Half the story's tasks done burns half its points.
	if series[2].Remaining != 5 {
		t.Errorf("day 2 remaining = %v, want 5", series[2].Remaining)
	}
	if series[13].Ideal != 10.0/14 {
		t.Errorf("last ideal = %v", series[13].Ideal)
	}
}

func grantRole(t *testing.T, db *gorm.DB, userID uint, roleName string) {
	t.Helper()
	if _, err := access.CreateRole(db, access.RoleOpts{Name: roleName, DisplayName: roleName}); err != nil {
		t.Fatal(err)
	}
	if err := access.GrantRole(db, userID, roleName); err != nil {
		t.Fatal(err)
	}
}

func TestUserTodos_Developer(t *testing.T) {
	db := openTestDB(t)
	now := time.Date(2026, 9, 10, 12, 0, 0, 0, time.UTC)

	dev := &models.User{Name: "dev"}
	db.Create(dev)
	grantRole(t, db, dev.ID, "developer")

	project := &models.ProjectInfo{Name: "Acme", NodeType: "project", Path: "/Acme"}
	db.Create(project)
	story := &models.UserStory{Title: "s", StoryCode: "US_001_001"}
	db.Create(story)

	overdueDate := now.AddDate(0, 0, -2)
	task.Create(db, task.CreateOpts{
		UserStoryID: story.ID, Name: "late", AssigneeID: &dev.ID, EndDate: &overdueDate,
	})
	farDate := now.AddDate(0, 0, 10)
	task.Create(db, task.CreateOpts{
		UserStoryID: story.ID, Name: "not yet", AssigneeID: &dev.ID, EndDate: &farDate,
	})
	defect.Create(db, defect.CreateOpts{
		Title: "bug", ProjectID: project.ID, CreatedByID: 1, AssigneeID: &dev.ID,
	})

	todos, err := UserTodos(db, dev.ID, now)
	if err != nil {
		t.Fatalf("UserTodos: %v", err)
	}
	var kinds []string
	for _, td := range todos {
		kinds = append(kinds, td.Type)
	}
	if len(todos) != 2 {
		t.Fatalf("todos = %v", kinds)
	}
	if todos[0].Type != "task" || todos[0].Priority != "high" {
		t.Errorf("first todo: %+v", todos[0])
	}
	if todos[1].Type != "defect" {
		t.Errorf("second todo: %+v", todos[1])
	}
}

func TestUserTodos_TesterAndScrumMaster(t *testing.T) {
	db := openTestDB(t)
	now := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)

	qa := &models.User{Name: "qa"}
	db.Create(qa)
	grantRole(t, db, qa.ID, "test")

	project := &models.ProjectInfo{Name: "Acme", NodeType: "project", Path: "/Acme"}
	db.Create(project)
	d, _ := defect.Create(db, defect.CreateOpts{
		Title: "bug", ProjectID: project.ID, CreatedByID: 1, AssigneeID: &qa.ID,
	})
	defect.Update(db, d.ID, map[string]interface{}{"status": defect.StatusFixing})
	defect.Resolve(db, d.ID, 2, "fixed")

	todos, err := UserTodos(db, qa.ID, now)
	if err != nil {
		t.Fatalf("UserTodos: %v", err)
	}
	if len(todos) != 1 || todos[0].Type != "defect" {
		t.Fatalf("tester todos: %+v", todos)
	}

	sm := &models.User{Name: "sm"}
	db.Create(sm)
	grantRole(t, db, sm.ID, "SM")
	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	sp, _ := sprint.Create(db, sprint.CreateOpts{
		Name: "Sprint 1", StartDate: start, EndDate: start.AddDate(0, 0, 13),
		ScrumMasterID: &sm.ID,
	})
	sprint.Start(db, sp.ID)

	todos, err = UserTodos(db, sm.ID, now)
	if err != nil {
		t.Fatalf("UserTodos(sm): %v", err)
	}
	if len(todos) != 1 || todos[0].Type != "sprint" || todos[0].Priority != "high" {
		t.Fatalf("sm todos: %+v", todos)
	}
}

func TestUserTodos_AdminSeesRolelessUsers(t *testing.T) {
	db := openTestDB(t)
	now := time.Now()

	root := &models.User{Name: "root"}
	db.Create(root)
	grantRole(t, db, root.ID, access.AdminRole)
	db.Create(&models.User{Name: "newcomer"})

	todos, err := UserTodos(db, root.ID, now)
	if err != nil {
		t.Fatalf("UserTodos: %v", err)
	}
	found := false
	for _, td := range todos {
		if td.Type == "user" {
			found = true
		}
	}
	if !found {
		t.Errorf("no roleless-user alert in %+v", todos)
	}
}
