package db

import (
	"fmt"

	"github.com/zulandar/sprintyard/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AllModels returns the list of all GORM models for migration.
func AllModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Role{},
		&models.UserRole{},
		&models.SystemFeature{},
		&models.RoleSystemFeature{},
		&models.ProjectInfo{},
		&models.ProductBacklog{},
		&models.UserStory{},
		&models.Sprint{},
		&models.SprintBacklog{},
		&models.Task{},
		&models.TestCase{},
		&models.Defect{},
		&models.PrototypeImage{},
		&models.AgileKnowledge{},
		&models.GameRound{},
		&models.Estimate{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}

// defaultRoles are the built-in roles seeded at init. "admin" is reserved:
// the access resolver short-circuits for holders.
var defaultRoles = []models.Role{
	{Name: "admin", DisplayName: "Administrator", Description: "Full access to every feature"},
	{Name: "PO", DisplayName: "Product Owner", Description: "Owns the product backlog and priorities"},
	{Name: "SM", DisplayName: "Scrum Master", Description: "Facilitates sprints and removes impediments"},
	{Name: "PM", DisplayName: "Project Manager", Description: "Tracks project structure and progress"},
	{Name: "developer", DisplayName: "Developer", Description: "Implements stories and tasks"},
	{Name: "test", DisplayName: "Tester", Description: "Writes and executes test cases"},
}

// defaultFeatures is the feature registry seeded at init. The auth routes and
// the knowledge reading view are public; everything else requires a grant.
var defaultFeatures = []models.SystemFeature{
	{Name: "Project management", Description: "Project, menu, and page structure", RouteName: "projects.projects", IsEnabled: true, OrderNum: 10},
	{Name: "User stories", Description: "User story CRUD", RouteName: "user_stories.user_stories", IsEnabled: true, OrderNum: 20},
	{Name: "Product backlog", Description: "Product backlog CRUD", RouteName: "product_backlog.product_backlog", IsEnabled: true, OrderNum: 30},
	{Name: "Sprints", Description: "Sprint planning and tracking", RouteName: "sprints.sprints", IsEnabled: true, OrderNum: 40},
	{Name: "Tasks", Description: "Task CRUD", RouteName: "tasks.tasks", IsEnabled: true, OrderNum: 50},
	{Name: "Kanban board", Description: "Sprint kanban and burndown", RouteName: "kanban.kanban", IsEnabled: true, OrderNum: 60},
	{Name: "Knowledge management", Description: "Manage knowledge base articles", RouteName: "knowledge.manage", IsEnabled: true, OrderNum: 70},
	{Name: "Knowledge reading", Description: "Read knowledge base articles", RouteName: "knowledge.knowledge_view", IsEnabled: true, IsPublic: true, OrderNum: 80},
	{Name: "System features", Description: "Feature registry administration", RouteName: "system_features.system_features", IsEnabled: true, OrderNum: 90},
	{Name: "Home", Description: "Landing page", RouteName: "auth.index", IsEnabled: true, IsPublic: true, OrderNum: 100},
	{Name: "Login", Description: "Sign in", RouteName: "auth.login", IsEnabled: true, IsPublic: true, OrderNum: 110},
	{Name: "Register", Description: "Sign up", RouteName: "auth.register", IsEnabled: true, IsPublic: true, OrderNum: 120},
	{Name: "Roles", Description: "Role administration", RouteName: "roles.roles", IsEnabled: true, OrderNum: 130},
	{Name: "Test cases", Description: "Test case CRUD", RouteName: "test_cases.test_cases", IsEnabled: true, OrderNum: 140},
	{Name: "Prototypes", Description: "Prototype image records", RouteName: "prototype.prototype_list", IsEnabled: true, OrderNum: 150},
	{Name: "Defects", Description: "Defect tracking", RouteName: "defects.defects", IsEnabled: true, OrderNum: 160},
}

// SeedRoles upserts the built-in roles by name.
func SeedRoles(db *gorm.DB) error {
	for _, r := range defaultRoles {
		role := r
		result := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"display_name", "description"}),
		}).Create(&role)
		if result.Error != nil {
			return fmt.Errorf("db: seed role %q: %w", r.Name, result.Error)
		}
	}
	return nil
}

// SeedFeatures upserts the feature registry by route name. Enabled/public
// flags are preserved on existing rows so admin toggles survive re-seeding.
func SeedFeatures(db *gorm.DB) error {
	for _, f := range defaultFeatures {
		feature := f
		result := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "route_name"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "description", "order_num"}),
		}).Create(&feature)
		if result.Error != nil {
			return fmt.Errorf("db: seed feature %q: %w", f.RouteName, result.Error)
		}
	}
	return nil
}
