package access

import (
	"testing"

	"github.com/zulandar/sprintyard/internal/models"
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
		&models.User{},
		&models.Role{},
		&models.UserRole{},
		&models.SystemFeature{},
		&models.RoleSystemFeature{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func mustCreate(t *testing.T, db *gorm.DB, value interface{}) {
	t.Helper()
	if err := db.Create(value).Error; err != nil {
		t.Fatalf("create %T: %v", value, err)
	}
}

func addFeature(t *testing.T, db *gorm.DB, route string, enabled, public bool) *models.SystemFeature {
	t.Helper()
	f := &models.SystemFeature{Name: route, RouteName: route, IsEnabled: enabled, IsPublic: public}
	mustCreate(t, db, f)
	return f
}

func addUserWithRole(t *testing.T, db *gorm.DB, name, roleName string) (*models.User, *models.Role) {
	t.Helper()
	u := &models.User{Name: name, Credential: "x", Nickname: name, Email: name + "@example.com"}
	mustCreate(t, db, u)
	r := &models.Role{}
	if err := db.Where("name = ?", roleName).First(r).Error; err != nil {
		r = &models.Role{Name: roleName, DisplayName: roleName}
		mustCreate(t, db, r)
	}
	mustCreate(t, db, &models.UserRole{UserID: u.ID, RoleID: r.ID})
	return u, r
}

func TestCanAccess_AdminOverride(t *testing.T) {
	db := openTestDB(t)
	admin, _ := addUserWithRole(t, db, "alice", AdminRole)

	// Admins pass for granted, ungranted, public, disabled, and unregistered
	// features alike.
	addFeature(t, db, "sprints.sprints", true, false)
	addFeature(t, db, "defects.defects", false, false)

	for _, route := range []string{"sprints.sprints", "defects.defects", "no.such_route"} {
		ok, err := CanAccess(db, User(admin.ID), route)
		if err != nil {
			t.Fatalf("CanAccess(admin, %q): %v", route, err)
		}
		if !ok {
			t.Errorf("CanAccess(admin, %q) = false, want true", route)
		}
	}
}

func TestCanAccess_PublicBypass(t *testing.T) {
	db := openTestDB(t)
	addFeature(t, db, "auth.login", true, true)

	ok, err := CanAccess(db, Anonymous(), "auth.login")
	if err != nil {
		t.Fatalf("CanAccess: %v", err)
	}
	if !ok {
		t.Error("anonymous access to enabled public feature = false, want true")
	}
}

func TestCanAccess_DisabledPublicNotBypassable(t *testing.T) {
	db := openTestDB(t)
	addFeature(t, db, "auth.register", false, true)

	ok, err := CanAccess(db, Anonymous(), "auth.register")
	if err != nil {
		t.Fatalf("CanAccess: %v", err)
	}
	if ok {
		t.Error("anonymous access to disabled public feature = true, want false")
	}
}

func TestCanAccess_RoleGrant(t *testing.T) {
	db := openTestDB(t)
	feature := addFeature(t, db, "sprints.sprints", true, false)
	user, role := addUserWithRole(t, db, "po-user", "PO")
	mustCreate(t, db, &models.RoleSystemFeature{RoleID: role.ID, SystemFeatureID: feature.ID})

	ok, err := CanAccess(db, User(user.ID), "sprints.sprints")
	if err != nil {
		t.Fatalf("CanAccess: %v", err)
	}
	if !ok {
		t.Error("granted role access = false, want true")
	}

	// Removing the user's role row revokes access.
	if err := db.Where("user_id = ?", user.ID).Delete(&models.UserRole{}).Error; err != nil {
		t.Fatal(err)
	}
	ok, err = CanAccess(db, User(user.ID), "sprints.sprints")
	if err != nil {
		t.Fatalf("CanAccess after revoke: %v", err)
	}
	if ok {
		t.Error("access after role removal = true, want false")
	}
}

func TestCanAccess_GrantRemoved(t *testing.T) {
	db := openTestDB(t)
	feature := addFeature(t, db, "tasks.tasks", true, false)
	user, role := addUserWithRole(t, db, "dev", "developer")
	mustCreate(t, db, &models.RoleSystemFeature{RoleID: role.ID, SystemFeatureID: feature.ID})

	ok, _ := CanAccess(db, User(user.ID), "tasks.tasks")
	if !ok {
		t.Fatal("granted access = false, want true")
	}

	if err := db.Where("role_id = ?", role.ID).Delete(&models.RoleSystemFeature{}).Error; err != nil {
		t.Fatal(err)
	}
	ok, err := CanAccess(db, User(user.ID), "tasks.tasks")
	if err != nil {
		t.Fatalf("CanAccess: %v", err)
	}
	if ok {
		t.Error("access after grant removal = true, want false")
	}
}

func TestCanAccess_DisabledFeatureBlocksGrant(t *testing.T) {
	db := openTestDB(t)
	feature := addFeature(t, db, "kanban.kanban", false, false)
	user, role := addUserWithRole(t, db, "sm", "SM")
	mustCreate(t, db, &models.RoleSystemFeature{RoleID: role.ID, SystemFeatureID: feature.ID})

	ok, err := CanAccess(db, User(user.ID), "kanban.kanban")
	if err != nil {
		t.Fatalf("CanAccess: %v", err)
	}
	if ok {
		t.Error("grant on disabled feature = true, want false")
	}
}

func TestCanAccess_UnknownRoute(t *testing.T) {
	db := openTestDB(t)
	user, _ := addUserWithRole(t, db, "dev2", "developer")

	for _, actor := range []Actor{Anonymous(), User(user.ID)} {
		ok, err := CanAccess(db, actor, "ghost.route")
		if err != nil {
			t.Fatalf("CanAccess: %v", err)
		}
		if ok {
			t.Errorf("unknown route allowed for actor %+v", actor)
		}
	}
}

func TestCanAccess_AnonymousDeniedNonPublic(t *testing.T) {
	db := openTestDB(t)
	addFeature(t, db, "sprints.sprints", true, false)

	ok, err := CanAccess(db, Anonymous(), "sprints.sprints")
	if err != nil {
		t.Fatalf("CanAccess: %v", err)
	}
	if ok {
		t.Error("anonymous access to non-public feature = true, want false")
	}
}

func TestHasRole(t *testing.T) {
	db := openTestDB(t)
	user, _ := addUserWithRole(t, db, "carol", "PM")

	ok, err := HasRole(db, user.ID, "PM")
	if err != nil {
		t.Fatalf("HasRole: %v", err)
	}
	if !ok {
		t.Error("HasRole(PM) = false, want true")
	}

	ok, err = HasRole(db, user.ID, AdminRole)
	if err != nil {
		t.Fatalf("HasRole: %v", err)
	}
	if ok {
		t.Error("HasRole(admin) = true, want false")
	}
}

func TestResolve_Capabilities(t *testing.T) {
	db := openTestDB(t)
	sprints := addFeature(t, db, "sprints.sprints", true, false)
	addFeature(t, db, "auth.login", true, true)
	addFeature(t, db, "tasks.tasks", true, false)
	user, role := addUserWithRole(t, db, "po2", "PO")
	mustCreate(t, db, &models.RoleSystemFeature{RoleID: role.ID, SystemFeatureID: sprints.ID})

	caps, err := Resolve(db, User(user.ID))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !caps.Can("sprints.sprints") {
		t.Error("capability set missing granted route")
	}
	if !caps.Can("auth.login") {
		t.Error("capability set missing public route")
	}
	if caps.Can("tasks.tasks") {
		t.Error("capability set includes ungranted route")
	}
	if caps.Admin() {
		t.Error("Admin() = true for non-admin")
	}
}

func TestResolve_Anonymous(t *testing.T) {
	db := openTestDB(t)
	addFeature(t, db, "auth.index", true, true)
	addFeature(t, db, "roles.roles", true, false)

	caps, err := Resolve(db, Anonymous())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !caps.Can("auth.index") {
		t.Error("anonymous capability set missing public route")
	}
	if caps.Can("roles.roles") {
		t.Error("anonymous capability set includes gated route")
	}
}

func TestResolve_Admin(t *testing.T) {
	db := openTestDB(t)
	admin, _ := addUserWithRole(t, db, "root", AdminRole)

	caps, err := Resolve(db, User(admin.ID))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !caps.Admin() {
		t.Error("Admin() = false for admin")
	}
	if !caps.Can("anything.at_all") {
		t.Error("admin capability set denied a route")
	}
}

// Scenario from the permission model: feature sprints.sprints exists enabled
// and non-public; the PO role holds a grant; user 42-analog holds PO and
// nothing else. Access flips with the role row.
func TestScenario_POSprints(t *testing.T) {
	db := openTestDB(t)
	feature := addFeature(t, db, "sprints.sprints", true, false)
	user, role := addUserWithRole(t, db, "po42", "PO")
	mustCreate(t, db, &models.RoleSystemFeature{RoleID: role.ID, SystemFeatureID: feature.ID})

	ok, err := CanAccess(db, User(user.ID), "sprints.sprints")
	if err != nil || !ok {
		t.Fatalf("CanAccess = %v, %v; want true, nil", ok, err)
	}

	if err := RevokeRole(db, user.ID, "PO"); err != nil {
		t.Fatalf("RevokeRole: %v", err)
	}
	ok, err = CanAccess(db, User(user.ID), "sprints.sprints")
	if err != nil {
		t.Fatalf("CanAccess: %v", err)
	}
	if ok {
		t.Error("access survived role revocation")
	}
}
