package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/sprintyard/internal/access"
	sydb "github.com/zulandar/sprintyard/internal/db"
	"github.com/zulandar/sprintyard/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestRouter builds a fully seeded router over an in-memory store plus an
// admin user and a plain user with no roles.
func newTestRouter(t *testing.T) (*gin.Engine, *gorm.DB, *models.User, *models.User) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := sydb.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := sydb.SeedRoles(db); err != nil {
		t.Fatalf("seed roles: %v", err)
	}
	if err := sydb.SeedFeatures(db); err != nil {
		t.Fatalf("seed features: %v", err)
	}

	admin := &models.User{Name: "root"}
	if err := db.Create(admin).Error; err != nil {
		t.Fatal(err)
	}
	if err := access.GrantRole(db, admin.ID, access.AdminRole); err != nil {
		t.Fatal(err)
	}
	plain := &models.User{Name: "nobody"}
	if err := db.Create(plain).Error; err != nil {
		t.Fatal(err)
	}

	return NewRouter(Opts{DB: db}), db, admin, plain
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, actor *models.User, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if actor != nil {
		req.Header.Set("X-Actor-ID", fmt.Sprint(actor.ID))
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var decoded map[string]interface{}
	if w.Body.Len() > 0 {
		json.Unmarshal(w.Body.Bytes(), &decoded)
	}
	return w, decoded
}

func TestAccessEnforcement(t *testing.T) {
	router, db, admin, plain := newTestRouter(t)

	// Anonymous and ungranted users are turned away from gated groups.
	w, body := doJSON(t, router, http.MethodGet, "/api/sprints", nil, nil)
	if w.Code != http.StatusForbidden || body["success"] != false {
		t.Errorf("anonymous: %d %v", w.Code, body)
	}
	w, _ = doJSON(t, router, http.MethodGet, "/api/sprints", plain, nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("ungranted user: %d", w.Code)
	}

	// Admin passes everywhere.
	w, _ = doJSON(t, router, http.MethodGet, "/api/sprints", admin, nil)
	if w.Code != http.StatusOK {
		t.Errorf("admin: %d", w.Code)
	}

	// A PO grant on the sprints feature opens exactly that group.
	var feature models.SystemFeature
	if err := db.Where("route_name = ?", "sprints.sprints").First(&feature).Error; err != nil {
		t.Fatal(err)
	}
	var po models.Role
	if err := db.Where("name = ?", "PO").First(&po).Error; err != nil {
		t.Fatal(err)
	}
	if err := access.UpdateRole(db, po.ID, access.RoleOpts{
		Name: po.Name, DisplayName: po.DisplayName, FeatureIDs: []uint{feature.ID},
	}); err != nil {
		t.Fatal(err)
	}
	if err := access.GrantRole(db, plain.ID, "PO"); err != nil {
		t.Fatal(err)
	}

	w, _ = doJSON(t, router, http.MethodGet, "/api/sprints", plain, nil)
	if w.Code != http.StatusOK {
		t.Errorf("granted user on sprints: %d", w.Code)
	}
	w, _ = doJSON(t, router, http.MethodGet, "/api/defects", plain, nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("granted user on defects: %d", w.Code)
	}
}

func TestPublicKnowledgeRead(t *testing.T) {
	router, _, admin, _ := newTestRouter(t)

	// Seeding marks knowledge reading public, so anonymous reads pass.
	w, _ := doJSON(t, router, http.MethodGet, "/api/knowledge", nil, nil)
	if w.Code != http.StatusOK {
		t.Errorf("anonymous read: %d", w.Code)
	}

	// Managing is a separate, gated feature.
	w, _ = doJSON(t, router, http.MethodPost, "/api/knowledge", nil, gin.H{
		"title": "x", "content": "y",
	})
	if w.Code != http.StatusForbidden {
		t.Errorf("anonymous manage: %d", w.Code)
	}
	w, _ = doJSON(t, router, http.MethodPost, "/api/knowledge", admin, gin.H{
		"title": "Definition of done", "content": "...",
	})
	if w.Code != http.StatusOK {
		t.Errorf("admin manage: %d", w.Code)
	}
}

func TestProjectTreeFlow(t *testing.T) {
	router, _, admin, _ := newTestRouter(t)

	w, body := doJSON(t, router, http.MethodPost, "/api/projects", admin, gin.H{
		"name": "Acme", "node_type": "project", "short_name": "ACME",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("create root: %d %v", w.Code, body)
	}
	node := body["node"].(map[string]interface{})
	rootID := uint(node["ID"].(float64))

	w, body = doJSON(t, router, http.MethodPost, "/api/projects", admin, gin.H{
		"name": "Billing", "node_type": "menu", "parent_id": rootID,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("create child: %d %v", w.Code, body)
	}
	child := body["node"].(map[string]interface{})
	if child["Path"] != "/Acme/Billing" {
		t.Errorf("child path = %v", child["Path"])
	}

	// Duplicate sibling name is rejected with the failure envelope.
	w, body = doJSON(t, router, http.MethodPost, "/api/projects", admin, gin.H{
		"name": "Billing", "node_type": "menu", "parent_id": rootID,
	})
	if w.Code != http.StatusBadRequest || body["success"] != false {
		t.Errorf("duplicate sibling: %d %v", w.Code, body)
	}

	w, body = doJSON(t, router, http.MethodGet, "/api/projects", admin, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("tree: %d", w.Code)
	}
	tree := body["tree"].([]interface{})
	if len(tree) != 1 {
		t.Errorf("%d roots", len(tree))
	}
}

func TestSprintLifecycleOverHTTP(t *testing.T) {
	router, _, admin, _ := newTestRouter(t)

	w, body := doJSON(t, router, http.MethodPost, "/api/sprints", admin, gin.H{
		"name":       "Sprint 1",
		"start_date": "2026-09-01T00:00:00Z",
		"end_date":   "2026-09-14T00:00:00Z",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("create: %d %v", w.Code, body)
	}
	sp := body["sprint"].(map[string]interface{})
	id := uint(sp["ID"].(float64))

	w, _ = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/sprints/%d/complete", id), admin, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("complete before start: %d", w.Code)
	}
	w, _ = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/sprints/%d/start", id), admin, nil)
	if w.Code != http.StatusOK {
		t.Errorf("start: %d", w.Code)
	}
	w, _ = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/sprints/%d/complete", id), admin, nil)
	if w.Code != http.StatusOK {
		t.Errorf("complete: %d", w.Code)
	}
}

func TestPokerRequiresUser(t *testing.T) {
	router, db, admin, _ := newTestRouter(t)

	story := &models.UserStory{Title: "s", StoryCode: "US_001_001"}
	db.Create(story)

	w, _ := doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/poker/stories/%d/start", story.ID), nil, nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("anonymous poker: %d", w.Code)
	}
	w, body := doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/poker/stories/%d/start", story.ID), admin, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("poker start: %d %v", w.Code, body)
	}
	if body["cards"] == nil {
		t.Error("no deck in response")
	}
}

func TestDefectExportUnconfigured(t *testing.T) {
	router, db, admin, _ := newTestRouter(t)

	node := &models.ProjectInfo{Name: "Acme", NodeType: "project", Path: "/Acme"}
	db.Create(node)
	w, body := doJSON(t, router, http.MethodPost, "/api/defects", admin, gin.H{
		"title": "crash", "project_id": node.ID,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("create defect: %d %v", w.Code, body)
	}
	d := body["defect"].(map[string]interface{})
	id := uint(d["ID"].(float64))

	w, _ = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/defects/%d/export", id), admin, nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("export without config: %d", w.Code)
	}
}

func TestNotFoundEnvelope(t *testing.T) {
	router, _, admin, _ := newTestRouter(t)

	w, body := doJSON(t, router, http.MethodGet, "/api/sprints/999", admin, nil)
	if w.Code != http.StatusNotFound || body["success"] != false {
		t.Errorf("missing sprint: %d %v", w.Code, body)
	}
}

func TestFeatureInitRefusesWhenSeeded(t *testing.T) {
	router, db, admin, _ := newTestRouter(t)

	w, body := doJSON(t, router, http.MethodPost, "/api/features/init", admin, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("init on seeded registry: %d %v", w.Code, body)
	}
	if msg, _ := body["message"].(string); !strings.Contains(msg, "already initialized") {
		t.Errorf("message = %q", msg)
	}

	if err := db.Where("1 = 1").Delete(&models.SystemFeature{}).Error; err != nil {
		t.Fatalf("clear features: %v", err)
	}
	w, _ = doJSON(t, router, http.MethodPost, "/api/features/init", admin, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("init on empty registry: %d", w.Code)
	}
	var count int64
	if err := db.Model(&models.SystemFeature{}).Count(&count).Error; err != nil {
		t.Fatal(err)
	}
	if count == 0 {
		t.Error("expected seeded feature rows")
	}
}
