package defect

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-github/v68/github"
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
	if err := db.AutoMigrate(&models.ProjectInfo{}, &models.Defect{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func addProject(t *testing.T, db *gorm.DB) *models.ProjectInfo {
	t.Helper()
	p := &models.ProjectInfo{Name: "Acme", ShortName: "ACME", NodeType: "project", Path: "/Acme"}
	if err := db.Create(p).Error; err != nil {
		t.Fatal(err)
	}
	return p
}

func addDefect(t *testing.T, db *gorm.DB, projectID uint) *models.Defect {
	t.Helper()
	d, err := Create(db, CreateOpts{Title: "crash on save", ProjectID: projectID, CreatedByID: 1})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return d
}

func TestCreate(t *testing.T) {
	db := openTestDB(t)
	p := addProject(t, db)

	d := addDefect(t, db, p.ID)
	if d.DefectCode != "F_001" {
		t.Errorf("code = %q, want F_001", d.DefectCode)
	}
	if d.Status != StatusOpen || d.Severity != "normal" || d.DefectType != "functional" {
		t.Errorf("defaults: status=%q severity=%q type=%q", d.Status, d.Severity, d.DefectType)
	}

	d2 := addDefect(t, db, p.ID)
	if d2.DefectCode != "F_002" {
		t.Errorf("second code = %q, want F_002", d2.DefectCode)
	}
}

func TestCreate_Validation(t *testing.T) {
	db := openTestDB(t)
	p := addProject(t, db)

	cases := []struct {
		name string
		opts CreateOpts
	}{
		{"no title", CreateOpts{ProjectID: p.ID, CreatedByID: 1}},
		{"no reporter", CreateOpts{Title: "x", ProjectID: p.ID}},
		{"missing project", CreateOpts{Title: "x", ProjectID: 404, CreatedByID: 1}},
		{"bad severity", CreateOpts{Title: "x", ProjectID: p.ID, CreatedByID: 1, Severity: "catastrophic"}},
		{"bad type", CreateOpts{Title: "x", ProjectID: p.ID, CreatedByID: 1, DefectType: "cosmic"}},
		{"bad priority", CreateOpts{Title: "x", ProjectID: p.ID, CreatedByID: 1, Priority: "urgent"}},
	}
	for _, tc := range cases {
		if _, err := Create(db, tc.opts); err == nil {
			t.Errorf("%s: Create succeeded", tc.name)
		}
	}
}

func TestLifecycle(t *testing.T) {
	db := openTestDB(t)
	p := addProject(t, db)
	d := addDefect(t, db, p.ID)

	if err := Resolve(db, d.ID, 2, "fixed null check"); err == nil {
		t.Error("resolved an open defect without fixing")
	}
	if err := Update(db, d.ID, map[string]interface{}{"status": StatusFixing}); err != nil {
		t.Fatalf("open→fixing: %v", err)
	}
	if err := Resolve(db, d.ID, 2, ""); err == nil {
		t.Error("Resolve without resolution succeeded")
	}
	if err := Resolve(db, d.ID, 2, "fixed null check"); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	got, _ := Get(db, d.ID)
	if got.Status != StatusResolved || got.ResolverID == nil || *got.ResolverID != 2 {
		t.Errorf("after resolve: status=%q resolver=%v", got.Status, got.ResolverID)
	}
	if got.Resolution != "fixed null check" || got.EndDate == nil {
		t.Error("resolution or end date not recorded")
	}

	if err := Close(db, d.ID); err == nil {
		t.Error("closed an unverified defect")
	}
	if err := Update(db, d.ID, map[string]interface{}{"status": StatusVerified}); err != nil {
		t.Fatalf("resolved→verified: %v", err)
	}
	if err := Close(db, d.ID); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if err := Reopen(db, d.ID); err != nil {
		t.Fatalf("Reopen: %v", err)
	}
	got, _ = Get(db, d.ID)
	if got.Status != StatusReopened {
		t.Errorf("status = %q, want reopened", got.Status)
	}
	if err := Update(db, d.ID, map[string]interface{}{"status": StatusResolved}); err == nil {
		t.Error("reopened→resolved accepted; must pass through fixing")
	}
}

func TestUpdate_CodeImmutable(t *testing.T) {
	db := openTestDB(t)
	p := addProject(t, db)
	d := addDefect(t, db, p.ID)

	if err := Update(db, d.ID, map[string]interface{}{"defect_code": "F_999"}); err == nil {
		t.Error("defect code update accepted")
	}
}

func TestList_Filters(t *testing.T) {
	db := openTestDB(t)
	p := addProject(t, db)
	addDefect(t, db, p.ID)
	online, _ := Create(db, CreateOpts{
		Title: "prod outage", ProjectID: p.ID, CreatedByID: 1,
		IsOnline: true, Severity: "critical",
	})

	yes := true
	got, err := List(db, ListFilters{IsOnline: &yes})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || got[0].ID != online.ID {
		t.Errorf("online filter returned %d defects", len(got))
	}

	got, _ = List(db, ListFilters{Severity: "critical"})
	if len(got) != 1 {
		t.Errorf("severity filter returned %d defects", len(got))
	}
}

// fakeIssues records the issue request instead of calling GitHub.
type fakeIssues struct {
	owner, repo string
	req         *github.IssueRequest
}

func (f *fakeIssues) Create(ctx context.Context, owner, repo string, issue *github.IssueRequest) (*github.Issue, *github.Response, error) {
	f.owner, f.repo, f.req = owner, repo, issue
	url := "https://github.com/" + owner + "/" + repo + "/issues/1"
	return &github.Issue{HTMLURL: github.Ptr(url)}, nil, nil
}

func TestExportIssue(t *testing.T) {
	db := openTestDB(t)
	p := addProject(t, db)
	d, _ := Create(db, CreateOpts{
		Title: "crash on save", ProjectID: p.ID, CreatedByID: 1,
		Description: "stack trace attached", Severity: "major",
	})

	fake := &fakeIssues{}
	e := &Exporter{owner: "zulandar", repo: "acme", issues: fake}

	url, err := e.ExportIssue(context.Background(), db, d.ID)
	if err != nil {
		t.Fatalf("ExportIssue: %v", err)
	}
	if !strings.Contains(url, "/zulandar/acme/issues/") {
		t.Errorf("url = %q", url)
	}
	if got := fake.req.GetTitle(); got != "F_001: crash on save" {
		t.Errorf("issue title = %q", got)
	}
	if fake.req.Labels == nil || len(*fake.req.Labels) != 3 {
		t.Fatalf("labels = %v", fake.req.Labels)
	}
	if (*fake.req.Labels)[1] != "severity/major" {
		t.Errorf("labels = %v", *fake.req.Labels)
	}

	if _, err := e.ExportIssue(context.Background(), db, 404); err == nil {
		t.Error("export of missing defect succeeded")
	}
}

func TestNewExporter_RequiresConfig(t *testing.T) {
	if _, err := NewExporter(context.Background(), "", "o", "r"); err == nil {
		t.Error("exporter built without token")
	}
	if _, err := NewExporter(context.Background(), "tok", "", "r"); err == nil {
		t.Error("exporter built without owner")
	}
}
