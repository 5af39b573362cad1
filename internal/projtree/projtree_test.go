package projtree

import (
	"strings"
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
	if err := db.AutoMigrate(&models.ProjectInfo{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func mustCreateNode(t *testing.T, db *gorm.DB, name, nodeType string, parentID *uint) *models.ProjectInfo {
	t.Helper()
	node, err := Create(db, CreateOpts{Name: name, NodeType: nodeType, ParentID: parentID})
	if err != nil {
		t.Fatalf("Create(%q): %v", name, err)
	}
	return node
}

func TestCreate_Paths(t *testing.T) {
	db := openTestDB(t)

	root := mustCreateNode(t, db, "Acme", TypeProject, nil)
	menu := mustCreateNode(t, db, "Billing", TypeMenu, &root.ID)
	page := mustCreateNode(t, db, "Invoices", TypePage, &menu.ID)

	tests := []struct {
		node *models.ProjectInfo
		want string
	}{
		{root, "/Acme"},
		{menu, "/Acme/Billing"},
		{page, "/Acme/Billing/Invoices"},
	}
	for _, tt := range tests {
		if tt.node.Path != tt.want {
			t.Errorf("path of %q = %q, want %q", tt.node.Name, tt.node.Path, tt.want)
		}
	}
}

func TestCreate_OrderAssignment(t *testing.T) {
	db := openTestDB(t)
	root := mustCreateNode(t, db, "Acme", TypeProject, nil)

	a := mustCreateNode(t, db, "A", TypeMenu, &root.ID)
	b := mustCreateNode(t, db, "B", TypeMenu, &root.ID)
	c := mustCreateNode(t, db, "C", TypeMenu, &root.ID)

	if !(a.Order < b.Order && b.Order < c.Order) {
		t.Errorf("orders not increasing: %d, %d, %d", a.Order, b.Order, c.Order)
	}
	if b.Order-a.Order != 10 || c.Order-b.Order != 10 {
		t.Errorf("order gaps = %d, %d; want 10, 10", b.Order-a.Order, c.Order-b.Order)
	}
}

func TestCreate_Validation(t *testing.T) {
	db := openTestDB(t)
	root := mustCreateNode(t, db, "Acme", TypeProject, nil)

	tests := []struct {
		name string
		opts CreateOpts
		want string
	}{
		{"empty name", CreateOpts{NodeType: TypeMenu, ParentID: &root.ID}, "name is required"},
		{"slash in name", CreateOpts{Name: "a/b", NodeType: TypeMenu, ParentID: &root.ID}, "must not contain"},
		{"bad type", CreateOpts{Name: "x", NodeType: "folder"}, "unknown node type"},
		{"missing parent", CreateOpts{Name: "x", NodeType: TypeMenu, ParentID: ptr(uint(999))}, "not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Create(db, tt.opts)
			if err == nil {
				t.Fatal("Create succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not contain %q", err, tt.want)
			}
		})
	}
}

func TestCreate_SiblingNameUnique(t *testing.T) {
	db := openTestDB(t)
	root := mustCreateNode(t, db, "Acme", TypeProject, nil)
	mustCreateNode(t, db, "Billing", TypeMenu, &root.ID)

	if _, err := Create(db, CreateOpts{Name: "Billing", NodeType: TypeMenu, ParentID: &root.ID}); err == nil {
		t.Error("duplicate sibling name accepted")
	}

	// The same name under a different parent is fine.
	other := mustCreateNode(t, db, "Globex", TypeProject, nil)
	if _, err := Create(db, CreateOpts{Name: "Billing", NodeType: TypeMenu, ParentID: &other.ID}); err != nil {
		t.Errorf("same name under different parent rejected: %v", err)
	}
}

func TestRename_CascadesPaths(t *testing.T) {
	db := openTestDB(t)
	root := mustCreateNode(t, db, "Acme", TypeProject, nil)
	menu := mustCreateNode(t, db, "Billing", TypeMenu, &root.ID)
	page := mustCreateNode(t, db, "Invoices", TypePage, &menu.ID)

	if err := Rename(db, root.ID, "AcmeCorp", "AC"); err != nil {
		t.Fatalf("Rename: %v", err)
	}

	wantPaths := map[uint]string{
		root.ID: "/AcmeCorp",
		menu.ID: "/AcmeCorp/Billing",
		page.ID: "/AcmeCorp/Billing/Invoices",
	}
	for id, want := range wantPaths {
		got, err := Get(db, id)
		if err != nil {
			t.Fatalf("Get(%d): %v", id, err)
		}
		if got.Path != want {
			t.Errorf("path of node %d = %q, want %q", id, got.Path, want)
		}
	}

	got, _ := Get(db, root.ID)
	if got.ShortName != "AC" {
		t.Errorf("short name = %q, want AC", got.ShortName)
	}
}

func TestRename_ShortNameOnlyOnProjects(t *testing.T) {
	db := openTestDB(t)
	root := mustCreateNode(t, db, "Acme", TypeProject, nil)
	menu := mustCreateNode(t, db, "Billing", TypeMenu, &root.ID)

	if err := Rename(db, menu.ID, "Payments", "PAY"); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	got, _ := Get(db, menu.ID)
	if got.ShortName != "" {
		t.Errorf("menu node has short name %q, want empty", got.ShortName)
	}
}

func TestRename_SiblingConflict(t *testing.T) {
	db := openTestDB(t)
	root := mustCreateNode(t, db, "Acme", TypeProject, nil)
	mustCreateNode(t, db, "Billing", TypeMenu, &root.ID)
	reports := mustCreateNode(t, db, "Reports", TypeMenu, &root.ID)

	if err := Rename(db, reports.ID, "Billing", ""); err == nil {
		t.Error("rename onto sibling name accepted")
	}
	// Renaming to its own current name is allowed.
	if err := Rename(db, reports.ID, "Reports", ""); err != nil {
		t.Errorf("rename to own name rejected: %v", err)
	}
}

func TestMove_RecomputesSubtree(t *testing.T) {
	db := openTestDB(t)
	acme := mustCreateNode(t, db, "Acme", TypeProject, nil)
	globex := mustCreateNode(t, db, "Globex", TypeProject, nil)
	menu := mustCreateNode(t, db, "Billing", TypeMenu, &acme.ID)
	page := mustCreateNode(t, db, "Invoices", TypePage, &menu.ID)

	if err := Move(db, menu.ID, &globex.ID, 50); err != nil {
		t.Fatalf("Move: %v", err)
	}

	gotMenu, _ := Get(db, menu.ID)
	gotPage, _ := Get(db, page.ID)
	if gotMenu.Path != "/Globex/Billing" {
		t.Errorf("moved node path = %q, want /Globex/Billing", gotMenu.Path)
	}
	if gotPage.Path != "/Globex/Billing/Invoices" {
		t.Errorf("descendant path = %q, want /Globex/Billing/Invoices", gotPage.Path)
	}
	if gotMenu.Order != 50 {
		t.Errorf("moved node order = %d, want 50", gotMenu.Order)
	}
}

func TestMove_ToRoot(t *testing.T) {
	db := openTestDB(t)
	acme := mustCreateNode(t, db, "Acme", TypeProject, nil)
	menu := mustCreateNode(t, db, "Billing", TypeMenu, &acme.ID)

	if err := Move(db, menu.ID, nil, 0); err != nil {
		t.Fatalf("Move to root: %v", err)
	}
	got, _ := Get(db, menu.ID)
	if got.Path != "/Billing" || got.ParentID != nil {
		t.Errorf("node after move to root = path %q, parent %v", got.Path, got.ParentID)
	}
}

func TestMove_CycleRejected(t *testing.T) {
	db := openTestDB(t)
	acme := mustCreateNode(t, db, "Acme", TypeProject, nil)
	menu := mustCreateNode(t, db, "Billing", TypeMenu, &acme.ID)
	page := mustCreateNode(t, db, "Invoices", TypePage, &menu.ID)

	if err := Move(db, menu.ID, &page.ID, 0); err == nil {
		t.Error("move under own descendant accepted")
	}
	if err := Move(db, menu.ID, &menu.ID, 0); err == nil {
		t.Error("move under itself accepted")
	}

	// State unchanged after rejected moves.
	got, _ := Get(db, menu.ID)
	if got.Path != "/Acme/Billing" {
		t.Errorf("path after rejected move = %q, want /Acme/Billing", got.Path)
	}
}

func TestReorder(t *testing.T) {
	db := openTestDB(t)
	root := mustCreateNode(t, db, "Acme", TypeProject, nil)
	a := mustCreateNode(t, db, "A", TypeMenu, &root.ID)
	b := mustCreateNode(t, db, "B", TypeMenu, &root.ID)
	c := mustCreateNode(t, db, "C", TypeMenu, &root.ID)

	if err := Reorder(db, c.ID, Up); err != nil {
		t.Fatalf("Reorder up: %v", err)
	}

	order := siblingNames(t, db, &root.ID)
	want := []string{"A", "C", "B"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("sibling order = %v, want %v", order, want)
		}
	}

	// Canonical spacing after renumber.
	gotA, _ := Get(db, a.ID)
	gotC, _ := Get(db, c.ID)
	gotB, _ := Get(db, b.ID)
	if gotA.Order != 0 || gotC.Order != 10 || gotB.Order != 20 {
		t.Errorf("orders = %d, %d, %d; want 0, 10, 20", gotA.Order, gotC.Order, gotB.Order)
	}

	if err := Reorder(db, a.ID, Down); err != nil {
		t.Fatalf("Reorder down: %v", err)
	}
	order = siblingNames(t, db, &root.ID)
	want = []string{"C", "A", "B"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("sibling order = %v, want %v", order, want)
		}
	}
}

func TestReorder_BoundaryNoOp(t *testing.T) {
	db := openTestDB(t)
	root := mustCreateNode(t, db, "Acme", TypeProject, nil)
	a := mustCreateNode(t, db, "A", TypeMenu, &root.ID)
	b := mustCreateNode(t, db, "B", TypeMenu, &root.ID)

	beforeA, _ := Get(db, a.ID)
	beforeB, _ := Get(db, b.ID)

	if err := Reorder(db, a.ID, Up); err == nil {
		t.Error("moving first sibling up succeeded")
	}
	if err := Reorder(db, b.ID, Down); err == nil {
		t.Error("moving last sibling down succeeded")
	}

	afterA, _ := Get(db, a.ID)
	afterB, _ := Get(db, b.ID)
	if afterA.Order != beforeA.Order || afterB.Order != beforeB.Order {
		t.Error("boundary reorder mutated order values")
	}
}

func TestReorder_NoSiblings(t *testing.T) {
	db := openTestDB(t)
	root := mustCreateNode(t, db, "Acme", TypeProject, nil)
	only := mustCreateNode(t, db, "Solo", TypeMenu, &root.ID)

	if err := Reorder(db, only.ID, Up); err == nil {
		t.Error("reordering an only child succeeded")
	}
}

func TestDelete(t *testing.T) {
	db := openTestDB(t)
	root := mustCreateNode(t, db, "Acme", TypeProject, nil)
	menu := mustCreateNode(t, db, "Billing", TypeMenu, &root.ID)

	if err := Delete(db, root.ID); err == nil {
		t.Error("deleting a node with children succeeded")
	}
	if err := Delete(db, menu.ID); err != nil {
		t.Errorf("Delete leaf: %v", err)
	}
	if err := Delete(db, root.ID); err != nil {
		t.Errorf("Delete emptied root: %v", err)
	}
	if err := Delete(db, 999); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("Delete(999) = %v, want not-found", err)
	}
}

func TestDescendants(t *testing.T) {
	db := openTestDB(t)
	acme := mustCreateNode(t, db, "Acme", TypeProject, nil)
	billing := mustCreateNode(t, db, "Billing", TypeMenu, &acme.ID)
	mustCreateNode(t, db, "Invoices", TypePage, &billing.ID)
	// A different project whose name shares a prefix must not leak in.
	acme2 := mustCreateNode(t, db, "Acme2", TypeProject, nil)
	mustCreateNode(t, db, "Other", TypeMenu, &acme2.ID)

	nodes, err := Descendants(db, acme.ID)
	if err != nil {
		t.Fatalf("Descendants: %v", err)
	}
	if len(nodes) != 3 {
		t.Fatalf("descendant count = %d, want 3", len(nodes))
	}
	for _, n := range nodes {
		if n.Path != "/Acme" && !strings.HasPrefix(n.Path, "/Acme/") {
			t.Errorf("unexpected node in result: %q", n.Path)
		}
	}
}

func TestModules(t *testing.T) {
	db := openTestDB(t)
	acme := mustCreateNode(t, db, "Acme", TypeProject, nil)
	billing := mustCreateNode(t, db, "Billing", TypeMenu, &acme.ID)
	mustCreateNode(t, db, "Invoices", TypePage, &billing.ID)

	modules, err := Modules(db, acme.ID)
	if err != nil {
		t.Fatalf("Modules: %v", err)
	}
	if len(modules) != 2 {
		t.Fatalf("module count = %d, want 2 (project root excluded)", len(modules))
	}
	for _, m := range modules {
		if m.NodeType == TypeProject {
			t.Errorf("project node %q included in modules", m.Name)
		}
	}
}

func TestTree(t *testing.T) {
	db := openTestDB(t)
	acme := mustCreateNode(t, db, "Acme", TypeProject, nil)
	billing := mustCreateNode(t, db, "Billing", TypeMenu, &acme.ID)
	mustCreateNode(t, db, "Invoices", TypePage, &billing.ID)
	mustCreateNode(t, db, "Globex", TypeProject, nil)

	tree, err := Tree(db)
	if err != nil {
		t.Fatalf("Tree: %v", err)
	}
	if len(tree) != 2 {
		t.Fatalf("root count = %d, want 2", len(tree))
	}
	if tree[0].Name != "Acme" || len(tree[0].Children) != 1 {
		t.Errorf("first root = %q with %d children", tree[0].Name, len(tree[0].Children))
	}
	if tree[0].Children[0].Children[0].Name != "Invoices" {
		t.Error("nested page missing from tree")
	}
}

func siblingNames(t *testing.T, db *gorm.DB, parentID *uint) []string {
	t.Helper()
	var nodes []models.ProjectInfo
	q := db.Order("order_num ASC, id ASC")
	if parentID == nil {
		q = q.Where("parent_id IS NULL")
	} else {
		q = q.Where("parent_id = ?", *parentID)
	}
	if err := q.Find(&nodes).Error; err != nil {
		t.Fatalf("load siblings: %v", err)
	}
	names := make([]string, len(nodes))
	for i, n := range nodes {
		names[i] = n.Name
	}
	return names
}

func ptr[T any](v T) *T { return &v }
