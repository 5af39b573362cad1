// Package projtree maintains the project hierarchy: self-referential nodes
// with a materialized path and a sibling order key.
//
// The path column denormalizes the ancestor chain ("/Acme/Billing/Invoices")
// so descendant queries are a single prefix match. Every mutation that can
// change a path (create, rename, move) recomputes the affected subtree
// inside one transaction, so the column never goes stale.
package projtree

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zulandar/sprintyard/internal/models"
	"gorm.io/gorm"
)

// Node types.
const (
	TypeProject = "project"
	TypeMenu    = "menu"
	TypePage    = "page"
)

// orderStep is the gap between sibling order values, leaving room for manual
// inserts between renumbers.
const orderStep = 10

// CreateOpts holds parameters for creating a tree node.
type CreateOpts struct {
	Name      string
	NodeType  string // project, menu, page
	ParentID  *uint  // nil for a root project
	ShortName string // root projects only
}

// validNodeType reports whether t is a known node type.
func validNodeType(t string) bool {
	return t == TypeProject || t == TypeMenu || t == TypePage
}

// Create adds a node under the given parent (or as a root), assigning the
// next sibling order and computing the materialized path.
func Create(db *gorm.DB, opts CreateOpts) (*models.ProjectInfo, error) {
	if opts.Name == "" {
		return nil, fmt.Errorf("projtree: name is required")
	}
	if strings.Contains(opts.Name, "/") {
		return nil, fmt.Errorf("projtree: name must not contain %q", "/")
	}
	if !validNodeType(opts.NodeType) {
		return nil, fmt.Errorf("projtree: unknown node type %q", opts.NodeType)
	}

	node := models.ProjectInfo{
		Name:     opts.Name,
		NodeType: opts.NodeType,
		ParentID: opts.ParentID,
	}
	if opts.NodeType == TypeProject {
		node.ShortName = opts.ShortName
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if opts.ParentID != nil {
			parent, err := get(tx, *opts.ParentID)
			if err != nil {
				return err
			}
			node.Path = parent.Path + "/" + opts.Name
		} else {
			node.Path = "/" + opts.Name
		}

		if err := checkSiblingName(tx, opts.ParentID, opts.Name, 0); err != nil {
			return err
		}

		var maxOrder *int
		err := tx.Model(&models.ProjectInfo{}).
			Scopes(siblingScope(opts.ParentID)).
			Select("MAX(order_num)").
			Scan(&maxOrder).Error
		if err != nil {
			return fmt.Errorf("projtree: max sibling order: %w", err)
		}
		if maxOrder != nil {
			node.Order = *maxOrder + orderStep
		} else {
			node.Order = orderStep
		}

		if err := tx.Create(&node).Error; err != nil {
			return fmt.Errorf("projtree: create node: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &node, nil
}

// Rename updates a node's name (and short name for root projects) and
// recomputes the paths of the node and all of its descendants.
func Rename(db *gorm.DB, id uint, name, shortName string) error {
	if name == "" {
		return fmt.Errorf("projtree: name is required")
	}
	if strings.Contains(name, "/") {
		return fmt.Errorf("projtree: name must not contain %q", "/")
	}

	return db.Transaction(func(tx *gorm.DB) error {
		node, err := get(tx, id)
		if err != nil {
			return err
		}
		if err := checkSiblingName(tx, node.ParentID, name, id); err != nil {
			return err
		}

		node.Name = name
		if node.NodeType == TypeProject {
			node.ShortName = shortName
		}
		if node.ParentID != nil {
			parent, err := get(tx, *node.ParentID)
			if err != nil {
				return err
			}
			node.Path = parent.Path + "/" + name
		} else {
			node.Path = "/" + name
		}

		if err := tx.Save(node).Error; err != nil {
			return fmt.Errorf("projtree: rename node %d: %w", id, err)
		}
		return cascadePaths(tx, node)
	})
}

// Move reparents a node, recomputing its path and every descendant's path.
// Moving a node under itself or one of its descendants is rejected.
func Move(db *gorm.DB, id uint, newParentID *uint, newOrder int) error {
	return db.Transaction(func(tx *gorm.DB) error {
		node, err := get(tx, id)
		if err != nil {
			return err
		}

		if newParentID != nil {
			if *newParentID == id {
				return fmt.Errorf("projtree: cannot move node %d under itself", id)
			}
			parent, err := get(tx, *newParentID)
			if err != nil {
				return err
			}
			// Cycle guard: the new parent's ancestor chain must not
			// contain the moved node.
			for p := parent; p.ParentID != nil; {
				if *p.ParentID == id {
					return fmt.Errorf("projtree: moving node %d under %d would create a cycle", id, *newParentID)
				}
				p, err = get(tx, *p.ParentID)
				if err != nil {
					return err
				}
			}
			node.Path = parent.Path + "/" + node.Name
		} else {
			node.Path = "/" + node.Name
		}

		if err := checkSiblingName(tx, newParentID, node.Name, id); err != nil {
			return err
		}

		node.ParentID = newParentID
		node.Order = newOrder
		if err := tx.Save(node).Error; err != nil {
			return fmt.Errorf("projtree: move node %d: %w", id, err)
		}
		return cascadePaths(tx, node)
	})
}

// Direction for Reorder.
const (
	Up   = "up"
	Down = "down"
)

// Reorder swaps a node with its neighbor in the given direction and
// renumbers all siblings to canonical spacing. A node already at the
// boundary, or without siblings, is a rejected operation and leaves order
// values untouched.
func Reorder(db *gorm.DB, id uint, direction string) error {
	if direction != Up && direction != Down {
		return fmt.Errorf("projtree: unknown direction %q", direction)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		node, err := get(tx, id)
		if err != nil {
			return err
		}

		var siblings []models.ProjectInfo
		err = tx.Scopes(siblingScope(node.ParentID)).
			Order("order_num ASC, id ASC").
			Find(&siblings).Error
		if err != nil {
			return fmt.Errorf("projtree: load siblings of %d: %w", id, err)
		}
		if len(siblings) <= 1 {
			return fmt.Errorf("projtree: node %d has no siblings to reorder against", id)
		}

		idx := -1
		for i := range siblings {
			if siblings[i].ID == id {
				idx = i
				break
			}
		}
		if idx == -1 {
			return fmt.Errorf("projtree: node %d missing from its sibling set", id)
		}

		switch direction {
		case Up:
			if idx == 0 {
				return fmt.Errorf("projtree: node %d is already first", id)
			}
			siblings[idx], siblings[idx-1] = siblings[idx-1], siblings[idx]
		case Down:
			if idx == len(siblings)-1 {
				return fmt.Errorf("projtree: node %d is already last", id)
			}
			siblings[idx], siblings[idx+1] = siblings[idx+1], siblings[idx]
		}

		for i := range siblings {
			order := i * orderStep
			if err := tx.Model(&models.ProjectInfo{}).
				Where("id = ?", siblings[i].ID).
				Update("order_num", order).Error; err != nil {
				return fmt.Errorf("projtree: renumber node %d: %w", siblings[i].ID, err)
			}
		}
		return nil
	})
}

// Delete removes a node. Nodes with children cannot be deleted.
func Delete(db *gorm.DB, id uint) error {
	node, err := get(db, id)
	if err != nil {
		return err
	}

	var children int64
	if err := db.Model(&models.ProjectInfo{}).Where("parent_id = ?", id).Count(&children).Error; err != nil {
		return fmt.Errorf("projtree: count children of %d: %w", id, err)
	}
	if children > 0 {
		return fmt.Errorf("projtree: node %d has %d children; delete them first", id, children)
	}

	if err := db.Delete(&models.ProjectInfo{}, node.ID).Error; err != nil {
		return fmt.Errorf("projtree: delete node %d: %w", id, err)
	}
	return nil
}

// Get retrieves a node by ID.
func Get(db *gorm.DB, id uint) (*models.ProjectInfo, error) {
	return get(db, id)
}

// Roots returns all root nodes ordered by their order key.
func Roots(db *gorm.DB) ([]models.ProjectInfo, error) {
	var roots []models.ProjectInfo
	if err := db.Where("parent_id IS NULL").Order("order_num ASC, id ASC").Find(&roots).Error; err != nil {
		return nil, fmt.Errorf("projtree: list roots: %w", err)
	}
	return roots, nil
}

// Descendants returns the node and every node whose path lies under it.
func Descendants(db *gorm.DB, rootID uint) ([]models.ProjectInfo, error) {
	root, err := get(db, rootID)
	if err != nil {
		return nil, err
	}

	var nodes []models.ProjectInfo
	err = db.Where("path = ? OR path LIKE ?", root.Path, root.Path+"/%").
		Order("path ASC").
		Find(&nodes).Error
	if err != nil {
		return nil, fmt.Errorf("projtree: descendants of %d: %w", rootID, err)
	}
	return nodes, nil
}

// Modules returns the menu and page nodes under a project, ordered by path.
// Used to scope requirements and prototype images to functional modules.
func Modules(db *gorm.DB, projectID uint) ([]models.ProjectInfo, error) {
	nodes, err := Descendants(db, projectID)
	if err != nil {
		return nil, err
	}
	modules := nodes[:0]
	for _, n := range nodes {
		if n.NodeType == TypeMenu || n.NodeType == TypePage {
			modules = append(modules, n)
		}
	}
	return modules, nil
}

// TreeNode is a node with its children nested for display.
type TreeNode struct {
	models.ProjectInfo
	Children []TreeNode `json:"children"`
}

// Tree returns the whole forest nested root-first.
func Tree(db *gorm.DB) ([]TreeNode, error) {
	var all []models.ProjectInfo
	if err := db.Order("order_num ASC, id ASC").Find(&all).Error; err != nil {
		return nil, fmt.Errorf("projtree: load tree: %w", err)
	}

	byParent := make(map[uint][]models.ProjectInfo)
	var roots []models.ProjectInfo
	for _, n := range all {
		if n.ParentID == nil {
			roots = append(roots, n)
		} else {
			byParent[*n.ParentID] = append(byParent[*n.ParentID], n)
		}
	}

	var build func(nodes []models.ProjectInfo) []TreeNode
	build = func(nodes []models.ProjectInfo) []TreeNode {
		out := make([]TreeNode, 0, len(nodes))
		for _, n := range nodes {
			out = append(out, TreeNode{ProjectInfo: n, Children: build(byParent[n.ID])})
		}
		return out
	}
	return build(roots), nil
}

// get loads a node or reports not-found.
func get(db *gorm.DB, id uint) (*models.ProjectInfo, error) {
	var node models.ProjectInfo
	if err := db.First(&node, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("projtree: node not found: %d", id)
		}
		return nil, fmt.Errorf("projtree: get node %d: %w", id, err)
	}
	return &node, nil
}

// cascadePaths recomputes descendant paths depth-first after node's own path
// changed.
func cascadePaths(tx *gorm.DB, node *models.ProjectInfo) error {
	var children []models.ProjectInfo
	if err := tx.Where("parent_id = ?", node.ID).Find(&children).Error; err != nil {
		return fmt.Errorf("projtree: load children of %d: %w", node.ID, err)
	}
	for i := range children {
		children[i].Path = node.Path + "/" + children[i].Name
		if err := tx.Model(&models.ProjectInfo{}).
			Where("id = ?", children[i].ID).
			Update("path", children[i].Path).Error; err != nil {
			return fmt.Errorf("projtree: update path of %d: %w", children[i].ID, err)
		}
		if err := cascadePaths(tx, &children[i]); err != nil {
			return err
		}
	}
	return nil
}

// checkSiblingName enforces name uniqueness among nodes sharing a parent.
// excludeID skips the node being renamed or moved.
func checkSiblingName(tx *gorm.DB, parentID *uint, name string, excludeID uint) error {
	q := tx.Model(&models.ProjectInfo{}).Scopes(siblingScope(parentID)).Where("name = ?", name)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return fmt.Errorf("projtree: check sibling name %q: %w", name, err)
	}
	if count > 0 {
		return fmt.Errorf("projtree: a sibling named %q already exists", name)
	}
	return nil
}

// siblingScope filters a query to nodes sharing the given parent,
// handling NULL parents.
func siblingScope(parentID *uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if parentID == nil {
			return db.Where("parent_id IS NULL")
		}
		return db.Where("parent_id = ?", *parentID)
	}
}
