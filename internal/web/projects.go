package web

import (
	"github.com/gin-gonic/gin"
	"github.com/zulandar/sprintyard/internal/access"
	"github.com/zulandar/sprintyard/internal/projtree"
	"gorm.io/gorm"
)

func handleCapabilities(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		caps, err := access.Resolve(db, actorFrom(c))
		if err != nil {
			failErr(c, err)
			return
		}
		ok(c, gin.H{"capabilities": caps})
	}
}

func handleProjectTree(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		tree, err := projtree.Tree(db)
		if err != nil {
			failErr(c, err)
			return
		}
		ok(c, gin.H{"tree": tree})
	}
}

func handleProjectGet(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, okID := idParam(c, "id")
		if !okID {
			return
		}
		node, err := projtree.Get(db, id)
		if err != nil {
			failErr(c, err)
			return
		}
		ok(c, gin.H{"node": node})
	}
}

func handleProjectModules(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, okID := idParam(c, "id")
		if !okID {
			return
		}
		modules, err := projtree.Modules(db, id)
		if err != nil {
			failErr(c, err)
			return
		}
		ok(c, gin.H{"modules": modules})
	}
}

func handleProjectCreate(db *gorm.DB) gin.HandlerFunc {
	type request struct {
		Name      string `json:"name"`
		NodeType  string `json:"node_type"`
		ParentID  *uint  `json:"parent_id"`
		ShortName string `json:"short_name"`
	}
	return func(c *gin.Context) {
		var req request
		if !bindJSON(c, &req) {
			return
		}
		node, err := projtree.Create(db, projtree.CreateOpts{
			Name:      req.Name,
			NodeType:  req.NodeType,
			ParentID:  req.ParentID,
			ShortName: req.ShortName,
		})
		if err != nil {
			failErr(c, err)
			return
		}
		ok(c, gin.H{"message": "node created", "node": node})
	}
}

func handleProjectRename(db *gorm.DB) gin.HandlerFunc {
	type request struct {
		Name      string `json:"name"`
		ShortName string `json:"short_name"`
	}
	return func(c *gin.Context) {
		id, okID := idParam(c, "id")
		if !okID {
			return
		}
		var req request
		if !bindJSON(c, &req) {
			return
		}
		if err := projtree.Rename(db, id, req.Name, req.ShortName); err != nil {
			failErr(c, err)
			return
		}
		ok(c, gin.H{"message": "node renamed"})
	}
}

func handleProjectMove(db *gorm.DB) gin.HandlerFunc {
	type request struct {
		ParentID *uint `json:"parent_id"`
		Order    int   `json:"order"`
	}
	return func(c *gin.Context) {
		id, okID := idParam(c, "id")
		if !okID {
			return
		}
		var req request
		if !bindJSON(c, &req) {
			return
		}
		if err := projtree.Move(db, id, req.ParentID, req.Order); err != nil {
			failErr(c, err)
			return
		}
		ok(c, gin.H{"message": "node moved"})
	}
}

func handleProjectReorder(db *gorm.DB) gin.HandlerFunc {
	type request struct {
		Direction string `json:"direction"` // up or down
	}
	return func(c *gin.Context) {
		id, okID := idParam(c, "id")
		if !okID {
			return
		}
		var req request
		if !bindJSON(c, &req) {
			return
		}
		if err := projtree.Reorder(db, id, req.Direction); err != nil {
			failErr(c, err)
			return
		}
		ok(c, gin.H{"message": "node reordered"})
	}
}

func handleProjectDelete(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, okID := idParam(c, "id")
		if !okID {
			return
		}
		if err := projtree.Delete(db, id); err != nil {
			failErr(c, err)
			return
		}
		ok(c, gin.H{"message": "node deleted"})
	}
}
