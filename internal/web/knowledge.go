package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/sprintyard/internal/knowledge"
	"github.com/zulandar/sprintyard/internal/prototype"
	"gorm.io/gorm"
)

func handleKnowledgeList(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		articles, err := knowledge.List(db, c.Query("category"))
		if err != nil {
			failErr(c, err)
			return
		}
		ok(c, gin.H{"articles": articles})
	}
}

func handleKnowledgeGet(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, okID := idParam(c, "id")
		if !okID {
			return
		}
		a, err := knowledge.Get(db, id)
		if err != nil {
			failErr(c, err)
			return
		}
		ok(c, gin.H{"article": a})
	}
}

func handleKnowledgeCreate(db *gorm.DB) gin.HandlerFunc {
	type request struct {
		Title    string `json:"title"`
		Content  string `json:"content"`
		Category string `json:"category"`
	}
	return func(c *gin.Context) {
		actor := actorFrom(c)
		if !actor.Authenticated() {
			fail(c, http.StatusUnauthorized, "sign in required")
			return
		}
		var req request
		if !bindJSON(c, &req) {
			return
		}
		a, err := knowledge.Create(db, knowledge.CreateOpts{
			Title:    req.Title,
			Content:  req.Content,
			Category: req.Category,
			AuthorID: actor.UserID(),
		})
		if err != nil {
			failErr(c, err)
			return
		}
		ok(c, gin.H{"message": "article created", "article": a})
	}
}

func handleKnowledgeUpdate(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, okID := idParam(c, "id")
		if !okID {
			return
		}
		var updates map[string]interface{}
		if !bindJSON(c, &updates) {
			return
		}
		if err := knowledge.Update(db, id, updates); err != nil {
			failErr(c, err)
			return
		}
		ok(c, gin.H{"message": "article updated"})
	}
}

func handleKnowledgeDelete(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, okID := idParam(c, "id")
		if !okID {
			return
		}
		if err := knowledge.Delete(db, id); err != nil {
			failErr(c, err)
			return
		}
		ok(c, gin.H{"message": "article deleted"})
	}
}

func handlePrototypeList(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		images, err := prototype.List(db, uintQuery(c, "node_id"))
		if err != nil {
			failErr(c, err)
			return
		}
		ok(c, gin.H{"prototypes": images})
	}
}

func handlePrototypeGet(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, okID := idParam(c, "id")
		if !okID {
			return
		}
		p, err := prototype.Get(db, id)
		if err != nil {
			failErr(c, err)
			return
		}
		ok(c, gin.H{"prototype": p})
	}
}

func handlePrototypeCreate(db *gorm.DB) gin.HandlerFunc {
	type request struct {
		ProjectNodeID uint   `json:"node_id"`
		Name          string `json:"name"`
		Description   string `json:"description"`
		FilePath      string `json:"file_path"`
		FileSize      *int64 `json:"file_size"`
		MimeType      string `json:"mime_type"`
		Version       string `json:"version"`
	}
	return func(c *gin.Context) {
		actor := actorFrom(c)
		if !actor.Authenticated() {
			fail(c, http.StatusUnauthorized, "sign in required")
			return
		}
		var req request
		if !bindJSON(c, &req) {
			return
		}
		p, err := prototype.Create(db, prototype.CreateOpts{
			ProjectNodeID: req.ProjectNodeID,
			Name:          req.Name,
			Description:   req.Description,
			FilePath:      req.FilePath,
			FileSize:      req.FileSize,
			MimeType:      req.MimeType,
			Version:       req.Version,
			UploadedByID:  actor.UserID(),
		})
		if err != nil {
			failErr(c, err)
			return
		}
		ok(c, gin.H{"message": "prototype registered", "prototype": p})
	}
}

func handlePrototypeUpdate(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, okID := idParam(c, "id")
		if !okID {
			return
		}
		var updates map[string]interface{}
		if !bindJSON(c, &updates) {
			return
		}
		if err := prototype.Update(db, id, updates); err != nil {
			failErr(c, err)
			return
		}
		ok(c, gin.H{"message": "prototype updated"})
	}
}

func handlePrototypeDelete(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, okID := idParam(c, "id")
		if !okID {
			return
		}
		if err := prototype.Delete(db, id); err != nil {
			failErr(c, err)
			return
		}
		ok(c, gin.H{"message": "prototype deleted"})
	}
}
