package web

import (
	"github.com/gin-gonic/gin"
	"github.com/zulandar/sprintyard/internal/backlog"
	"github.com/zulandar/sprintyard/internal/story"
	"gorm.io/gorm"
)

func handleBacklogList(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := backlog.List(db, backlog.ListFilters{
			ProjectID: uintQuery(c, "project_id"),
			Status:    c.Query("status"),
			Priority:  c.Query("priority"),
			AnalystID: uintQuery(c, "analyst_id"),
		})
		if err != nil {
			failErr(c, err)
			return
		}
		ok(c, gin.H{"backlogs": items})
	}
}

func handleBacklogGet(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, okID := idParam(c, "id")
		if !okID {
			return
		}
		item, err := backlog.Get(db, id)
		if err != nil {
			failErr(c, err)
			return
		}
		ok(c, gin.H{"backlog": item})
	}
}

func handleBacklogCreate(db *gorm.DB) gin.HandlerFunc {
	type request struct {
		Title           string  `json:"title"`
		Description     string  `json:"description"`
		RequirementType string  `json:"requirement_type"`
		CustomerOwnerID *uint   `json:"customer_owner_id"`
		Priority        string  `json:"priority"`
		ProjectID       *uint   `json:"project_id"`
		ProjectModuleID *uint   `json:"project_module_id"`
		AnalystID       *uint   `json:"analyst_id"`
		RelatedInfo     string  `json:"related_info"`
		Tags            string  `json:"tags"`
	}
	return func(c *gin.Context) {
		var req request
		if !bindJSON(c, &req) {
			return
		}
		item, err := backlog.Create(db, backlog.CreateOpts{
			Title:           req.Title,
			Description:     req.Description,
			RequirementType: req.RequirementType,
			CustomerOwnerID: req.CustomerOwnerID,
			Priority:        req.Priority,
			ProjectID:       req.ProjectID,
			ProjectModuleID: req.ProjectModuleID,
			AnalystID:       req.AnalystID,
			RelatedInfo:     req.RelatedInfo,
			Tags:            req.Tags,
		})
		if err != nil {
			failErr(c, err)
			return
		}
		ok(c, gin.H{"message": "requirement created", "backlog": item})
	}
}

func handleBacklogUpdate(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, okID := idParam(c, "id")
		if !okID {
			return
		}
		var updates map[string]interface{}
		if !bindJSON(c, &updates) {
			return
		}
		if err := backlog.Update(db, id, updates); err != nil {
			failErr(c, err)
			return
		}
		ok(c, gin.H{"message": "requirement updated"})
	}
}

func handleBacklogDelete(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, okID := idParam(c, "id")
		if !okID {
			return
		}
		if err := backlog.Delete(db, id); err != nil {
			failErr(c, err)
			return
		}
		ok(c, gin.H{"message": "requirement deleted"})
	}
}

func handleStoryList(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		stories, err := story.List(db, story.ListFilters{
			ProductBacklogID: uintQuery(c, "backlog_id"),
			Priority:         c.Query("priority"),
		})
		if err != nil {
			failErr(c, err)
			return
		}
		ok(c, gin.H{"stories": stories})
	}
}

func handleStoryGet(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, okID := idParam(c, "id")
		if !okID {
			return
		}
		s, err := story.Get(db, id)
		if err != nil {
			failErr(c, err)
			return
		}
		ok(c, gin.H{"story": s})
	}
}

func handleStoryCreate(db *gorm.DB) gin.HandlerFunc {
	type request struct {
		ProductBacklogID   uint     `json:"backlog_id"`
		Title              string   `json:"title"`
		Description        string   `json:"description"`
		AcceptanceCriteria string   `json:"acceptance_criteria"`
		Effort             *float64 `json:"effort"`
		Priority           string   `json:"priority"`
	}
	return func(c *gin.Context) {
		var req request
		if !bindJSON(c, &req) {
			return
		}
		s, err := story.Create(db, story.CreateOpts{
			ProductBacklogID:   req.ProductBacklogID,
			Title:              req.Title,
			Description:        req.Description,
			AcceptanceCriteria: req.AcceptanceCriteria,
			Effort:             req.Effort,
			Priority:           req.Priority,
		})
		if err != nil {
			failErr(c, err)
			return
		}
		ok(c, gin.H{"message": "story created", "story": s})
	}
}

func handleStoryUpdate(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, okID := idParam(c, "id")
		if !okID {
			return
		}
		var updates map[string]interface{}
		if !bindJSON(c, &updates) {
			return
		}
		if err := story.Update(db, id, updates); err != nil {
			failErr(c, err)
			return
		}
		ok(c, gin.H{"message": "story updated"})
	}
}

func handleStoryDelete(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, okID := idParam(c, "id")
		if !okID {
			return
		}
		if err := story.Delete(db, id); err != nil {
			failErr(c, err)
			return
		}
		ok(c, gin.H{"message": "story deleted"})
	}
}
