package web

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/sprintyard/internal/notify"
	"github.com/zulandar/sprintyard/internal/sprint"
	"gorm.io/gorm"
)

func handleSprintList(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sprints, err := sprint.List(db, sprint.ListFilters{
			ProjectID: uintQuery(c, "project_id"),
			Status:    c.Query("status"),
		})
		if err != nil {
			failErr(c, err)
			return
		}
		ok(c, gin.H{"sprints": sprints})
	}
}

func handleSprintGet(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, okID := idParam(c, "id")
		if !okID {
			return
		}
		sp, err := sprint.Get(db, id)
		if err != nil {
			failErr(c, err)
			return
		}
		ok(c, gin.H{"sprint": sp})
	}
}

func handleSprintCreate(db *gorm.DB) gin.HandlerFunc {
	type request struct {
		Name           string    `json:"name"`
		StartDate      time.Time `json:"start_date"`
		EndDate        time.Time `json:"end_date"`
		Team           string    `json:"team"`
		ProductOwnerID *uint     `json:"product_owner_id"`
		ScrumMasterID  *uint     `json:"scrum_master_id"`
		ProjectID      *uint     `json:"project_id"`
	}
	return func(c *gin.Context) {
		var req request
		if !bindJSON(c, &req) {
			return
		}
		sp, err := sprint.Create(db, sprint.CreateOpts{
			Name:           req.Name,
			StartDate:      req.StartDate,
			EndDate:        req.EndDate,
			Team:           req.Team,
			ProductOwnerID: req.ProductOwnerID,
			ScrumMasterID:  req.ScrumMasterID,
			ProjectID:      req.ProjectID,
		})
		if err != nil {
			failErr(c, err)
			return
		}
		ok(c, gin.H{"message": "sprint created", "sprint": sp})
	}
}

func handleSprintUpdate(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, okID := idParam(c, "id")
		if !okID {
			return
		}
		var updates map[string]interface{}
		if !bindJSON(c, &updates) {
			return
		}
		if err := sprint.Update(db, id, updates); err != nil {
			failErr(c, err)
			return
		}
		ok(c, gin.H{"message": "sprint updated"})
	}
}

func handleSprintStart(db *gorm.DB, notifier *notify.Dispatcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, okID := idParam(c, "id")
		if !okID {
			return
		}
		sp, err := sprint.Start(db, id)
		if err != nil {
			failErr(c, err)
			return
		}
		if notifier != nil {
			notifier.Dispatch(c.Request.Context(), notify.SprintStarted(sp))
		}
		ok(c, gin.H{"message": "sprint started", "sprint": sp})
	}
}

func handleSprintComplete(db *gorm.DB, notifier *notify.Dispatcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, okID := idParam(c, "id")
		if !okID {
			return
		}
		sp, err := sprint.Complete(db, id)
		if err != nil {
			failErr(c, err)
			return
		}
		if notifier != nil {
			notifier.Dispatch(c.Request.Context(), notify.SprintCompleted(sp))
		}
		ok(c, gin.H{"message": "sprint completed", "sprint": sp})
	}
}

func handleSprintDelete(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, okID := idParam(c, "id")
		if !okID {
			return
		}
		if err := sprint.Delete(db, id); err != nil {
			failErr(c, err)
			return
		}
		ok(c, gin.H{"message": "sprint deleted"})
	}
}

func handleSprintAddStory(db *gorm.DB) gin.HandlerFunc {
	type request struct {
		StoryID     uint     `json:"story_id"`
		StoryPoints *float64 `json:"story_points"`
		Priority    string   `json:"priority"`
		AssigneeID  *uint    `json:"assignee_id"`
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
		item, err := sprint.AddStory(db, id, req.StoryID, sprint.ItemOpts{
			StoryPoints: req.StoryPoints,
			Priority:    req.Priority,
			AssigneeID:  req.AssigneeID,
		})
		if err != nil {
			failErr(c, err)
			return
		}
		ok(c, gin.H{"message": "story committed", "item": item})
	}
}

func handleSprintUpdateItem(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, okID := idParam(c, "id")
		if !okID {
			return
		}
		var updates map[string]interface{}
		if !bindJSON(c, &updates) {
			return
		}
		if err := sprint.UpdateItem(db, id, updates); err != nil {
			failErr(c, err)
			return
		}
		ok(c, gin.H{"message": "item updated"})
	}
}

func handleSprintRemoveStory(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, okID := idParam(c, "id")
		if !okID {
			return
		}
		storyID, okID := idParam(c, "storyID")
		if !okID {
			return
		}
		if err := sprint.RemoveStory(db, id, storyID); err != nil {
			failErr(c, err)
			return
		}
		ok(c, gin.H{"message": "story removed"})
	}
}
