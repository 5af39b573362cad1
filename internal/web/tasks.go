package web

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/sprintyard/internal/task"
	"gorm.io/gorm"
)

func handleTaskList(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		tasks, err := task.List(db, task.ListFilters{
			UserStoryID: uintQuery(c, "story_id"),
			Status:      c.Query("status"),
			AssigneeID:  uintQuery(c, "assignee_id"),
		})
		if err != nil {
			failErr(c, err)
			return
		}
		ok(c, gin.H{"tasks": tasks})
	}
}

func handleTaskGet(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, okID := idParam(c, "id")
		if !okID {
			return
		}
		tk, err := task.Get(db, id)
		if err != nil {
			failErr(c, err)
			return
		}
		ok(c, gin.H{"task": tk})
	}
}

func handleTaskCreate(db *gorm.DB) gin.HandlerFunc {
	type request struct {
		UserStoryID    uint       `json:"story_id"`
		Name           string     `json:"name"`
		Description    string     `json:"description"`
		TaskType       string     `json:"task_type"`
		Priority       string     `json:"priority"`
		AssigneeID     *uint      `json:"assignee_id"`
		StartDate      *time.Time `json:"start_date"`
		EndDate        *time.Time `json:"end_date"`
		EstimatedHours *float64   `json:"estimated_hours"`
	}
	return func(c *gin.Context) {
		var req request
		if !bindJSON(c, &req) {
			return
		}
		tk, err := task.Create(db, task.CreateOpts{
			UserStoryID:    req.UserStoryID,
			Name:           req.Name,
			Description:    req.Description,
			TaskType:       req.TaskType,
			Priority:       req.Priority,
			AssigneeID:     req.AssigneeID,
			StartDate:      req.StartDate,
			EndDate:        req.EndDate,
			EstimatedHours: req.EstimatedHours,
		})
		if err != nil {
			failErr(c, err)
			return
		}
		ok(c, gin.H{"message": "task created", "task": tk})
	}
}

func handleTaskUpdate(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, okID := idParam(c, "id")
		if !okID {
			return
		}
		var updates map[string]interface{}
		if !bindJSON(c, &updates) {
			return
		}
		if err := task.Update(db, id, updates); err != nil {
			failErr(c, err)
			return
		}
		ok(c, gin.H{"message": "task updated"})
	}
}

func handleTaskDelete(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, okID := idParam(c, "id")
		if !okID {
			return
		}
		if err := task.Delete(db, id); err != nil {
			failErr(c, err)
			return
		}
		ok(c, gin.H{"message": "task deleted"})
	}
}
