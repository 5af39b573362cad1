package web

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/sprintyard/internal/defect"
	"github.com/zulandar/sprintyard/internal/models"
	"github.com/zulandar/sprintyard/internal/notify"
	"gorm.io/gorm"
)

func handleDefectList(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var online *bool
		if raw := c.Query("is_online"); raw != "" {
			b := raw == "true" || raw == "1"
			online = &b
		}
		defects, err := defect.List(db, defect.ListFilters{
			ProjectID:  uintQuery(c, "project_id"),
			SprintID:   uintQuery(c, "sprint_id"),
			AssigneeID: uintQuery(c, "assignee_id"),
			Status:     c.Query("status"),
			Severity:   c.Query("severity"),
			IsOnline:   online,
		})
		if err != nil {
			failErr(c, err)
			return
		}
		ok(c, gin.H{"defects": defects})
	}
}

func handleDefectGet(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, okID := idParam(c, "id")
		if !okID {
			return
		}
		d, err := defect.Get(db, id)
		if err != nil {
			failErr(c, err)
			return
		}
		ok(c, gin.H{"defect": d})
	}
}

func handleDefectCreate(db *gorm.DB, notifier *notify.Dispatcher) gin.HandlerFunc {
	type request struct {
		Title       string     `json:"title"`
		ProjectID   uint       `json:"project_id"`
		SprintID    *uint      `json:"sprint_id"`
		Description string     `json:"description"`
		AssigneeID  *uint      `json:"assignee_id"`
		Priority    string     `json:"priority"`
		IsOnline    bool       `json:"is_online"`
		Severity    string     `json:"severity"`
		DefectType  string     `json:"defect_type"`
		DevTeam     string     `json:"dev_team"`
		StartDate   *time.Time `json:"start_date"`
		EndDate     *time.Time `json:"end_date"`
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
		d, err := defect.Create(db, defect.CreateOpts{
			Title:       req.Title,
			ProjectID:   req.ProjectID,
			SprintID:    req.SprintID,
			Description: req.Description,
			AssigneeID:  req.AssigneeID,
			Priority:    req.Priority,
			IsOnline:    req.IsOnline,
			Severity:    req.Severity,
			DefectType:  req.DefectType,
			DevTeam:     req.DevTeam,
			StartDate:   req.StartDate,
			EndDate:     req.EndDate,
			CreatedByID: actor.UserID(),
		})
		if err != nil {
			failErr(c, err)
			return
		}
		if notifier != nil && d.AssigneeID != nil {
			var assignee models.User
			db.First(&assignee, *d.AssigneeID)
			notifier.Dispatch(c.Request.Context(), notify.DefectAssigned(d, assignee.Name))
		}
		ok(c, gin.H{"message": "defect created", "defect": d})
	}
}

func handleDefectUpdate(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, okID := idParam(c, "id")
		if !okID {
			return
		}
		var updates map[string]interface{}
		if !bindJSON(c, &updates) {
			return
		}
		if err := defect.Update(db, id, updates); err != nil {
			failErr(c, err)
			return
		}
		ok(c, gin.H{"message": "defect updated"})
	}
}

func handleDefectResolve(db *gorm.DB) gin.HandlerFunc {
	type request struct {
		Resolution string `json:"resolution"`
	}
	return func(c *gin.Context) {
		actor := actorFrom(c)
		if !actor.Authenticated() {
			fail(c, http.StatusUnauthorized, "sign in required")
			return
		}
		id, okID := idParam(c, "id")
		if !okID {
			return
		}
		var req request
		if !bindJSON(c, &req) {
			return
		}
		if err := defect.Resolve(db, id, actor.UserID(), req.Resolution); err != nil {
			failErr(c, err)
			return
		}
		ok(c, gin.H{"message": "defect resolved"})
	}
}

func handleDefectClose(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, okID := idParam(c, "id")
		if !okID {
			return
		}
		if err := defect.Close(db, id); err != nil {
			failErr(c, err)
			return
		}
		ok(c, gin.H{"message": "defect closed"})
	}
}

func handleDefectReopen(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, okID := idParam(c, "id")
		if !okID {
			return
		}
		if err := defect.Reopen(db, id); err != nil {
			failErr(c, err)
			return
		}
		ok(c, gin.H{"message": "defect reopened"})
	}
}

func handleDefectExport(db *gorm.DB, exporter *defect.Exporter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if exporter == nil {
			fail(c, http.StatusServiceUnavailable, "github export is not configured")
			return
		}
		id, okID := idParam(c, "id")
		if !okID {
			return
		}
		url, err := exporter.ExportIssue(c.Request.Context(), db, id)
		if err != nil {
			failErr(c, err)
			return
		}
		ok(c, gin.H{"message": "defect exported", "issue_url": url})
	}
}

func handleDefectDelete(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, okID := idParam(c, "id")
		if !okID {
			return
		}
		if err := defect.Delete(db, id); err != nil {
			failErr(c, err)
			return
		}
		ok(c, gin.H{"message": "defect deleted"})
	}
}
