package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/sprintyard/internal/access"
	"github.com/zulandar/sprintyard/internal/db"
	"github.com/zulandar/sprintyard/internal/models"
	"gorm.io/gorm"
)

func handleRoleList(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		roles, err := access.ListRoles(db)
		if err != nil {
			failErr(c, err)
			return
		}
		ok(c, gin.H{"roles": roles})
	}
}

func handleRoleCreate(db *gorm.DB) gin.HandlerFunc {
	type request struct {
		Name        string `json:"name"`
		DisplayName string `json:"display_name"`
		Description string `json:"description"`
		FeatureIDs  []uint `json:"feature_ids"`
	}
	return func(c *gin.Context) {
		var req request
		if !bindJSON(c, &req) {
			return
		}
		role, err := access.CreateRole(db, access.RoleOpts{
			Name:        req.Name,
			DisplayName: req.DisplayName,
			Description: req.Description,
			FeatureIDs:  req.FeatureIDs,
		})
		if err != nil {
			failErr(c, err)
			return
		}
		ok(c, gin.H{"message": "role created", "role": role})
	}
}

func handleRoleUpdate(db *gorm.DB) gin.HandlerFunc {
	type request struct {
		Name        string `json:"name"`
		DisplayName string `json:"display_name"`
		Description string `json:"description"`
		FeatureIDs  []uint `json:"feature_ids"`
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
		err := access.UpdateRole(db, id, access.RoleOpts{
			Name:        req.Name,
			DisplayName: req.DisplayName,
			Description: req.Description,
			FeatureIDs:  req.FeatureIDs,
		})
		if err != nil {
			failErr(c, err)
			return
		}
		ok(c, gin.H{"message": "role updated"})
	}
}

func handleRoleDelete(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, okID := idParam(c, "id")
		if !okID {
			return
		}
		if err := access.DeleteRole(db, id); err != nil {
			failErr(c, err)
			return
		}
		ok(c, gin.H{"message": "role deleted"})
	}
}

func handleUserRoles(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, okID := idParam(c, "id")
		if !okID {
			return
		}
		roles, err := access.UserRoles(db, id)
		if err != nil {
			failErr(c, err)
			return
		}
		ok(c, gin.H{"roles": roles})
	}
}

func handleAssignRoles(db *gorm.DB) gin.HandlerFunc {
	type request struct {
		RoleIDs []uint `json:"role_ids"`
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
		if err := access.AssignRoles(db, id, req.RoleIDs); err != nil {
			failErr(c, err)
			return
		}
		ok(c, gin.H{"message": "roles assigned"})
	}
}

// handleFeatureInit seeds the feature registry. It refuses once any rows
// exist; re-seeding after admin edits goes through the CLI.
func handleFeatureInit(gdb *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var count int64
		if err := gdb.Model(&models.SystemFeature{}).Count(&count).Error; err != nil {
			failErr(c, err)
			return
		}
		if count > 0 {
			fail(c, http.StatusBadRequest, "features already initialized")
			return
		}
		if err := db.SeedFeatures(gdb); err != nil {
			failErr(c, err)
			return
		}
		ok(c, gin.H{"message": "features initialized"})
	}
}

func handleFeatureList(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		features, err := access.ListFeatures(db)
		if err != nil {
			failErr(c, err)
			return
		}
		ok(c, gin.H{"features": features})
	}
}

func handleFeatureUpdate(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var updates []access.FeatureUpdate
		if !bindJSON(c, &updates) {
			return
		}
		if err := access.UpdateFeatures(db, updates); err != nil {
			failErr(c, err)
			return
		}
		ok(c, gin.H{"message": "features updated"})
	}
}
