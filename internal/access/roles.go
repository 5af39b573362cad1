package access

import (
	"errors"
	"fmt"

	"github.com/zulandar/sprintyard/internal/models"
	"gorm.io/gorm"
)

// RoleOpts holds parameters for creating or updating a role.
type RoleOpts struct {
	Name        string
	DisplayName string
	Description string
	FeatureIDs  []uint // features granted to the role; replaces existing grants
}

// CreateRole creates a role with its feature grants.
func CreateRole(db *gorm.DB, opts RoleOpts) (*models.Role, error) {
	if opts.Name == "" || opts.DisplayName == "" {
		return nil, fmt.Errorf("access: role name and display name are required")
	}

	var count int64
	if err := db.Model(&models.Role{}).Where("name = ?", opts.Name).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("access: check role name %q: %w", opts.Name, err)
	}
	if count > 0 {
		return nil, fmt.Errorf("access: role name already exists: %s", opts.Name)
	}

	role := models.Role{
		Name:        opts.Name,
		DisplayName: opts.DisplayName,
		Description: opts.Description,
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&role).Error; err != nil {
			return fmt.Errorf("access: create role: %w", err)
		}
		return replaceGrants(tx, role.ID, opts.FeatureIDs)
	})
	if err != nil {
		return nil, err
	}
	return &role, nil
}

// UpdateRole updates a role's display fields and replaces its grants.
func UpdateRole(db *gorm.DB, roleID uint, opts RoleOpts) error {
	var role models.Role
	if err := db.First(&role, roleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("access: role not found: %d", roleID)
		}
		return fmt.Errorf("access: get role %d: %w", roleID, err)
	}

	if opts.Name != "" && opts.Name != role.Name {
		var count int64
		if err := db.Model(&models.Role{}).Where("name = ? AND id <> ?", opts.Name, roleID).Count(&count).Error; err != nil {
			return fmt.Errorf("access: check role name %q: %w", opts.Name, err)
		}
		if count > 0 {
			return fmt.Errorf("access: role name already exists: %s", opts.Name)
		}
		role.Name = opts.Name
	}
	if opts.DisplayName != "" {
		role.DisplayName = opts.DisplayName
	}
	role.Description = opts.Description

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&role).Error; err != nil {
			return fmt.Errorf("access: update role %d: %w", roleID, err)
		}
		return replaceGrants(tx, roleID, opts.FeatureIDs)
	})
}

// DeleteRole removes a role, its grants, and its user assignments. The
// reserved admin role cannot be deleted.
func DeleteRole(db *gorm.DB, roleID uint) error {
	var role models.Role
	if err := db.First(&role, roleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("access: role not found: %d", roleID)
		}
		return fmt.Errorf("access: get role %d: %w", roleID, err)
	}
	if role.Name == AdminRole {
		return fmt.Errorf("access: the %s role cannot be deleted", AdminRole)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("role_id = ?", roleID).Delete(&models.RoleSystemFeature{}).Error; err != nil {
			return fmt.Errorf("access: delete grants for role %d: %w", roleID, err)
		}
		if err := tx.Where("role_id = ?", roleID).Delete(&models.UserRole{}).Error; err != nil {
			return fmt.Errorf("access: delete assignments for role %d: %w", roleID, err)
		}
		if err := tx.Delete(&models.Role{}, roleID).Error; err != nil {
			return fmt.Errorf("access: delete role %d: %w", roleID, err)
		}
		return nil
	})
}

// ListRoles returns all roles with their grants preloaded.
func ListRoles(db *gorm.DB) ([]models.Role, error) {
	var roles []models.Role
	if err := db.Preload("Grants").Order("id ASC").Find(&roles).Error; err != nil {
		return nil, fmt.Errorf("access: list roles: %w", err)
	}
	return roles, nil
}

// AssignRoles replaces a user's role set with the given role IDs.
func AssignRoles(db *gorm.DB, userID uint, roleIDs []uint) error {
	var count int64
	if err := db.Model(&models.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
		return fmt.Errorf("access: check user %d: %w", userID, err)
	}
	if count == 0 {
		return fmt.Errorf("access: user not found: %d", userID)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&models.UserRole{}).Error; err != nil {
			return fmt.Errorf("access: clear roles for user %d: %w", userID, err)
		}
		for _, roleID := range roleIDs {
			var rc int64
			if err := tx.Model(&models.Role{}).Where("id = ?", roleID).Count(&rc).Error; err != nil {
				return fmt.Errorf("access: check role %d: %w", roleID, err)
			}
			if rc == 0 {
				return fmt.Errorf("access: role not found: %d", roleID)
			}
			ur := models.UserRole{UserID: userID, RoleID: roleID}
			if err := tx.Create(&ur).Error; err != nil {
				return fmt.Errorf("access: assign role %d to user %d: %w", roleID, userID, err)
			}
		}
		return nil
	})
}

// GrantRole adds a single role to a user by role name, skipping if already held.
func GrantRole(db *gorm.DB, userID uint, roleName string) error {
	var role models.Role
	if err := db.Where("name = ?", roleName).First(&role).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("access: role not found: %s", roleName)
		}
		return fmt.Errorf("access: get role %q: %w", roleName, err)
	}

	held, err := HasRole(db, userID, roleName)
	if err != nil {
		return err
	}
	if held {
		return nil
	}

	ur := models.UserRole{UserID: userID, RoleID: role.ID}
	if err := db.Create(&ur).Error; err != nil {
		return fmt.Errorf("access: grant role %q to user %d: %w", roleName, userID, err)
	}
	return nil
}

// RevokeRole removes a single role from a user by role name.
func RevokeRole(db *gorm.DB, userID uint, roleName string) error {
	var role models.Role
	if err := db.Where("name = ?", roleName).First(&role).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("access: role not found: %s", roleName)
		}
		return fmt.Errorf("access: get role %q: %w", roleName, err)
	}
	if err := db.Where("user_id = ? AND role_id = ?", userID, role.ID).Delete(&models.UserRole{}).Error; err != nil {
		return fmt.Errorf("access: revoke role %q from user %d: %w", roleName, userID, err)
	}
	return nil
}

// UserRoles returns the roles held by a user.
func UserRoles(db *gorm.DB, userID uint) ([]models.Role, error) {
	var roles []models.Role
	err := db.Model(&models.Role{}).
		Joins("JOIN user_roles ON user_roles.role_id = roles.id").
		Where("user_roles.user_id = ?", userID).
		Order("roles.id ASC").
		Find(&roles).Error
	if err != nil {
		return nil, fmt.Errorf("access: roles for user %d: %w", userID, err)
	}
	return roles, nil
}

// replaceGrants swaps a role's grant rows for the given feature IDs.
func replaceGrants(tx *gorm.DB, roleID uint, featureIDs []uint) error {
	if err := tx.Where("role_id = ?", roleID).Delete(&models.RoleSystemFeature{}).Error; err != nil {
		return fmt.Errorf("access: clear grants for role %d: %w", roleID, err)
	}
	for _, fid := range featureIDs {
		var count int64
		if err := tx.Model(&models.SystemFeature{}).Where("id = ?", fid).Count(&count).Error; err != nil {
			return fmt.Errorf("access: check feature %d: %w", fid, err)
		}
		if count == 0 {
			return fmt.Errorf("access: feature not found: %d", fid)
		}
		grant := models.RoleSystemFeature{RoleID: roleID, SystemFeatureID: fid}
		if err := tx.Create(&grant).Error; err != nil {
			return fmt.Errorf("access: grant feature %d to role %d: %w", fid, roleID, err)
		}
	}
	return nil
}
