// Package access decides whether an actor may use a system feature.
//
// Features are registered rows keyed by a route name ("blueprint.endpoint");
// roles hold grant rows against features. Resolution is a pure read with a
// fixed check order: admin override, then role grants, then the public
// bypass. A false result is a terminal outcome for the request, not an error.
package access

import (
	"errors"
	"fmt"

	"github.com/zulandar/sprintyard/internal/models"
	"gorm.io/gorm"
)

// AdminRole is the reserved role name whose holders bypass per-feature grants.
const AdminRole = "admin"

// Actor identifies who is making a request. The zero value is anonymous.
// Actors are passed explicitly into every resolver and domain call; nothing
// reads ambient session state.
type Actor struct {
	userID uint
}

// Anonymous returns an unauthenticated actor.
func Anonymous() Actor { return Actor{} }

// User returns an actor for the given user ID.
func User(id uint) Actor { return Actor{userID: id} }

// Authenticated reports whether the actor is a signed-in user.
func (a Actor) Authenticated() bool { return a.userID != 0 }

// UserID returns the actor's user ID, or 0 for anonymous.
func (a Actor) UserID() uint { return a.userID }

// CanAccess decides whether actor may use the feature registered under
// routeName.
//
// Check order: holders of the admin role are allowed unconditionally; an
// authenticated actor is allowed if any of its roles has a grant for an
// enabled feature with that route name; otherwise the feature itself must be
// enabled and public. An unregistered route name denies for everyone but
// admins.
func CanAccess(db *gorm.DB, actor Actor, routeName string) (bool, error) {
	if actor.Authenticated() {
		isAdmin, err := HasRole(db, actor.UserID(), AdminRole)
		if err != nil {
			return false, err
		}
		if isAdmin {
			return true, nil
		}

		var count int64
		err = db.Model(&models.RoleSystemFeature{}).
			Joins("JOIN user_roles ON user_roles.role_id = role_system_features.role_id").
			Joins("JOIN system_features ON system_features.id = role_system_features.system_feature_id").
			Where("user_roles.user_id = ?", actor.UserID()).
			Where("system_features.route_name = ?", routeName).
			Where("system_features.is_enabled = ?", true).
			Count(&count).Error
		if err != nil {
			return false, fmt.Errorf("access: check grants for user %d: %w", actor.UserID(), err)
		}
		if count > 0 {
			return true, nil
		}
	}

	var feature models.SystemFeature
	err := db.Where("route_name = ?", routeName).First(&feature).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("access: look up feature %q: %w", routeName, err)
	}
	return feature.IsEnabled && feature.IsPublic, nil
}

// HasRole reports whether the user holds the named role.
func HasRole(db *gorm.DB, userID uint, roleName string) (bool, error) {
	var count int64
	err := db.Model(&models.UserRole{}).
		Joins("JOIN roles ON roles.id = user_roles.role_id").
		Where("user_roles.user_id = ?", userID).
		Where("roles.name = ?", roleName).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("access: check role %q for user %d: %w", roleName, userID, err)
	}
	return count > 0, nil
}

// Capabilities is the set of route names an actor may use, resolved once per
// request. Handlers test membership instead of comparing role-name strings.
type Capabilities struct {
	admin  bool
	routes map[string]bool
	public map[string]bool
}

// Can reports whether the capability set covers routeName.
func (c Capabilities) Can(routeName string) bool {
	return c.admin || c.routes[routeName] || c.public[routeName]
}

// Admin reports whether the actor holds the admin role.
func (c Capabilities) Admin() bool { return c.admin }

// Resolve computes the actor's capability set: the grant-derived routes of
// every role the actor holds (enabled features only) plus all public enabled
// features.
func Resolve(db *gorm.DB, actor Actor) (Capabilities, error) {
	caps := Capabilities{
		routes: make(map[string]bool),
		public: make(map[string]bool),
	}

	var publicRoutes []string
	err := db.Model(&models.SystemFeature{}).
		Where("is_enabled = ? AND is_public = ?", true, true).
		Pluck("route_name", &publicRoutes).Error
	if err != nil {
		return Capabilities{}, fmt.Errorf("access: list public features: %w", err)
	}
	for _, r := range publicRoutes {
		caps.public[r] = true
	}

	if !actor.Authenticated() {
		return caps, nil
	}

	isAdmin, err := HasRole(db, actor.UserID(), AdminRole)
	if err != nil {
		return Capabilities{}, err
	}
	caps.admin = isAdmin
	if isAdmin {
		return caps, nil
	}

	var granted []string
	err = db.Model(&models.RoleSystemFeature{}).
		Joins("JOIN user_roles ON user_roles.role_id = role_system_features.role_id").
		Joins("JOIN system_features ON system_features.id = role_system_features.system_feature_id").
		Where("user_roles.user_id = ?", actor.UserID()).
		Where("system_features.is_enabled = ?", true).
		Distinct().
		Pluck("system_features.route_name", &granted).Error
	if err != nil {
		return Capabilities{}, fmt.Errorf("access: list grants for user %d: %w", actor.UserID(), err)
	}
	for _, r := range granted {
		caps.routes[r] = true
	}
	return caps, nil
}
