package access

import (
	"errors"
	"fmt"

	"github.com/zulandar/sprintyard/internal/models"
	"gorm.io/gorm"
)

// ListFeatures returns the feature registry ordered for display.
func ListFeatures(db *gorm.DB) ([]models.SystemFeature, error) {
	var features []models.SystemFeature
	if err := db.Order("order_num ASC, id ASC").Find(&features).Error; err != nil {
		return nil, fmt.Errorf("access: list features: %w", err)
	}
	return features, nil
}

// GetFeature looks up a feature by route name.
func GetFeature(db *gorm.DB, routeName string) (*models.SystemFeature, error) {
	var feature models.SystemFeature
	if err := db.Where("route_name = ?", routeName).First(&feature).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("access: feature not found: %s", routeName)
		}
		return nil, fmt.Errorf("access: get feature %q: %w", routeName, err)
	}
	return &feature, nil
}

// FeatureUpdate holds per-feature flag changes for UpdateFeatures.
type FeatureUpdate struct {
	ID        uint
	IsEnabled bool
	IsPublic  bool
	OrderNum  int
}

// UpdateFeatures applies enabled/public/order changes in one transaction.
func UpdateFeatures(db *gorm.DB, updates []FeatureUpdate) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for _, u := range updates {
			result := tx.Model(&models.SystemFeature{}).Where("id = ?", u.ID).Updates(map[string]interface{}{
				"is_enabled": u.IsEnabled,
				"is_public":  u.IsPublic,
				"order_num":  u.OrderNum,
			})
			if result.Error != nil {
				return fmt.Errorf("access: update feature %d: %w", u.ID, result.Error)
			}
			if result.RowsAffected == 0 {
				return fmt.Errorf("access: feature not found: %d", u.ID)
			}
		}
		return nil
	})
}

// SetFeatureEnabled toggles a single feature by route name.
func SetFeatureEnabled(db *gorm.DB, routeName string, enabled bool) error {
	result := db.Model(&models.SystemFeature{}).
		Where("route_name = ?", routeName).
		Update("is_enabled", enabled)
	if result.Error != nil {
		return fmt.Errorf("access: toggle feature %q: %w", routeName, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("access: feature not found: %s", routeName)
	}
	return nil
}
