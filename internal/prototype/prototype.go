// Package prototype manages prototype image records attached to project
// tree nodes. Only metadata lives here; byte storage is out of scope.
package prototype

import (
	"errors"
	"fmt"

	"github.com/zulandar/sprintyard/internal/models"
	"gorm.io/gorm"
)

// CreateOpts holds parameters for registering a prototype image.
type CreateOpts struct {
	ProjectNodeID uint
	Name          string
	Description   string
	FilePath      string
	FileSize      *int64
	MimeType      string
	Version       string
	UploadedByID  uint
}

// Create registers a prototype image under a project tree node.
func Create(db *gorm.DB, opts CreateOpts) (*models.PrototypeImage, error) {
	if opts.Name == "" {
		return nil, fmt.Errorf("prototype: name is required")
	}
	if opts.FilePath == "" {
		return nil, fmt.Errorf("prototype: file path is required")
	}
	if opts.UploadedByID == 0 {
		return nil, fmt.Errorf("prototype: uploader is required")
	}
	if err := db.First(&models.ProjectInfo{}, opts.ProjectNodeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("prototype: project node not found: %d", opts.ProjectNodeID)
		}
		return nil, fmt.Errorf("prototype: get node %d: %w", opts.ProjectNodeID, err)
	}

	if opts.Version == "" {
		opts.Version = "1.0"
	}
	p := models.PrototypeImage{
		ProjectNodeID: opts.ProjectNodeID,
		Name:          opts.Name,
		Description:   opts.Description,
		FilePath:      opts.FilePath,
		FileSize:      opts.FileSize,
		MimeType:      opts.MimeType,
		Version:       opts.Version,
		UploadedByID:  opts.UploadedByID,
	}
	if err := db.Create(&p).Error; err != nil {
		return nil, fmt.Errorf("prototype: create: %w", err)
	}
	return &p, nil
}

// Get retrieves a prototype image record by ID.
func Get(db *gorm.DB, id uint) (*models.PrototypeImage, error) {
	var p models.PrototypeImage
	if err := db.First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("prototype: not found: %d", id)
		}
		return nil, fmt.Errorf("prototype: get %d: %w", id, err)
	}
	return &p, nil
}

// List returns prototype records, optionally scoped to one tree node.
func List(db *gorm.DB, nodeID *uint) ([]models.PrototypeImage, error) {
	q := db.Model(&models.PrototypeImage{})
	if nodeID != nil {
		q = q.Where("project_node_id = ?", *nodeID)
	}

	var images []models.PrototypeImage
	if err := q.Order("created_at DESC, id DESC").Find(&images).Error; err != nil {
		return nil, fmt.Errorf("prototype: list: %w", err)
	}
	return images, nil
}

// Update modifies prototype metadata.
func Update(db *gorm.DB, id uint, updates map[string]interface{}) error {
	if n, ok := updates["name"].(string); ok && n == "" {
		return fmt.Errorf("prototype: name cannot be empty")
	}

	result := db.Model(&models.PrototypeImage{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("prototype: update %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("prototype: not found: %d", id)
	}
	return nil
}

// Delete removes a prototype record.
func Delete(db *gorm.DB, id uint) error {
	result := db.Delete(&models.PrototypeImage{}, id)
	if result.Error != nil {
		return fmt.Errorf("prototype: delete %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("prototype: not found: %d", id)
	}
	return nil
}
