// Package knowledge manages the agile knowledge base articles.
package knowledge

import (
	"errors"
	"fmt"

	"github.com/zulandar/sprintyard/internal/models"
	"gorm.io/gorm"
)

// CreateOpts holds parameters for creating an article.
type CreateOpts struct {
	Title    string
	Content  string
	Category string
	AuthorID uint
}

// Create adds an article.
func Create(db *gorm.DB, opts CreateOpts) (*models.AgileKnowledge, error) {
	if opts.Title == "" {
		return nil, fmt.Errorf("knowledge: title is required")
	}
	if opts.Content == "" {
		return nil, fmt.Errorf("knowledge: content is required")
	}
	if opts.AuthorID == 0 {
		return nil, fmt.Errorf("knowledge: author is required")
	}

	a := models.AgileKnowledge{
		Title:    opts.Title,
		Content:  opts.Content,
		Category: opts.Category,
		AuthorID: opts.AuthorID,
	}
	if err := db.Create(&a).Error; err != nil {
		return nil, fmt.Errorf("knowledge: create: %w", err)
	}
	return &a, nil
}

// Get retrieves an article by ID.
func Get(db *gorm.DB, id uint) (*models.AgileKnowledge, error) {
	var a models.AgileKnowledge
	if err := db.First(&a, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("knowledge: not found: %d", id)
		}
		return nil, fmt.Errorf("knowledge: get %d: %w", id, err)
	}
	return &a, nil
}

// List returns articles, optionally narrowed to a category, newest first.
func List(db *gorm.DB, category string) ([]models.AgileKnowledge, error) {
	q := db.Model(&models.AgileKnowledge{})
	if category != "" {
		q = q.Where("category = ?", category)
	}

	var articles []models.AgileKnowledge
	if err := q.Order("created_at DESC, id DESC").Find(&articles).Error; err != nil {
		return nil, fmt.Errorf("knowledge: list: %w", err)
	}
	return articles, nil
}

// Update modifies article fields.
func Update(db *gorm.DB, id uint, updates map[string]interface{}) error {
	if t, ok := updates["title"].(string); ok && t == "" {
		return fmt.Errorf("knowledge: title cannot be empty")
	}
	if c, ok := updates["content"].(string); ok && c == "" {
		return fmt.Errorf("knowledge: content cannot be empty")
	}

	result := db.Model(&models.AgileKnowledge{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("knowledge: update %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("knowledge: not found: %d", id)
	}
	return nil
}

// Delete removes an article.
func Delete(db *gorm.DB, id uint) error {
	result := db.Delete(&models.AgileKnowledge{}, id)
	if result.Error != nil {
		return fmt.Errorf("knowledge: delete %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("knowledge: not found: %d", id)
	}
	return nil
}
