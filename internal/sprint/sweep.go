package sprint

import (
	"fmt"
	"time"

	"github.com/zulandar/sprintyard/internal/models"
	"gorm.io/gorm"
)

// MarkOverdueSprints returns active sprints whose end date has passed. The
// sweep only surfaces them so alerts can go out; closing a sprint stays a
// deliberate Complete call.
func MarkOverdueSprints(db *gorm.DB, now time.Time) ([]models.Sprint, error) {
	var overdue []models.Sprint
	err := db.Where("status = ? AND end_date < ?", StatusActive, now).
		Order("end_date ASC").
		Find(&overdue).Error
	if err != nil {
		return nil, fmt.Errorf("sprint: sweep overdue: %w", err)
	}
	return overdue, nil
}
