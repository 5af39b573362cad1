package board

import (
	"fmt"
	"time"

	"github.com/zulandar/sprintyard/internal/models"
	"github.com/zulandar/sprintyard/internal/sprint"
	"github.com/zulandar/sprintyard/internal/task"
	"gorm.io/gorm"
)

// BurndownPoint is one day on the chart.
type BurndownPoint struct {
	Date      time.Time `json:"date"`
	Ideal     float64   `json:"ideal"`
	Remaining float64   `json:"remaining"`
}

// Burndown computes the daily series for a sprint. The ideal line falls
// linearly from the committed story points to zero. The actual line burns
// each story's points in proportion to how many of its tasks were done by
// the end of that day; a story with no tasks never burns.
func Burndown(db *gorm.DB, sprintID uint) ([]BurndownPoint, error) {
	sp, err := sprint.Get(db, sprintID)
	if err != nil {
		return nil, err
	}

	var total float64
	storyIDs := make([]uint, 0, len(sp.Backlogs))
	points := make(map[uint]float64, len(sp.Backlogs))
	for _, item := range sp.Backlogs {
		storyIDs = append(storyIDs, item.UserStoryID)
		if item.StoryPoints != nil {
			total += *item.StoryPoints
			points[item.UserStoryID] = *item.StoryPoints
		}
	}

	var tasks []models.Task
	if len(storyIDs) > 0 {
		if err := db.Where("user_story_id IN ?", storyIDs).Find(&tasks).Error; err != nil {
			return nil, fmt.Errorf("board: load tasks: %w", err)
		}
	}
	byStory := make(map[uint][]models.Task)
	for _, t := range tasks {
		byStory[t.UserStoryID] = append(byStory[t.UserStoryID], t)
	}

	start := dateOnly(sp.StartDate)
	end := dateOnly(sp.EndDate)
	daysTotal := int(end.Sub(start).Hours()/24) + 1

	var series []BurndownPoint
	for i, day := 0, start; !day.After(end); i, day = i+1, day.AddDate(0, 0, 1) {
		remaining := total
		for storyID, pts := range points {
			storyTasks := byStory[storyID]
			if len(storyTasks) == 0 {
				continue
			}
			done := 0
			for _, t := range storyTasks {
				if t.Status == task.StatusDone && t.CompletedAt != nil && !dateOnly(*t.CompletedAt).After(day) {
					done++
				}
			}
			remaining -= pts * float64(done) / float64(len(storyTasks))
		}
		if remaining < 0 {
			remaining = 0
		}
		series = append(series, BurndownPoint{
			Date:      day,
			Ideal:     total * float64(daysTotal-i) / float64(daysTotal),
			Remaining: remaining,
		})
	}
	return series, nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
