// Package board builds read models for the kanban view, the burndown chart
// and the per-user todo list.
package board

import (
	"fmt"

	"github.com/zulandar/sprintyard/internal/models"
	"github.com/zulandar/sprintyard/internal/sprint"
	"github.com/zulandar/sprintyard/internal/task"
	"gorm.io/gorm"
)

// Column is one kanban lane, keyed by task status.
type Column struct {
	Status string        `json:"status"`
	Name   string        `json:"name"`
	Tasks  []models.Task `json:"tasks"`
}

// StoryLane pairs a committed story with its tasks.
type StoryLane struct {
	Item  models.SprintBacklog `json:"item"`
	Story models.UserStory     `json:"story"`
	Tasks []models.Task        `json:"tasks"`
}

// Snapshot is the full kanban state of one sprint.
type Snapshot struct {
	Sprint  models.Sprint `json:"sprint"`
	Columns []Column      `json:"columns"`
	Stories []StoryLane   `json:"stories"`
}

// Kanban builds the board for a sprint: every task of every committed story,
// grouped both by status column and by story.
func Kanban(db *gorm.DB, sprintID uint) (*Snapshot, error) {
	sp, err := sprint.Get(db, sprintID)
	if err != nil {
		return nil, err
	}

	storyIDs := make([]uint, 0, len(sp.Backlogs))
	for _, item := range sp.Backlogs {
		storyIDs = append(storyIDs, item.UserStoryID)
	}

	var tasks []models.Task
	if len(storyIDs) > 0 {
		err = db.Where("user_story_id IN ?", storyIDs).
			Order("created_at ASC, id ASC").
			Find(&tasks).Error
		if err != nil {
			return nil, fmt.Errorf("board: load tasks: %w", err)
		}
	}

	byStatus := make(map[string][]models.Task)
	byStory := make(map[uint][]models.Task)
	for _, t := range tasks {
		byStatus[t.Status] = append(byStatus[t.Status], t)
		byStory[t.UserStoryID] = append(byStory[t.UserStoryID], t)
	}

	snap := &Snapshot{Sprint: *sp}
	lanes := []struct{ status, name string }{
		{task.StatusTodo, "To do"},
		{task.StatusDoing, "In progress"},
		{task.StatusBlocked, "Blocked"},
		{task.StatusDone, "Done"},
	}
	for _, l := range lanes {
		snap.Columns = append(snap.Columns, Column{
			Status: l.status,
			Name:   l.name,
			Tasks:  byStatus[l.status],
		})
	}
	for _, item := range sp.Backlogs {
		snap.Stories = append(snap.Stories, StoryLane{
			Item:  item,
			Story: item.UserStory,
			Tasks: byStory[item.UserStoryID],
		})
	}
	return snap, nil
}
