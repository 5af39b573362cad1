package web

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/sprintyard/internal/board"
	"github.com/zulandar/sprintyard/internal/poker"
	"gorm.io/gorm"
)

func handlePokerStart(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, okID := idParam(c, "id")
		if !okID {
			return
		}
		round, err := poker.StartRound(db, id)
		if err != nil {
			failErr(c, err)
			return
		}
		ok(c, gin.H{"message": "round open", "round": round, "cards": poker.Cards})
	}
}

func handlePokerOpenRound(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, okID := idParam(c, "id")
		if !okID {
			return
		}
		round, err := poker.OpenRound(db, id)
		if err != nil {
			failErr(c, err)
			return
		}
		ok(c, gin.H{"round": round})
	}
}

func handlePokerEstimate(db *gorm.DB) gin.HandlerFunc {
	type request struct {
		Card string `json:"card"`
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
		est, err := poker.SubmitEstimate(db, id, actorFrom(c).UserID(), req.Card)
		if err != nil {
			failErr(c, err)
			return
		}
		ok(c, gin.H{"message": "estimate recorded", "estimate": est})
	}
}

func handlePokerProgress(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, okID := idParam(c, "id")
		if !okID {
			return
		}
		played, total, err := poker.Progress(db, id)
		if err != nil {
			failErr(c, err)
			return
		}
		ok(c, gin.H{"played": played, "total": total})
	}
}

func handlePokerReveal(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, okID := idParam(c, "id")
		if !okID {
			return
		}
		stats, err := poker.Reveal(db, id)
		if err != nil {
			failErr(c, err)
			return
		}
		ok(c, gin.H{
			"estimates":    stats.Estimates,
			"average":      stats.Average,
			"consensus":    stats.Consensus,
			"value_counts": stats.ValueCounts,
		})
	}
}

func handlePokerNewRound(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, okID := idParam(c, "id")
		if !okID {
			return
		}
		round, err := poker.NewRound(db, id)
		if err != nil {
			failErr(c, err)
			return
		}
		ok(c, gin.H{"message": "new round open", "round": round})
	}
}

func handleTodos(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		todos, err := board.UserTodos(db, actorFrom(c).UserID(), time.Now())
		if err != nil {
			failErr(c, err)
			return
		}
		ok(c, gin.H{"todos": todos, "count": len(todos)})
	}
}

func handleKanban(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, okID := idParam(c, "id")
		if !okID {
			return
		}
		snap, err := board.Kanban(db, id)
		if err != nil {
			failErr(c, err)
			return
		}
		ok(c, gin.H{"kanban": snap})
	}
}

func handleBurndown(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, okID := idParam(c, "id")
		if !okID {
			return
		}
		series, err := board.Burndown(db, id)
		if err != nil {
			failErr(c, err)
			return
		}
		ok(c, gin.H{"burndown": series})
	}
}
