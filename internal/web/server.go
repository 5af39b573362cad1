// Package web exposes the sprintyard JSON API over gin.
package web

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/sprintyard/internal/defect"
	"github.com/zulandar/sprintyard/internal/notify"
	"gorm.io/gorm"
)

// Opts holds configuration for the API server.
type Opts struct {
	DB       *gorm.DB
	Port     int
	Notifier *notify.Dispatcher // optional; nil disables chat events
	Exporter *defect.Exporter   // optional; nil disables GitHub export
	Out      io.Writer
}

// Start launches the API server. It blocks until ctx is cancelled, then
// shuts down gracefully.
func Start(ctx context.Context, opts Opts) error {
	if opts.DB == nil {
		return fmt.Errorf("web: db is required")
	}
	if opts.Port <= 0 {
		opts.Port = 8080
	}

	router := NewRouter(opts)

	addr := fmt.Sprintf(":%d", opts.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "Sprintyard API running at http://localhost:%d\n", opts.Port)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("web: %w", err)
	}
	return nil
}

// NewRouter builds the gin engine with all routes registered.
func NewRouter(opts Opts) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), actorMiddleware())
	registerRoutes(router, opts)
	return router
}

// registerRoutes sets up every API group, each gated by its feature route
// name. The knowledge read endpoints sit behind the public reading feature;
// everything else requires a grant (or the admin role).
func registerRoutes(router *gin.Engine, opts Opts) {
	db := opts.DB
	api := router.Group("/api")

	api.GET("/capabilities", handleCapabilities(db))

	projects := api.Group("/projects", requireFeature(db, "projects.projects"))
	{
		projects.GET("", handleProjectTree(db))
		projects.GET("/:id", handleProjectGet(db))
		projects.GET("/:id/modules", handleProjectModules(db))
		projects.POST("", handleProjectCreate(db))
		projects.PUT("/:id/rename", handleProjectRename(db))
		projects.PUT("/:id/move", handleProjectMove(db))
		projects.PUT("/:id/reorder", handleProjectReorder(db))
		projects.DELETE("/:id", handleProjectDelete(db))
	}

	backlogs := api.Group("/backlog", requireFeature(db, "product_backlog.product_backlog"))
	{
		backlogs.GET("", handleBacklogList(db))
		backlogs.GET("/:id", handleBacklogGet(db))
		backlogs.POST("", handleBacklogCreate(db))
		backlogs.PUT("/:id", handleBacklogUpdate(db))
		backlogs.DELETE("/:id", handleBacklogDelete(db))
	}

	stories := api.Group("/stories", requireFeature(db, "user_stories.user_stories"))
	{
		stories.GET("", handleStoryList(db))
		stories.GET("/:id", handleStoryGet(db))
		stories.POST("", handleStoryCreate(db))
		stories.PUT("/:id", handleStoryUpdate(db))
		stories.DELETE("/:id", handleStoryDelete(db))
	}

	tasks := api.Group("/tasks", requireFeature(db, "tasks.tasks"))
	{
		tasks.GET("", handleTaskList(db))
		tasks.GET("/:id", handleTaskGet(db))
		tasks.POST("", handleTaskCreate(db))
		tasks.PUT("/:id", handleTaskUpdate(db))
		tasks.DELETE("/:id", handleTaskDelete(db))
	}

	sprints := api.Group("/sprints", requireFeature(db, "sprints.sprints"))
	{
		sprints.GET("", handleSprintList(db))
		sprints.GET("/:id", handleSprintGet(db))
		sprints.POST("", handleSprintCreate(db))
		sprints.PUT("/:id", handleSprintUpdate(db))
		sprints.POST("/:id/start", handleSprintStart(db, opts.Notifier))
		sprints.POST("/:id/complete", handleSprintComplete(db, opts.Notifier))
		sprints.DELETE("/:id", handleSprintDelete(db))
		sprints.POST("/:id/stories", handleSprintAddStory(db))
		sprints.DELETE("/:id/stories/:storyID", handleSprintRemoveStory(db))
	}
	api.PUT("/sprint-items/:id", requireFeature(db, "sprints.sprints"), handleSprintUpdateItem(db))

	testcases := api.Group("/testcases", requireFeature(db, "test_cases.test_cases"))
	{
		testcases.GET("", handleTestCaseList(db))
		testcases.GET("/:id", handleTestCaseGet(db))
		testcases.POST("", handleTestCaseCreate(db))
		testcases.PUT("/:id", handleTestCaseUpdate(db))
		testcases.POST("/:id/result", handleTestCaseResult(db))
		testcases.DELETE("/:id", handleTestCaseDelete(db))
	}

	defects := api.Group("/defects", requireFeature(db, "defects.defects"))
	{
		defects.GET("", handleDefectList(db))
		defects.GET("/:id", handleDefectGet(db))
		defects.POST("", handleDefectCreate(db, opts.Notifier))
		defects.PUT("/:id", handleDefectUpdate(db))
		defects.POST("/:id/resolve", handleDefectResolve(db))
		defects.POST("/:id/close", handleDefectClose(db))
		defects.POST("/:id/reopen", handleDefectReopen(db))
		defects.POST("/:id/export", handleDefectExport(db, opts.Exporter))
		defects.DELETE("/:id", handleDefectDelete(db))
	}

	prototypes := api.Group("/prototypes", requireFeature(db, "prototype.prototype_list"))
	{
		prototypes.GET("", handlePrototypeList(db))
		prototypes.GET("/:id", handlePrototypeGet(db))
		prototypes.POST("", handlePrototypeCreate(db))
		prototypes.PUT("/:id", handlePrototypeUpdate(db))
		prototypes.DELETE("/:id", handlePrototypeDelete(db))
	}

	reading := api.Group("/knowledge", requireFeature(db, "knowledge.knowledge_view"))
	{
		reading.GET("", handleKnowledgeList(db))
		reading.GET("/:id", handleKnowledgeGet(db))
	}
	managing := api.Group("/knowledge", requireFeature(db, "knowledge.manage"))
	{
		managing.POST("", handleKnowledgeCreate(db))
		managing.PUT("/:id", handleKnowledgeUpdate(db))
		managing.DELETE("/:id", handleKnowledgeDelete(db))
	}

	// Planning poker and the personal todo list only need a signed-in actor,
	// matching the rest of the estimation flow.
	poker := api.Group("/poker", requireUser())
	{
		poker.POST("/stories/:id/start", handlePokerStart(db))
		poker.GET("/stories/:id/round", handlePokerOpenRound(db))
		poker.POST("/rounds/:id/estimate", handlePokerEstimate(db))
		poker.GET("/rounds/:id/progress", handlePokerProgress(db))
		poker.POST("/rounds/:id/reveal", handlePokerReveal(db))
		poker.POST("/stories/:id/new-round", handlePokerNewRound(db))
	}
	api.GET("/todos", requireUser(), handleTodos(db))

	board := api.Group("/board", requireFeature(db, "kanban.kanban"))
	{
		board.GET("/sprints/:id/kanban", handleKanban(db))
		board.GET("/sprints/:id/burndown", handleBurndown(db))
	}

	roles := api.Group("/roles", requireFeature(db, "roles.roles"))
	{
		roles.GET("", handleRoleList(db))
		roles.POST("", handleRoleCreate(db))
		roles.PUT("/:id", handleRoleUpdate(db))
		roles.DELETE("/:id", handleRoleDelete(db))
	}
	users := api.Group("/users", requireFeature(db, "roles.roles"))
	{
		users.GET("/:id/roles", handleUserRoles(db))
		users.PUT("/:id/roles", handleAssignRoles(db))
	}

	features := api.Group("/features", requireFeature(db, "system_features.system_features"))
	{
		features.GET("", handleFeatureList(db))
		features.POST("/init", handleFeatureInit(db))
		features.PUT("", handleFeatureUpdate(db))
	}
}
