package web

import (
	"github.com/gin-gonic/gin"
	"github.com/zulandar/sprintyard/internal/testcase"
	"gorm.io/gorm"
)

func handleTestCaseList(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		cases, err := testcase.List(db, testcase.ListFilters{
			ProjectID:       uintQuery(c, "project_id"),
			UserStoryID:     uintQuery(c, "story_id"),
			SprintID:        uintQuery(c, "sprint_id"),
			ExecutionStatus: c.Query("execution_status"),
			TestResult:      c.Query("test_result"),
		})
		if err != nil {
			failErr(c, err)
			return
		}
		ok(c, gin.H{"testcases": cases})
	}
}

func handleTestCaseGet(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, okID := idParam(c, "id")
		if !okID {
			return
		}
		tc, err := testcase.Get(db, id)
		if err != nil {
			failErr(c, err)
			return
		}
		ok(c, gin.H{"testcase": tc})
	}
}

func handleTestCaseCreate(db *gorm.DB) gin.HandlerFunc {
	type request struct {
		ProjectID       uint   `json:"project_id"`
		UserStoryID     uint   `json:"story_id"`
		SprintID        *uint  `json:"sprint_id"`
		ProjectModule   string `json:"project_module"`
		CaseType        string `json:"case_type"`
		FunctionPoint   string `json:"function_point"`
		Title           string `json:"title"`
		Precondition    string `json:"precondition"`
		Steps           string `json:"steps"`
		ExpectedResult  string `json:"expected_result"`
		TestEnvironment string `json:"test_environment"`
		Priority        string `json:"priority"`
		IsAutomated     bool   `json:"is_automated"`
	}
	return func(c *gin.Context) {
		var req request
		if !bindJSON(c, &req) {
			return
		}
		var creator *uint
		if actor := actorFrom(c); actor.Authenticated() {
			id := actor.UserID()
			creator = &id
		}
		tc, err := testcase.Create(db, testcase.CreateOpts{
			ProjectID:       req.ProjectID,
			UserStoryID:     req.UserStoryID,
			SprintID:        req.SprintID,
			ProjectModule:   req.ProjectModule,
			CaseType:        req.CaseType,
			FunctionPoint:   req.FunctionPoint,
			Title:           req.Title,
			Precondition:    req.Precondition,
			Steps:           req.Steps,
			ExpectedResult:  req.ExpectedResult,
			TestEnvironment: req.TestEnvironment,
			Priority:        req.Priority,
			IsAutomated:     req.IsAutomated,
			CreatedByID:     creator,
		})
		if err != nil {
			failErr(c, err)
			return
		}
		ok(c, gin.H{"message": "test case created", "testcase": tc})
	}
}

func handleTestCaseUpdate(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, okID := idParam(c, "id")
		if !okID {
			return
		}
		var updates map[string]interface{}
		if !bindJSON(c, &updates) {
			return
		}
		if err := testcase.Update(db, id, updates); err != nil {
			failErr(c, err)
			return
		}
		ok(c, gin.H{"message": "test case updated"})
	}
}

func handleTestCaseResult(db *gorm.DB) gin.HandlerFunc {
	type request struct {
		Result       string `json:"result"`
		ActualResult string `json:"actual_result"`
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
		var tester *uint
		if actor := actorFrom(c); actor.Authenticated() {
			uid := actor.UserID()
			tester = &uid
		}
		if err := testcase.RecordResult(db, id, req.Result, req.ActualResult, tester); err != nil {
			failErr(c, err)
			return
		}
		ok(c, gin.H{"message": "result recorded"})
	}
}

func handleTestCaseDelete(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, okID := idParam(c, "id")
		if !okID {
			return
		}
		if err := testcase.Delete(db, id); err != nil {
			failErr(c, err)
			return
		}
		ok(c, gin.H{"message": "test case deleted"})
	}
}
