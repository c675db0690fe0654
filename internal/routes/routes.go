package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"lexflow/internal/authz"
	"lexflow/internal/handlers"
	"lexflow/internal/middleware"
)

func SetupRoutes(
	r *gin.Engine,
	jwtSecret []byte,
	authHandler *handlers.AuthHandler,
	taskHandler *handlers.TaskHandler,
	workflowHandler *handlers.WorkflowHandler,
	deadlineHandler *handlers.DeadlineHandler,
	schedulerHandler *handlers.SchedulerHandler,
	reportHandler *handlers.ReportHandler,
) *gin.Engine {

	// ---- public
	r.POST("/login", authHandler.Login)
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	// ---- protected
	r.Use(middleware.AuthMiddleware(jwtSecret))

	// TASKS
	tasks := r.Group("/tasks")
	{
		tasks.POST("/", taskHandler.Create)
		tasks.GET("/", taskHandler.GetAll)
		tasks.GET("/:id", taskHandler.GetByID)
		tasks.PUT("/:id", taskHandler.Update)
		tasks.POST("/:id/status", taskHandler.ChangeStatus)
		tasks.POST("/:id/complete", taskHandler.Complete)
		tasks.POST("/:id/auto-assign", taskHandler.AutoAssign)
		tasks.POST("/bulk-assign", taskHandler.BulkAssign)
	}

	// WORKFLOWS
	workflows := r.Group("/workflows")
	{
		workflows.POST("/", workflowHandler.Create)
		workflows.GET("/", workflowHandler.List)
		workflows.GET("/recommendations", workflowHandler.Recommendations)
		workflows.POST("/trigger", workflowHandler.Trigger)
		workflows.GET("/:id", workflowHandler.GetByID)
		workflows.POST("/:id/execute", workflowHandler.Execute)
		workflows.POST("/:id/clone", workflowHandler.Clone)
	}

	// DEADLINES
	deadlines := r.Group("/deadlines")
	{
		deadlines.POST("/statute", deadlineHandler.CalculateStatute)
		deadlines.POST("/court-date", deadlineHandler.CreateCourtDateCascade)
		deadlines.GET("/critical", deadlineHandler.Critical)
		deadlines.GET("/case/:case_id", deadlineHandler.ByCase)
		deadlines.POST("/:id/complete", deadlineHandler.Complete)
	}

	// SCHEDULER (admin surface)
	scheduler := r.Group("/scheduler",
		middleware.RequireRoles(authz.RoleAdmin, authz.RoleAttorney),
	)
	{
		scheduler.GET("/jobs", schedulerHandler.ListJobs)
		scheduler.POST("/jobs/:name/trigger", schedulerHandler.TriggerJob)
	}

	// REPORTS
	reports := r.Group("/reports")
	{
		reports.GET("/deadlines/pdf", reportHandler.DeadlineDocketPDF)
	}

	return r
}
