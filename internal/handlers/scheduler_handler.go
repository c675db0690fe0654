package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"lexflow/internal/services"
)

type SchedulerHandler struct {
	scheduler services.SchedulerService
}

func NewSchedulerHandler(scheduler services.SchedulerService) *SchedulerHandler {
	return &SchedulerHandler{scheduler: scheduler}
}

// GET /scheduler/jobs
func (h *SchedulerHandler) ListJobs(c *gin.Context) {
	c.JSON(http.StatusOK, h.scheduler.Status())
}

// POST /scheduler/jobs/:name/trigger
func (h *SchedulerHandler) TriggerJob(c *gin.Context) {
	userID, role := getUserAndRole(c)
	name := c.Param("name")
	log.Printf("[scheduler][trigger] job=%q by userID=%d role=%s", name, userID, role)

	result, err := h.scheduler.Trigger(c.Request.Context(), name)
	if err != nil {
		log.Printf("[scheduler][trigger][err] job=%q: %v", name, err)
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}
