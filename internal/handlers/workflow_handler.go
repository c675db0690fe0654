package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"lexflow/internal/models"
	"lexflow/internal/services"
)

type WorkflowHandler struct {
	service services.WorkflowService
}

func NewWorkflowHandler(service services.WorkflowService) *WorkflowHandler {
	return &WorkflowHandler{service: service}
}

// POST /workflows
func (h *WorkflowHandler) Create(c *gin.Context) {
	userID, role := getUserAndRole(c)
	log.Printf("[workflow][create] call by userID=%d role=%s", userID, role)

	var req struct {
		Name         string              `json:"name" binding:"required"`
		Description  string              `json:"description"`
		Type         string              `json:"type"`
		IsTemplate   bool                `json:"is_template"`
		IsActive     *bool               `json:"is_active"`
		TriggerEvent models.TriggerEvent `json:"trigger_event"`
		Steps        []struct {
			Order          int                 `json:"order"`
			Title          string              `json:"title" binding:"required"`
			Description    string              `json:"description"`
			TaskType       string              `json:"task_type"`
			AssignToRole   string              `json:"assign_to_role"`
			DaysToComplete int                 `json:"days_to_complete"`
			Priority       models.TaskPriority `json:"priority"`
			AutoAssign     bool                `json:"auto_assign"`
		} `json:"steps" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("[workflow][create][bind][err] %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	trigger := req.TriggerEvent
	if trigger == "" {
		trigger = models.TriggerManual
	}
	wType := req.Type
	if wType == "" {
		wType = "generic"
	}

	w := &models.Workflow{
		OwnerID:      userID,
		Name:         req.Name,
		Description:  req.Description,
		Type:         wType,
		IsTemplate:   req.IsTemplate,
		IsActive:     active,
		TriggerEvent: trigger,
	}
	for _, s := range req.Steps {
		w.Steps = append(w.Steps, models.WorkflowStep{
			Order:          s.Order,
			Title:          s.Title,
			Description:    s.Description,
			TaskType:       s.TaskType,
			AssignToRole:   s.AssignToRole,
			DaysToComplete: s.DaysToComplete,
			Priority:       s.Priority,
			AutoAssign:     s.AutoAssign,
		})
	}

	if err := h.service.Create(c.Request.Context(), w); err != nil {
		log.Printf("[workflow][create][err] %v", err)
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	log.Printf("[workflow][create][ok] id=%d steps=%d", w.ID, len(w.Steps))
	c.JSON(http.StatusCreated, w)
}

// GET /workflows
func (h *WorkflowHandler) List(c *gin.Context) {
	var filter models.WorkflowFilter
	if v, ok := c.GetQuery("type"); ok {
		filter.Type = &v
	}
	if v, ok := c.GetQuery("is_template"); ok {
		b := v == "true"
		filter.IsTemplate = &b
	}
	if v, ok := c.GetQuery("is_active"); ok {
		b := v == "true"
		filter.IsActive = &b
	}
	if v, ok := c.GetQuery("trigger_event"); ok {
		ev := models.TriggerEvent(v)
		filter.TriggerEvent = &ev
	}

	workflows, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		log.Printf("[workflow][list][err] %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve workflows"})
		return
	}
	c.JSON(http.StatusOK, workflows)
}

// GET /workflows/:id
func (h *WorkflowHandler) GetByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	w, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		log.Printf("[workflow][getByID][err] id=%d: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get workflow"})
		return
	}
	if w == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "workflow not found"})
		return
	}
	c.JSON(http.StatusOK, w)
}

// POST /workflows/:id/execute { "case_id": 7 }
func (h *WorkflowHandler) Execute(c *gin.Context) {
	userID, _ := getUserAndRole(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var body struct {
		CaseID int64 `json:"case_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tasks, err := h.service.ExecuteWorkflow(c.Request.Context(), id, body.CaseID, userID)
	if err != nil {
		log.Printf("[workflow][execute][err] id=%d case=%d: %v", id, body.CaseID, err)
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	log.Printf("[workflow][execute][ok] id=%d case=%d tasks=%d", id, body.CaseID, len(tasks))
	c.JSON(http.StatusOK, gin.H{"tasks_created": len(tasks), "tasks": tasks})
}

// POST /workflows/trigger { "event": "case_created", "case_id": 7 }
func (h *WorkflowHandler) Trigger(c *gin.Context) {
	userID, _ := getUserAndRole(c)

	var body struct {
		Event  models.TriggerEvent `json:"event" binding:"required"`
		CaseID int64               `json:"case_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	results, err := h.service.TriggerByEvent(c.Request.Context(), body.Event, body.CaseID, userID)
	if err != nil {
		log.Printf("[workflow][trigger][err] event=%s case=%d: %v", body.Event, body.CaseID, err)
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"executed": len(results), "executions": results})
}

// POST /workflows/:id/clone
func (h *WorkflowHandler) Clone(c *gin.Context) {
	userID, _ := getUserAndRole(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	clone, err := h.service.CloneWorkflow(c.Request.Context(), id, userID)
	if err != nil {
		log.Printf("[workflow][clone][err] id=%d: %v", id, err)
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	log.Printf("[workflow][clone][ok] source=%d clone=%d", id, clone.ID)
	c.JSON(http.StatusCreated, clone)
}

// GET /workflows/recommendations?case_id=7
func (h *WorkflowHandler) Recommendations(c *gin.Context) {
	caseID, err := strconv.ParseInt(c.Query("case_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid case_id"})
		return
	}

	recs, err := h.service.Recommendations(c.Request.Context(), caseID)
	if err != nil {
		log.Printf("[workflow][recommend][err] case=%d: %v", caseID, err)
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, recs)
}
