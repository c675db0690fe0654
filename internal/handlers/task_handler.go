package handlers

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"lexflow/internal/models"
	"lexflow/internal/services"
)

type TaskHandler struct {
	service   services.TaskService
	lifecycle services.TaskLifecycleService
}

func NewTaskHandler(service services.TaskService, lifecycle services.TaskLifecycleService) *TaskHandler {
	return &TaskHandler{service: service, lifecycle: lifecycle}
}

// POST /tasks
func (h *TaskHandler) Create(c *gin.Context) {
	var req struct {
		CaseID      int64               `json:"case_id" binding:"required"`
		AssigneeID  int64               `json:"assignee_id" binding:"required"`
		Title       string              `json:"title" binding:"required"`
		Description string              `json:"description"`
		Type        string              `json:"type"`
		DueDate     string              `json:"due_date"` // RFC3339
		Priority    models.TaskPriority `json:"priority"`
		IsRecurring bool                `json:"is_recurring"`
		Recurrence  struct {
			Frequency string `json:"frequency"`
			Interval  int    `json:"interval"`
			EndDate   string `json:"end_date"` // RFC3339
		} `json:"recurrence"`
	}

	userID, role := getUserAndRole(c)
	log.Printf("[task][create] call by userID=%d role=%s", userID, role)

	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("[task][create][bind][err] %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var due *time.Time
	if req.DueDate != "" {
		t, err := time.Parse(time.RFC3339, req.DueDate)
		if err != nil {
			log.Printf("[task][create][err] invalid due_date=%q: %v", req.DueDate, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid due_date (RFC3339)"})
			return
		}
		due = &t
	}
	var recurEnd *time.Time
	if req.Recurrence.EndDate != "" {
		t, err := time.Parse(time.RFC3339, req.Recurrence.EndDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recurrence end_date (RFC3339)"})
			return
		}
		recurEnd = &t
	}

	task := &models.Task{
		CaseID:      req.CaseID,
		AssigneeID:  req.AssigneeID,
		AssignerID:  userID,
		Title:       req.Title,
		Description: req.Description,
		Type:        req.Type,
		DueDate:     due,
		Priority:    req.Priority,
		IsRecurring: req.IsRecurring,
		Recurrence: models.RecurrencePattern{
			Frequency: req.Recurrence.Frequency,
			Interval:  req.Recurrence.Interval,
			EndDate:   recurEnd,
		},
	}

	created, err := h.service.Create(c.Request.Context(), task)
	if err != nil {
		log.Printf("[task][create][err] %v", err)
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	log.Printf("[task][create][ok] id=%d assignee_id=%d title=%q", created.ID, created.AssigneeID, created.Title)
	c.JSON(http.StatusCreated, created)
}

// GET /tasks/:id
func (h *TaskHandler) GetByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	task, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		log.Printf("[task][getByID][err] id=%d: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get task"})
		return
	}
	if task == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return
	}
	c.JSON(http.StatusOK, task)
}

// GET /tasks
func (h *TaskHandler) GetAll(c *gin.Context) {
	var filter models.TaskFilter
	if v, ok := c.GetQuery("assignee_id"); ok {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			filter.AssigneeID = &id
		}
	}
	if v, ok := c.GetQuery("case_id"); ok {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			filter.CaseID = &id
		}
	}
	if v, ok := c.GetQuery("workflow_id"); ok {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			filter.WorkflowID = &id
		}
	}
	if v, ok := c.GetQuery("status"); ok {
		st := models.TaskStatus(v)
		filter.Status = &st
	}

	tasks, err := h.service.GetAll(c.Request.Context(), filter)
	if err != nil {
		log.Printf("[task][list][err] %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve tasks"})
		return
	}
	c.JSON(http.StatusOK, tasks)
}

// PUT /tasks/:id
func (h *TaskHandler) Update(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var req struct {
		Title       *string              `json:"title"`
		Description *string              `json:"description"`
		Type        *string              `json:"type"`
		Priority    *models.TaskPriority `json:"priority"`
		DueDate     *string              `json:"due_date"` // RFC3339
		AssigneeID  *int64               `json:"assignee_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	patch := services.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
		Type:        req.Type,
		Priority:    req.Priority,
		AssigneeID:  req.AssigneeID,
	}
	if req.DueDate != nil {
		t, err := time.Parse(time.RFC3339, *req.DueDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid due_date (RFC3339)"})
			return
		}
		patch.DueDate = &t
	}

	updated, err := h.service.Update(c.Request.Context(), id, patch)
	if err != nil {
		log.Printf("[task][update][err] id=%d: %v", id, err)
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	log.Printf("[task][update][ok] id=%d", id)
	c.JSON(http.StatusOK, updated)
}

// POST /tasks/:id/status { "to": "in_progress" }
func (h *TaskHandler) ChangeStatus(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var body struct {
		To models.TaskStatus `json:"to" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.service.UpdateStatus(c.Request.Context(), id, body.To)
	if err != nil {
		log.Printf("[task][status][err] id=%d to=%q: %v", id, body.To, err)
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	log.Printf("[task][status][ok] id=%d new=%q", id, body.To)
	c.JSON(http.StatusOK, updated)
}

// POST /tasks/:id/complete
func (h *TaskHandler) Complete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	updated, err := h.service.Complete(c.Request.Context(), id)
	if err != nil {
		log.Printf("[task][complete][err] id=%d: %v", id, err)
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, updated)
}

// POST /tasks/bulk-assign { "task_ids": [1,2], "assignee_id": 3 }
func (h *TaskHandler) BulkAssign(c *gin.Context) {
	userID, _ := getUserAndRole(c)

	var body struct {
		TaskIDs    []int64 `json:"task_ids" binding:"required"`
		AssigneeID int64   `json:"assignee_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	assigned, err := h.lifecycle.BulkAssignTasks(c.Request.Context(), body.TaskIDs, body.AssigneeID, userID)
	if err != nil {
		log.Printf("[task][bulk-assign][err] %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	log.Printf("[task][bulk-assign][ok] requested=%d assigned=%d", len(body.TaskIDs), assigned)
	c.JSON(http.StatusOK, gin.H{"requested": len(body.TaskIDs), "assigned": assigned})
}

// POST /tasks/:id/auto-assign { "role": "consultant" }
func (h *TaskHandler) AutoAssign(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var body struct {
		Role string `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get task"})
		return
	}
	if task == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return
	}

	user, err := h.lifecycle.AutoAssignTask(c.Request.Context(), task, body.Role)
	if err != nil {
		log.Printf("[task][auto-assign][err] id=%d role=%q: %v", id, body.Role, err)
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	log.Printf("[task][auto-assign][ok] id=%d user=%d", id, user.ID)
	c.JSON(http.StatusOK, gin.H{"task": task, "assignee": user})
}
