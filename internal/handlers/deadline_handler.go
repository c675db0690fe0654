package handlers

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"lexflow/internal/services"
)

type DeadlineHandler struct {
	service services.DeadlineService
}

func NewDeadlineHandler(service services.DeadlineService) *DeadlineHandler {
	return &DeadlineHandler{service: service}
}

// POST /deadlines/statute { "case_id": 7, "incident_date": "...", "jurisdiction": "CA", "case_type": "medical_malpractice" }
func (h *DeadlineHandler) CalculateStatute(c *gin.Context) {
	var body struct {
		CaseID       int64  `json:"case_id" binding:"required"`
		IncidentDate string `json:"incident_date" binding:"required"` // RFC3339
		Jurisdiction string `json:"jurisdiction" binding:"required"`
		CaseType     string `json:"case_type" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	incident, err := time.Parse(time.RFC3339, body.IncidentDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid incident_date (RFC3339)"})
		return
	}

	d, err := h.service.CalculateStatuteDeadline(c.Request.Context(), body.CaseID, incident, body.Jurisdiction, body.CaseType)
	if err != nil {
		log.Printf("[deadline][statute][err] case=%d: %v", body.CaseID, err)
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, d)
}

// POST /deadlines/court-date { "case_id": 7, "court_date": "...", "court_type": "trial" }
func (h *DeadlineHandler) CreateCourtDateCascade(c *gin.Context) {
	var body struct {
		CaseID    int64  `json:"case_id" binding:"required"`
		CourtDate string `json:"court_date" binding:"required"` // RFC3339
		CourtType string `json:"court_type"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	courtDate, err := time.Parse(time.RFC3339, body.CourtDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid court_date (RFC3339)"})
		return
	}
	courtType := body.CourtType
	if courtType == "" {
		courtType = "trial"
	}

	ds, err := h.service.CreateCourtDateDeadlines(c.Request.Context(), body.CaseID, courtDate, courtType)
	if err != nil {
		log.Printf("[deadline][court][err] case=%d: %v", body.CaseID, err)
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"deadlines_created": len(ds), "deadlines": ds})
}

// GET /deadlines/critical
func (h *DeadlineHandler) Critical(c *gin.Context) {
	ds, err := h.service.GetCriticalDeadlines(c.Request.Context(), time.Now())
	if err != nil {
		log.Printf("[deadline][critical][err] %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve deadlines"})
		return
	}
	c.JSON(http.StatusOK, ds)
}

// GET /deadlines/case/:case_id
func (h *DeadlineHandler) ByCase(c *gin.Context) {
	caseID, err := strconv.ParseInt(c.Param("case_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid case_id"})
		return
	}
	ds, err := h.service.GetByCase(c.Request.Context(), caseID)
	if err != nil {
		log.Printf("[deadline][byCase][err] case=%d: %v", caseID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve deadlines"})
		return
	}
	c.JSON(http.StatusOK, ds)
}

// POST /deadlines/:id/complete
func (h *DeadlineHandler) Complete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	if err := h.service.CompleteDeadline(c.Request.Context(), id); err != nil {
		log.Printf("[deadline][complete][err] id=%d: %v", id, err)
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	log.Printf("[deadline][complete][ok] id=%d", id)
	c.Status(http.StatusNoContent)
}
