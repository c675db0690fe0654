package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"lexflow/internal/pdf"
	"lexflow/internal/services"
)

type ReportHandler struct {
	deadlines services.DeadlineService
	generator pdf.Generator
}

func NewReportHandler(deadlines services.DeadlineService, generator pdf.Generator) *ReportHandler {
	return &ReportHandler{deadlines: deadlines, generator: generator}
}

// GET /reports/deadlines/pdf
func (h *ReportHandler) DeadlineDocketPDF(c *gin.Context) {
	now := time.Now()
	ds, err := h.deadlines.GetCriticalDeadlines(c.Request.Context(), now)
	if err != nil {
		log.Printf("[report][docket][err] %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to collect deadlines"})
		return
	}

	data, err := h.generator.GenerateDeadlineDocket(pdf.DocketData{
		GeneratedAt: now,
		Horizon:     "next 7 days",
		Deadlines:   ds,
	})
	if err != nil {
		log.Printf("[report][docket][err] render: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render report"})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="deadline_docket.pdf"`)
	c.Data(http.StatusOK, "application/pdf", data)
}
