package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-report-api/internal/service"
	"github.com/noah-isme/edu-report-api/pkg/response"
)

// ReportHandler exposes assembled report endpoints.
type ReportHandler struct {
	service *service.ReportService
}

// NewReportHandler constructs a report handler.
func NewReportHandler(svc *service.ReportService) *ReportHandler {
	return &ReportHandler{service: svc}
}

// StudentCard godoc
// @Summary Get a student's report card
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Param term_id query string false "Term (defaults to current)"
// @Param academic_year_id query string false "Academic year (defaults to current)"
// @Success 200 {object} response.Envelope
// @Router /reports/students/{id}/card [get]
func (h *ReportHandler) StudentCard(c *gin.Context) {
	card, err := h.service.StudentReportCard(c.Request.Context(), c.Param("id"), c.Query("term_id"), c.Query("academic_year_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, card, nil)
}

// ClassSheet godoc
// @Summary Get a grade level's broadsheet
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param id path string true "Grade level ID"
// @Param term_id query string false "Term (defaults to current)"
// @Param academic_year_id query string false "Academic year (defaults to current)"
// @Success 200 {object} response.Envelope
// @Router /reports/grade-levels/{id}/sheet [get]
func (h *ReportHandler) ClassSheet(c *gin.Context) {
	sheet, err := h.service.ClassReportSheet(c.Request.Context(), c.Param("id"), c.Query("term_id"), c.Query("academic_year_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sheet, nil)
}
