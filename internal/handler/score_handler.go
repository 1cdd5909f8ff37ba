package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-report-api/internal/middleware"
	"github.com/noah-isme/edu-report-api/internal/models"
	"github.com/noah-isme/edu-report-api/internal/service"
	appErrors "github.com/noah-isme/edu-report-api/pkg/errors"
	"github.com/noah-isme/edu-report-api/pkg/response"
)

// ScoreHandler exposes score entry endpoints.
type ScoreHandler struct {
	service *service.ScoreService
}

// NewScoreHandler constructs a score handler.
func NewScoreHandler(svc *service.ScoreService) *ScoreHandler {
	return &ScoreHandler{service: svc}
}

// List godoc
// @Summary List scores with derived totals and grades
// @Tags Scores
// @Produce json
// @Security BearerAuth
// @Param student_id query string false "Filter by student"
// @Param subject_id query string false "Filter by subject"
// @Param term_id query string false "Filter by term"
// @Param academic_year_id query string false "Filter by academic year"
// @Param grade_level_id query string false "Filter by grade level"
// @Success 200 {object} response.Envelope
// @Router /scores [get]
func (h *ScoreHandler) List(c *gin.Context) {
	filter := models.ScoreFilter{
		StudentID:      c.Query("student_id"),
		SubjectID:      c.Query("subject_id"),
		TermID:         c.Query("term_id"),
		AcademicYearID: c.Query("academic_year_id"),
		GradeLevelID:   c.Query("grade_level_id"),
	}
	scores, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, scores, nil)
}

// Upsert godoc
// @Summary Record or replace one score entry
// @Tags Scores
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.UpsertScoreRequest true "Score payload"
// @Success 200 {object} response.Envelope
// @Router /scores [put]
func (h *ScoreHandler) Upsert(c *gin.Context) {
	var req service.UpsertScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	claims, _ := middleware.CurrentUser(c)
	if err := h.service.EnsureCanRecord(c.Request.Context(), claims, req.SubjectID, req.StudentID); err != nil {
		response.Error(c, err)
		return
	}
	score, err := h.service.Upsert(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, score, nil)
}

// BulkUpsert godoc
// @Summary Record scores for many students in one subject
// @Tags Scores
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.BulkScoresRequest true "Bulk score payload"
// @Success 200 {object} response.Envelope
// @Router /scores/bulk [put]
func (h *ScoreHandler) BulkUpsert(c *gin.Context) {
	var req service.BulkScoresRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	claims, _ := middleware.CurrentUser(c)
	studentIDs := make([]string, 0, len(req.Items))
	for _, item := range req.Items {
		studentIDs = append(studentIDs, item.StudentID)
	}
	if err := h.service.EnsureCanRecord(c.Request.Context(), claims, req.SubjectID, studentIDs...); err != nil {
		response.Error(c, err)
		return
	}
	count, err := h.service.BulkUpsert(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"saved": count}, nil)
}
