package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-report-api/internal/service"
	appErrors "github.com/noah-isme/edu-report-api/pkg/errors"
	"github.com/noah-isme/edu-report-api/pkg/response"
)

// RemarksHandler exposes report card remarks endpoints.
type RemarksHandler struct {
	service *service.RemarksService
}

// NewRemarksHandler constructs a remarks handler.
func NewRemarksHandler(svc *service.RemarksService) *RemarksHandler {
	return &RemarksHandler{service: svc}
}

// Get godoc
// @Summary Get remarks for a student's report card
// @Tags Remarks
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Param term_id query string false "Term (defaults to current)"
// @Param academic_year_id query string false "Academic year (defaults to current)"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/remarks [get]
func (h *RemarksHandler) Get(c *gin.Context) {
	remarks, err := h.service.Get(c.Request.Context(), c.Param("id"), c.Query("term_id"), c.Query("academic_year_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, remarks, nil)
}

// Upsert godoc
// @Summary Record remarks for a student's report card
// @Tags Remarks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Param payload body service.UpsertRemarksRequest true "Remarks payload"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/remarks [put]
func (h *RemarksHandler) Upsert(c *gin.Context) {
	var req service.UpsertRemarksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	req.StudentID = c.Param("id")
	remarks, err := h.service.Upsert(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, remarks, nil)
}
