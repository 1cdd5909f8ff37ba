package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-report-api/internal/service"
	appErrors "github.com/noah-isme/edu-report-api/pkg/errors"
	"github.com/noah-isme/edu-report-api/pkg/response"
)

// GradeLevelHandler exposes grade level endpoints.
type GradeLevelHandler struct {
	service *service.GradeLevelService
}

// NewGradeLevelHandler constructs a grade level handler.
func NewGradeLevelHandler(svc *service.GradeLevelService) *GradeLevelHandler {
	return &GradeLevelHandler{service: svc}
}

// List godoc
// @Summary List grade levels
// @Tags GradeLevels
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /grade-levels [get]
func (h *GradeLevelHandler) List(c *gin.Context) {
	levels, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, levels, nil)
}

// Get godoc
// @Summary Get one grade level
// @Tags GradeLevels
// @Produce json
// @Security BearerAuth
// @Param id path string true "Grade level ID"
// @Success 200 {object} response.Envelope
// @Router /grade-levels/{id} [get]
func (h *GradeLevelHandler) Get(c *gin.Context) {
	level, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, level, nil)
}

// Create godoc
// @Summary Create a grade level
// @Tags GradeLevels
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.GradeLevelRequest true "Grade level payload"
// @Success 201 {object} response.Envelope
// @Router /grade-levels [post]
func (h *GradeLevelHandler) Create(c *gin.Context) {
	var req service.GradeLevelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	level, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, level)
}

// Update godoc
// @Summary Update a grade level
// @Tags GradeLevels
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Grade level ID"
// @Param payload body service.GradeLevelRequest true "Grade level payload"
// @Success 200 {object} response.Envelope
// @Router /grade-levels/{id} [put]
func (h *GradeLevelHandler) Update(c *gin.Context) {
	var req service.GradeLevelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	level, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, level, nil)
}

// Delete godoc
// @Summary Delete a grade level
// @Tags GradeLevels
// @Security BearerAuth
// @Param id path string true "Grade level ID"
// @Success 204
// @Router /grade-levels/{id} [delete]
func (h *GradeLevelHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
