package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-report-api/internal/service"
	appErrors "github.com/noah-isme/edu-report-api/pkg/errors"
	"github.com/noah-isme/edu-report-api/pkg/response"
)

// ImportHandler exposes the CSV score import endpoint.
type ImportHandler struct {
	service *service.ImportService
}

// NewImportHandler constructs an import handler.
func NewImportHandler(svc *service.ImportService) *ImportHandler {
	return &ImportHandler{service: svc}
}

// ImportScores godoc
// @Summary Import scores from a CSV file
// @Tags Imports
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "CSV file with student_number, subject_code, class_score, exam_score columns"
// @Param term_id formData string false "Target term (defaults to current)"
// @Param academic_year_id formData string false "Target academic year (defaults to current)"
// @Success 200 {object} response.Envelope
// @Router /imports/scores [post]
func (h *ImportHandler) ImportScores(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file is required"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "failed to read upload"))
		return
	}
	defer file.Close()

	result, err := h.service.ImportScores(c.Request.Context(), file, c.PostForm("term_id"), c.PostForm("academic_year_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
