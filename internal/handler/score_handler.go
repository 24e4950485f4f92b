package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/syauqi357/siakad-madrasah-sub000/internal/service"
	appErrors "github.com/syauqi357/siakad-madrasah-sub000/pkg/errors"
	"github.com/syauqi357/siakad-madrasah-sub000/pkg/response"
)

// ScoreHandler exposes assessment-type management and score entry endpoints.
type ScoreHandler struct {
	scores *service.ScoreService
}

// NewScoreHandler constructs ScoreHandler.
func NewScoreHandler(scores *service.ScoreService) *ScoreHandler {
	return &ScoreHandler{scores: scores}
}

// ListAssessmentTypes godoc
// @Summary List assessment types
// @Tags Scores
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /assessment-types [get]
func (h *ScoreHandler) ListAssessmentTypes(c *gin.Context) {
	types, err := h.scores.ListAssessmentTypes(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, types, nil)
}

// CreateAssessmentType godoc
// @Summary Create an assessment type
// @Tags Scores
// @Accept json
// @Produce json
// @Param payload body service.AssessmentTypeRequest true "Assessment type payload"
// @Success 201 {object} response.Envelope
// @Router /assessment-types [post]
func (h *ScoreHandler) CreateAssessmentType(c *gin.Context) {
	var req service.AssessmentTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	created, err := h.scores.CreateAssessmentType(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, created)
}

// UpdateAssessmentType godoc
// @Summary Update an assessment type
// @Tags Scores
// @Accept json
// @Produce json
// @Param id path int true "Assessment type ID"
// @Param payload body service.AssessmentTypeRequest true "Assessment type payload"
// @Success 200 {object} response.Envelope
// @Router /assessment-types/{id} [put]
func (h *ScoreHandler) UpdateAssessmentType(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.AssessmentTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	updated, err := h.scores.UpdateAssessmentType(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, updated, nil)
}

// DeleteAssessmentType godoc
// @Summary Delete an assessment type
// @Tags Scores
// @Produce json
// @Param id path int true "Assessment type ID"
// @Success 204
// @Router /assessment-types/{id} [delete]
func (h *ScoreHandler) DeleteAssessmentType(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.scores.DeleteAssessmentType(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// UpsertScore godoc
// @Summary Record or update a score
// @Description Upsert one score cell keyed by student, class subject and assessment type
// @Tags Scores
// @Accept json
// @Produce json
// @Param payload body service.UpsertScoreRequest true "Score payload"
// @Success 200 {object} response.Envelope
// @Router /scores [put]
func (h *ScoreHandler) UpsertScore(c *gin.Context) {
	var req service.UpsertScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	score, err := h.scores.UpsertScore(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, score, nil)
}

// SubjectReport godoc
// @Summary Per-subject score report for a student
// @Description Breakdown of every assessment component plus total, average and weighted average
// @Tags Scores
// @Produce json
// @Param id path int true "Student ID"
// @Param class_subject_id path int true "Class subject ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/scores/{class_subject_id} [get]
func (h *ScoreHandler) SubjectReport(c *gin.Context) {
	studentID, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	classSubjectID, err := idParam(c, "class_subject_id")
	if err != nil {
		response.Error(c, err)
		return
	}
	report, err := h.scores.SubjectReport(c.Request.Context(), studentID, classSubjectID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}
