package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/syauqi357/siakad-madrasah-sub000/internal/service"
	appErrors "github.com/syauqi357/siakad-madrasah-sub000/pkg/errors"
	"github.com/syauqi357/siakad-madrasah-sub000/pkg/response"
)

// EnrollmentHandler exposes the student lifecycle endpoints.
type EnrollmentHandler struct {
	enrollment *service.EnrollmentService
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(enrollment *service.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollment: enrollment}
}

// Graduate godoc
// @Summary Graduate a student
// @Description Transition an active student to GRADUATE, closing the rombel membership and appending a history record
// @Tags Enrollment
// @Accept json
// @Produce json
// @Param id path int true "Student ID"
// @Param payload body service.GraduateStudentRequest true "Graduation payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /students/{id}/graduate [post]
func (h *EnrollmentHandler) Graduate(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.GraduateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.enrollment.Graduate(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// BulkGraduate godoc
// @Summary Graduate students in batch
// @Description Graduate a batch of students; invalid students are skipped and reported, store failures abort the whole batch
// @Tags Enrollment
// @Accept json
// @Produce json
// @Param payload body service.BulkGraduateRequest true "Bulk graduation payload"
// @Success 200 {object} response.Envelope
// @Router /students/graduate [post]
func (h *EnrollmentHandler) BulkGraduate(c *gin.Context) {
	var req service.BulkGraduateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.enrollment.BulkGraduate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Withdraw godoc
// @Summary Withdraw a student (mutasi)
// @Description Transition an active student to MUTASI with destination metadata
// @Tags Enrollment
// @Accept json
// @Produce json
// @Param id path int true "Student ID"
// @Param payload body service.WithdrawStudentRequest true "Mutasi payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /students/{id}/mutasi [post]
func (h *EnrollmentHandler) Withdraw(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.WithdrawStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.enrollment.Withdraw(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// UpdateHistory godoc
// @Summary Update graduation clerical fields
// @Description Update certificate number, final grade or score archive on a graduate's history record
// @Tags Enrollment
// @Accept json
// @Produce json
// @Param id path int true "Student ID"
// @Param payload body service.UpdateHistoryRequest true "History payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /students/{id}/history [put]
func (h *EnrollmentHandler) UpdateHistory(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.UpdateHistoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	history, err := h.enrollment.UpdateHistory(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, history, nil)
}
