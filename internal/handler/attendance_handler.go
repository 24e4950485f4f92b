package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/syauqi357/siakad-madrasah-sub000/internal/service"
	appErrors "github.com/syauqi357/siakad-madrasah-sub000/pkg/errors"
	"github.com/syauqi357/siakad-madrasah-sub000/pkg/response"
)

// AttendanceHandler exposes daily attendance endpoints.
type AttendanceHandler struct {
	attendance *service.AttendanceService
}

// NewAttendanceHandler constructs AttendanceHandler.
func NewAttendanceHandler(attendance *service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance}
}

// Record godoc
// @Summary Record attendance for a rombel
// @Description Accept a batch of daily presence marks; every student must be an active member of the rombel
// @Tags Attendance
// @Accept json
// @Produce json
// @Param id path int true "Rombel ID"
// @Param payload body service.RecordAttendanceRequest true "Attendance payload"
// @Success 200 {object} response.Envelope
// @Router /rombels/{id}/attendance [post]
func (h *AttendanceHandler) Record(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.RecordAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	recorded, err := h.attendance.Record(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"recorded": recorded}, nil)
}

// ListByDate godoc
// @Summary List attendance for a rombel on a date
// @Tags Attendance
// @Produce json
// @Param id path int true "Rombel ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /rombels/{id}/attendance [get]
func (h *AttendanceHandler) ListByDate(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	date, err := time.Parse("2006-01-02", c.Query("date"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid date parameter, expected YYYY-MM-DD"))
		return
	}
	marks, err := h.attendance.ListByDate(c.Request.Context(), id, date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, marks, nil)
}
