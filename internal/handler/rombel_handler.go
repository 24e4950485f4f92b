package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/syauqi357/siakad-madrasah-sub000/internal/models"
	"github.com/syauqi357/siakad-madrasah-sub000/internal/service"
	appErrors "github.com/syauqi357/siakad-madrasah-sub000/pkg/errors"
	"github.com/syauqi357/siakad-madrasah-sub000/pkg/response"
)

// RombelHandler exposes class-group endpoints.
type RombelHandler struct {
	rombels *service.RombelService
}

// NewRombelHandler constructs RombelHandler.
func NewRombelHandler(rombels *service.RombelService) *RombelHandler {
	return &RombelHandler{rombels: rombels}
}

// List godoc
// @Summary List rombels
// @Tags Rombels
// @Produce json
// @Param search query string false "Search by name"
// @Param class_id query int false "Filter by class"
// @Param academic_year_id query int false "Filter by academic year"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /rombels [get]
func (h *RombelHandler) List(c *gin.Context) {
	var filter models.RombelFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	if classID, err := strconv.ParseInt(c.Query("class_id"), 10, 64); err == nil {
		filter.ClassID = classID
	}
	if yearID, err := strconv.ParseInt(c.Query("academic_year_id"), 10, 64); err == nil {
		filter.AcademicYearID = yearID
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	rombels, pagination, err := h.rombels.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rombels, pagination)
}

// Get godoc
// @Summary Get rombel detail
// @Tags Rombels
// @Produce json
// @Param id path int true "Rombel ID"
// @Success 200 {object} response.Envelope
// @Router /rombels/{id} [get]
func (h *RombelHandler) Get(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	rombel, err := h.rombels.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rombel, nil)
}

// Members godoc
// @Summary List active rombel members
// @Tags Rombels
// @Produce json
// @Param id path int true "Rombel ID"
// @Success 200 {object} response.Envelope
// @Router /rombels/{id}/students [get]
func (h *RombelHandler) Members(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	members, err := h.rombels.Members(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, members, nil)
}

// Register godoc
// @Summary Register rombels in batch
// @Description Create one or more class groups, optionally with a pre-assigned roster; one invalid item rejects the whole batch
// @Tags Rombels
// @Accept json
// @Produce json
// @Param payload body service.RegisterRombelRequest true "Registration payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /rombels [post]
func (h *RombelHandler) Register(c *gin.Context) {
	var req service.RegisterRombelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.rombels.Register(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, gin.H{"registered": len(req.Items)}, nil)
}

// AddStudents godoc
// @Summary Add students to a rombel
// @Description Assign students to a class group; rejected when the batch exceeds free capacity
// @Tags Rombels
// @Accept json
// @Produce json
// @Param id path int true "Rombel ID"
// @Param payload body service.AddStudentsRequest true "Assignment payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /rombels/{id}/students [post]
func (h *RombelHandler) AddStudents(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.AddStudentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	added, err := h.rombels.AddStudents(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"added": added}, nil)
}

// Promote godoc
// @Summary Promote students into a target rombel
// @Description Move students into the target group; each student is processed independently within the batch capacity bound
// @Tags Rombels
// @Accept json
// @Produce json
// @Param payload body service.PromoteStudentsRequest true "Promotion payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /rombels/promote [post]
func (h *RombelHandler) Promote(c *gin.Context) {
	var req service.PromoteStudentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.rombels.Promote(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Targets godoc
// @Summary List promotion target rombels
// @Description List the groups one class level above the source in the active academic year, with free slots
// @Tags Rombels
// @Produce json
// @Param class_id query int true "Source class ID"
// @Success 200 {object} response.Envelope
// @Router /rombels/promotion-targets [get]
func (h *RombelHandler) Targets(c *gin.Context) {
	classID, err := strconv.ParseInt(c.Query("class_id"), 10, 64)
	if err != nil || classID <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid class_id parameter"))
		return
	}
	targets, err := h.rombels.TargetRombels(c.Request.Context(), classID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, targets, nil)
}

// Delete godoc
// @Summary Delete a rombel
// @Description Remove a class group after cascading cleanup of memberships and references
// @Tags Rombels
// @Produce json
// @Param id path int true "Rombel ID"
// @Success 204
// @Router /rombels/{id} [delete]
func (h *RombelHandler) Delete(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.rombels.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
