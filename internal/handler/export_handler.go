package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/syauqi357/siakad-madrasah-sub000/internal/service"
	"github.com/syauqi357/siakad-madrasah-sub000/pkg/response"
)

// ExportHandler streams generated documents as downloads.
type ExportHandler struct {
	exports *service.ExportService
}

// NewExportHandler constructs ExportHandler.
func NewExportHandler(exports *service.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// RosterCSV godoc
// @Summary Download a rombel roster as CSV
// @Tags Exports
// @Produce text/csv
// @Param id path int true "Rombel ID"
// @Success 200 {file} file
// @Router /rombels/{id}/export/roster [get]
func (h *ExportHandler) RosterCSV(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	file, err := h.exports.RosterCSV(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	writeDownload(c, file)
}

// ScoreReportPDF godoc
// @Summary Download a per-subject score report as PDF
// @Tags Exports
// @Produce application/pdf
// @Param id path int true "Student ID"
// @Param class_subject_id path int true "Class subject ID"
// @Success 200 {file} file
// @Router /students/{id}/scores/{class_subject_id}/export [get]
func (h *ExportHandler) ScoreReportPDF(c *gin.Context) {
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
	file, err := h.exports.ScoreReportPDF(c.Request.Context(), studentID, classSubjectID)
	if err != nil {
		response.Error(c, err)
		return
	}
	writeDownload(c, file)
}

func writeDownload(c *gin.Context, file *service.ExportFile) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Data(http.StatusOK, file.ContentType, file.Data)
}
