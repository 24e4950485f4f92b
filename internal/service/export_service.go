package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/syauqi357/siakad-madrasah-sub000/internal/models"
	appErrors "github.com/syauqi357/siakad-madrasah-sub000/pkg/errors"
	"github.com/syauqi357/siakad-madrasah-sub000/pkg/export"
)

type exportRombelReader interface {
	FindDetailByID(ctx context.Context, id int64) (*models.RombelDetail, error)
	ListActiveMemberDetails(ctx context.Context, rombelID int64) ([]models.StudentSummary, error)
}

type exportStudentReader interface {
	FindDetailByID(ctx context.Context, id int64) (*models.StudentDetail, error)
}

type exportScoreReporter interface {
	SubjectReport(ctx context.Context, studentID, classSubjectID int64) (*SubjectReport, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title, subtitle string) ([]byte, error)
}

// ExportFile is a rendered document ready to stream to the client.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders rosters and score reports into downloadable files.
type ExportService struct {
	rombels  exportRombelReader
	students exportStudentReader
	scores   exportScoreReporter
	csv      csvRenderer
	pdf      pdfRenderer
	logger   *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(rombels exportRombelReader, students exportStudentReader, scores exportScoreReporter, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{rombels: rombels, students: students, scores: scores, csv: csv, pdf: pdf, logger: logger}
}

// RosterCSV renders the active roster of a rombel as CSV.
func (s *ExportService) RosterCSV(ctx context.Context, rombelID int64) (*ExportFile, error) {
	rombel, err := s.rombels.FindDetailByID(ctx, rombelID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "rombel not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rombel")
	}
	members, err := s.rombels.ListActiveMemberDetails(ctx, rombelID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list members")
	}

	rows := make([]map[string]string, 0, len(members))
	for i, member := range members {
		rows = append(rows, map[string]string{
			"No":     fmt.Sprintf("%d", i+1),
			"NISN":   member.NISN,
			"Nama":   member.FullName,
			"Status": string(member.Status),
			"Rombel": rombel.Name,
			"Kelas":  rombel.ClassName,
			"Tahun":  rombel.AcademicYearName,
		})
	}
	dataset := export.Dataset{
		Headers: []string{"No", "NISN", "Nama", "Status", "Rombel", "Kelas", "Tahun"},
		Rows:    rows,
	}

	payload, err := s.csv.Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render roster csv")
	}

	s.logger.Info("roster exported", zap.Int64("rombel_id", rombelID), zap.Int("members", len(members)))
	return &ExportFile{
		Filename:    buildExportFilename("roster_"+rombel.Name, "csv"),
		ContentType: "text/csv",
		Data:        payload,
	}, nil
}

// ScoreReportPDF renders one student's subject score breakdown as PDF.
func (s *ExportService) ScoreReportPDF(ctx context.Context, studentID, classSubjectID int64) (*ExportFile, error) {
	student, err := s.students.FindDetailByID(ctx, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	report, err := s.scores.SubjectReport(ctx, studentID, classSubjectID)
	if err != nil {
		return nil, err
	}

	rows := make([]map[string]string, 0, len(report.Scores)+3)
	for _, row := range report.Scores {
		value := "-"
		if row.Score != nil {
			value = fmt.Sprintf("%.2f", *row.Score)
		}
		rows = append(rows, map[string]string{
			"Komponen": row.AssessmentCode,
			"Bobot":    fmt.Sprintf("%.0f", row.Weight),
			"Nilai":    value,
		})
	}
	rows = append(rows,
		map[string]string{"Komponen": "Total", "Bobot": "", "Nilai": fmt.Sprintf("%.2f", report.Totals.Total)},
		map[string]string{"Komponen": "Rata-rata", "Bobot": "", "Nilai": fmt.Sprintf("%.2f", report.Totals.Average)},
		map[string]string{"Komponen": "Rata-rata Berbobot", "Bobot": "", "Nilai": fmt.Sprintf("%.2f", report.Totals.WeightedAverage)},
	)
	dataset := export.Dataset{
		Headers: []string{"Komponen", "Bobot", "Nilai"},
		Rows:    rows,
	}

	subtitle := fmt.Sprintf("%s (NISN %s)", student.FullName, student.NISN)
	payload, err := s.pdf.Render(dataset, "Laporan Nilai", subtitle)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render score pdf")
	}

	return &ExportFile{
		Filename:    buildExportFilename(fmt.Sprintf("nilai_%s", student.NISN), "pdf"),
		ContentType: "application/pdf",
		Data:        payload,
	}, nil
}

func buildExportFilename(base, ext string) string {
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-")
	timestamp := time.Now().UTC().Format("20060102_150405")
	return fmt.Sprintf("%s_%s.%s", strings.ToLower(replacer.Replace(base)), timestamp, ext)
}
