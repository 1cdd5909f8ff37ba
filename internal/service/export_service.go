package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/edu-report-api/internal/models"
	"github.com/noah-isme/edu-report-api/pkg/export"
	"github.com/noah-isme/edu-report-api/pkg/storage"
)

type reportAssembler interface {
	StudentReportCard(ctx context.Context, studentID, termID, academicYearID string) (*models.StudentReportCard, error)
	ClassReportSheet(ctx context.Context, gradeLevelID, termID, academicYearID string) (*models.ClassReportSheet, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ReportFormat
	ExpiresAt    time.Time
}

// ExportService renders report cards and class sheets to downloadable
// files and persists them with signed download tokens.
type ExportService struct {
	reports reportAssembler
	storage fileStorage
	csv     csvRenderer
	pdf     pdfRenderer
	signer  *storage.SignedURLSigner
	logger  *zap.Logger
	cfg     ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(reports reportAssembler, files fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		reports: reports,
		storage: files,
		csv:     csv,
		pdf:     pdf,
		signer:  signer,
		logger:  logger,
		cfg:     cfg,
	}
}

// Generate builds the dataset for a job and stores the rendered export.
func (s *ExportService) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	dataset, title, err := s.buildDataset(ctx, job)
	if err != nil {
		return nil, err
	}

	var payload []byte
	switch job.Params.Format {
	case models.ReportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ReportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported format %s", job.Params.Format)
	}
	if err != nil {
		return nil, err
	}

	filename := s.buildFilename(job)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	signedURL := strings.TrimRight(s.cfg.APIPrefix, "/")
	if signedURL == "" {
		signedURL = "/api/v1"
	}
	signedURL = fmt.Sprintf("%s/exports/download/%s", signedURL, token)

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          signedURL,
		Format:       job.Params.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildDataset(ctx context.Context, job *models.ReportJob) (export.Dataset, string, error) {
	switch job.Type {
	case models.ReportTypeStudentCard:
		return s.buildStudentCardDataset(ctx, job.Params)
	case models.ReportTypeClassSheet:
		return s.buildClassSheetDataset(ctx, job.Params)
	default:
		return export.Dataset{}, "", fmt.Errorf("unsupported report type %s", job.Type)
	}
}

func (s *ExportService) buildStudentCardDataset(ctx context.Context, params models.ReportJobParams) (export.Dataset, string, error) {
	if params.StudentID == nil || *params.StudentID == "" {
		return export.Dataset{}, "", fmt.Errorf("studentId required for student card export")
	}
	card, err := s.reports.StudentReportCard(ctx, *params.StudentID, params.TermID, params.AcademicYearID)
	if err != nil {
		return export.Dataset{}, "", err
	}

	rows := make([]map[string]string, 0, len(card.Subjects))
	for _, line := range card.Subjects {
		rows = append(rows, map[string]string{
			"Subject":          line.SubjectName,
			"Class Score (50)": fmt.Sprintf("%.1f", line.ClassScore),
			"Exam Score (50)":  fmt.Sprintf("%.1f", line.ExamScore),
			"Total (100)":      fmt.Sprintf("%.1f", line.Total),
			"Grade":            line.Grade,
			"Position":         formatPosition(line.Position),
			"Remark":           line.Remark,
		})
	}
	dataset := export.Dataset{
		Headers: []string{"Subject", "Class Score (50)", "Exam Score (50)", "Total (100)", "Grade", "Position", "Remark"},
		Rows:    rows,
	}
	title := fmt.Sprintf("Report Card %s %s %s", card.Student.FullName(), card.Term.Name, card.AcademicYear.Label)
	return dataset, title, nil
}

func (s *ExportService) buildClassSheetDataset(ctx context.Context, params models.ReportJobParams) (export.Dataset, string, error) {
	if params.GradeLevelID == "" {
		return export.Dataset{}, "", fmt.Errorf("gradeLevelId required for class sheet export")
	}
	sheet, err := s.reports.ClassReportSheet(ctx, params.GradeLevelID, params.TermID, params.AcademicYearID)
	if err != nil {
		return export.Dataset{}, "", err
	}

	var rows []map[string]string
	for _, row := range sheet.Rows {
		if len(row.Subjects) == 0 {
			rows = append(rows, map[string]string{
				"Position": fmt.Sprintf("%d", row.ClassPosition),
				"Student":  row.StudentName,
				"Average":  fmt.Sprintf("%.2f", row.AverageScore),
			})
			continue
		}
		for _, line := range row.Subjects {
			rows = append(rows, map[string]string{
				"Position":    fmt.Sprintf("%d", row.ClassPosition),
				"Student":     row.StudentName,
				"Average":     fmt.Sprintf("%.2f", row.AverageScore),
				"Subject":     line.SubjectName,
				"Total (100)": fmt.Sprintf("%.1f", line.Total),
				"Grade":       line.Grade,
				"Remark":      line.Remark,
			})
		}
	}
	dataset := export.Dataset{
		Headers: []string{"Position", "Student", "Average", "Subject", "Total (100)", "Grade", "Remark"},
		Rows:    rows,
	}
	title := fmt.Sprintf("Class Sheet %s %s %s", sheet.GradeLevel.Name, sheet.Term.Name, sheet.AcademicYear.Label)
	return dataset, title, nil
}

func (s *ExportService) buildFilename(job *models.ReportJob) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	termPart := sanitizeFilename(job.Params.TermID)
	return fmt.Sprintf("%s_%s_%s.%s", strings.ToLower(string(job.Type)), termPart, timestamp, job.Params.Format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func formatPosition(pos *int) string {
	if pos == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *pos)
}
