package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/senator-investech/access-api/internal/models"
	"github.com/senator-investech/access-api/pkg/export"
	"github.com/senator-investech/access-api/pkg/storage"
)

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
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

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

type xlsxRenderer interface {
	Render(data export.Dataset, sheet string) ([]byte, error)
}

// ExportService builds report datasets and persists rendered files.
type ExportService struct {
	presence   *PresenceService
	anomalies  *AnomalyService
	attendance *AttendanceService
	storage    fileStorage
	csv        csvRenderer
	pdf        pdfRenderer
	xlsx       xlsxRenderer
	signer     *storage.SignedURLSigner
	logger     *zap.Logger
	cfg        ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(presence *PresenceService, anomalies *AnomalyService, attendance *AttendanceService, store fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	return &ExportService{
		presence:   presence,
		anomalies:  anomalies,
		attendance: attendance,
		storage:    store,
		csv:        export.NewCSVExporter(),
		pdf:        export.NewPDFExporter(),
		xlsx:       export.NewXLSXExporter(),
		signer:     signer,
		logger:     logger,
		cfg:        cfg,
	}
}

// Generate builds the dataset for the job and stores the rendered export.
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
	case models.ReportFormatXLSX:
		payload, err = s.xlsx.Render(dataset, title)
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
	signedURL = fmt.Sprintf("%s/export/%s", signedURL, token)

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

func (s *ExportService) buildFilename(job *models.ReportJob) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	rangePart := sanitizeFilename(fmt.Sprintf("%s_%s", job.Params.StartDate, job.Params.EndDate))
	return fmt.Sprintf("%s_%s_%s.%s", strings.ToLower(string(job.Type)), rangePart, timestamp, job.Params.Format)
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

func (s *ExportService) buildDataset(ctx context.Context, job *models.ReportJob) (export.Dataset, string, error) {
	start, end, err := parseJobWindow(job.Params)
	if err != nil {
		return export.Dataset{}, "", err
	}
	filter := models.EventFilter{
		Department: deref(job.Params.Department),
		PersonType: deref(job.Params.PersonType),
	}

	switch job.Type {
	case models.ReportTypePresence:
		return s.buildPresenceDataset(ctx, start, end, filter)
	case models.ReportTypeAnomalies:
		return s.buildAnomalyDataset(ctx, start, end)
	case models.ReportTypeAttendance:
		return s.buildAttendanceDataset(ctx, start, end, filter)
	default:
		return export.Dataset{}, "", fmt.Errorf("unsupported report type %s", job.Type)
	}
}

func (s *ExportService) buildPresenceDataset(ctx context.Context, start, end time.Time, filter models.EventFilter) (export.Dataset, string, error) {
	summary, _, err := s.presence.Summary(ctx, start, end, filter)
	if err != nil {
		return export.Dataset{}, "", err
	}
	rows := make([]map[string]string, 0, len(summary.EmployeeStats))
	for _, stat := range summary.EmployeeStats {
		rows = append(rows, map[string]string{
			"Badge":        stat.Badge,
			"Name":         stat.Name,
			"Days Present": fmt.Sprintf("%d", stat.DaysPresent),
			"Total Hours":  fmt.Sprintf("%.2f", stat.TotalHours),
		})
	}
	dataset := export.Dataset{
		Headers: []string{"Badge", "Name", "Days Present", "Total Hours"},
		Rows:    rows,
	}
	title := fmt.Sprintf("Presence Report %s to %s", start.Format("2006-01-02"), end.Format("2006-01-02"))
	return dataset, title, nil
}

func (s *ExportService) buildAnomalyDataset(ctx context.Context, start, end time.Time) (export.Dataset, string, error) {
	report, _, err := s.anomalies.Report(ctx, start, end)
	if err != nil {
		return export.Dataset{}, "", err
	}
	rows := make([]map[string]string, 0, len(report.RecentAnomalies))
	for _, anomaly := range report.RecentAnomalies {
		rows = append(rows, map[string]string{
			"Badge":      anomaly.Badge,
			"Name":       anomaly.Name,
			"Event Type": anomaly.EventType,
			"Reader":     anomaly.Reader,
			"Group":      anomaly.Group,
			"Date":       anomaly.EventDate,
			"Time":       anomaly.EventTime,
		})
	}
	dataset := export.Dataset{
		Headers: []string{"Badge", "Name", "Event Type", "Reader", "Group", "Date", "Time"},
		Rows:    rows,
	}
	title := fmt.Sprintf("Anomaly Report %s to %s", start.Format("2006-01-02"), end.Format("2006-01-02"))
	return dataset, title, nil
}

func (s *ExportService) buildAttendanceDataset(ctx context.Context, start, end time.Time, filter models.EventFilter) (export.Dataset, string, error) {
	records, _, err := s.attendance.Records(ctx, start, end, filter)
	if err != nil {
		return export.Dataset{}, "", err
	}
	rows := make([]map[string]string, 0, len(records))
	for _, record := range records {
		rows = append(rows, map[string]string{
			"Badge":          record.Badge,
			"Name":           record.Name,
			"Date":           record.Date.Format("2006-01-02"),
			"Arrival":        record.Arrival.Format("15:04"),
			"Departure":      record.Departure.Format("15:04"),
			"Worked (min)":   fmt.Sprintf("%d", record.WorkedMinutes),
			"Deducted (min)": fmt.Sprintf("%d", record.DeductedMinutes),
			"Day Status":     string(record.DayStatus),
		})
	}
	dataset := export.Dataset{
		Headers: []string{"Badge", "Name", "Date", "Arrival", "Departure", "Worked (min)", "Deducted (min)", "Day Status"},
		Rows:    rows,
	}
	title := fmt.Sprintf("Attendance Report %s to %s", start.Format("2006-01-02"), end.Format("2006-01-02"))
	return dataset, title, nil
}

func parseJobWindow(params models.ReportJobParams) (time.Time, time.Time, error) {
	start, err := time.Parse("2006-01-02", params.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse start date %q: %w", params.StartDate, err)
	}
	end, err := time.Parse("2006-01-02", params.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse end date %q: %w", params.EndDate, err)
	}
	return start, end, nil
}

func deref(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}
