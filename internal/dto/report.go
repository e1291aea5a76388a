package dto

import (
	"time"

	"github.com/senator-investech/access-api/internal/models"
)

// ReportRequest is the payload for POST /reports.
type ReportRequest struct {
	Type       models.ReportType   `json:"type" validate:"required,oneof=presence-summary anomalies attendance"`
	StartDate  string              `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate    string              `json:"endDate" validate:"required,datetime=2006-01-02"`
	Department *string             `json:"department,omitempty"`
	PersonType *string             `json:"personType,omitempty" validate:"omitempty,oneof=employee visitor"`
	Format     models.ReportFormat `json:"format" validate:"required,oneof=csv pdf xlsx"`
}

// ReportJobResponse acknowledges an accepted report job.
type ReportJobResponse struct {
	JobID     string              `json:"jobId"`
	Status    models.ReportStatus `json:"status"`
	CreatedAt time.Time           `json:"createdAt"`
}

// ReportStatusResponse describes the current state of a report job. The
// download URL is only present once the job has finished.
type ReportStatusResponse struct {
	JobID       string              `json:"jobId"`
	Type        models.ReportType   `json:"type"`
	Format      models.ReportFormat `json:"format"`
	Status      models.ReportStatus `json:"status"`
	Error       *string             `json:"error,omitempty"`
	DownloadURL *string             `json:"downloadUrl,omitempty"`
	CreatedAt   time.Time           `json:"createdAt"`
	StartedAt   *time.Time          `json:"startedAt,omitempty"`
	FinishedAt  *time.Time          `json:"finishedAt,omitempty"`
}
