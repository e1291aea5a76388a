package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/senator-investech/access-api/internal/dto"
	"github.com/senator-investech/access-api/internal/middleware"
	"github.com/senator-investech/access-api/internal/models"
	"github.com/senator-investech/access-api/internal/service"
	appErrors "github.com/senator-investech/access-api/pkg/errors"
)

type reportServiceMock struct {
	job       *dto.ReportJobResponse
	jobErr    error
	status    *dto.ReportStatusResponse
	statusErr error
	jobs      []models.ReportJob
	download  *service.ReportDownload
	dlErr     error

	createdReq   dto.ReportRequest
	createdActor string
	statusID     string
	token        string
}

func (m *reportServiceMock) CreateJob(ctx context.Context, req dto.ReportRequest, actorID string) (*dto.ReportJobResponse, error) {
	m.createdReq = req
	m.createdActor = actorID
	return m.job, m.jobErr
}

func (m *reportServiceMock) GetStatus(ctx context.Context, id string, actorID string, role models.UserRole) (*dto.ReportStatusResponse, error) {
	m.statusID = id
	return m.status, m.statusErr
}

func (m *reportServiceMock) ListJobs(ctx context.Context, actorID string, limit int) ([]models.ReportJob, error) {
	return m.jobs, nil
}

func (m *reportServiceMock) ResolveDownload(ctx context.Context, token string) (*service.ReportDownload, error) {
	m.token = token
	return m.download, m.dlErr
}

func newGinContext(t *testing.T, method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	req, err := http.NewRequest(method, path, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, recorder
}

func operatorClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "user-1", Role: models.RoleOperator, Email: "ops@example.com"}
}

func TestGenerateReportAccepted(t *testing.T) {
	mock := &reportServiceMock{job: &dto.ReportJobResponse{
		JobID:     "job-1",
		Status:    models.ReportStatusQueued,
		CreatedAt: time.Now(),
	}}
	h := NewReportHandler(mock, nil)

	body, _ := json.Marshal(dto.ReportRequest{
		Type:      models.ReportTypePresence,
		StartDate: "2024-03-01",
		EndDate:   "2024-03-31",
		Format:    models.ReportFormatCSV,
	})
	c, recorder := newGinContext(t, http.MethodPost, "/reports/generate", body)
	c.Set(middleware.ContextUserKey, operatorClaims())

	h.GenerateReport(c)

	assert.Equal(t, http.StatusAccepted, recorder.Code)
	assert.Equal(t, "user-1", mock.createdActor)
	assert.Equal(t, models.ReportTypePresence, mock.createdReq.Type)

	var envelope struct {
		Data dto.ReportJobResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
	assert.Equal(t, "job-1", envelope.Data.JobID)
	assert.Equal(t, models.ReportStatusQueued, envelope.Data.Status)
}

func TestGenerateReportRequiresClaims(t *testing.T) {
	h := NewReportHandler(&reportServiceMock{}, nil)

	c, recorder := newGinContext(t, http.MethodPost, "/reports/generate", []byte(`{}`))

	h.GenerateReport(c)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestGenerateReportRejectsMalformedBody(t *testing.T) {
	h := NewReportHandler(&reportServiceMock{}, nil)

	c, recorder := newGinContext(t, http.MethodPost, "/reports/generate", []byte(`{"type":`))
	c.Set(middleware.ContextUserKey, operatorClaims())

	h.GenerateReport(c)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestReportStatusPassesJobID(t *testing.T) {
	url := "https://api.example.com/api/v1/export/tok123"
	mock := &reportServiceMock{status: &dto.ReportStatusResponse{
		JobID:       "job-1",
		Status:      models.ReportStatusFinished,
		DownloadURL: &url,
	}}
	h := NewReportHandler(mock, nil)

	c, recorder := newGinContext(t, http.MethodGet, "/reports/status/job-1", nil)
	c.Set(middleware.ContextUserKey, operatorClaims())
	c.Params = gin.Params{{Key: "id", Value: "job-1"}}

	h.ReportStatus(c)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "job-1", mock.statusID)

	var envelope struct {
		Data dto.ReportStatusResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Data.DownloadURL)
	assert.Equal(t, url, *envelope.Data.DownloadURL)
}

func TestReportStatusNotFound(t *testing.T) {
	mock := &reportServiceMock{statusErr: appErrors.Clone(appErrors.ErrNotFound, "report job not found")}
	h := NewReportHandler(mock, nil)

	c, recorder := newGinContext(t, http.MethodGet, "/reports/status/missing", nil)
	c.Set(middleware.ContextUserKey, operatorClaims())
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	h.ReportStatus(c)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestDownloadReportStreamsFile(t *testing.T) {
	file, err := os.CreateTemp(t.TempDir(), "export-*.csv")
	require.NoError(t, err)
	_, err = file.WriteString("badge,name\n1001,Ada\n")
	require.NoError(t, err)
	_, err = file.Seek(0, 0)
	require.NoError(t, err)

	mock := &reportServiceMock{download: &service.ReportDownload{
		File:     file,
		Filename: "presence-summary.csv",
		Format:   models.ReportFormatCSV,
	}}
	h := NewReportHandler(mock, nil)

	c, recorder := newGinContext(t, http.MethodGet, "/export/tok123", nil)
	c.Params = gin.Params{{Key: "token", Value: "tok123"}}

	h.DownloadReport(c)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "tok123", mock.token)
	assert.Equal(t, "text/csv", recorder.Header().Get("Content-Type"))
	assert.Contains(t, recorder.Header().Get("Content-Disposition"), "presence-summary.csv")
	assert.Contains(t, recorder.Body.String(), "1001,Ada")
}

func TestDownloadReportExpiredToken(t *testing.T) {
	mock := &reportServiceMock{dlErr: appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")}
	h := NewReportHandler(mock, nil)

	c, recorder := newGinContext(t, http.MethodGet, "/export/expired", nil)
	c.Params = gin.Params{{Key: "token", Value: "expired"}}

	h.DownloadReport(c)
	assert.Equal(t, http.StatusForbidden, recorder.Code)
}
