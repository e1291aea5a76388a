package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/senator-investech/access-api/internal/middleware"
	"github.com/senator-investech/access-api/internal/service"
	appErrors "github.com/senator-investech/access-api/pkg/errors"
	"github.com/senator-investech/access-api/pkg/response"
)

// AnomalyHandler serves the access-log anomaly report.
type AnomalyHandler struct {
	service *service.AnomalyService
}

// NewAnomalyHandler creates a new anomaly handler.
func NewAnomalyHandler(svc *service.AnomalyService) *AnomalyHandler {
	return &AnomalyHandler{service: svc}
}

// Report godoc
// @Summary Anomalous events report
// @Description Aggregated rejected and suspicious access events over a date window
// @Tags Anomalies
// @Produce json
// @Param startDate query string false "Window start (YYYY-MM-DD)"
// @Param endDate query string false "Window end (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /anomalies [get]
func (h *AnomalyHandler) Report(c *gin.Context) {
	start, err := dateQuery(c, "startDate")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, err.Error()))
		return
	}
	end, err := dateQuery(c, "endDate")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, err.Error()))
		return
	}

	began := time.Now()
	report, cacheHit, err := h.service.Report(c.Request.Context(), start, end)
	if err != nil {
		response.Error(c, err)
		return
	}

	middleware.SetCacheHit(c, cacheHit)
	meta := map[string]interface{}{"processing_time_ms": time.Since(began).Milliseconds()}

	response.JSON(c, http.StatusOK, report, nil, meta)
}
