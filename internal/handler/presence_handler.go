package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/senator-investech/access-api/internal/middleware"
	"github.com/senator-investech/access-api/internal/models"
	"github.com/senator-investech/access-api/internal/service"
	appErrors "github.com/senator-investech/access-api/pkg/errors"
	"github.com/senator-investech/access-api/pkg/response"
)

// PresenceHandler serves presence analytics endpoints.
type PresenceHandler struct {
	presence  *service.PresenceService
	anomalies *service.AnomalyService
}

// NewPresenceHandler creates a new presence handler.
func NewPresenceHandler(presence *service.PresenceService, anomalies *service.AnomalyService) *PresenceHandler {
	return &PresenceHandler{presence: presence, anomalies: anomalies}
}

// Summary godoc
// @Summary Presence summary
// @Description Aggregated presence statistics over a date window
// @Tags Presence
// @Produce json
// @Param startDate query string false "Window start (YYYY-MM-DD)"
// @Param endDate query string false "Window end (YYYY-MM-DD)"
// @Param department query string false "Department filter"
// @Param personType query string false "Person type filter (employee or visitor)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /presence/summary [get]
func (h *PresenceHandler) Summary(c *gin.Context) {
	start, end, filter, err := presenceQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	began := time.Now()
	summary, cacheHit, err := h.presence.Summary(c.Request.Context(), start, end, filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	middleware.SetCacheHit(c, cacheHit)
	meta := map[string]interface{}{"processing_time_ms": time.Since(began).Milliseconds()}

	response.JSON(c, http.StatusOK, summary, nil, meta)
}

// Anomalies godoc
// @Summary Behavioral anomalies
// @Description Late arrivals, early departures, long gaps and absences per person and day
// @Tags Presence
// @Produce json
// @Param startDate query string false "Window start (YYYY-MM-DD)"
// @Param endDate query string false "Window end (YYYY-MM-DD)"
// @Param department query string false "Department filter"
// @Param personType query string false "Person type filter"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /presence/anomalies [get]
func (h *PresenceHandler) Anomalies(c *gin.Context) {
	start, end, filter, err := presenceQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	began := time.Now()
	result, cacheHit, err := h.anomalies.Behavioral(c.Request.Context(), start, end, filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	middleware.SetCacheHit(c, cacheHit)
	meta := map[string]interface{}{"processing_time_ms": time.Since(began).Milliseconds()}

	response.JSON(c, http.StatusOK, result, nil, meta)
}

func presenceQuery(c *gin.Context) (time.Time, time.Time, models.EventFilter, error) {
	start, err := dateQuery(c, "startDate")
	if err != nil {
		return time.Time{}, time.Time{}, models.EventFilter{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, err.Error())
	}
	end, err := dateQuery(c, "endDate")
	if err != nil {
		return time.Time{}, time.Time{}, models.EventFilter{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, err.Error())
	}
	filter := models.EventFilter{
		Department: c.Query("department"),
		PersonType: c.Query("personType"),
	}
	return start, end, filter, nil
}
