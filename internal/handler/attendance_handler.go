package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/senator-investech/access-api/internal/dto"
	"github.com/senator-investech/access-api/internal/middleware"
	"github.com/senator-investech/access-api/internal/service"
	appErrors "github.com/senator-investech/access-api/pkg/errors"
	"github.com/senator-investech/access-api/pkg/response"
)

// AttendanceHandler serves attendance records and working-time parameters.
type AttendanceHandler struct {
	service *service.AttendanceService
}

// NewAttendanceHandler creates a new attendance handler.
func NewAttendanceHandler(svc *service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{service: svc}
}

// Records godoc
// @Summary Attendance records
// @Description Per-person daily attendance with worked and deducted minutes
// @Tags Attendance
// @Produce json
// @Param startDate query string true "Window start (YYYY-MM-DD)"
// @Param endDate query string true "Window end (YYYY-MM-DD)"
// @Param department query string false "Department filter"
// @Param personType query string false "Person type filter"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /attendance/records [get]
func (h *AttendanceHandler) Records(c *gin.Context) {
	start, end, filter, err := presenceQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	began := time.Now()
	records, cacheHit, err := h.service.Records(c.Request.Context(), start, end, filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	middleware.SetCacheHit(c, cacheHit)
	meta := map[string]interface{}{"processing_time_ms": time.Since(began).Milliseconds()}

	response.JSON(c, http.StatusOK, records, nil, meta)
}

// ManualEntry godoc
// @Summary Record a manual badge event
// @Description Insert an accepted access event on behalf of a badge holder
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body dto.ManualEntryRequest true "Manual entry payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /attendance/manual [post]
func (h *AttendanceHandler) ManualEntry(c *gin.Context) {
	var req dto.ManualEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid manual entry payload"))
		return
	}

	event, err := h.service.ManualEntry(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, event)
}

// Params godoc
// @Summary Get attendance parameters
// @Description Working hours, lunch break and continuous days configuration
// @Tags Attendance
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /attendance/params [get]
func (h *AttendanceHandler) Params(c *gin.Context) {
	params, err := h.service.Params(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, params, nil)
}

// UpdateParams godoc
// @Summary Update attendance parameters
// @Description Store new working-time configuration
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body dto.AttendanceParamsRequest true "Parameters payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /attendance/params [put]
func (h *AttendanceHandler) UpdateParams(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.AttendanceParamsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid parameters payload"))
		return
	}

	params, err := h.service.UpdateParams(c.Request.Context(), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, params, nil)
}
