package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/senator-investech/access-api/internal/dto"
	"github.com/senator-investech/access-api/internal/models"
	"github.com/senator-investech/access-api/internal/service"
	appErrors "github.com/senator-investech/access-api/pkg/errors"
	"github.com/senator-investech/access-api/pkg/response"
)

// HolidayHandler manages the holiday calendar.
type HolidayHandler struct {
	service *service.CalendarService
}

// NewHolidayHandler creates a new holiday handler.
func NewHolidayHandler(svc *service.CalendarService) *HolidayHandler {
	return &HolidayHandler{service: svc}
}

// List godoc
// @Summary List holidays
// @Description List configured holidays, optionally filtered by year and type
// @Tags Calendar
// @Produce json
// @Param year query int false "Year filter"
// @Param type query string false "Holiday type filter"
// @Success 200 {object} response.Envelope
// @Router /calendar/holidays [get]
func (h *HolidayHandler) List(c *gin.Context) {
	var filter models.HolidayFilter
	if year, err := strconv.Atoi(c.Query("year")); err == nil {
		filter.Year = year
	}
	filter.Type = c.Query("type")

	holidays, err := h.service.ListHolidays(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, holidays, nil)
}

// Create godoc
// @Summary Create holiday
// @Description Add a holiday to the calendar
// @Tags Calendar
// @Accept json
// @Produce json
// @Param payload body dto.HolidayRequest true "Holiday payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /calendar/holidays [post]
func (h *HolidayHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.HolidayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid holiday payload"))
		return
	}

	holiday, err := h.service.CreateHoliday(c.Request.Context(), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, holiday)
}

// Update godoc
// @Summary Update holiday
// @Description Modify an existing holiday
// @Tags Calendar
// @Accept json
// @Produce json
// @Param id path int true "Holiday ID"
// @Param payload body dto.HolidayRequest true "Holiday payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /calendar/holidays/{id} [put]
func (h *HolidayHandler) Update(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid holiday id"))
		return
	}

	var req dto.HolidayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid holiday payload"))
		return
	}

	holiday, err := h.service.UpdateHoliday(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, holiday, nil)
}

// Delete godoc
// @Summary Delete holiday
// @Description Remove a holiday from the calendar
// @Tags Calendar
// @Produce json
// @Param id path int true "Holiday ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /calendar/holidays/{id} [delete]
func (h *HolidayHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid holiday id"))
		return
	}

	if err := h.service.DeleteHoliday(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
