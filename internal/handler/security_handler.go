package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/senator-investech/access-api/internal/models"
	"github.com/senator-investech/access-api/internal/service"
	appErrors "github.com/senator-investech/access-api/pkg/errors"
	"github.com/senator-investech/access-api/pkg/response"
)

// SecurityHandler exposes security settings and the incident log.
type SecurityHandler struct {
	service *service.SecurityService
}

// NewSecurityHandler creates a new security handler.
func NewSecurityHandler(svc *service.SecurityService) *SecurityHandler {
	return &SecurityHandler{service: svc}
}

// Settings godoc
// @Summary Get security settings
// @Description Password policy and lockout configuration
// @Tags Security
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /security/settings [get]
func (h *SecurityHandler) Settings(c *gin.Context) {
	settings, err := h.service.Settings(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, settings, nil)
}

// UpdateSettings godoc
// @Summary Update security settings
// @Description Store a new password policy and lockout configuration
// @Tags Security
// @Accept json
// @Produce json
// @Param payload body models.SecuritySettings true "Settings payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /security/settings [put]
func (h *SecurityHandler) UpdateSettings(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var settings models.SecuritySettings
	if err := c.ShouldBindJSON(&settings); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid settings payload"))
		return
	}

	updated, err := h.service.UpdateSettings(c.Request.Context(), settings, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, updated, nil)
}

// Incidents godoc
// @Summary List security incidents
// @Description Failed logins, lockouts and password changes
// @Tags Security
// @Produce json
// @Param type query string false "Incident type filter"
// @Param user_id query string false "User filter"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /security/incidents [get]
func (h *SecurityHandler) Incidents(c *gin.Context) {
	var filter models.IncidentFilter
	filter.Type = c.Query("type")
	filter.UserID = c.Query("user_id")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("page_size", "20")); err == nil {
		filter.PageSize = size
	}

	incidents, total, err := h.service.Incidents(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	response.JSON(c, http.StatusOK, incidents, pagination)
}
