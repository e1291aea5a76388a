package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/senator-investech/access-api/internal/dto"
	"github.com/senator-investech/access-api/internal/models"
	"github.com/senator-investech/access-api/internal/repository"
	appErrors "github.com/senator-investech/access-api/pkg/errors"
)

// HolidayRepository describes the persistence layer required by CalendarService.
type HolidayRepository interface {
	List(ctx context.Context, filter models.HolidayFilter) ([]models.Holiday, error)
	FindByID(ctx context.Context, id int64) (*models.Holiday, error)
	ExistsOnDate(ctx context.Context, date time.Time, excludeID int64) (bool, error)
	Create(ctx context.Context, holiday *models.Holiday) error
	Update(ctx context.Context, holiday *models.Holiday) error
	Delete(ctx context.Context, id int64) error
}

type calendarSettingsRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
}

// CalendarService classifies dates and manages the holiday calendar.
type CalendarService struct {
	repo           HolidayRepository
	settings       calendarSettingsRepository
	cache          *CacheService
	validator      *validator.Validate
	logger         *zap.Logger
	continuousDays string
}

// NewCalendarService constructs a CalendarService. continuousDays is the
// fallback schedule used when no attendance parameters have been saved.
func NewCalendarService(repo HolidayRepository, settings calendarSettingsRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger, continuousDays string) *CalendarService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &CalendarService{
		repo:           repo,
		settings:       settings,
		cache:          cache,
		validator:      validate,
		logger:         logger,
		continuousDays: continuousDays,
	}
}

// LoadConfig resolves the calendar configuration covering [start, end]:
// holidays for every year in the window plus the continuous day schedule.
// A missing or broken configuration source degrades to an empty calendar so
// reporting keeps working.
func (s *CalendarService) LoadConfig(ctx context.Context, start, end time.Time) (models.CalendarConfig, error) {
	cfg := models.EmptyCalendarConfig()

	for year := start.Year(); year <= end.Year(); year++ {
		holidays, err := s.repo.List(ctx, models.HolidayFilter{Year: year})
		if err != nil {
			s.logger.Warn("load holidays failed, classifying without them", zap.Int("year", year), zap.Error(err))
			continue
		}
		for _, h := range holidays {
			if h.IsRecurring {
				cfg.RecurringHolidays[h.Date.Format("01-02")] = h.Name
				continue
			}
			cfg.Holidays[h.Date.Format("2006-01-02")] = h.Name
		}
	}

	days, err := s.resolveContinuousDays(ctx)
	if err != nil {
		s.logger.Warn("load continuous days failed, using defaults", zap.Error(err))
		days = s.continuousDays
	}
	parsed, err := ParseContinuousDays(days)
	if err != nil {
		s.logger.Warn("invalid continuous days value", zap.String("value", days), zap.Error(err))
		parsed = map[time.Weekday]bool{}
	}
	cfg.ContinuousDays = parsed

	return cfg, nil
}

func (s *CalendarService) resolveContinuousDays(ctx context.Context) (string, error) {
	if s.settings == nil {
		return s.continuousDays, nil
	}
	var params models.AttendanceParams
	if err := s.settings.Get(ctx, repository.SettingsKeyAttendance, &params); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s.continuousDays, nil
		}
		return "", err
	}
	return params.ContinuousDays, nil
}

// Classify resolves the day type for a single date. Holidays win over
// weekends, weekends win over continuous days.
func (s *CalendarService) Classify(cfg models.CalendarConfig, date time.Time) models.DayClassification {
	classification := models.DayClassification{Date: date, Type: models.DayTypeNormal}

	if name, ok := cfg.Holidays[date.Format("2006-01-02")]; ok {
		classification.Type = models.DayTypeHoliday
		classification.HolidayName = name
		return classification
	}
	if name, ok := cfg.RecurringHolidays[date.Format("01-02")]; ok {
		classification.Type = models.DayTypeHoliday
		classification.HolidayName = name
		return classification
	}
	if wd := date.Weekday(); wd == time.Saturday || wd == time.Sunday {
		classification.Type = models.DayTypeWeekend
		return classification
	}
	if cfg.ContinuousDays[date.Weekday()] {
		classification.Type = models.DayTypeContinuous
		return classification
	}
	return classification
}

// ParseContinuousDays parses the stored "1,4" style schedule where 1 is
// Monday and 7 is Sunday.
func ParseContinuousDays(value string) (map[time.Weekday]bool, error) {
	days := map[time.Weekday]bool{}
	value = strings.TrimSpace(value)
	if value == "" {
		return days, nil
	}
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 1 || n > 7 {
			return nil, fmt.Errorf("invalid continuous day %q", part)
		}
		// ISO numbering: 7 maps to Go's Sunday (0).
		days[time.Weekday(n%7)] = true
	}
	return days, nil
}

// ListHolidays returns holidays for the given filter.
func (s *CalendarService) ListHolidays(ctx context.Context, filter models.HolidayFilter) ([]models.Holiday, error) {
	holidays, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list holidays")
	}
	return holidays, nil
}

// CreateHoliday validates and stores a new holiday. Two holidays cannot
// share a date.
func (s *CalendarService) CreateHoliday(ctx context.Context, req dto.HolidayRequest, createdBy string) (*models.Holiday, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid holiday payload")
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be formatted YYYY-MM-DD")
	}

	exists, err := s.repo.ExistsOnDate(ctx, date, 0)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check holiday date")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "a holiday already exists on this date")
	}

	holiday := &models.Holiday{
		Date:        date,
		Name:        req.Name,
		Description: req.Description,
		IsRecurring: req.IsRecurring,
		Type:        models.HolidayType(req.Type),
		CreatedBy:   &createdBy,
	}
	if err := s.repo.Create(ctx, holiday); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create holiday")
	}
	s.invalidateCalendarCaches(ctx)
	return holiday, nil
}

// UpdateHoliday modifies an existing holiday.
func (s *CalendarService) UpdateHoliday(ctx context.Context, id int64, req dto.HolidayRequest) (*models.Holiday, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid holiday payload")
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be formatted YYYY-MM-DD")
	}

	holiday, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "holiday not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load holiday")
	}

	exists, err := s.repo.ExistsOnDate(ctx, date, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check holiday date")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "a holiday already exists on this date")
	}

	holiday.Date = date
	holiday.Name = req.Name
	holiday.Description = req.Description
	holiday.IsRecurring = req.IsRecurring
	holiday.Type = models.HolidayType(req.Type)
	if err := s.repo.Update(ctx, holiday); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update holiday")
	}
	s.invalidateCalendarCaches(ctx)
	return holiday, nil
}

// DeleteHoliday removes a holiday.
func (s *CalendarService) DeleteHoliday(ctx context.Context, id int64) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "holiday not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load holiday")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete holiday")
	}
	s.invalidateCalendarCaches(ctx)
	return nil
}

// invalidateCalendarCaches drops cached reports since day classification
// feeds every one of them.
func (s *CalendarService) invalidateCalendarCaches(ctx context.Context) {
	if s.cache == nil {
		return
	}
	for _, pattern := range []string{"presence:*", "anomalies:*", "attendance:*"} {
		if err := s.cache.Invalidate(ctx, pattern); err != nil {
			s.logger.Warn("cache invalidation failed", zap.String("pattern", pattern), zap.Error(err))
		}
	}
}
