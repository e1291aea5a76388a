package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/senator-investech/access-api/internal/dto"
	"github.com/senator-investech/access-api/internal/models"
	"github.com/senator-investech/access-api/internal/repository"
	appErrors "github.com/senator-investech/access-api/pkg/errors"
)

type attendanceSettingsRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Save(ctx context.Context, key string, value interface{}, updatedBy string) error
}

type personResolver interface {
	ResolvePersonType(ctx context.Context, badge string) (string, error)
}

// AttendanceService builds per person attendance records with working time
// rules applied, and manages the attendance parameters.
type AttendanceService struct {
	repo      AccessLogRepository
	calendar  *CalendarService
	settings  attendanceSettingsRepository
	persons   personResolver
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	defaults  models.AttendanceParams
}

// NewAttendanceService constructs an AttendanceService. defaults apply when
// no parameters have been saved yet.
func NewAttendanceService(repo AccessLogRepository, calendar *CalendarService, settings attendanceSettingsRepository, persons personResolver, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, defaults models.AttendanceParams) *AttendanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AttendanceService{
		repo:      repo,
		calendar:  calendar,
		settings:  settings,
		persons:   persons,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		defaults:  defaults,
	}
}

// Params returns the stored attendance parameters, falling back to defaults
// when none were saved.
func (s *AttendanceService) Params(ctx context.Context) (models.AttendanceParams, error) {
	var params models.AttendanceParams
	if err := s.settings.Get(ctx, repository.SettingsKeyAttendance, &params); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s.defaults, nil
		}
		return models.AttendanceParams{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance parameters")
	}
	return params, nil
}

// UpdateParams validates and stores new attendance parameters.
func (s *AttendanceService) UpdateParams(ctx context.Context, req dto.AttendanceParamsRequest, updatedBy string) (models.AttendanceParams, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.AttendanceParams{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance parameters")
	}
	if req.WorkEndHour <= req.WorkStartHour {
		return models.AttendanceParams{}, appErrors.Clone(appErrors.ErrValidation, "work end hour must come after start hour")
	}
	if req.LunchBreak && req.LunchEndHour <= req.LunchStartHour {
		return models.AttendanceParams{}, appErrors.Clone(appErrors.ErrValidation, "lunch end hour must come after start hour")
	}
	if _, err := ParseContinuousDays(req.ContinuousDays); err != nil {
		return models.AttendanceParams{}, appErrors.Clone(appErrors.ErrValidation, "continuous days must be comma separated day numbers between 1 and 7")
	}

	params := models.AttendanceParams{
		WorkStartHour:     req.WorkStartHour,
		WorkEndHour:       req.WorkEndHour,
		LunchBreakEnabled: req.LunchBreak,
		LunchStartHour:    req.LunchStartHour,
		LunchEndHour:      req.LunchEndHour,
		LunchDurationMin:  req.LunchBreakDuration,
		ContinuousDays:    req.ContinuousDays,
	}
	if err := s.settings.Save(ctx, repository.SettingsKeyAttendance, params, updatedBy); err != nil {
		return models.AttendanceParams{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save attendance parameters")
	}

	if s.cache != nil {
		for _, pattern := range []string{"presence:*", "anomalies:*", "attendance:*"} {
			if err := s.cache.Invalidate(ctx, pattern); err != nil {
				s.logger.Warn("cache invalidation failed", zap.String("pattern", pattern), zap.Error(err))
			}
		}
	}
	return params, nil
}

// Records builds the attendance sheet for the window, one row per person per
// day with the lunch break deducted on normal working days.
func (s *AttendanceService) Records(ctx context.Context, start, end time.Time, filter models.EventFilter) ([]models.AttendanceRecord, bool, error) {
	if start.IsZero() || end.IsZero() {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "start and end dates are required")
	}
	if end.Before(start) {
		return nil, false, appErrors.Clone(appErrors.ErrInvalidDateRange, "end date precedes start date")
	}

	cacheKey := fmt.Sprintf("attendance:records:%s:%s:%s:%s", start.Format("2006-01-02"), end.Format("2006-01-02"), filter.Department, filter.PersonType)
	var cached []models.AttendanceRecord
	if s.cache != nil {
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err != nil {
			return nil, false, fmt.Errorf("get attendance cache: %w", err)
		} else if hit {
			return cached, true, nil
		}
	}

	queryStart := time.Now()
	events, err := s.repo.QueryAcceptedEvents(ctx, start, end, filter)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrUpstreamQuery.Code, appErrors.ErrUpstreamQuery.Status, "failed to query access events")
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("attendance_events", time.Since(queryStart))
	}

	cfg, err := s.calendar.LoadConfig(ctx, start, end)
	if err != nil {
		return nil, false, err
	}
	params, err := s.Params(ctx)
	if err != nil {
		return nil, false, err
	}

	records := s.buildRecords(ctx, events, cfg, params)

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, records, 0); err != nil {
			s.logger.Warn("cache attendance records", zap.Error(err))
		}
	}
	return records, false, nil
}

func (s *AttendanceService) buildRecords(ctx context.Context, events []models.AccessEvent, cfg models.CalendarConfig, params models.AttendanceParams) []models.AttendanceRecord {
	type key struct {
		badge string
		date  string
	}
	index := make(map[key]int)
	readerSets := make(map[key]map[string]bool)
	records := make([]models.AttendanceRecord, 0, len(events)/4+1)

	for _, event := range events {
		ts := combineEventTime(event)
		k := key{badge: event.Badge, date: event.EventDate.Format("2006-01-02")}
		i, ok := index[k]
		if !ok {
			day := s.calendar.Classify(cfg, event.EventDate)
			records = append(records, models.AttendanceRecord{
				Badge:     event.Badge,
				Name:      event.FullName(),
				Date:      event.EventDate,
				Arrival:   ts,
				Departure: ts,
				DayStatus: day.Type,
			})
			index[k] = len(records) - 1
			readerSets[k] = map[string]bool{}
			i = len(records) - 1
		}
		record := &records[i]
		if ts.Before(record.Arrival) {
			record.Arrival = ts
		}
		if ts.After(record.Departure) {
			record.Departure = ts
		}
		record.EventCount++
		if event.Reader != "" {
			readerSets[k][event.Reader] = true
		}
	}

	for k, i := range index {
		record := &records[i]

		readers := make([]string, 0, len(readerSets[k]))
		for reader := range readerSets[k] {
			readers = append(readers, reader)
		}
		sort.Strings(readers)
		record.Readers = readers

		minutes := int(record.Departure.Sub(record.Arrival).Minutes())
		if minutes < 0 {
			minutes = 0
		}
		deducted := 0
		// The lunch deduction only applies to regular working days where
		// the presence span covers the lunch window.
		if params.LunchBreakEnabled && record.DayStatus == models.DayTypeNormal {
			if record.Arrival.Hour() < params.LunchEndHour && record.Departure.Hour() >= params.LunchStartHour && minutes > params.LunchDurationMin {
				deducted = params.LunchDurationMin
			}
		}
		record.WorkedMinutes = minutes - deducted
		record.DeductedMinutes = deducted

		if s.persons != nil {
			personType, err := s.persons.ResolvePersonType(ctx, record.Badge)
			if err != nil {
				s.logger.Warn("resolve person type failed", zap.String("badge", record.Badge), zap.Error(err))
				personType = models.PersonTypeUnknown
			}
			record.PersonType = personType
		}
	}

	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].Date.Equal(records[j].Date) {
			return records[i].Date.Before(records[j].Date)
		}
		return records[i].Badge < records[j].Badge
	})
	return records
}

// ManualEntry appends a corrective badge event on behalf of a person.
func (s *AttendanceService) ManualEntry(ctx context.Context, req dto.ManualEntryRequest) (*models.AccessEvent, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid manual entry payload")
	}
	date, err := time.Parse("2006-01-02", req.EventDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "event date must be formatted YYYY-MM-DD")
	}
	clock, err := time.Parse("15:04:05", req.EventTime)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "event time must be formatted HH:MM:SS")
	}

	event := &models.AccessEvent{
		Badge:     req.Badge,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		EventDate: date,
		EventTime: clock,
		EventType: models.EventTypeAccepted,
		Reader:    req.Reader,
		GroupName: req.Group,
	}
	if err := s.repo.InsertEvent(ctx, event); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record manual entry")
	}

	if s.cache != nil {
		for _, pattern := range []string{"presence:*", "anomalies:*", "attendance:*"} {
			if err := s.cache.Invalidate(ctx, pattern); err != nil {
				s.logger.Warn("cache invalidation failed", zap.String("pattern", pattern), zap.Error(err))
			}
		}
	}
	return event, nil
}
