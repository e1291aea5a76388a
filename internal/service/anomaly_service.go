package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/senator-investech/access-api/internal/dto"
	"github.com/senator-investech/access-api/internal/models"
	appErrors "github.com/senator-investech/access-api/pkg/errors"
)

// Detection thresholds. Late and early checks compare the raw hour of the
// event, not minutes, matching the behaviour the dashboards were built on.
const (
	lateArrivalHour    = 9
	earlyDepartureHour = 17
	maxSpanMinutes     = 120
)

// AnomalyService flags attendance deviations and summarises rejected badge
// events.
type AnomalyService struct {
	repo       AccessLogRepository
	presence   *PresenceService
	calendar   *CalendarService
	cache      *CacheService
	metrics    *MetricsService
	logger     *zap.Logger
	cacheTTL   time.Duration
	windowDays int
}

// NewAnomalyService constructs an AnomalyService.
func NewAnomalyService(repo AccessLogRepository, presence *PresenceService, calendar *CalendarService, cache *CacheService, metrics *MetricsService, logger *zap.Logger, cacheTTL time.Duration, windowDays int) *AnomalyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if windowDays <= 0 {
		windowDays = 7
	}
	return &AnomalyService{
		repo:       repo,
		presence:   presence,
		calendar:   calendar,
		cache:      cache,
		metrics:    metrics,
		logger:     logger,
		cacheTTL:   cacheTTL,
		windowDays: windowDays,
	}
}

// Detect inspects one person's day summary and returns the deviations found.
// Late and early checks apply to every day; only the long gap check skips
// continuous days where a large span is expected.
func Detect(summary models.PersonDaySummary) []models.Anomaly {
	var anomalies []models.Anomaly

	if summary.FirstEvent.Hour() >= lateArrivalHour {
		anomalies = append(anomalies, models.Anomaly{
			Type:        models.AnomalyLateArrival,
			Severity:    models.SeverityWarning,
			Badge:       summary.Badge,
			Name:        summary.Name,
			Date:        summary.Date,
			Description: fmt.Sprintf("first badge at %s", summary.FirstEvent.Format("15:04")),
		})
	}
	if summary.LastEvent.Hour() < earlyDepartureHour {
		anomalies = append(anomalies, models.Anomaly{
			Type:        models.AnomalyEarlyDeparture,
			Severity:    models.SeverityWarning,
			Badge:       summary.Badge,
			Name:        summary.Name,
			Date:        summary.Date,
			Description: fmt.Sprintf("last badge at %s", summary.LastEvent.Format("15:04")),
		})
	}

	if summary.TotalMinutes > maxSpanMinutes && summary.Day.Type != models.DayTypeContinuous {
		anomalies = append(anomalies, models.Anomaly{
			Type:        models.AnomalyLongGap,
			Severity:    models.SeverityWarning,
			Badge:       summary.Badge,
			Name:        summary.Name,
			Date:        summary.Date,
			Description: fmt.Sprintf("presence span of %d minutes", summary.TotalMinutes),
		})
	}

	return anomalies
}

// DetectAbsences emits an error level anomaly for each expected person and
// working day with no badge activity at all. Weekends and holidays never
// count as absences.
func DetectAbsences(summaries []models.PersonDaySummary, expected map[string]string, start, end time.Time, classify func(time.Time) models.DayClassification) []models.Anomaly {
	present := map[string]bool{}
	for _, summary := range summaries {
		present[summary.Badge+"|"+summary.Date.Format("2006-01-02")] = true
	}

	var anomalies []models.Anomaly
	for date := start; !date.After(end); date = date.AddDate(0, 0, 1) {
		day := classify(date)
		if day.Type != models.DayTypeNormal && day.Type != models.DayTypeContinuous {
			continue
		}
		for badge, name := range expected {
			if present[badge+"|"+date.Format("2006-01-02")] {
				continue
			}
			anomalies = append(anomalies, models.Anomaly{
				Type:        models.AnomalyAbsence,
				Severity:    models.SeverityError,
				Badge:       badge,
				Name:        name,
				Date:        date,
				Description: "no badge activity on a working day",
			})
		}
	}
	return anomalies
}

// resolveWindow defaults missing bounds to the trailing window anchored on
// the most recent event date.
func (s *AnomalyService) resolveWindow(ctx context.Context, start, end time.Time) (time.Time, time.Time, error) {
	if start.IsZero() || end.IsZero() {
		if end.IsZero() {
			anchor, err := s.repo.MaxEventDate(ctx)
			if err != nil {
				if !errors.Is(err, sql.ErrNoRows) {
					return time.Time{}, time.Time{}, appErrors.Wrap(err, appErrors.ErrUpstreamQuery.Code, appErrors.ErrUpstreamQuery.Status, "failed to anchor reporting window")
				}
				anchor = time.Now().UTC().Truncate(24 * time.Hour)
			}
			end = anchor
		}
		if start.IsZero() {
			start = end.AddDate(0, 0, -(s.windowDays - 1))
		}
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrInvalidDateRange, "end date precedes start date")
	}
	return start, end, nil
}

// Behavioral computes attendance deviations over the window for the
// /presence/anomalies report. The boolean reports a cache hit.
func (s *AnomalyService) Behavioral(ctx context.Context, start, end time.Time, filter models.EventFilter) (*dto.BehaviorAnomalyResponse, bool, error) {
	start, end, err := s.resolveWindow(ctx, start, end)
	if err != nil {
		return nil, false, err
	}

	cacheKey := fmt.Sprintf("anomalies:behavior:%s:%s:%s:%s", start.Format("2006-01-02"), end.Format("2006-01-02"), filter.Department, filter.PersonType)
	var cached dto.BehaviorAnomalyResponse
	if s.cache != nil {
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err != nil {
			return nil, false, fmt.Errorf("get behavior anomaly cache: %w", err)
		} else if hit {
			return &cached, true, nil
		}
	}

	events, err := s.repo.QueryAcceptedEvents(ctx, start, end, filter)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrUpstreamQuery.Code, appErrors.ErrUpstreamQuery.Status, "failed to query access events")
	}

	cfg, err := s.calendar.LoadConfig(ctx, start, end)
	if err != nil {
		return nil, false, err
	}

	summaries := s.presence.BuildDaySummaries(events, cfg)

	anomalies := make([]models.Anomaly, 0)
	for _, summary := range summaries {
		anomalies = append(anomalies, Detect(summary)...)
	}

	// Everyone seen at least once in the window is expected on every
	// working day of that window.
	expected := map[string]string{}
	for _, summary := range summaries {
		expected[summary.Badge] = summary.Name
	}
	anomalies = append(anomalies, DetectAbsences(summaries, expected, start, end, func(date time.Time) models.DayClassification {
		return s.calendar.Classify(cfg, date)
	})...)

	response := &dto.BehaviorAnomalyResponse{
		TotalAnomalies: len(anomalies),
		Anomalies:      anomalies,
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, response, s.cacheTTL); err != nil {
			s.logger.Warn("cache behavior anomalies", zap.Error(err))
		}
	}
	return response, false, nil
}

// Report summarises rejected badge events for the window: totals, per day,
// per raw event type, top readers, top groups and the latest occurrences.
func (s *AnomalyService) Report(ctx context.Context, start, end time.Time) (*dto.AnomalyReportResponse, bool, error) {
	start, end, err := s.resolveWindow(ctx, start, end)
	if err != nil {
		return nil, false, err
	}

	cacheKey := fmt.Sprintf("anomalies:report:%s:%s", start.Format("2006-01-02"), end.Format("2006-01-02"))
	var cached dto.AnomalyReportResponse
	if s.cache != nil {
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err != nil {
			return nil, false, fmt.Errorf("get anomaly report cache: %w", err)
		} else if hit {
			return &cached, true, nil
		}
	}

	queryStart := time.Now()
	daily, err := s.repo.CountAnomaliesByDay(ctx, start, end)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrUpstreamQuery.Code, appErrors.ErrUpstreamQuery.Status, "failed to count anomalies by day")
	}
	byType, err := s.repo.CountAnomaliesByEventType(ctx, start, end)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrUpstreamQuery.Code, appErrors.ErrUpstreamQuery.Status, "failed to count anomalies by type")
	}
	byReader, err := s.repo.CountAnomaliesByReader(ctx, start, end, 10)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrUpstreamQuery.Code, appErrors.ErrUpstreamQuery.Status, "failed to count anomalies by reader")
	}
	byGroup, err := s.repo.CountAnomaliesByGroup(ctx, start, end, 10)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrUpstreamQuery.Code, appErrors.ErrUpstreamQuery.Status, "failed to count anomalies by group")
	}
	recent, err := s.repo.RecentAnomalies(ctx, start, end, 20)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrUpstreamQuery.Code, appErrors.ErrUpstreamQuery.Status, "failed to load recent anomalies")
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("anomaly_report", time.Since(queryStart))
	}

	total := 0
	for _, d := range daily {
		total += d.Count
	}

	response := &dto.AnomalyReportResponse{
		TotalAnomalies:  total,
		DailyAnomalies:  daily,
		ByEventType:     byType,
		ByReader:        byReader,
		ByGroup:         byGroup,
		RecentAnomalies: make([]dto.RecentAnomaly, 0, len(recent)),
	}
	for _, event := range recent {
		response.RecentAnomalies = append(response.RecentAnomalies, dto.RecentAnomaly{
			Badge:     event.Badge,
			Name:      event.FullName(),
			EventType: event.EventType,
			Reader:    event.Reader,
			Group:     event.GroupName,
			EventDate: event.EventDate.Format("2006-01-02"),
			EventTime: event.EventTime.Format("15:04:05"),
		})
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, response, s.cacheTTL); err != nil {
			s.logger.Warn("cache anomaly report", zap.Error(err))
		}
	}
	return response, false, nil
}
