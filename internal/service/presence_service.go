package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/senator-investech/access-api/internal/dto"
	"github.com/senator-investech/access-api/internal/models"
	appErrors "github.com/senator-investech/access-api/pkg/errors"
)

// AccessLogRepository describes the event log queries required by the
// presence and anomaly services.
type AccessLogRepository interface {
	QueryAcceptedEvents(ctx context.Context, start, end time.Time, filter models.EventFilter) ([]models.AccessEvent, error)
	QueryAnomalousEvents(ctx context.Context, start, end time.Time, filter models.EventFilter) ([]models.AccessEvent, error)
	CountAnomaliesByDay(ctx context.Context, start, end time.Time) ([]models.DailyEventCount, error)
	CountAnomaliesByEventType(ctx context.Context, start, end time.Time) ([]models.EventTypeCount, error)
	CountAnomaliesByReader(ctx context.Context, start, end time.Time, limit int) ([]models.ReaderCount, error)
	CountAnomaliesByGroup(ctx context.Context, start, end time.Time, limit int) ([]models.GroupCount, error)
	RecentAnomalies(ctx context.Context, start, end time.Time, limit int) ([]models.AccessEvent, error)
	MaxEventDate(ctx context.Context) (time.Time, error)
	InsertEvent(ctx context.Context, event *models.AccessEvent) error
}

// PresenceService computes presence analytics from the badge event log.
type PresenceService struct {
	repo       AccessLogRepository
	calendar   *CalendarService
	cache      *CacheService
	metrics    *MetricsService
	logger     *zap.Logger
	cacheTTL   time.Duration
	windowDays int
}

// NewPresenceService constructs a PresenceService.
func NewPresenceService(repo AccessLogRepository, calendar *CalendarService, cache *CacheService, metrics *MetricsService, logger *zap.Logger, cacheTTL time.Duration, windowDays int) *PresenceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if windowDays <= 0 {
		windowDays = 14
	}
	return &PresenceService{
		repo:       repo,
		calendar:   calendar,
		cache:      cache,
		metrics:    metrics,
		logger:     logger,
		cacheTTL:   cacheTTL,
		windowDays: windowDays,
	}
}

// ResolveWindow fills in missing range bounds. The default window ends at
// the most recent event in the log, not at the wall clock, so a stale import
// still produces a useful report.
func (s *PresenceService) ResolveWindow(ctx context.Context, start, end time.Time) (time.Time, time.Time, error) {
	if !start.IsZero() && !end.IsZero() {
		if end.Before(start) {
			return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrInvalidDateRange, "end date precedes start date")
		}
		return start, end, nil
	}

	anchor, err := s.repo.MaxEventDate(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			anchor = time.Now().UTC().Truncate(24 * time.Hour)
		} else {
			return time.Time{}, time.Time{}, appErrors.Wrap(err, appErrors.ErrUpstreamQuery.Code, appErrors.ErrUpstreamQuery.Status, "failed to anchor reporting window")
		}
	}
	if end.IsZero() {
		end = anchor
	}
	if start.IsZero() {
		start = end.AddDate(0, 0, -(s.windowDays - 1))
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrInvalidDateRange, "end date precedes start date")
	}
	return start, end, nil
}

// Summary builds the presence dashboard payload for the window. The boolean
// indicates whether the payload came from cache.
func (s *PresenceService) Summary(ctx context.Context, start, end time.Time, filter models.EventFilter) (*dto.PresenceSummaryResponse, bool, error) {
	start, end, err := s.ResolveWindow(ctx, start, end)
	if err != nil {
		return nil, false, err
	}

	cacheKey := fmt.Sprintf("presence:summary:%s:%s:%s:%s", start.Format("2006-01-02"), end.Format("2006-01-02"), filter.Department, filter.PersonType)
	var cached dto.PresenceSummaryResponse
	if s.cache != nil {
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err != nil {
			return nil, false, fmt.Errorf("get presence cache: %w", err)
		} else if hit {
			return &cached, true, nil
		}
	}

	queryStart := time.Now()
	events, err := s.repo.QueryAcceptedEvents(ctx, start, end, filter)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrUpstreamQuery.Code, appErrors.ErrUpstreamQuery.Status, "failed to query access events")
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("presence_events", time.Since(queryStart))
	}

	cfg, err := s.calendar.LoadConfig(ctx, start, end)
	if err != nil {
		return nil, false, err
	}

	summaries := s.BuildDaySummaries(events, cfg)
	response := s.assemble(summaries, start, end)

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, response, s.cacheTTL); err != nil {
			s.logger.Warn("cache presence summary", zap.Error(err))
		}
	}
	return response, false, nil
}

// BuildDaySummaries folds accepted events into one summary per person per
// day. Events arrive ordered by badge and timestamp; a day with no events
// yields no summary at all. The span is clamped at zero so a single event
// counts as presence with no duration.
func (s *PresenceService) BuildDaySummaries(events []models.AccessEvent, cfg models.CalendarConfig) []models.PersonDaySummary {
	type key struct {
		badge string
		date  string
	}
	index := make(map[key]int)
	summaries := make([]models.PersonDaySummary, 0, len(events)/4+1)

	for _, event := range events {
		ts := combineEventTime(event)
		k := key{badge: event.Badge, date: event.EventDate.Format("2006-01-02")}
		i, ok := index[k]
		if !ok {
			day := s.calendar.Classify(cfg, event.EventDate)
			summaries = append(summaries, models.PersonDaySummary{
				Badge:      event.Badge,
				Name:       event.FullName(),
				Date:       event.EventDate,
				FirstEvent: ts,
				LastEvent:  ts,
				EventCount: 1,
				Day:        day,
			})
			index[k] = len(summaries) - 1
			continue
		}
		summary := &summaries[i]
		if ts.Before(summary.FirstEvent) {
			summary.FirstEvent = ts
		}
		if ts.After(summary.LastEvent) {
			summary.LastEvent = ts
		}
		summary.EventCount++
	}

	for i := range summaries {
		minutes := int(summaries[i].LastEvent.Sub(summaries[i].FirstEvent).Minutes())
		if minutes < 0 {
			minutes = 0
		}
		summaries[i].TotalMinutes = minutes
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		if !summaries[i].Date.Equal(summaries[j].Date) {
			return summaries[i].Date.Before(summaries[j].Date)
		}
		return summaries[i].Badge < summaries[j].Badge
	})
	return summaries
}

func (s *PresenceService) assemble(summaries []models.PersonDaySummary, start, end time.Time) *dto.PresenceSummaryResponse {
	response := &dto.PresenceSummaryResponse{
		Daily:         []dto.DailyPresence{},
		Weekly:        []dto.WeeklyPresence{},
		Monthly:       []dto.MonthlyPresence{},
		EmployeeStats: []dto.EmployeeStat{},
	}

	type personAgg struct {
		name    string
		days    int
		minutes int
	}
	type dayAgg struct {
		persons int
		minutes int
	}
	persons := map[string]*personAgg{}
	days := map[string]*dayAgg{}
	totalMinutes := 0

	for _, summary := range summaries {
		totalMinutes += summary.TotalMinutes

		p, ok := persons[summary.Badge]
		if !ok {
			p = &personAgg{name: summary.Name}
			persons[summary.Badge] = p
		}
		p.days++
		p.minutes += summary.TotalMinutes

		dk := summary.Date.Format("2006-01-02")
		d, ok := days[dk]
		if !ok {
			d = &dayAgg{}
			days[dk] = d
		}
		d.persons++
		d.minutes += summary.TotalMinutes
	}

	dayKeys := make([]string, 0, len(days))
	for k := range days {
		dayKeys = append(dayKeys, k)
	}
	sort.Strings(dayKeys)
	for _, k := range dayKeys {
		d := days[k]
		avg := 0.0
		if d.persons > 0 {
			avg = roundHours(float64(d.minutes) / float64(d.persons) / 60)
		}
		response.Daily = append(response.Daily, dto.DailyPresence{Date: k, Count: d.persons, Duration: avg})
	}

	for _, bucket := range RollupWeekly(summaries) {
		response.Weekly = append(response.Weekly, dto.WeeklyPresence{
			Day:         fmt.Sprintf("Semaine %d", bucket.Week),
			Count:       bucket.PersonCount,
			AvgDuration: roundHours(bucket.AvgDurationMinutes / 60),
		})
	}
	for _, bucket := range RollupMonthly(summaries) {
		response.Monthly = append(response.Monthly, dto.MonthlyPresence{
			Week:        fmt.Sprintf("%d-%d", bucket.Year, int(bucket.Month)),
			Count:       bucket.PersonCount,
			AvgDuration: roundHours(bucket.AvgDurationMinutes / 60),
		})
	}

	badges := make([]string, 0, len(persons))
	for badge := range persons {
		badges = append(badges, badge)
	}
	sort.Slice(badges, func(i, j int) bool {
		pi, pj := persons[badges[i]], persons[badges[j]]
		if pi.minutes != pj.minutes {
			return pi.minutes > pj.minutes
		}
		return badges[i] < badges[j]
	})
	if len(badges) > 20 {
		badges = badges[:20]
	}
	for _, badge := range badges {
		p := persons[badge]
		response.EmployeeStats = append(response.EmployeeStats, dto.EmployeeStat{
			Badge:       badge,
			Name:        p.name,
			DaysPresent: p.days,
			TotalHours:  roundHours(float64(p.minutes) / 60),
		})
	}

	windowDays := int(end.Sub(start).Hours()/24) + 1
	if windowDays < 1 {
		windowDays = 1
	}
	totals := dto.PresenceTotals{
		TotalEmployees: len(persons),
		TotalHours:     roundHours(float64(totalMinutes) / 60),
		TotalDays:      len(days),
	}
	if len(days) > 0 {
		totals.AvgDailyHours = roundHours(float64(totalMinutes) / float64(len(days)) / 60)
		sumPersons := 0
		for _, d := range days {
			sumPersons += d.persons
		}
		totals.AvgEmployeePerDay = roundHours(float64(sumPersons) / float64(len(days)))
	}
	if len(persons) > 0 && windowDays > 0 {
		presentDays := 0
		for _, p := range persons {
			presentDays += p.days
		}
		totals.AttendanceRate = roundHours(float64(presentDays) / float64(len(persons)*windowDays) * 100)
	}
	response.Summary = totals
	return response
}

// RollupWeekly groups day summaries by ISO week. Weeks with no presence
// produce no bucket.
func RollupWeekly(summaries []models.PersonDaySummary) []models.WeeklyBucket {
	type key struct{ year, week int }
	type agg struct {
		persons map[string]bool
		dates   map[string]bool
		rows    int
		minutes int
	}
	buckets := map[key]*agg{}

	for _, summary := range summaries {
		year, week := summary.Date.ISOWeek()
		k := key{year, week}
		b, ok := buckets[k]
		if !ok {
			b = &agg{persons: map[string]bool{}, dates: map[string]bool{}}
			buckets[k] = b
		}
		b.persons[summary.Badge] = true
		b.dates[summary.Date.Format("2006-01-02")] = true
		b.rows++
		b.minutes += summary.TotalMinutes
	}

	keys := make([]key, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].year != keys[j].year {
			return keys[i].year < keys[j].year
		}
		return keys[i].week < keys[j].week
	})

	result := make([]models.WeeklyBucket, 0, len(keys))
	for _, k := range keys {
		b := buckets[k]
		// The average stays per person-day row; DayCount is distinct dates.
		avg := 0.0
		if b.rows > 0 {
			avg = float64(b.minutes) / float64(b.rows)
		}
		result = append(result, models.WeeklyBucket{
			Year:               k.year,
			Week:               k.week,
			PersonCount:        len(b.persons),
			DayCount:           len(b.dates),
			AvgDurationMinutes: avg,
		})
	}
	return result
}

// RollupMonthly groups day summaries by calendar month.
func RollupMonthly(summaries []models.PersonDaySummary) []models.MonthlyBucket {
	type key struct {
		year  int
		month time.Month
	}
	type agg struct {
		persons map[string]bool
		dates   map[string]bool
		rows    int
		minutes int
	}
	buckets := map[key]*agg{}

	for _, summary := range summaries {
		k := key{summary.Date.Year(), summary.Date.Month()}
		b, ok := buckets[k]
		if !ok {
			b = &agg{persons: map[string]bool{}, dates: map[string]bool{}}
			buckets[k] = b
		}
		b.persons[summary.Badge] = true
		b.dates[summary.Date.Format("2006-01-02")] = true
		b.rows++
		b.minutes += summary.TotalMinutes
	}

	keys := make([]key, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].year != keys[j].year {
			return keys[i].year < keys[j].year
		}
		return keys[i].month < keys[j].month
	})

	result := make([]models.MonthlyBucket, 0, len(keys))
	for _, k := range keys {
		b := buckets[k]
		avg := 0.0
		if b.rows > 0 {
			avg = float64(b.minutes) / float64(b.rows)
		}
		result = append(result, models.MonthlyBucket{
			Year:               k.year,
			Month:              k.month,
			PersonCount:        len(b.persons),
			DayCount:           len(b.dates),
			AvgDurationMinutes: avg,
		})
	}
	return result
}

// combineEventTime merges the DATE and TIME columns into one timestamp.
func combineEventTime(event models.AccessEvent) time.Time {
	d := event.EventDate
	t := event.EventTime
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
}

func roundHours(v float64) float64 {
	return math.Round(v*100) / 100
}
