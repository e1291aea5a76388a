package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/senator-investech/access-api/internal/models"
)

type accessLogRepoMock struct {
	accepted  []models.AccessEvent
	anomalous []models.AccessEvent
	daily     []models.DailyEventCount
	byType    []models.EventTypeCount
	byReader  []models.ReaderCount
	byGroup   []models.GroupCount
	recent    []models.AccessEvent
	maxDate   time.Time
	maxErr    error
	inserted  *models.AccessEvent
}

func (m *accessLogRepoMock) QueryAcceptedEvents(ctx context.Context, start, end time.Time, filter models.EventFilter) ([]models.AccessEvent, error) {
	return m.accepted, nil
}

func (m *accessLogRepoMock) QueryAnomalousEvents(ctx context.Context, start, end time.Time, filter models.EventFilter) ([]models.AccessEvent, error) {
	return m.anomalous, nil
}

func (m *accessLogRepoMock) CountAnomaliesByDay(ctx context.Context, start, end time.Time) ([]models.DailyEventCount, error) {
	return m.daily, nil
}

func (m *accessLogRepoMock) CountAnomaliesByEventType(ctx context.Context, start, end time.Time) ([]models.EventTypeCount, error) {
	return m.byType, nil
}

func (m *accessLogRepoMock) CountAnomaliesByReader(ctx context.Context, start, end time.Time, limit int) ([]models.ReaderCount, error) {
	return m.byReader, nil
}

func (m *accessLogRepoMock) CountAnomaliesByGroup(ctx context.Context, start, end time.Time, limit int) ([]models.GroupCount, error) {
	return m.byGroup, nil
}

func (m *accessLogRepoMock) RecentAnomalies(ctx context.Context, start, end time.Time, limit int) ([]models.AccessEvent, error) {
	return m.recent, nil
}

func (m *accessLogRepoMock) MaxEventDate(ctx context.Context) (time.Time, error) {
	if m.maxErr != nil {
		return time.Time{}, m.maxErr
	}
	return m.maxDate, nil
}

func (m *accessLogRepoMock) InsertEvent(ctx context.Context, event *models.AccessEvent) error {
	m.inserted = event
	return nil
}

func acceptedEvent(badge, name string, date time.Time, hour, minute int) models.AccessEvent {
	return models.AccessEvent{
		Badge:     badge,
		FirstName: name,
		EventDate: date,
		EventTime: time.Date(2000, 1, 1, hour, minute, 0, 0, time.UTC),
		EventType: models.EventTypeAccepted,
		Reader:    "HQ-Entrance",
		GroupName: "Staff",
	}
}

func newPresenceFixture(repo *accessLogRepoMock) *PresenceService {
	calendar := NewCalendarService(&holidayRepoMock{}, nil, nil, nil, nil, "")
	return NewPresenceService(repo, calendar, nil, nil, nil, time.Minute, 14)
}

func TestBuildDaySummariesSpan(t *testing.T) {
	// 2024-03-04 is a Monday.
	day := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	repo := &accessLogRepoMock{}
	svc := newPresenceFixture(repo)
	cfg := models.EmptyCalendarConfig()

	events := []models.AccessEvent{
		acceptedEvent("1001", "Ada", day, 8, 55),
		acceptedEvent("1001", "Ada", day, 12, 30),
		acceptedEvent("1001", "Ada", day, 17, 5),
	}

	summaries := svc.BuildDaySummaries(events, cfg)
	require.Len(t, summaries, 1)
	assert.Equal(t, 490, summaries[0].TotalMinutes)
	assert.Equal(t, 3, summaries[0].EventCount)
	assert.Equal(t, models.DayTypeNormal, summaries[0].Day.Type)
}

func TestBuildDaySummariesSingleEventZeroMinutes(t *testing.T) {
	day := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	svc := newPresenceFixture(&accessLogRepoMock{})

	summaries := svc.BuildDaySummaries([]models.AccessEvent{
		acceptedEvent("1002", "Jo", day, 10, 0),
	}, models.EmptyCalendarConfig())
	require.Len(t, summaries, 1)
	assert.Equal(t, 0, summaries[0].TotalMinutes)
	assert.Equal(t, 1, summaries[0].EventCount)
}

func TestBuildDaySummariesGroupsByBadgeAndDate(t *testing.T) {
	monday := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	tuesday := monday.AddDate(0, 0, 1)
	svc := newPresenceFixture(&accessLogRepoMock{})

	summaries := svc.BuildDaySummaries([]models.AccessEvent{
		acceptedEvent("1001", "Ada", monday, 9, 0),
		acceptedEvent("1001", "Ada", tuesday, 9, 0),
		acceptedEvent("1002", "Jo", monday, 8, 0),
	}, models.EmptyCalendarConfig())
	require.Len(t, summaries, 3)
	// Sorted by date then badge.
	assert.Equal(t, "1001", summaries[0].Badge)
	assert.Equal(t, "1002", summaries[1].Badge)
	assert.True(t, summaries[2].Date.After(summaries[1].Date))
}

func TestResolveWindowAnchorsOnLatestEvent(t *testing.T) {
	anchor := time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC)
	svc := newPresenceFixture(&accessLogRepoMock{maxDate: anchor})

	start, end, err := svc.ResolveWindow(context.Background(), time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, anchor, end)
	assert.Equal(t, anchor.AddDate(0, 0, -13), start)
}

func TestResolveWindowEmptyLogFallsBackToToday(t *testing.T) {
	svc := newPresenceFixture(&accessLogRepoMock{maxErr: sql.ErrNoRows})

	start, end, err := svc.ResolveWindow(context.Background(), time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.False(t, end.IsZero())
	assert.True(t, start.Before(end))
}

func TestResolveWindowRejectsInvertedRange(t *testing.T) {
	svc := newPresenceFixture(&accessLogRepoMock{})

	_, _, err := svc.ResolveWindow(context.Background(),
		time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	require.Error(t, err)
}

func TestSummaryTotals(t *testing.T) {
	monday := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	repo := &accessLogRepoMock{accepted: []models.AccessEvent{
		acceptedEvent("1001", "Ada", monday, 8, 0),
		acceptedEvent("1001", "Ada", monday, 16, 0),
		acceptedEvent("1002", "Jo", monday, 9, 0),
		acceptedEvent("1002", "Jo", monday, 13, 0),
	}}
	svc := newPresenceFixture(repo)

	summary, cacheHit, err := svc.Summary(context.Background(), monday, monday, models.EventFilter{})
	require.NoError(t, err)
	assert.False(t, cacheHit)
	assert.Equal(t, 2, summary.Summary.TotalEmployees)
	assert.Equal(t, 1, summary.Summary.TotalDays)
	assert.InDelta(t, 12.0, summary.Summary.TotalHours, 0.01)
	assert.InDelta(t, 100.0, summary.Summary.AttendanceRate, 0.01)
	require.Len(t, summary.Daily, 1)
	assert.Equal(t, 2, summary.Daily[0].Count)
	require.Len(t, summary.EmployeeStats, 2)
	// Ordered by total time, descending.
	assert.Equal(t, "1001", summary.EmployeeStats[0].Badge)
}

func TestRollupWeekly(t *testing.T) {
	week1 := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	week2 := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)
	summaries := []models.PersonDaySummary{
		{Badge: "1001", Date: week1, TotalMinutes: 480},
		{Badge: "1002", Date: week1, TotalMinutes: 240},
		{Badge: "1001", Date: week2, TotalMinutes: 300},
	}

	buckets := RollupWeekly(summaries)
	require.Len(t, buckets, 2)
	assert.Equal(t, 2, buckets[0].PersonCount)
	// Two people on the same Monday is one distinct date.
	assert.Equal(t, 1, buckets[0].DayCount)
	assert.InDelta(t, 360.0, buckets[0].AvgDurationMinutes, 0.01)
	assert.Equal(t, 1, buckets[1].PersonCount)
	assert.Equal(t, 1, buckets[1].DayCount)
}

func TestRollupWeeklyCountsDistinctDates(t *testing.T) {
	monday := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	wednesday := monday.AddDate(0, 0, 2)
	summaries := []models.PersonDaySummary{
		{Badge: "1001", Date: monday, TotalMinutes: 480},
		{Badge: "1002", Date: monday, TotalMinutes: 240},
		{Badge: "1001", Date: wednesday, TotalMinutes: 300},
	}

	buckets := RollupWeekly(summaries)
	require.Len(t, buckets, 1)
	assert.Equal(t, 2, buckets[0].PersonCount)
	assert.Equal(t, 2, buckets[0].DayCount)
	// Average stays per person-day row, not per date.
	assert.InDelta(t, 340.0, buckets[0].AvgDurationMinutes, 0.01)
}

func TestRollupMonthly(t *testing.T) {
	march := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	april := time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC)
	summaries := []models.PersonDaySummary{
		{Badge: "1001", Date: march, TotalMinutes: 400},
		{Badge: "1001", Date: april, TotalMinutes: 200},
		{Badge: "1002", Date: april, TotalMinutes: 100},
	}

	buckets := RollupMonthly(summaries)
	require.Len(t, buckets, 2)
	assert.Equal(t, time.March, buckets[0].Month)
	assert.Equal(t, 1, buckets[0].PersonCount)
	assert.Equal(t, 1, buckets[0].DayCount)
	assert.Equal(t, time.April, buckets[1].Month)
	assert.Equal(t, 2, buckets[1].PersonCount)
	// Both April rows share one date.
	assert.Equal(t, 1, buckets[1].DayCount)
	assert.InDelta(t, 150.0, buckets[1].AvgDurationMinutes, 0.01)
}
