package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/senator-investech/access-api/internal/models"
)

func daySummary(badge string, date time.Time, firstHour, firstMin, lastHour, lastMin int, dayType models.DayType) models.PersonDaySummary {
	first := time.Date(date.Year(), date.Month(), date.Day(), firstHour, firstMin, 0, 0, time.UTC)
	last := time.Date(date.Year(), date.Month(), date.Day(), lastHour, lastMin, 0, 0, time.UTC)
	return models.PersonDaySummary{
		Badge:        badge,
		Name:         badge,
		Date:         date,
		FirstEvent:   first,
		LastEvent:    last,
		TotalMinutes: int(last.Sub(first).Minutes()),
		Day:          models.DayClassification{Date: date, Type: dayType},
	}
}

func anomalyTypes(anomalies []models.Anomaly) []models.AnomalyType {
	types := make([]models.AnomalyType, 0, len(anomalies))
	for _, a := range anomalies {
		types = append(types, a.Type)
	}
	return types
}

func TestDetectFullNormalDay(t *testing.T) {
	monday := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	summary := daySummary("1001", monday, 8, 55, 17, 5, models.DayTypeNormal)

	anomalies := Detect(summary)
	// Arrival before 09 and departure after 17 are fine; the 490 minute span
	// still exceeds the gap threshold.
	require.Len(t, anomalies, 1)
	assert.Equal(t, models.AnomalyLongGap, anomalies[0].Type)
	assert.Equal(t, models.SeverityWarning, anomalies[0].Severity)
}

func TestDetectLateArrival(t *testing.T) {
	monday := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	summary := daySummary("1001", monday, 9, 15, 10, 0, models.DayTypeNormal)

	anomalies := Detect(summary)
	types := anomalyTypes(anomalies)
	assert.Contains(t, types, models.AnomalyLateArrival)
	assert.Contains(t, types, models.AnomalyEarlyDeparture)
	assert.NotContains(t, types, models.AnomalyLongGap)
}

func TestDetectLateEarlyIgnoreDayType(t *testing.T) {
	// The arrival and departure cutoffs apply on every day type; only the
	// long gap check is day-type aware.
	monday := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	summary := daySummary("1001", monday, 9, 15, 16, 0, models.DayTypeContinuous)

	types := anomalyTypes(Detect(summary))
	assert.Contains(t, types, models.AnomalyLateArrival)
	assert.Contains(t, types, models.AnomalyEarlyDeparture)
	assert.NotContains(t, types, models.AnomalyLongGap)

	saturday := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)
	types = anomalyTypes(Detect(daySummary("1001", saturday, 10, 0, 11, 0, models.DayTypeWeekend)))
	assert.Contains(t, types, models.AnomalyLateArrival)
	assert.Contains(t, types, models.AnomalyEarlyDeparture)
}

func TestDetectNoLongGapOnContinuousDays(t *testing.T) {
	monday := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	summary := daySummary("1001", monday, 6, 0, 20, 0, models.DayTypeContinuous)

	anomalies := Detect(summary)
	assert.Empty(t, anomalies)
}

func TestDetectAbsences(t *testing.T) {
	monday := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	tuesday := monday.AddDate(0, 0, 1)
	summaries := []models.PersonDaySummary{
		daySummary("1001", monday, 9, 0, 17, 0, models.DayTypeNormal),
		daySummary("1002", monday, 9, 0, 17, 0, models.DayTypeNormal),
		daySummary("1001", tuesday, 9, 0, 17, 0, models.DayTypeNormal),
	}
	expected := map[string]string{"1001": "Ada", "1002": "Jo"}

	classify := func(date time.Time) models.DayClassification {
		return models.DayClassification{Date: date, Type: models.DayTypeNormal}
	}
	anomalies := DetectAbsences(summaries, expected, monday, tuesday, classify)
	require.Len(t, anomalies, 1)
	assert.Equal(t, models.AnomalyAbsence, anomalies[0].Type)
	assert.Equal(t, models.SeverityError, anomalies[0].Severity)
	assert.Equal(t, "1002", anomalies[0].Badge)
	assert.Equal(t, tuesday, anomalies[0].Date)
}

func TestDetectAbsencesSkipsWeekendsAndHolidays(t *testing.T) {
	saturday := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)
	expected := map[string]string{"1001": "Ada"}

	classify := func(date time.Time) models.DayClassification {
		return models.DayClassification{Date: date, Type: models.DayTypeWeekend}
	}
	anomalies := DetectAbsences(nil, expected, saturday, saturday, classify)
	assert.Empty(t, anomalies)
}

func TestBehavioralFlagsAbsentees(t *testing.T) {
	// Monday and Tuesday; Jo only badges on Monday.
	monday := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	tuesday := monday.AddDate(0, 0, 1)
	repo := &accessLogRepoMock{accepted: []models.AccessEvent{
		acceptedEvent("1001", "Ada", monday, 8, 0),
		acceptedEvent("1001", "Ada", monday, 16, 30),
		acceptedEvent("1001", "Ada", tuesday, 8, 0),
		acceptedEvent("1001", "Ada", tuesday, 17, 30),
		acceptedEvent("1002", "Jo", monday, 8, 30),
		acceptedEvent("1002", "Jo", monday, 17, 30),
	}}
	calendar := NewCalendarService(&holidayRepoMock{}, nil, nil, nil, nil, "")
	presence := NewPresenceService(repo, calendar, nil, nil, nil, time.Minute, 14)
	svc := NewAnomalyService(repo, presence, calendar, nil, nil, nil, time.Minute, 7)

	result, cacheHit, err := svc.Behavioral(context.Background(), monday, tuesday, models.EventFilter{})
	require.NoError(t, err)
	assert.False(t, cacheHit)

	var absences []models.Anomaly
	for _, a := range result.Anomalies {
		if a.Type == models.AnomalyAbsence {
			absences = append(absences, a)
		}
	}
	require.Len(t, absences, 1)
	assert.Equal(t, "1002", absences[0].Badge)
	assert.Equal(t, tuesday, absences[0].Date)
}

func TestReportAggregates(t *testing.T) {
	monday := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	repo := &accessLogRepoMock{
		daily: []models.DailyEventCount{
			{Date: monday, Count: 3},
			{Date: monday.AddDate(0, 0, 1), Count: 2},
		},
		byType: []models.EventTypeCount{{RawEventType: "user_rejected", Count: 5}},
		byReader: []models.ReaderCount{
			{Reader: "HQ-Back", Count: 4},
			{Reader: "HQ-Entrance", Count: 1},
		},
		byGroup: []models.GroupCount{{GroupName: "Visitors", Count: 5}},
		recent: []models.AccessEvent{{
			Badge:     "9001",
			FirstName: "Sam",
			EventDate: monday,
			EventTime: time.Date(2000, 1, 1, 7, 45, 0, 0, time.UTC),
			EventType: "user_rejected",
			Reader:    "HQ-Back",
			GroupName: "Visitors",
		}},
	}
	calendar := NewCalendarService(&holidayRepoMock{}, nil, nil, nil, nil, "")
	presence := NewPresenceService(repo, calendar, nil, nil, nil, time.Minute, 14)
	svc := NewAnomalyService(repo, presence, calendar, nil, nil, nil, time.Minute, 7)

	report, cacheHit, err := svc.Report(context.Background(), monday, monday.AddDate(0, 0, 6))
	require.NoError(t, err)
	assert.False(t, cacheHit)
	assert.Equal(t, 5, report.TotalAnomalies)
	require.Len(t, report.RecentAnomalies, 1)
	assert.Equal(t, "9001", report.RecentAnomalies[0].Badge)
	assert.Equal(t, "2024-03-04", report.RecentAnomalies[0].EventDate)
	assert.Equal(t, "07:45:00", report.RecentAnomalies[0].EventTime)
}
