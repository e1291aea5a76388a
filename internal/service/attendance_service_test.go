package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/senator-investech/access-api/internal/dto"
	"github.com/senator-investech/access-api/internal/models"
)

type paramsStoreMock struct {
	params    *models.AttendanceParams
	getErr    error
	saved     interface{}
	savedBy   string
	savedKey  string
}

func (m *paramsStoreMock) Get(ctx context.Context, key string, dest interface{}) error {
	if m.getErr != nil {
		return m.getErr
	}
	if p, ok := dest.(*models.AttendanceParams); ok && m.params != nil {
		*p = *m.params
	}
	return nil
}

func (m *paramsStoreMock) Save(ctx context.Context, key string, value interface{}, updatedBy string) error {
	m.savedKey = key
	m.saved = value
	m.savedBy = updatedBy
	return nil
}

func defaultParams() models.AttendanceParams {
	return models.AttendanceParams{
		WorkStartHour:     8,
		WorkEndHour:       17,
		LunchBreakEnabled: true,
		LunchStartHour:    12,
		LunchEndHour:      14,
		LunchDurationMin:  60,
		ContinuousDays:    "",
	}
}

func newAttendanceFixture(repo *accessLogRepoMock, store *paramsStoreMock) *AttendanceService {
	calendar := NewCalendarService(&holidayRepoMock{}, nil, nil, nil, nil, "")
	return NewAttendanceService(repo, calendar, store, nil, nil, nil, nil, nil, defaultParams())
}

func TestParamsFallsBackToDefaults(t *testing.T) {
	svc := newAttendanceFixture(&accessLogRepoMock{}, &paramsStoreMock{getErr: sql.ErrNoRows})

	params, err := svc.Params(context.Background())
	require.NoError(t, err)
	assert.Equal(t, defaultParams(), params)
}

func TestUpdateParamsRejectsInvertedHours(t *testing.T) {
	store := &paramsStoreMock{}
	svc := newAttendanceFixture(&accessLogRepoMock{}, store)

	_, err := svc.UpdateParams(context.Background(), dto.AttendanceParamsRequest{
		WorkStartHour: 17,
		WorkEndHour:   8,
	}, "admin")
	require.Error(t, err)
	assert.Nil(t, store.saved)
}

func TestUpdateParamsRejectsBadContinuousDays(t *testing.T) {
	store := &paramsStoreMock{}
	svc := newAttendanceFixture(&accessLogRepoMock{}, store)

	_, err := svc.UpdateParams(context.Background(), dto.AttendanceParamsRequest{
		WorkStartHour:  8,
		WorkEndHour:    17,
		ContinuousDays: "0,9",
	}, "admin")
	require.Error(t, err)
	assert.Nil(t, store.saved)
}

func TestUpdateParamsPersists(t *testing.T) {
	store := &paramsStoreMock{}
	svc := newAttendanceFixture(&accessLogRepoMock{}, store)

	params, err := svc.UpdateParams(context.Background(), dto.AttendanceParamsRequest{
		WorkStartHour:      9,
		WorkEndHour:        18,
		LunchBreak:         true,
		LunchStartHour:     12,
		LunchEndHour:       13,
		LunchBreakDuration: 45,
		ContinuousDays:     "6,7",
	}, "admin")
	require.NoError(t, err)
	assert.Equal(t, 45, params.LunchDurationMin)
	assert.Equal(t, "admin", store.savedBy)
	assert.Equal(t, params, store.saved)
}

func TestRecordsDeductsLunchOnNormalDays(t *testing.T) {
	// 2024-03-04 is a Monday. The span covers the lunch window.
	monday := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	repo := &accessLogRepoMock{accepted: []models.AccessEvent{
		acceptedEvent("1001", "Ada", monday, 8, 0),
		acceptedEvent("1001", "Ada", monday, 17, 0),
	}}
	svc := newAttendanceFixture(repo, &paramsStoreMock{getErr: sql.ErrNoRows})

	records, cacheHit, err := svc.Records(context.Background(), monday, monday, models.EventFilter{})
	require.NoError(t, err)
	assert.False(t, cacheHit)
	require.Len(t, records, 1)
	assert.Equal(t, models.DayTypeNormal, records[0].DayStatus)
	assert.Equal(t, 60, records[0].DeductedMinutes)
	assert.Equal(t, 480, records[0].WorkedMinutes)
	assert.Equal(t, 2, records[0].EventCount)
}

func TestRecordsSkipsLunchDeductionOnWeekends(t *testing.T) {
	saturday := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)
	repo := &accessLogRepoMock{accepted: []models.AccessEvent{
		acceptedEvent("1001", "Ada", saturday, 9, 0),
		acceptedEvent("1001", "Ada", saturday, 15, 0),
	}}
	svc := newAttendanceFixture(repo, &paramsStoreMock{getErr: sql.ErrNoRows})

	records, _, err := svc.Records(context.Background(), saturday, saturday, models.EventFilter{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, models.DayTypeWeekend, records[0].DayStatus)
	assert.Equal(t, 0, records[0].DeductedMinutes)
	assert.Equal(t, 360, records[0].WorkedMinutes)
}

func TestRecordsSkipsLunchDeductionOutsideWindow(t *testing.T) {
	// Afternoon only presence never overlaps the lunch window.
	monday := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	repo := &accessLogRepoMock{accepted: []models.AccessEvent{
		acceptedEvent("1001", "Ada", monday, 14, 0),
		acceptedEvent("1001", "Ada", monday, 17, 0),
	}}
	svc := newAttendanceFixture(repo, &paramsStoreMock{getErr: sql.ErrNoRows})

	records, _, err := svc.Records(context.Background(), monday, monday, models.EventFilter{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 0, records[0].DeductedMinutes)
	assert.Equal(t, 180, records[0].WorkedMinutes)
}

func TestRecordsRequiresBothDates(t *testing.T) {
	svc := newAttendanceFixture(&accessLogRepoMock{}, &paramsStoreMock{getErr: sql.ErrNoRows})

	_, _, err := svc.Records(context.Background(), time.Time{}, time.Now(), models.EventFilter{})
	require.Error(t, err)
}

func TestManualEntryInsertsAcceptedEvent(t *testing.T) {
	repo := &accessLogRepoMock{}
	svc := newAttendanceFixture(repo, &paramsStoreMock{})

	event, err := svc.ManualEntry(context.Background(), dto.ManualEntryRequest{
		Badge:     "1001",
		FirstName: "Ada",
		LastName:  "Martin",
		EventDate: "2024-03-04",
		EventTime: "08:45:00",
		Reader:    "HQ-Entrance",
		Reason:    "badge left at home",
	})
	require.NoError(t, err)
	require.NotNil(t, repo.inserted)
	assert.Equal(t, models.EventTypeAccepted, event.EventType)
	assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), event.EventDate)
	assert.Equal(t, "08:45:00", event.EventTime.Format("15:04:05"))
}

func TestManualEntryRejectsMalformedTime(t *testing.T) {
	repo := &accessLogRepoMock{}
	svc := newAttendanceFixture(repo, &paramsStoreMock{})

	_, err := svc.ManualEntry(context.Background(), dto.ManualEntryRequest{
		Badge:     "1001",
		EventDate: "2024-03-04",
		EventTime: "8h45",
		Reader:    "HQ-Entrance",
		Reason:    "badge left at home",
	})
	require.Error(t, err)
	assert.Nil(t, repo.inserted)
}
