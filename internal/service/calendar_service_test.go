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

type holidayRepoMock struct {
	holidays  []models.Holiday
	listErr   error
	existing  bool
	created   *models.Holiday
	deletedID int64
}

func (m *holidayRepoMock) List(ctx context.Context, filter models.HolidayFilter) ([]models.Holiday, error) {
	return m.holidays, m.listErr
}

func (m *holidayRepoMock) FindByID(ctx context.Context, id int64) (*models.Holiday, error) {
	for i := range m.holidays {
		if m.holidays[i].ID == id {
			return &m.holidays[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *holidayRepoMock) ExistsOnDate(ctx context.Context, date time.Time, excludeID int64) (bool, error) {
	return m.existing, nil
}

func (m *holidayRepoMock) Create(ctx context.Context, holiday *models.Holiday) error {
	holiday.ID = 1
	m.created = holiday
	return nil
}

func (m *holidayRepoMock) Update(ctx context.Context, holiday *models.Holiday) error {
	return nil
}

func (m *holidayRepoMock) Delete(ctx context.Context, id int64) error {
	m.deletedID = id
	return nil
}

type settingsRepoMock struct {
	params *models.AttendanceParams
	err    error
}

func (m *settingsRepoMock) Get(ctx context.Context, key string, dest interface{}) error {
	if m.err != nil {
		return m.err
	}
	if p, ok := dest.(*models.AttendanceParams); ok && m.params != nil {
		*p = *m.params
	}
	return nil
}

func TestClassifyPrecedence(t *testing.T) {
	svc := NewCalendarService(&holidayRepoMock{}, nil, nil, nil, nil, "")

	cfg := models.EmptyCalendarConfig()
	cfg.Holidays["2024-05-04"] = "Bridge Day"
	cfg.RecurringHolidays["01-01"] = "New Year"
	cfg.ContinuousDays[time.Friday] = true

	// 2024-05-04 is a Saturday but the exact holiday wins.
	day := svc.Classify(cfg, time.Date(2024, 5, 4, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, models.DayTypeHoliday, day.Type)
	assert.Equal(t, "Bridge Day", day.HolidayName)

	day = svc.Classify(cfg, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, models.DayTypeHoliday, day.Type)
	assert.Equal(t, "New Year", day.HolidayName)

	day = svc.Classify(cfg, time.Date(2024, 5, 5, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, models.DayTypeWeekend, day.Type)

	day = svc.Classify(cfg, time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, models.DayTypeContinuous, day.Type)

	day = svc.Classify(cfg, time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, models.DayTypeNormal, day.Type)
}

func TestParseContinuousDays(t *testing.T) {
	days, err := ParseContinuousDays("1,4")
	require.NoError(t, err)
	assert.True(t, days[time.Monday])
	assert.True(t, days[time.Thursday])
	assert.False(t, days[time.Sunday])

	days, err = ParseContinuousDays("7")
	require.NoError(t, err)
	assert.True(t, days[time.Sunday])

	days, err = ParseContinuousDays("")
	require.NoError(t, err)
	assert.Empty(t, days)

	_, err = ParseContinuousDays("8")
	require.Error(t, err)

	_, err = ParseContinuousDays("abc")
	require.Error(t, err)
}

func TestLoadConfigFallsBackToConfiguredContinuousDays(t *testing.T) {
	repo := &holidayRepoMock{holidays: []models.Holiday{
		{ID: 1, Date: time.Date(2024, 12, 25, 0, 0, 0, 0, time.UTC), Name: "Christmas", IsRecurring: true},
		{ID: 2, Date: time.Date(2024, 5, 8, 0, 0, 0, 0, time.UTC), Name: "Victory Day"},
	}}
	settings := &settingsRepoMock{err: sql.ErrNoRows}
	svc := NewCalendarService(repo, settings, nil, nil, nil, "3")

	cfg, err := svc.LoadConfig(context.Background(), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "Christmas", cfg.RecurringHolidays["12-25"])
	assert.Equal(t, "Victory Day", cfg.Holidays["2024-05-08"])
	assert.True(t, cfg.ContinuousDays[time.Wednesday])
}

func TestLoadConfigPrefersStoredContinuousDays(t *testing.T) {
	settings := &settingsRepoMock{params: &models.AttendanceParams{ContinuousDays: "6,7"}}
	svc := NewCalendarService(&holidayRepoMock{}, settings, nil, nil, nil, "1")

	cfg, err := svc.LoadConfig(context.Background(), time.Now(), time.Now())
	require.NoError(t, err)
	assert.True(t, cfg.ContinuousDays[time.Saturday])
	assert.True(t, cfg.ContinuousDays[time.Sunday])
	assert.False(t, cfg.ContinuousDays[time.Monday])
}

func TestCreateHolidayRejectsDuplicateDate(t *testing.T) {
	repo := &holidayRepoMock{existing: true}
	svc := NewCalendarService(repo, nil, nil, nil, nil, "")

	_, err := svc.CreateHoliday(context.Background(), dto.HolidayRequest{
		Date: "2024-12-25",
		Name: "Christmas",
		Type: "NATIONAL",
	}, "admin")
	require.Error(t, err)
	assert.Nil(t, repo.created)
}

func TestCreateHolidaySetsCreator(t *testing.T) {
	repo := &holidayRepoMock{}
	svc := NewCalendarService(repo, nil, nil, nil, nil, "")

	holiday, err := svc.CreateHoliday(context.Background(), dto.HolidayRequest{
		Date:        "2024-07-14",
		Name:        "National Day",
		IsRecurring: true,
		Type:        "NATIONAL",
	}, "admin")
	require.NoError(t, err)
	require.NotNil(t, holiday.CreatedBy)
	assert.Equal(t, "admin", *holiday.CreatedBy)
	assert.Equal(t, int64(1), holiday.ID)
}
