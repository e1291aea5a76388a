package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/senator-investech/access-api/internal/models"
)

func newCalendarMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func holidayRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "holiday_date", "name", "description", "is_recurring", "holiday_type", "created_by", "created_at", "updated_at"})
}

func TestListHolidaysYearFilterIncludesRecurring(t *testing.T) {
	db, mock, cleanup := newCalendarMock(t)
	defer cleanup()
	repo := NewCalendarRepository(db)

	now := time.Now()
	rows := holidayRows().
		AddRow(1, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "New Year", nil, true, "NATIONAL", "u1", now, now).
		AddRow(2, time.Date(2024, 5, 8, 0, 0, 0, 0, time.UTC), "Victory Day", nil, false, "NATIONAL", "u1", now, now)

	mock.ExpectQuery(regexp.QuoteMeta("(EXTRACT(YEAR FROM holiday_date) = $1 OR is_recurring)")).
		WithArgs(2024).
		WillReturnRows(rows)

	holidays, err := repo.List(context.Background(), models.HolidayFilter{Year: 2024})
	require.NoError(t, err)
	require.Len(t, holidays, 2)
	assert.True(t, holidays[0].IsRecurring)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHolidayExistsOnDate(t *testing.T) {
	db, mock, cleanup := newCalendarMock(t)
	defer cleanup()
	repo := NewCalendarRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM holidays WHERE holiday_date = $1 LIMIT 1")).
		WithArgs("2024-12-25").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.ExistsOnDate(context.Background(), time.Date(2024, 12, 25, 0, 0, 0, 0, time.UTC), 0)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHolidayExistsOnDateExcludesSelf(t *testing.T) {
	db, mock, cleanup := newCalendarMock(t)
	defer cleanup()
	repo := NewCalendarRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM holidays WHERE holiday_date = $1 AND id <> $2 LIMIT 1")).
		WithArgs("2024-12-25", int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	exists, err := repo.ExistsOnDate(context.Background(), time.Date(2024, 12, 25, 0, 0, 0, 0, time.UTC), 7)
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateHolidayReturnsID(t *testing.T) {
	db, mock, cleanup := newCalendarMock(t)
	defer cleanup()
	repo := NewCalendarRepository(db)

	mock.ExpectQuery("INSERT INTO holidays").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

	createdBy := "u1"
	holiday := &models.Holiday{
		Date:        time.Date(2024, 7, 14, 0, 0, 0, 0, time.UTC),
		Name:        "National Day",
		IsRecurring: true,
		Type:        models.HolidayTypeNational,
		CreatedBy:   &createdBy,
	}
	require.NoError(t, repo.Create(context.Background(), holiday))
	assert.Equal(t, int64(42), holiday.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteHoliday(t *testing.T) {
	db, mock, cleanup := newCalendarMock(t)
	defer cleanup()
	repo := NewCalendarRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM holidays WHERE id = $1")).
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), int64(3)))
	assert.NoError(t, mock.ExpectationsWereMet())
}
