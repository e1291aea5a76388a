package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/senator-investech/access-api/internal/models"
)

func newAccessLogMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func accessEventRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "badge_number", "first_name", "last_name", "event_date", "event_time", "event_type", "reader", "group_name"})
}

func TestQueryAcceptedEvents(t *testing.T) {
	db, mock, cleanup := newAccessLogMock(t)
	defer cleanup()
	repo := NewAccessLogRepository(db)

	day := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	rows := accessEventRows().
		AddRow(1, "1001", "Ada", "Martin", day, day.Add(9*time.Hour), models.EventTypeAccepted, "HQ-Entrance", "Staff")

	mock.ExpectQuery("SELECT .+ FROM access_events a WHERE a.event_date >= .+ AND a.event_type = .+ ORDER BY a.badge_number, a.event_date, a.event_time").
		WithArgs("2024-03-04", "2024-03-04", models.EventTypeAccepted).
		WillReturnRows(rows)

	events, err := repo.QueryAcceptedEvents(context.Background(), day, day, models.EventFilter{})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "1001", events[0].Badge)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryAcceptedEventsDepartmentFilter(t *testing.T) {
	db, mock, cleanup := newAccessLogMock(t)
	defer cleanup()
	repo := NewAccessLogRepository(db)

	day := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("EXISTS (SELECT 1 FROM employees emp WHERE emp.badge_number = a.badge_number AND emp.department = $4)")).
		WithArgs("2024-03-04", "2024-03-04", models.EventTypeAccepted, "Finance").
		WillReturnRows(accessEventRows())

	_, err := repo.QueryAcceptedEvents(context.Background(), day, day, models.EventFilter{Department: "Finance"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryAnomalousEventsExcludesAccepted(t *testing.T) {
	db, mock, cleanup := newAccessLogMock(t)
	defer cleanup()
	repo := NewAccessLogRepository(db)

	day := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	rows := accessEventRows().
		AddRow(2, "1002", "Jo", "Rey", day, day.Add(8*time.Hour), "user_rejected", "HQ-Back", "Visitors")

	mock.ExpectQuery("a.event_type <> .+ ORDER BY a.event_date DESC, a.event_time DESC").
		WithArgs("2024-03-04", "2024-03-04", models.EventTypeAccepted).
		WillReturnRows(rows)

	events, err := repo.QueryAnomalousEvents(context.Background(), day, day, models.EventFilter{})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "user_rejected", events[0].EventType)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountAnomaliesByReaderDefaultLimit(t *testing.T) {
	db, mock, cleanup := newAccessLogMock(t)
	defer cleanup()
	repo := NewAccessLogRepository(db)

	day := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"reader", "count"}).AddRow("HQ-Back", 7)
	mock.ExpectQuery("GROUP BY reader ORDER BY count DESC LIMIT").
		WithArgs("2024-03-04", "2024-03-04", models.EventTypeAccepted, 10).
		WillReturnRows(rows)

	counts, err := repo.CountAnomaliesByReader(context.Background(), day, day, 0)
	require.NoError(t, err)
	require.Len(t, counts, 1)
	assert.Equal(t, 7, counts[0].Count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMaxEventDate(t *testing.T) {
	db, mock, cleanup := newAccessLogMock(t)
	defer cleanup()
	repo := NewAccessLogRepository(db)

	rows := sqlmock.NewRows([]string{"max"}).AddRow("2024-03-08")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT MAX(event_date) FROM access_events")).WillReturnRows(rows)

	ts, err := repo.MaxEventDate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC), ts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMaxEventDateEmptyLog(t *testing.T) {
	db, mock, cleanup := newAccessLogMock(t)
	defer cleanup()
	repo := NewAccessLogRepository(db)

	rows := sqlmock.NewRows([]string{"max"}).AddRow(nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT MAX(event_date) FROM access_events")).WillReturnRows(rows)

	_, err := repo.MaxEventDate(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertEvent(t *testing.T) {
	db, mock, cleanup := newAccessLogMock(t)
	defer cleanup()
	repo := NewAccessLogRepository(db)

	mock.ExpectExec("INSERT INTO access_events").WillReturnResult(sqlmock.NewResult(1, 1))

	day := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	err := repo.InsertEvent(context.Background(), &models.AccessEvent{
		Badge:     "1001",
		FirstName: "Ada",
		LastName:  "Martin",
		EventDate: day,
		EventTime: day.Add(9 * time.Hour),
		EventType: models.EventTypeAccepted,
		Reader:    "HQ-Entrance",
		GroupName: "Staff",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
